package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// OrderStatuses is the closed set accepted by PUT /api/orders/{id}/status.
var OrderStatuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled}

func ValidStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID                    string          `json:"id,omitempty"`
	OrderNumber           string          `json:"orderNumber"`
	CustomerEmail         string          `json:"customerEmail"`
	CustomerName          string          `json:"customerName"`
	CustomerPhone         *string         `json:"customerPhone"`
	ShippingAddress       string          `json:"shippingAddress"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Shipping              decimal.Decimal `json:"shipping"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
	Status                string          `json:"status"`
	StripePaymentIntentID *string         `json:"stripePaymentIntentId"`
	CreatedAt             *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt             *time.Time      `json:"updatedAt,omitempty"`
}

// OrderItem snapshots the product at purchase time.
type OrderItem struct {
	ID          string          `json:"id,omitempty"`
	OrderID     string          `json:"orderId,omitempty"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSKU  string          `json:"productSku"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// CreateOrder is the POST /api/orders body.
type CreateOrder struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// OrderList is the GET /api/orders envelope.
type OrderList struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}
