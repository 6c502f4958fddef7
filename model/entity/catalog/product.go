package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusDraft    = "draft"
	StatusArchived = "archived"
	StatusNew      = "new"
)

// Statuses lists the values the admin form offers.
var Statuses = []string{StatusActive, StatusDraft, StatusArchived}

// Product as served by GET /api/products. Prices travel as decimal strings.
type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description *string             `json:"description"`
	SKU         string              `json:"sku"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	CategoryID  *string             `json:"categoryId"`
	Images      []string            `json:"images"`
	Stock       int                 `json:"stock"`
	MinStock    int                 `json:"minStock"`
	Status      string              `json:"status"`
	Featured    bool                `json:"featured"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// EffectivePrice is the sale price when one is set.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// LowStock reports 0 < stock <= minStock.
func (p Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= p.MinStock
}

func (p Product) InCategory(id string) bool {
	return p.CategoryID != nil && *p.CategoryID == id
}

func (p Product) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// ProductList is the GET /api/products envelope.
type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}
