package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	catalogEntity "shophub/model/entity/catalog"
	"shophub/service/cart"
)

// PlaceholderImage stands in for products without images.
const PlaceholderImage = "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400&h=300&fit=crop"

// Card is the view model behind one product tile.
type Card struct {
	Product         catalogEntity.Product
	DisplayPrice    decimal.Decimal
	OriginalPrice   decimal.Decimal
	OnSale          bool
	DiscountPercent int64
	IsNew           bool
	LowStock        bool
	OutOfStock      bool
	Image           string
	JustAdded       bool
}

func NewCard(p catalogEntity.Product) Card {
	c := Card{
		Product:       p,
		DisplayPrice:  p.EffectivePrice(),
		OriginalPrice: p.Price,
		IsNew:         p.Status == catalogEntity.StatusNew,
		LowStock:      p.LowStock(),
		OutOfStock:    p.Stock <= 0,
		Image:         PlaceholderImage,
	}
	if len(p.Images) > 0 && p.Images[0] != "" {
		c.Image = p.Images[0]
	}
	if p.SalePrice.Valid {
		c.OnSale = true
		c.DiscountPercent = DiscountPercent(p.Price, p.SalePrice.Decimal)
	}
	return c
}

// DiscountPercent is round((price - sale) / price * 100); 0 when price is 0.
func DiscountPercent(price, sale decimal.Decimal) int64 {
	if price.IsZero() {
		return 0
	}
	return price.Sub(sale).Div(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CartItem is the line added by the card's button.
func (c Card) CartItem() cart.Item {
	return cart.Item{
		ID:       c.Product.ID,
		Name:     c.Product.Name,
		Price:    c.DisplayPrice,
		Quantity: 1,
		Image:    c.Image,
		SKU:      c.Product.SKU,
	}
}

// Cards builds cards, marking those the cart just received.
func Cards(ps []catalogEntity.Product, c *cart.Cart, now time.Time) []Card {
	out := make([]Card, len(ps))
	for i, p := range ps {
		out[i] = NewCard(p)
		if c != nil {
			out[i].JustAdded = c.JustAdded(p.ID, now)
		}
	}
	return out
}
