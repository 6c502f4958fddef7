package cart

import "github.com/shopspring/decimal"

// Pricing is the one place cart and checkout totals come from.
type Pricing struct {
	FreeShippingOver decimal.Decimal
	ShippingFee      decimal.Decimal
	TaxRate          decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingOver: decimal.NewFromInt(50),
		ShippingFee:      decimal.RequireFromString("9.99"),
		TaxRate:          decimal.Zero,
	}
}

type Quote struct {
	Count    int
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func (p Pricing) Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Shipping is free strictly above the threshold.
func (p Pricing) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.FreeShippingOver) {
		return decimal.Zero
	}
	return p.ShippingFee
}

func (p Pricing) Quote(items []Item) Quote {
	q := Quote{Subtotal: p.Subtotal(items)}
	for _, it := range items {
		q.Count += it.Quantity
	}
	q.Shipping = p.Shipping(q.Subtotal)
	q.Tax = q.Subtotal.Mul(p.TaxRate).Round(2)
	q.Total = q.Subtotal.Add(q.Shipping).Add(q.Tax)
	return q
}
