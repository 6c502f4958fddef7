package admin

import (
	"context"

	catalogEntity "shophub/model/entity/catalog"
)

type StockLevel string

const (
	OutOfStock StockLevel = "Out of Stock"
	LowStock   StockLevel = "Low Stock"
	InStock    StockLevel = "In Stock"
)

func Classify(p catalogEntity.Product) StockLevel {
	switch {
	case p.Stock <= 0:
		return OutOfStock
	case p.Stock <= p.MinStock:
		return LowStock
	default:
		return InStock
	}
}

type InventoryRow struct {
	Product catalogEntity.Product
	Level   StockLevel
}

type Inventory struct {
	Rows       []InventoryRow
	TotalStock int
	LowStock   int
	OutOfStock int
}

func BuildInventory(ps []catalogEntity.Product) *Inventory {
	inv := &Inventory{Rows: make([]InventoryRow, 0, len(ps))}
	for _, p := range ps {
		lvl := Classify(p)
		inv.Rows = append(inv.Rows, InventoryRow{Product: p, Level: lvl})
		if p.Stock > 0 {
			inv.TotalStock += p.Stock
		}
		switch lvl {
		case LowStock:
			inv.LowStock++
		case OutOfStock:
			inv.OutOfStock++
		}
	}
	return inv
}

func (s *Service) Inventory(ctx context.Context) (*Inventory, error) {
	list, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return BuildInventory(list.Products), nil
}
