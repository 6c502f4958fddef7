package graphql

import (
	gql "github.com/graph-gophers/graphql-go"

	catalogEntity "shophub/model/entity/catalog"
	"shophub/service/catalog"
)

type Product struct {
	ID              gql.ID
	Name            string
	Slug            string
	SKU             string
	Description     *string
	Price           string
	SalePrice       *string
	DisplayPrice    string
	DiscountPercent int32
	Images          []string
	Stock           int32
	MinStock        int32
	LowStock        bool
	Status          string
	Featured        bool
	CategoryID      *string
}

type ProductList struct {
	Items []*Product
	Total int32
}

type Category struct {
	ID          gql.ID
	Name        string
	Slug        string
	Description *string
}

func mapProduct(p catalogEntity.Product) *Product {
	card := catalog.NewCard(p)
	out := &Product{
		ID:              gql.ID(p.ID),
		Name:            p.Name,
		Slug:            p.Slug,
		SKU:             p.SKU,
		Description:     p.Description,
		Price:           p.Price.StringFixed(2),
		DisplayPrice:    card.DisplayPrice.StringFixed(2),
		DiscountPercent: int32(card.DiscountPercent),
		Images:          p.Images,
		Stock:           int32(p.Stock),
		MinStock:        int32(p.MinStock),
		LowStock:        p.LowStock(),
		Status:          p.Status,
		Featured:        p.Featured,
		CategoryID:      p.CategoryID,
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if p.SalePrice.Valid {
		s := p.SalePrice.Decimal.StringFixed(2)
		out.SalePrice = &s
	}
	return out
}

func mapCategory(c catalogEntity.Category) *Category {
	return &Category{ID: gql.ID(c.ID), Name: c.Name, Slug: c.Slug, Description: c.Description}
}
