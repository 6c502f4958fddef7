package admin

import (
	"strings"

	"github.com/shopspring/decimal"

	"shophub/core/money"
	"shophub/core/validation"
	catalogEntity "shophub/model/entity/catalog"
)

// ProductForm backs both the create and the edit screen.
type ProductForm struct {
	Name        string `form:"name" validate:"required"`
	SKU         string `form:"sku" validate:"required"`
	Description string `form:"description"`
	Price       string `form:"price" validate:"required"`
	SalePrice   string `form:"salePrice"`
	Stock       int    `form:"stock" validate:"min=0"`
	MinStock    int    `form:"minStock" validate:"min=0"`
	CategoryID  string `form:"categoryId"`
	Status      string `form:"status" validate:"required,oneof=active draft archived"`
	Images      string `form:"images"`
}

// NewProductForm returns the blank create form.
func NewProductForm() ProductForm {
	return ProductForm{Status: catalogEntity.StatusActive}
}

// FormFromProduct pre-fills the edit form.
func FormFromProduct(p catalogEntity.Product) ProductForm {
	f := ProductForm{
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.DescriptionText(),
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		Status:      p.Status,
		Images:      strings.Join(p.Images, "\n"),
	}
	if p.SalePrice.Valid {
		f.SalePrice = p.SalePrice.Decimal.StringFixed(2)
	}
	if p.CategoryID != nil {
		f.CategoryID = *p.CategoryID
	}
	if f.Status == "" {
		f.Status = catalogEntity.StatusActive
	}
	return f
}

// ProductPayload is the body of POST and PUT /api/products.
type ProductPayload struct {
	Name        string              `json:"name"`
	SKU         string              `json:"sku"`
	Description *string             `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	Stock       int                 `json:"stock"`
	MinStock    int                 `json:"minStock"`
	CategoryID  *string             `json:"categoryId"`
	Status      string              `json:"status"`
	Images      []string            `json:"images"`
}

// Payload validates the form and converts it for the API.
func (f ProductForm) Payload() (ProductPayload, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.SKU = strings.TrimSpace(f.SKU)
	if err := validation.Struct(&f); err != nil {
		return ProductPayload{}, err
	}
	errs := validation.FieldErrors{}
	p := ProductPayload{
		Name:     f.Name,
		SKU:      f.SKU,
		Stock:    f.Stock,
		MinStock: f.MinStock,
		Status:   f.Status,
		Images:   splitImages(f.Images),
	}
	price, err := money.Parse(f.Price)
	if err != nil || price.IsNegative() {
		errs["price"] = "Enter a valid price."
	}
	p.Price = price
	if s := strings.TrimSpace(f.SalePrice); s != "" {
		sale, err := money.Parse(s)
		switch {
		case err != nil || sale.IsNegative():
			errs["salePrice"] = "Enter a valid sale price."
		case sale.GreaterThanOrEqual(price):
			errs["salePrice"] = "Sale price must be below the price."
		default:
			p.SalePrice = decimal.NewNullDecimal(sale)
		}
	}
	if len(errs) > 0 {
		return ProductPayload{}, errs
	}
	if d := strings.TrimSpace(f.Description); d != "" {
		p.Description = &d
	}
	if c := strings.TrimSpace(f.CategoryID); c != "" {
		p.CategoryID = &c
	}
	return p, nil
}

func splitImages(s string) []string {
	out := []string{}
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
