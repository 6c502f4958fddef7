package catalog

import (
	"net/url"
	"sort"
	"strings"

	catalogEntity "shophub/model/entity/catalog"
)

const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNewest    = "newest"
	SortPopular   = "popular"
)

// SortOptions in display order.
var SortOptions = []struct{ Value, Label string }{
	{"", "Sort by"},
	{SortPriceLow, "Price: Low to High"},
	{SortPriceHigh, "Price: High to Low"},
	{SortNewest, "Newest"},
	{SortPopular, "Most Popular"},
}

// Filter is the storefront's search, category and sort controls.
type Filter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Sort     string `query:"sort"`
}

// FilterFromQuery reads a Filter from URL params. collection aliases category.
func FilterFromQuery(v url.Values) Filter {
	f := Filter{
		Search:   strings.TrimSpace(v.Get("search")),
		Category: v.Get("category"),
		Sort:     v.Get("sort"),
	}
	if f.Category == "" {
		f.Category = v.Get("collection")
	}
	if !validSort(f.Sort) {
		f.Sort = ""
	}
	return f
}

func validSort(s string) bool {
	for _, o := range SortOptions {
		if o.Value == s {
			return true
		}
	}
	return false
}

func (f Filter) Active() bool {
	return f.Search != "" || f.Category != "" || f.Sort != ""
}

// Params are forwarded to GET /api/products.
func (f Filter) Params() []string {
	return []string{"search", f.Search, "categoryId", f.Category, "sort", f.Sort}
}

// Apply filters and sorts products locally. Results stay correct when the
// backend ignores the request params.
func (f Filter) Apply(products []catalogEntity.Product) []catalogEntity.Product {
	out := make([]catalogEntity.Product, 0, len(products))
	needle := strings.ToLower(f.Search)
	for _, p := range products {
		if f.Category != "" && !p.InCategory(f.Category) {
			continue
		}
		if needle != "" && !matches(p, needle) {
			continue
		}
		out = append(out, p)
	}
	SortProducts(out, f.Sort)
	return out
}

func matches(p catalogEntity.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.SKU), needle) ||
		strings.Contains(strings.ToLower(p.DescriptionText()), needle)
}

// SortProducts orders in place. An unknown key keeps backend order.
func SortProducts(ps []catalogEntity.Product, key string) {
	var less func(a, b catalogEntity.Product) bool
	switch key {
	case SortPriceLow:
		less = func(a, b catalogEntity.Product) bool { return a.EffectivePrice().LessThan(b.EffectivePrice()) }
	case SortPriceHigh:
		less = func(a, b catalogEntity.Product) bool { return a.EffectivePrice().GreaterThan(b.EffectivePrice()) }
	case SortNewest:
		less = func(a, b catalogEntity.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortPopular:
		less = func(a, b catalogEntity.Product) bool {
			if a.Featured != b.Featured {
				return a.Featured
			}
			return a.Name < b.Name
		}
	default:
		return
	}
	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}
