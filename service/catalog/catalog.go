// Package catalog loads the storefront's products and categories through
// the API client and shapes them for views.
package catalog

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"shophub/core/client"
	catalogEntity "shophub/model/entity/catalog"
)

const (
	ProductsPath   = "/api/products"
	CategoriesPath = "/api/categories"
)

// EmptyMessage replaces the grid when no product matches.
const EmptyMessage = "No products found. Try adjusting your search or filters."

// Searcher returns product ids matching text, best first.
type Searcher interface {
	Search(ctx context.Context, text string, categoryID string) ([]string, error)
}

type Service struct {
	api    *client.Client
	search Searcher
	log    logrus.FieldLogger
}

// NewService wires the catalog. search may be nil.
func NewService(api *client.Client, search Searcher, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{api: api, search: search, log: log}
}

// Page is what the catalog view renders.
type Page struct {
	Filter     Filter
	Products   []catalogEntity.Product
	Categories []catalogEntity.Category
	Total      int
}

func (p *Page) Empty() bool { return len(p.Products) == 0 }

func (p *Page) CategoryName(id string) string {
	for _, c := range p.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// Load fetches products and categories concurrently. Either failure fails
// the page.
func (s *Service) Load(ctx context.Context, f Filter) (*Page, error) {
	page := &Page{Filter: f}
	var list catalogEntity.ProductList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.fetch(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		page.Categories, err = s.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	page.Products = list.Products
	page.Total = list.Total
	if f.Active() {
		page.Products = s.filter(ctx, f, list.Products)
		page.Total = len(page.Products)
	}
	return page, nil
}

// Products returns the filtered product list.
func (s *Service) Products(ctx context.Context, f Filter) ([]catalogEntity.Product, error) {
	list, err := s.fetch(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, f, list.Products), nil
}

// All returns every product, unfiltered.
func (s *Service) All(ctx context.Context) ([]catalogEntity.Product, error) {
	list, err := s.fetch(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return list.Products, nil
}

// ErrNotFound is returned by Product for ids missing from the catalog.
var ErrNotFound = errors.New("product not found")

// Product looks id up in the cached product list.
func (s *Service) Product(ctx context.Context, id string) (*catalogEntity.Product, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *Service) Categories(ctx context.Context) ([]catalogEntity.Category, error) {
	var cats []catalogEntity.Category
	if err := s.api.Query(ctx, client.K(CategoriesPath), &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (s *Service) fetch(ctx context.Context, f Filter) (catalogEntity.ProductList, error) {
	var list catalogEntity.ProductList
	err := s.api.Query(ctx, client.K(ProductsPath, f.Params()...), &list)
	return list, err
}

func (s *Service) filter(ctx context.Context, f Filter, ps []catalogEntity.Product) []catalogEntity.Product {
	if f.Search == "" || s.search == nil {
		return f.Apply(ps)
	}
	ids, err := s.search.Search(ctx, f.Search, f.Category)
	if err != nil {
		s.log.WithError(err).WithField("search", f.Search).Warn("search index unavailable, filtering locally")
		return f.Apply(ps)
	}
	byID := make(map[string]catalogEntity.Product, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
	}
	ranked := make([]catalogEntity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && (f.Category == "" || p.InCategory(f.Category)) {
			ranked = append(ranked, p)
		}
	}
	SortProducts(ranked, f.Sort)
	return ranked
}
