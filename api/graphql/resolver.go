package graphql

import (
	"context"
	"errors"

	gql "github.com/graph-gophers/graphql-go"

	"shophub/service/catalog"
)

// RootResolver resolves Query fields through the catalog service, so reads
// share its query cache and filtering.
type RootResolver struct {
	catalog *catalog.Service
}

type ProductsArgs struct {
	Search     *string
	CategoryID *string
	Sort       *string
}

func (r *RootResolver) Products(ctx context.Context, args ProductsArgs) (*ProductList, error) {
	f := catalog.Filter{Search: str(args.Search), Category: str(args.CategoryID), Sort: str(args.Sort)}
	ps, err := r.catalog.Products(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &ProductList{Items: make([]*Product, 0, len(ps)), Total: int32(len(ps))}
	for _, p := range ps {
		out.Items = append(out.Items, mapProduct(p))
	}
	return out, nil
}

func (r *RootResolver) Product(ctx context.Context, args struct{ ID gql.ID }) (*Product, error) {
	p, err := r.catalog.Product(ctx, string(args.ID))
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapProduct(*p), nil
}

func (r *RootResolver) Categories(ctx context.Context) ([]*Category, error) {
	cats, err := r.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Category, 0, len(cats))
	for _, c := range cats {
		out = append(out, mapCategory(c))
	}
	return out, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
