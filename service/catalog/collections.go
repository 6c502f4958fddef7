package catalog

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	catalogEntity "shophub/model/entity/catalog"
)

// Collection is a category presented as a browsable collection.
type Collection struct {
	ID           string
	Name         string
	Description  string
	Image        string
	ProductCount int
	Featured     bool
}

const featuredCollections = 3

// Collections groups the catalog by category. The three largest are featured.
func (s *Service) Collections(ctx context.Context) ([]Collection, error) {
	var (
		cats     []catalogEntity.Category
		products []catalogEntity.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cats, err = s.Categories(gctx)
		return
	})
	g.Go(func() (err error) {
		products, err = s.All(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return BuildCollections(cats, products), nil
}

func BuildCollections(cats []catalogEntity.Category, products []catalogEntity.Product) []Collection {
	out := make([]Collection, 0, len(cats))
	for _, c := range cats {
		col := Collection{ID: c.ID, Name: c.Name, Image: PlaceholderImage}
		if c.Description != nil {
			col.Description = *c.Description
		}
		cover := false
		for _, p := range products {
			if !p.InCategory(c.ID) {
				continue
			}
			col.ProductCount++
			if !cover && len(p.Images) > 0 && p.Images[0] != "" {
				col.Image = p.Images[0]
				cover = true
			}
		}
		out = append(out, col)
	}

	rank := make([]int, len(out))
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(a, b int) bool { return out[rank[a]].ProductCount > out[rank[b]].ProductCount })
	for i := 0; i < len(rank) && i < featuredCollections; i++ {
		if out[rank[i]].ProductCount > 0 {
			out[rank[i]].Featured = true
		}
	}
	return out
}
