package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	catalogEntity "shophub/model/entity/catalog"
)

// SearchIndex keeps a full-text copy of the catalog in Elasticsearch.
type SearchIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewSearchIndex(host, index string) (*SearchIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{host}})
	if err != nil {
		return nil, err
	}
	return &SearchIndex{es: es, index: index}, nil
}

type indexedProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Status      string `json:"status"`
}

// Search queries name, sku and description, returning ids by relevance.
func (s *SearchIndex) Search(ctx context.Context, text, categoryID string) ([]string, error) {
	boolQuery := map[string]interface{}{
		"must": []map[string]interface{}{
			{
				"multi_match": map[string]interface{}{
					"query":     text,
					"fields":    []string{"name^3", "sku^2", "description"},
					"fuzziness": "AUTO",
				},
			},
		},
	}
	if categoryID != "" {
		boolQuery["filter"] = []map[string]interface{}{
			{"term": map[string]interface{}{"category_id.keyword": categoryID}},
		}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"size":    200,
		"_source": []string{"id"},
		"query":   map[string]interface{}{"bool": boolQuery},
	})

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var esResp struct {
		Hits struct {
			Hits []struct {
				Source indexedProduct `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}

// Reindex writes every product with one bulk request and returns the count.
func (s *SearchIndex) Reindex(ctx context.Context, products []catalogEntity.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": s.index, "_id": p.ID}}
		doc := indexedProduct{ID: p.ID, Name: p.Name, SKU: p.SKU, Description: p.DescriptionText(), Status: p.Status}
		if p.CategoryID != nil {
			doc.CategoryID = *p.CategoryID
		}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(doc); err != nil {
			return 0, err
		}
	}

	req := esapi.BulkRequest{Body: &buf, Refresh: "true"}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch bulk error: %s", res.String())
	}
	var bulk struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Error *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return 0, err
	}
	if bulk.Errors {
		var reasons []string
		for _, it := range bulk.Items {
			for _, op := range it {
				if op.Error != nil {
					reasons = append(reasons, op.Error.Reason)
				}
			}
		}
		return len(products) - len(reasons), fmt.Errorf("elasticsearch bulk: %d failed: %s", len(reasons), strings.Join(reasons, "; "))
	}
	return len(products), nil
}

// IndexCatalog loads the full catalog and reindexes it.
func (s *Service) IndexCatalog(ctx context.Context, idx *SearchIndex) (int, error) {
	products, err := s.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	return idx.Reindex(ctx, products)
}
