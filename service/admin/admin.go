// Package admin backs the dashboard, product, order and inventory screens.
// Every change is a mutation followed by cache invalidation; nothing is
// patched locally.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"shophub/core/client"
	catalogEntity "shophub/model/entity/catalog"
	"shophub/model/entity/sales"
)

const (
	ProductsPath = "/api/products"
	OrdersPath   = "/api/orders"
	StatsPath    = "/api/stats"

	recentOrders = 5
)

type Service struct {
	api *client.Client
	log logrus.FieldLogger
}

func NewService(api *client.Client, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{api: api, log: log}
}

type Dashboard struct {
	Stats  sales.Stats
	Recent []sales.Order
}

// Dashboard loads stats and recent orders concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats, err = s.Stats(gctx)
		return
	})
	g.Go(func() error {
		list, err := s.Orders(gctx)
		if err != nil {
			return err
		}
		d.Recent = list.Orders
		if len(d.Recent) > recentOrders {
			d.Recent = d.Recent[:recentOrders]
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// Stats accepts numbers or numeric strings for every field.
func (s *Service) Stats(ctx context.Context) (sales.Stats, error) {
	var raw map[string]interface{}
	var out sales.Stats
	if err := s.api.Query(ctx, client.K(StatsPath), &raw); err != nil {
		return out, err
	}
	if err := DecodeStats(raw, &out); err != nil {
		return out, fmt.Errorf("decode stats: %w", err)
	}
	return out, nil
}

func DecodeStats(raw map[string]interface{}, out *sales.Stats) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       decimalHook,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		if v == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case int:
		return decimal.NewFromInt(int64(v)), nil
	}
	return data, nil
}

func (s *Service) Products(ctx context.Context) (catalogEntity.ProductList, error) {
	var list catalogEntity.ProductList
	err := s.api.Query(ctx, client.K(ProductsPath), &list)
	return list, err
}

// Product finds id in the product list the admin screens already read.
func (s *Service) Product(ctx context.Context, id string) (*catalogEntity.Product, error) {
	list, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list.Products {
		if list.Products[i].ID == id {
			return &list.Products[i], nil
		}
	}
	return nil, &client.Error{Status: http.StatusNotFound, Message: "Product not found"}
}

func (s *Service) Orders(ctx context.Context) (sales.OrderList, error) {
	var list sales.OrderList
	err := s.api.Query(ctx, client.K(OrdersPath), &list)
	return list, err
}

func (s *Service) CreateProduct(ctx context.Context, f ProductForm) error {
	p, err := f.Payload()
	if err != nil {
		return err
	}
	return s.api.Mutate(ctx, http.MethodPost, ProductsPath, p, nil, ProductsPath, StatsPath)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, f ProductForm) error {
	p, err := f.Payload()
	if err != nil {
		return err
	}
	return s.api.Mutate(ctx, http.MethodPut, ProductsPath+"/"+url.PathEscape(id), p, nil, ProductsPath, StatsPath)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.api.Mutate(ctx, http.MethodDelete, ProductsPath+"/"+url.PathEscape(id), nil, nil, ProductsPath, StatsPath)
}

// ErrInvalidStatus rejects values outside sales.OrderStatuses.
var ErrInvalidStatus = errors.New("invalid order status")

func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) error {
	if !sales.ValidStatus(status) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	body := map[string]string{"status": status}
	return s.api.Mutate(ctx, http.MethodPut, OrdersPath+"/"+url.PathEscape(id)+"/status", body, nil, OrdersPath, StatsPath)
}
