// Package service wires the storefront services into one container that
// routes, GraphQL resolvers, cron jobs and commands share.
package service

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shophub/config"
	"shophub/core/cache"
	"shophub/core/client"
	"shophub/core/flash"
	"shophub/core/session"
	outboxRepo "shophub/model/repository/outbox"
	"shophub/service/admin"
	"shophub/service/cart"
	"shophub/service/catalog"
	"shophub/service/checkout"
)

type Container struct {
	Config   *config.Config
	Log      *logrus.Logger
	API      *client.Client
	Media    *cache.Cache
	Carts    *cart.Store
	Catalog  *catalog.Service
	Search   *catalog.SearchIndex
	Checkout *checkout.Flow
	Orders   *checkout.Recorder
	Admin    *admin.Service
	Session  *session.Codec
	Flash    *flash.Codec
	Outbox   *outboxRepo.OutboxRepository
}

// Options carries optional backends. Zero values fall back to in-process
// defaults: memory cache, no outbox.
type Options struct {
	DB         *gorm.DB
	Store      cache.Store
	HTTPClient *http.Client
}

func New(cfg *config.Config, log *logrus.Logger, opts Options) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Media: cache.NewCache()}

	store := opts.Store
	if store == nil {
		store = cache.GetInstance()
	}
	c.API = client.New(client.Options{
		BaseURL:    cfg.APIURL,
		Token:      cfg.APIToken,
		StaleTime:  cfg.QueryStaleTime,
		RetryDelay: cfg.QueryRetryDelay,
		HTTPClient: opts.HTTPClient,
		Store:      store,
		Logger:     log.WithField("component", "api"),
	})

	if opts.DB != nil {
		c.Outbox = outboxRepo.NewOutboxRepository(opts.DB)
		if err := c.Outbox.Migrate(); err != nil {
			return nil, err
		}
	}

	if cfg.ElasticsearchHost != "" {
		idx, err := catalog.NewSearchIndex(cfg.ElasticsearchHost, cfg.ElasticsearchIndex)
		if err != nil {
			log.WithError(err).Warn("elasticsearch disabled")
		} else {
			c.Search = idx
		}
	}
	var searcher catalog.Searcher
	if c.Search != nil {
		searcher = c.Search
	}

	pricing := cart.Pricing{
		FreeShippingOver: cfg.FreeShippingOver,
		ShippingFee:      cfg.ShippingFee,
		TaxRate:          cfg.TaxRate,
	}
	c.Carts = cart.NewStore(pricing, cart.DefaultIdleTTL)
	c.Catalog = catalog.NewService(c.API, searcher, log.WithField("component", "catalog"))
	c.Orders = checkout.NewRecorder(c.API, c.Outbox, log.WithField("component", "orders"))
	c.Checkout = checkout.NewFlow(c.API, cfg.StripePublicKey, c.Orders, log.WithField("component", "checkout"))
	c.Admin = admin.NewService(c.API, log.WithField("component", "admin"))

	secure := cfg.Env == "production"
	c.Session = session.New(cfg.SessionSecret, secure)
	c.Flash = flash.NewCodec(cfg.SessionSecret, secure)
	return c, nil
}
