package cron

import (
	"context"
	"time"

	"shophub/service"
)

const (
	JobOrderReconcile = "orderreconcile"
	JobCartSweep      = "cartsweep"
	JobCatalogIndex   = "catalogindex"

	reconcileBatch = 50
	checkoutMaxAge = 2 * time.Hour
)

// RegisterJobs registers the storefront's background jobs against svc.
// The catalog index job is only registered when a search index is set up.
func RegisterJobs(svc *service.Container) {
	if svc.Outbox != nil {
		Register(JobOrderReconcile, "@every 1m", func(...string) {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
			defer cancel()
			recorded, failed, err := svc.Orders.Reconcile(ctx, reconcileBatch)
			entry := svc.Log.WithField("job", JobOrderReconcile).WithField("recorded", recorded).WithField("failed", failed)
			if err != nil {
				entry.WithError(err).Error("order reconcile failed")
				return
			}
			if recorded+failed > 0 {
				entry.Info("order reconcile")
			}
		})
	}

	Register(JobCartSweep, "@every 10m", func(...string) {
		carts := svc.Carts.Sweep()
		visits := svc.Checkout.Sweep(checkoutMaxAge)
		if carts+visits > 0 {
			svc.Log.WithField("job", JobCartSweep).WithField("carts", carts).WithField("checkouts", visits).Info("swept idle sessions")
		}
	})

	if svc.Search != nil {
		Register(JobCatalogIndex, "@every 15m", func(...string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			n, err := svc.Catalog.IndexCatalog(ctx, svc.Search)
			if err != nil {
				svc.Log.WithField("job", JobCatalogIndex).WithError(err).Error("catalog index failed")
				return
			}
			svc.Log.WithField("job", JobCatalogIndex).WithField("products", n).Info("catalog indexed")
		})
	}
}
