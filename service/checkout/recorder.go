package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shophub/core/client"
	outboxEntity "shophub/model/entity/outbox"
	"shophub/model/entity/sales"
	outboxRepo "shophub/model/repository/outbox"
)

const (
	OrdersPath = "/api/orders"
	StatsPath  = "/api/stats"
)

// ErrOrderDeferred means payment succeeded but the order now waits in the
// outbox for the reconcile job.
var ErrOrderDeferred = errors.New("order recording deferred")

// MaxReconcileAttempts caps posts per outbox row before it is marked failed.
const MaxReconcileAttempts = 20

var orderNamespace = uuid.MustParse("1b671a64-40d5-491e-99b0-da01ff1f3341")

// IdempotencyKey is stable per payment intent so every retry of an order
// post maps to one backend order.
func IdempotencyKey(paymentIntentID string) string {
	return uuid.NewSHA1(orderNamespace, []byte(paymentIntentID)).String()
}

// Recorder posts orders with retries and falls back to the outbox.
type Recorder struct {
	api      *client.Client
	outbox   *outboxRepo.OutboxRepository
	attempts int
	backoff  time.Duration
	log      logrus.FieldLogger
}

func NewRecorder(api *client.Client, outbox *outboxRepo.OutboxRepository, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{api: api, outbox: outbox, attempts: 3, backoff: 500 * time.Millisecond, log: log}
}

// WithRetry overrides attempts and the base backoff.
func (r *Recorder) WithRetry(attempts int, backoff time.Duration) *Recorder {
	if attempts < 1 {
		attempts = 1
	}
	r.attempts = attempts
	r.backoff = backoff
	return r
}

// Record posts order. It returns nil once the backend has it, ErrOrderDeferred
// when it was queued in the outbox, or the outbox failure.
func (r *Recorder) Record(ctx context.Context, order sales.CreateOrder, paymentIntentID string) error {
	key := IdempotencyKey(paymentIntentID)
	log := r.log.WithFields(logrus.Fields{"payment_intent": paymentIntentID, "idempotency_key": key})

	var lastErr error
	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, r.backoff<<(i-1)); err != nil {
				lastErr = err
				break
			}
		}
		lastErr = r.post(ctx, key, order)
		if lastErr == nil {
			log.WithField("order_number", order.Order.OrderNumber).Info("order recorded")
			return nil
		}
		if !retryable(lastErr) {
			break
		}
		log.WithError(lastErr).WithField("attempt", i+1).Warn("order post failed")
	}

	if r.outbox == nil {
		return fmt.Errorf("record order %s: %w", order.Order.OrderNumber, lastErr)
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	row := &outboxEntity.PendingOrder{
		IdempotencyKey:  key,
		PaymentIntentID: paymentIntentID,
		Payload:         payload,
		Attempts:        r.attempts,
		LastError:       lastErr.Error(),
	}
	// a rejected body will not succeed on replay; keep it for an operator
	rejected := !retryable(lastErr)
	if rejected {
		row.Status = outboxEntity.StatusFailed
	}
	if err := r.outbox.Save(row); err != nil {
		log.WithError(err).Error("order outbox write failed")
		return fmt.Errorf("queue order %s: %w", order.Order.OrderNumber, err)
	}
	if rejected {
		log.WithError(lastErr).Error("order rejected by backend, kept in outbox as failed")
	} else {
		log.WithError(lastErr).Warn("order queued for reconcile")
	}
	return ErrOrderDeferred
}

func (r *Recorder) post(ctx context.Context, key string, order sales.CreateOrder) error {
	ctx = client.WithIdempotencyKey(ctx, key)
	err := r.api.Mutate(ctx, http.MethodPost, OrdersPath, order, nil, OrdersPath, StatsPath)
	if client.StatusOf(err) == http.StatusConflict {
		// the backend already holds this key
		return nil
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryable is true for transport failures, 5xx, 408 and 429.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	s := client.StatusOf(err)
	return s == 0 || s >= 500 || s == http.StatusRequestTimeout || s == http.StatusTooManyRequests
}

// Reconcile re-posts up to limit outbox rows with their original keys. Rows
// the backend rejects, or that reach MaxReconcileAttempts, are marked failed.
func (r *Recorder) Reconcile(ctx context.Context, limit int) (recorded, failed int, err error) {
	if r.outbox == nil {
		return 0, 0, nil
	}
	rows, err := r.outbox.ListPending(limit)
	if err != nil {
		return 0, 0, fmt.Errorf("list outbox: %w", err)
	}
	for _, row := range rows {
		if ctx.Err() != nil {
			return recorded, failed, ctx.Err()
		}
		log := r.log.WithFields(logrus.Fields{"outbox_id": row.ID, "payment_intent": row.PaymentIntentID})
		var order sales.CreateOrder
		if err := json.Unmarshal(row.Payload, &order); err != nil {
			failed++
			r.fail(log, row.ID, "decode payload: "+err.Error())
			continue
		}
		if err := r.post(ctx, row.IdempotencyKey, order); err != nil {
			failed++
			if !retryable(err) || row.Attempts+1 >= MaxReconcileAttempts {
				r.fail(log, row.ID, err.Error())
				continue
			}
			if mErr := r.outbox.MarkAttempt(row.ID, err.Error()); mErr != nil {
				log.WithError(mErr).Error("outbox update failed")
			}
			continue
		}
		if err := r.outbox.MarkRecorded(row.ID); err != nil {
			log.WithError(err).Error("outbox update failed")
		}
		recorded++
	}
	return recorded, failed, nil
}

func (r *Recorder) fail(log logrus.FieldLogger, id uint, reason string) {
	log.WithField("reason", reason).Error("outbox order failed permanently")
	if err := r.outbox.MarkFailed(id, reason); err != nil {
		log.WithError(err).Error("outbox update failed")
	}
}
