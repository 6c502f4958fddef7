package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shophub/core/client"
	"shophub/core/validation"
	outboxEntity "shophub/model/entity/outbox"
	"shophub/model/entity/sales"
	outboxRepo "shophub/model/repository/outbox"
	"shophub/service/cart"
)

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func testOutbox(t *testing.T) *outboxRepo.OutboxRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	repo := outboxRepo.NewOutboxRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

type fakeBackend struct {
	intentStatus int
	intentBody   string
	orderStatus  []int // per call; last repeats
	orderCalls   int32
	lastIntent   map[string]interface{}
	keys         []string
	orders       []sales.CreateOrder
	rawOrders    []map[string]interface{}
}

func (b *fakeBackend) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PaymentIntentPath:
			json.NewDecoder(r.Body).Decode(&b.lastIntent)
			if b.intentStatus != 0 && b.intentStatus != http.StatusOK {
				http.Error(w, "stripe down", b.intentStatus)
				return
			}
			io.WriteString(w, b.intentBody)
		case OrdersPath:
			n := int(atomic.AddInt32(&b.orderCalls, 1))
			b.keys = append(b.keys, r.Header.Get("Idempotency-Key"))
			body, _ := io.ReadAll(r.Body)
			var o sales.CreateOrder
			json.Unmarshal(body, &o)
			b.orders = append(b.orders, o)
			var raw map[string]interface{}
			json.Unmarshal(body, &raw)
			b.rawOrders = append(b.rawOrders, raw)
			status := http.StatusCreated
			if len(b.orderStatus) > 0 {
				i := n - 1
				if i >= len(b.orderStatus) {
					i = len(b.orderStatus) - 1
				}
				status = b.orderStatus[i]
			}
			w.WriteHeader(status)
			io.WriteString(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFlow(t *testing.T, b *fakeBackend, key string, outbox *outboxRepo.OutboxRepository) *Flow {
	srv := b.server(t)
	api := client.New(client.Options{BaseURL: srv.URL, RetryDelay: time.Millisecond, Logger: quietLog()})
	rec := NewRecorder(api, outbox, quietLog()).WithRetry(3, time.Millisecond)
	return NewFlow(api, key, rec, quietLog())
}

func filledCart() *cart.Cart {
	c := cart.New(cart.DefaultPricing())
	c.Add(cart.Item{ID: "a", Name: "Lamp", Price: decimal.NewFromInt(20), Quantity: 2, SKU: "L-1"}, time.Now())
	c.Add(cart.Item{ID: "b", Name: "Mug", Price: decimal.NewFromInt(15), Quantity: 1, SKU: "M-1"}, time.Now())
	return c
}

func validForm() Form {
	return Form{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Address: "1 Analytical St", City: "London", ZipCode: "N1"}
}

// paid is what the widget posts after a card payment went through.
var paid = WidgetResult{Ready: true, PaymentIntentID: "pi_123", RedirectStatus: "succeeded"}

func TestBegin_NotConfigured(t *testing.T) {
	b := &fakeBackend{}
	f := newFlow(t, b, "", nil)
	s := f.Begin(context.Background(), "s1", filledCart())
	if s.State != Failed || s.Message != MsgNotConfigured {
		t.Errorf("session = %+v", s)
	}
	if b.lastIntent != nil {
		t.Error("payment intent must not be requested without a key")
	}
}

func TestBegin_EmptyCart(t *testing.T) {
	f := newFlow(t, &fakeBackend{}, "pk_test", nil)
	s := f.Begin(context.Background(), "s1", cart.New(cart.DefaultPricing()))
	if s.State != Failed || s.Message != MsgEmptyCart {
		t.Errorf("session = %+v", s)
	}
}

func TestBegin_ReadyWithCartTotal(t *testing.T) {
	b := &fakeBackend{intentBody: `{"clientSecret":"pi_123_secret_abc"}`}
	f := newFlow(t, b, "pk_test", nil)
	s := f.Begin(context.Background(), "s1", filledCart())
	if s.State != Ready || s.ClientSecret != "pi_123_secret_abc" || s.PaymentIntentID != "pi_123" {
		t.Fatalf("session = %+v", s)
	}
	if got := b.lastIntent["amount"]; got != 55.0 {
		t.Errorf("amount = %v, want 55", got)
	}
	items := b.lastIntent["orderData"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("intent items = %v", items)
	}
	if got, _ := f.Session("s1"); got != s {
		t.Error("session not stored")
	}
}

func TestBegin_MessageReply(t *testing.T) {
	b := &fakeBackend{intentBody: `{"message":"Stripe account suspended"}`}
	f := newFlow(t, b, "pk_test", nil)
	s := f.Begin(context.Background(), "s1", filledCart())
	if s.State != Failed || s.Message != "Stripe account suspended" {
		t.Errorf("session = %+v", s)
	}
}

func TestBegin_TransportFailure(t *testing.T) {
	b := &fakeBackend{intentStatus: http.StatusBadGateway}
	f := newFlow(t, b, "pk_test", nil)
	s := f.Begin(context.Background(), "s1", filledCart())
	if s.State != Failed || s.Message != MsgInitFailed {
		t.Errorf("session = %+v", s)
	}
}

func readyFlow(t *testing.T, b *fakeBackend, outbox *outboxRepo.OutboxRepository) (*Flow, *cart.Cart) {
	b.intentBody = `{"clientSecret":"pi_123_secret_abc"}`
	f := newFlow(t, b, "pk_test", outbox)
	c := filledCart()
	if s := f.Begin(context.Background(), "s1", c); s.State != Ready {
		t.Fatalf("Begin = %+v", s)
	}
	return f, c
}

func TestSubmit_NotReadyIsNoop(t *testing.T) {
	b := &fakeBackend{}
	f, c := readyFlow(t, b, nil)
	_, err := f.Submit(context.Background(), "s1", c, validForm(), WidgetResult{Ready: false})
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
	if _, err := f.Submit(context.Background(), "other", c, validForm(), WidgetResult{Ready: true}); !errors.Is(err, ErrNotReady) {
		t.Errorf("unknown session err = %v", err)
	}
	if b.orderCalls != 0 || c.Empty() {
		t.Error("no-op submit must not touch orders or cart")
	}
}

func TestSubmit_InvalidForm(t *testing.T) {
	f, c := readyFlow(t, &fakeBackend{}, nil)
	_, err := f.Submit(context.Background(), "s1", c, Form{Email: "bad"}, WidgetResult{Ready: true})
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if fe["email"] == "" || fe["firstName"] == "" || fe["zipCode"] == "" {
		t.Errorf("field errors = %v", fe)
	}
}

func TestSubmit_PaymentFailureStaysReady(t *testing.T) {
	b := &fakeBackend{}
	f, c := readyFlow(t, b, nil)
	_, err := f.Submit(context.Background(), "s1", c, validForm(), WidgetResult{Ready: true, Error: "Your card was declined."})
	var pe *PaymentError
	if !errors.As(err, &pe) || pe.Message != "Your card was declined." {
		t.Fatalf("err = %v", err)
	}
	if s, _ := f.Session("s1"); s.State != Ready {
		t.Errorf("state = %s, want ready", s.State)
	}
	if b.orderCalls != 0 || c.Empty() {
		t.Error("failed payment must not record an order or clear the cart")
	}
}

func TestSubmit_MismatchedIntent(t *testing.T) {
	f, c := readyFlow(t, &fakeBackend{}, nil)
	_, err := f.Submit(context.Background(), "s1", c, validForm(), WidgetResult{Ready: true, PaymentIntentID: "pi_other", RedirectStatus: "succeeded"})
	var pe *PaymentError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PaymentError", err)
	}
}

func TestSubmit_SuccessRecordsOrder(t *testing.T) {
	b := &fakeBackend{}
	f, c := readyFlow(t, b, nil)
	form := validForm()
	form.Phone = "555-0100"
	r, err := f.Submit(context.Background(), "s1", c, form, WidgetResult{Ready: true, PaymentIntentID: "pi_123", RedirectStatus: "succeeded"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Deferred || r.Total != "55.00" || r.OrderNumber != OrderNumber("pi_123") {
		t.Errorf("receipt = %+v", r)
	}
	if !c.Empty() {
		t.Error("cart should be cleared")
	}
	if _, ok := f.Session("s1"); ok {
		t.Error("session should end")
	}
	if len(b.orders) != 1 {
		t.Fatalf("orders = %d", len(b.orders))
	}
	o := b.orders[0]
	if o.Order.CustomerName != "Ada Lovelace" || o.Order.ShippingAddress != "1 Analytical St, London, N1" {
		t.Errorf("order = %+v", o.Order)
	}
	if o.Order.CustomerPhone == nil || *o.Order.CustomerPhone != "555-0100" {
		t.Errorf("phone = %v", o.Order.CustomerPhone)
	}
	if !o.Order.Total.Equal(decimal.NewFromInt(55)) || !o.Order.Shipping.IsZero() {
		t.Errorf("totals = %s / %s", o.Order.Total, o.Order.Shipping)
	}
	if len(o.Items) != 2 || o.Items[0].ProductSKU != "L-1" || !o.Items[0].Total.Equal(decimal.NewFromInt(40)) {
		t.Errorf("items = %+v", o.Items)
	}
	if b.keys[0] != IdempotencyKey("pi_123") {
		t.Errorf("Idempotency-Key = %q", b.keys[0])
	}
	raw := b.rawOrders[0]["order"].(map[string]interface{})
	if _, ok := raw["createdAt"]; ok {
		t.Errorf("create body carries createdAt = %v", raw["createdAt"])
	}
	if _, ok := raw["updatedAt"]; ok {
		t.Errorf("create body carries updatedAt = %v", raw["updatedAt"])
	}
}

func TestSubmit_PaidWithInvalidFormKeepsPayment(t *testing.T) {
	b := &fakeBackend{}
	f, c := readyFlow(t, b, nil)
	form := validForm()
	form.City = ""

	_, err := f.Submit(context.Background(), "s1", c, form, paid)
	var fe validation.FieldErrors
	if !errors.As(err, &fe) || fe["city"] == "" {
		t.Fatalf("err = %v, want city error", err)
	}
	s, _ := f.Session("s1")
	if !s.Paid() || s.PaymentIntentID != "pi_123" {
		t.Fatalf("session = %+v, want paid", s)
	}
	if b.orderCalls != 0 || c.Empty() {
		t.Fatal("no order until the shipping details are valid")
	}
	if again := f.Begin(context.Background(), "s1", c); again != s {
		t.Error("reloading a paid visit must not start a new payment")
	}

	// the widget now reports the intent as already confirmed
	resubmit := WidgetResult{Ready: true, Error: "This PaymentIntent has already succeeded."}
	r, err := f.Submit(context.Background(), "s1", c, validForm(), resubmit)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if r.OrderNumber != OrderNumber("pi_123") || len(b.orders) != 1 {
		t.Errorf("receipt = %+v, orders = %d", r, len(b.orders))
	}
	if b.orders[0].Order.ShippingAddress != "1 Analytical St, London, N1" {
		t.Errorf("address = %q", b.orders[0].Order.ShippingAddress)
	}
	if !c.Empty() {
		t.Error("cart should be cleared")
	}
}

func TestSweep_RecordsAbandonedPaidVisit(t *testing.T) {
	outbox := testOutbox(t)
	b := &fakeBackend{orderStatus: []int{http.StatusServiceUnavailable}}
	f, c := readyFlow(t, b, outbox)
	now := time.Now()
	f.now = func() time.Time { return now }
	form := validForm()
	form.ZipCode = ""
	if _, err := f.Submit(context.Background(), "s1", c, form, paid); err == nil {
		t.Fatal("Submit: want field errors")
	}

	f.now = func() time.Time { return now.Add(3 * time.Hour) }
	if n := f.Sweep(time.Hour); n != 1 {
		t.Fatalf("Sweep = %d", n)
	}
	row, _ := outbox.FindByKey(IdempotencyKey("pi_123"))
	if row == nil || row.Status != outboxEntity.StatusPending {
		t.Fatalf("outbox row = %+v, want pending", row)
	}
	order := b.orders[len(b.orders)-1].Order
	if order.CustomerEmail != "ada@example.com" {
		t.Errorf("order = %+v", order)
	}
}

func TestSubmit_MissingIntentIDRefused(t *testing.T) {
	b := &fakeBackend{intentBody: `{"clientSecret":"seti_abc"}`}
	f := newFlow(t, b, "pk_test", nil)
	for _, sid := range []string{"s1", "s2"} {
		c := filledCart()
		if s := f.Begin(context.Background(), sid, c); s.State != Ready || s.PaymentIntentID != "" {
			t.Fatalf("Begin = %+v", s)
		}
		_, err := f.Submit(context.Background(), sid, c, validForm(), WidgetResult{Ready: true, RedirectStatus: "succeeded"})
		var pe *PaymentError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: err = %v, want PaymentError", sid, err)
		}
	}
	if b.orderCalls != 0 {
		t.Errorf("order posts = %d, want 0", b.orderCalls)
	}
}

func TestSubmit_ProcessingRecordsPendingOrder(t *testing.T) {
	b := &fakeBackend{}
	f, c := readyFlow(t, b, nil)
	w := WidgetResult{Ready: true, PaymentIntentID: "pi_123", RedirectStatus: "processing"}
	r, err := f.Submit(context.Background(), "s1", c, validForm(), w)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !r.Processing {
		t.Error("receipt should be marked processing")
	}
	if len(b.orders) != 1 || b.orders[0].Order.Status != sales.StatusPending {
		t.Errorf("orders = %+v", b.orders)
	}
}

func TestSubmit_UnconfirmedWidgetValidatesFirst(t *testing.T) {
	b := &fakeBackend{}
	f, c := readyFlow(t, b, nil)
	_, err := f.Submit(context.Background(), "s1", c, Form{}, WidgetResult{Ready: true})
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if s, _ := f.Session("s1"); s.State != Ready {
		t.Errorf("state = %s, want ready", s.State)
	}
	_, err = f.Submit(context.Background(), "s1", c, validForm(), WidgetResult{Ready: true})
	var pe *PaymentError
	if !errors.As(err, &pe) || b.orderCalls != 0 {
		t.Errorf("err = %v, orders = %d", err, b.orderCalls)
	}
}

func TestValidate(t *testing.T) {
	f, _ := readyFlow(t, &fakeBackend{}, nil)
	form := validForm()
	form.City = "  "
	var fe validation.FieldErrors
	if err := f.Validate("s1", &form); !errors.As(err, &fe) || fe["city"] == "" {
		t.Errorf("Validate = %v", err)
	}
	good := validForm()
	if err := f.Validate("s1", &good); err != nil {
		t.Errorf("Validate valid form = %v", err)
	}
	if err := f.Validate("missing", &good); !errors.Is(err, ErrNotReady) {
		t.Errorf("Validate unknown session = %v", err)
	}
}

func TestRecord_RetriesWithSameKey(t *testing.T) {
	b := &fakeBackend{orderStatus: []int{http.StatusServiceUnavailable, http.StatusCreated}}
	f, c := readyFlow(t, b, nil)
	r, err := f.Submit(context.Background(), "s1", c, validForm(), paid)
	if err != nil || r.Deferred {
		t.Fatalf("Submit = %+v, %v", r, err)
	}
	if len(b.keys) != 2 || b.keys[0] != b.keys[1] {
		t.Errorf("keys = %v", b.keys)
	}
}

func TestRecord_ConflictMeansRecorded(t *testing.T) {
	b := &fakeBackend{orderStatus: []int{http.StatusConflict}}
	f, c := readyFlow(t, b, nil)
	r, err := f.Submit(context.Background(), "s1", c, validForm(), paid)
	if err != nil || r.Deferred {
		t.Fatalf("Submit = %+v, %v", r, err)
	}
}

func TestRecord_DefersToOutboxAndReconciles(t *testing.T) {
	outbox := testOutbox(t)
	b := &fakeBackend{orderStatus: []int{http.StatusInternalServerError}}
	f, c := readyFlow(t, b, outbox)

	r, err := f.Submit(context.Background(), "s1", c, validForm(), paid)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !r.Deferred {
		t.Error("receipt should be deferred")
	}
	if !c.Empty() {
		t.Error("cart should be cleared after payment")
	}
	if b.orderCalls != 3 {
		t.Errorf("order posts = %d, want 3", b.orderCalls)
	}
	if n, _ := outbox.CountPending(); n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}

	b.orderStatus = []int{http.StatusCreated}
	recorded, failed, err := f.recorder.Reconcile(context.Background(), 10)
	if err != nil || recorded != 1 || failed != 0 {
		t.Fatalf("Reconcile = %d, %d, %v", recorded, failed, err)
	}
	if n, _ := outbox.CountPending(); n != 0 {
		t.Errorf("pending after reconcile = %d", n)
	}
	last := b.keys[len(b.keys)-1]
	if last != IdempotencyKey("pi_123") {
		t.Errorf("reconcile key = %q", last)
	}
}

func TestRecord_ClientErrorNotRetried(t *testing.T) {
	outbox := testOutbox(t)
	b := &fakeBackend{orderStatus: []int{http.StatusBadRequest}}
	f, c := readyFlow(t, b, outbox)
	r, err := f.Submit(context.Background(), "s1", c, validForm(), paid)
	if err != nil || !r.Deferred {
		t.Fatalf("Submit = %+v, %v", r, err)
	}
	if b.orderCalls != 1 {
		t.Errorf("order posts = %d, want 1", b.orderCalls)
	}
	if n, _ := outbox.CountPending(); n != 0 {
		t.Errorf("pending = %d, rejected orders must not be reconciled", n)
	}
	row, _ := outbox.FindByKey(IdempotencyKey("pi_123"))
	if row == nil || row.Status != outboxEntity.StatusFailed {
		t.Errorf("outbox row = %+v, want failed", row)
	}
}

func TestReconcile_GivesUpAfterMaxAttempts(t *testing.T) {
	outbox := testOutbox(t)
	b := &fakeBackend{orderStatus: []int{http.StatusServiceUnavailable}}
	f, c := readyFlow(t, b, outbox)
	if _, err := f.Submit(context.Background(), "s1", c, validForm(), paid); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for i := 0; i < MaxReconcileAttempts; i++ {
		f.recorder.Reconcile(context.Background(), 10)
	}
	if n, _ := outbox.CountPending(); n != 0 {
		t.Fatalf("pending = %d after %d reconciles", n, MaxReconcileAttempts)
	}
	row, _ := outbox.FindByKey(IdempotencyKey("pi_123"))
	if row == nil || row.Status != outboxEntity.StatusFailed || row.Attempts != MaxReconcileAttempts {
		t.Errorf("outbox row = %+v", row)
	}
	before := b.orderCalls
	f.recorder.Reconcile(context.Background(), 10)
	if b.orderCalls != before {
		t.Error("failed rows must not be posted again")
	}
}

func TestReconcile_RejectedRowFails(t *testing.T) {
	outbox := testOutbox(t)
	b := &fakeBackend{orderStatus: []int{http.StatusInternalServerError}}
	f, c := readyFlow(t, b, outbox)
	f.Submit(context.Background(), "s1", c, validForm(), paid)

	b.orderStatus = []int{http.StatusUnprocessableEntity}
	recorded, failed, err := f.recorder.Reconcile(context.Background(), 10)
	if err != nil || recorded != 0 || failed != 1 {
		t.Fatalf("Reconcile = %d, %d, %v", recorded, failed, err)
	}
	if n, _ := outbox.CountPending(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

func TestRecord_NoOutboxSurfacesError(t *testing.T) {
	b := &fakeBackend{orderStatus: []int{http.StatusInternalServerError}}
	f, c := readyFlow(t, b, nil)
	_, err := f.Submit(context.Background(), "s1", c, validForm(), paid)
	if err == nil {
		t.Fatal("Submit: want error")
	}
	if c.Empty() {
		t.Error("cart should survive when the order could not be saved anywhere")
	}
}

func TestDecodeWidgetResult(t *testing.T) {
	w, err := DecodeWidgetResult(url.Values{
		"widget_ready":    {"1"},
		"payment_intent":  {"pi_9"},
		"redirect_status": {"succeeded"},
		"firstName":       {"Ada"},
	})
	if err != nil {
		t.Fatalf("DecodeWidgetResult: %v", err)
	}
	if !w.Ready || w.PaymentIntentID != "pi_9" || !w.Confirmed() || w.Processing() {
		t.Errorf("result = %+v", w)
	}
	w, _ = DecodeWidgetResult(url.Values{"payment_error": {"declined"}, "redirect_status": {"succeeded"}})
	if w.Ready || w.Confirmed() {
		t.Errorf("result = %+v", w)
	}
	if (WidgetResult{Ready: true}).Confirmed() {
		t.Error("a widget that never confirmed is not a payment")
	}
}

func TestIdempotencyKey_Stable(t *testing.T) {
	if IdempotencyKey("pi_1") != IdempotencyKey("pi_1") {
		t.Error("key not deterministic")
	}
	if IdempotencyKey("pi_1") == IdempotencyKey("pi_2") {
		t.Error("distinct intents share a key")
	}
}

func TestSweep(t *testing.T) {
	f := newFlow(t, &fakeBackend{}, "", nil)
	now := time.Now()
	f.now = func() time.Time { return now }
	f.Begin(context.Background(), "s1", filledCart())
	f.now = func() time.Time { return now.Add(2 * time.Hour) }
	if n := f.Sweep(time.Hour); n != 1 {
		t.Errorf("Sweep = %d", n)
	}
}
