// Package checkout runs the payment state machine: a payment intent is
// created for the cart total, the embedded widget confirms it in the
// browser, and the order is recorded once confirmation succeeds.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shophub/core/client"
	"shophub/model/entity/sales"
	"shophub/service/cart"
)

const PaymentIntentPath = "/api/create-payment-intent"

const (
	MsgNotConfigured = "Payment processing is not configured. Please add Stripe API keys to enable checkout."
	MsgInitFailed    = "Unable to initialize payment. Please try again later."
	MsgEmptyCart     = "Your cart is empty"
)

var (
	ErrNotConfigured = errors.New("payment processing is not configured")
	// ErrNotReady is returned for submits that arrive before the widget
	// reported itself initialized. Callers treat it as a no-op.
	ErrNotReady = errors.New("payment widget not ready")
)

// PaymentError is a failure reported by the payment widget.
type PaymentError struct {
	Message string
}

func (e *PaymentError) Error() string { return "payment failed: " + e.Message }

type State int

const (
	Initializing State = iota
	Ready
	Failed
	// Paid visits have a confirmed payment but no recorded order yet,
	// usually because the shipping details came back invalid.
	Paid
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Paid:
		return "paid"
	default:
		return "error"
	}
}

// Session is one visit to the checkout page.
type Session struct {
	State           State
	Message         string
	ClientSecret    string
	PaymentIntentID string
	Quote           cart.Quote
	Items           []cart.Item
	StartedAt       time.Time
	// Form and Processing are kept once the visit is Paid.
	Form       Form
	Processing bool
}

func (s *Session) Paid() bool { return s.State == Paid }

// Receipt is handed to the shopper after a successful payment.
type Receipt struct {
	OrderNumber string
	Total       string
	Deferred    bool
	// Processing is set when the payment is still settling.
	Processing bool
}

type Flow struct {
	api       *client.Client
	publicKey string
	recorder  *Recorder
	log       logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewFlow(api *client.Client, publicKey string, recorder *Recorder, log logrus.FieldLogger) *Flow {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Flow{
		api:       api,
		publicKey: publicKey,
		recorder:  recorder,
		log:       log,
		sessions:  make(map[string]*Session),
		now:       time.Now,
	}
}

func (f *Flow) PublicKey() string { return f.publicKey }

type intentRequest struct {
	Amount    json.Number `json:"amount"`
	OrderData struct {
		Items []intentItem `json:"items"`
	} `json:"orderData"`
}

type intentItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type intentReply struct {
	ClientSecret string `json:"clientSecret"`
	Message      string `json:"message"`
}

// Begin starts a visit: it leaves Initializing for Ready or Failed. A Paid
// visit is returned as is so the shopper can finish the shipping details.
func (f *Flow) Begin(ctx context.Context, sessionID string, c *cart.Cart) *Session {
	if prev, ok := f.Session(sessionID); ok && prev.Paid() {
		return prev
	}
	s := &Session{State: Initializing, Items: c.Items(), Quote: c.Quote(), StartedAt: f.now()}
	defer f.store(sessionID, s)

	if f.publicKey == "" {
		s.fail(MsgNotConfigured)
		return s
	}
	if len(s.Items) == 0 {
		s.fail(MsgEmptyCart)
		return s
	}

	var req intentRequest
	req.Amount = json.Number(s.Quote.Total.StringFixed(2))
	for _, it := range s.Items {
		req.OrderData.Items = append(req.OrderData.Items, intentItem{
			ID: it.ID, Name: it.Name, Price: json.Number(it.Price.StringFixed(2)), Quantity: it.Quantity,
		})
	}
	var reply intentReply
	if err := f.api.Mutate(ctx, http.MethodPost, PaymentIntentPath, req, &reply); err != nil {
		f.log.WithError(err).Warn("create payment intent failed")
		s.fail(MsgInitFailed)
		return s
	}
	switch {
	case reply.Message != "":
		s.fail(reply.Message)
	case reply.ClientSecret == "":
		s.fail(MsgInitFailed)
	default:
		s.State = Ready
		s.ClientSecret = reply.ClientSecret
		s.PaymentIntentID = IntentIDFromSecret(reply.ClientSecret)
	}
	return s
}

func (s *Session) fail(msg string) {
	s.State = Failed
	s.Message = msg
}

// IntentIDFromSecret returns pi_x for a client secret pi_x_secret_y.
func IntentIDFromSecret(secret string) string {
	if i := strings.Index(secret, "_secret_"); i > 0 {
		return secret[:i]
	}
	return ""
}

func (f *Flow) store(id string, s *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = s
}

func (f *Flow) Session(id string) (*Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}

func (f *Flow) End(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
}

// Sweep drops visits older than maxAge. Abandoned Paid visits are recorded
// with the details they have so a captured payment always has an order.
func (f *Flow) Sweep(maxAge time.Duration) int {
	now := f.now()
	var abandoned []*Session
	f.mu.Lock()
	n := 0
	for id, s := range f.sessions {
		if now.Sub(s.StartedAt) > maxAge {
			if s.State == Paid {
				abandoned = append(abandoned, s)
			}
			delete(f.sessions, id)
			n++
		}
	}
	f.mu.Unlock()

	for _, s := range abandoned {
		log := f.log.WithField("payment_intent", s.PaymentIntentID)
		log.Warn("paid checkout abandoned before shipping details were completed")
		order := BuildOrder(s.Form, s.Items, s.Quote, s.PaymentIntentID)
		if err := f.recorder.Record(context.Background(), order, s.PaymentIntentID); err != nil && !errors.Is(err, ErrOrderDeferred) {
			log.WithError(err).Error("abandoned paid checkout could not be recorded")
		}
	}
	return n
}

// Validate checks the form against a live visit without touching the
// payment. The page calls it before confirming so a bad form is never
// charged.
func (f *Flow) Validate(sessionID string, form *Form) error {
	s, ok := f.Session(sessionID)
	if !ok || (s.State != Ready && s.State != Paid) {
		return ErrNotReady
	}
	return form.Validate()
}

// Submit handles the posted checkout form. Payment failures return
// *PaymentError and keep the visit Ready. A confirmed payment with invalid
// shipping details moves the visit to Paid and returns the field errors;
// the next submit records the order without a second payment.
// ErrOrderDeferred is not returned; it shows up as Receipt.Deferred.
func (f *Flow) Submit(ctx context.Context, sessionID string, c *cart.Cart, form Form, widget WidgetResult) (*Receipt, error) {
	s, ok := f.Session(sessionID)
	if !ok {
		return nil, ErrNotReady
	}
	switch {
	case s.Paid():
	case s.State != Ready || !widget.Ready:
		return nil, ErrNotReady
	case !widget.Confirmed():
		if err := form.Validate(); err != nil {
			return nil, err
		}
		msg := widget.Error
		if msg == "" {
			msg = "Payment was not completed."
		}
		return nil, &PaymentError{Message: msg}
	default:
		if widget.PaymentIntentID != "" && s.PaymentIntentID != "" && widget.PaymentIntentID != s.PaymentIntentID {
			return nil, &PaymentError{Message: "Payment could not be verified."}
		}
		intentID := s.PaymentIntentID
		if intentID == "" {
			intentID = widget.PaymentIntentID
		}
		// Without an intent id every such order would share one
		// idempotency key and collapse into the first.
		if intentID == "" {
			f.log.Error("confirmed payment carries no payment intent id")
			return nil, &PaymentError{Message: "Payment could not be verified."}
		}
		f.markPaid(s, intentID, widget.Processing())
	}

	if err := form.Validate(); err != nil {
		f.keepForm(s, form)
		return nil, err
	}
	intentID := s.PaymentIntentID
	order := BuildOrder(form, s.Items, s.Quote, intentID)
	receipt := &Receipt{OrderNumber: order.Order.OrderNumber, Total: s.Quote.Total.StringFixed(2), Processing: s.Processing}
	err := f.recorder.Record(ctx, order, intentID)
	switch {
	case err == nil:
	case errors.Is(err, ErrOrderDeferred):
		receipt.Deferred = true
	default:
		return nil, fmt.Errorf("payment %s captured but order not saved: %w", intentID, err)
	}
	c.Clear()
	f.End(sessionID)
	return receipt, nil
}

func (f *Flow) markPaid(s *Session, intentID string, processing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.State = Paid
	s.PaymentIntentID = intentID
	s.Processing = processing
	s.StartedAt = f.now()
}

func (f *Flow) keepForm(s *Session, form Form) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.Form = form
}

// BuildOrder snapshots the visit's cart lines and quote into an order body.
func BuildOrder(form Form, items []cart.Item, q cart.Quote, paymentIntentID string) sales.CreateOrder {
	o := sales.Order{
		OrderNumber:     OrderNumber(paymentIntentID),
		CustomerEmail:   form.Email,
		CustomerName:    form.CustomerName(),
		ShippingAddress: form.ShippingAddress(),
		Subtotal:        q.Subtotal,
		Shipping:        q.Shipping,
		Tax:             q.Tax,
		Total:           q.Total,
		Status:          sales.StatusPending,
	}
	if form.Phone != "" {
		phone := form.Phone
		o.CustomerPhone = &phone
	}
	if paymentIntentID != "" {
		id := paymentIntentID
		o.StripePaymentIntentID = &id
	}
	lines := make([]sales.OrderItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, sales.OrderItem{
			ProductID:   it.ID,
			ProductName: it.Name,
			ProductSKU:  it.SKU,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Total:       it.LineTotal(),
		})
	}
	return sales.CreateOrder{Order: o, Items: lines}
}

// OrderNumber derives a short human-readable number from the idempotency key.
func OrderNumber(paymentIntentID string) string {
	key := strings.ReplaceAll(IdempotencyKey(paymentIntentID), "-", "")
	return "ORD-" + strings.ToUpper(key[:10])
}
