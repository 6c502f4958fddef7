package html

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"shophub/core/flash"
	"shophub/core/session"
	"shophub/core/validation"
	"shophub/service/checkout"
)

type checkoutData struct {
	Session   *checkout.Session
	PublicKey string
	Form      checkout.Form
	Errors    validation.FieldErrors
	Message   string
}

func (h *handler) checkoutPage(c echo.Context) error {
	s := h.svc.Checkout.Begin(c.Request().Context(), session.ID(c), h.cart(c))
	if s.State == checkout.Failed {
		return h.render(c, http.StatusOK, "checkout_unavailable.html", "Checkout Unavailable", checkoutData{Message: s.Message})
	}
	return h.render(c, http.StatusOK, "checkout.html", "Checkout", checkoutData{
		Session:   s,
		PublicKey: h.svc.Checkout.PublicKey(),
		Form:      s.Form,
	})
}

type validateReply struct {
	OK     bool                   `json:"ok"`
	Errors validation.FieldErrors `json:"errors,omitempty"`
}

// validateCheckout checks the shipping details before the page confirms the
// payment.
func (h *handler) validateCheckout(c echo.Context) error {
	var form checkout.Form
	if err := c.Bind(&form); err != nil {
		return errors.Wrap(err, "bind checkout form")
	}
	err := h.svc.Checkout.Validate(session.ID(c), &form)
	var fieldErrs validation.FieldErrors
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, validateReply{OK: true})
	case errors.Is(err, checkout.ErrNotReady):
		return c.JSON(http.StatusConflict, validateReply{})
	case errors.As(err, &fieldErrs):
		return c.JSON(http.StatusUnprocessableEntity, validateReply{Errors: fieldErrs})
	default:
		return err
	}
}

func (h *handler) submitCheckout(c echo.Context) error {
	sid := session.ID(c)
	var form checkout.Form
	if err := c.Bind(&form); err != nil {
		return errors.Wrap(err, "bind checkout form")
	}
	params, err := c.FormParams()
	if err != nil {
		return errors.Wrap(err, "read checkout form")
	}
	widget, err := checkout.DecodeWidgetResult(params)
	if err != nil {
		return errors.Wrap(err, "decode payment widget result")
	}

	receipt, err := h.svc.Checkout.Submit(c.Request().Context(), sid, h.cart(c), form, widget)
	if err == nil {
		desc := "Thank you for your purchase! Your order number is " + receipt.OrderNumber + "."
		if receipt.Processing {
			desc += " Your payment is processing. We'll confirm your order once it clears."
		}
		if receipt.Deferred {
			desc += " Order confirmation is pending and will follow shortly."
		}
		return h.redirect(c, "/", &flash.Message{Kind: flash.Success, Title: "Payment Successful", Description: desc})
	}
	if errors.Is(err, checkout.ErrNotReady) {
		return c.Redirect(http.StatusSeeOther, "/checkout")
	}

	s, ok := h.svc.Checkout.Session(sid)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/checkout")
	}
	data := checkoutData{Session: s, PublicKey: h.svc.Checkout.PublicKey(), Form: form}
	v := h.view(c, "Checkout", nil)

	var fieldErrs validation.FieldErrors
	var payErr *checkout.PaymentError
	switch {
	case errors.As(err, &fieldErrs):
		data.Errors = fieldErrs
		if s.Paid() {
			v.Flash = &flash.Message{Kind: flash.Info, Title: "Payment Received", Description: "Complete your shipping details to finish your order."}
		}
	case errors.As(err, &payErr):
		v.Flash = &flash.Message{Kind: flash.Error, Title: "Payment Failed", Description: payErr.Message}
	default:
		h.svc.Log.WithError(err).WithField("session", sid).Error("checkout submit failed")
		v.Flash = &flash.Message{Kind: flash.Error, Title: "Payment Error", Description: "Something went wrong processing your payment"}
	}
	v.Data = data
	return c.Render(http.StatusUnprocessableEntity, "checkout.html", v)
}
