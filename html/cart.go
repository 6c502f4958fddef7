package html

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"shophub/core/flash"
	"shophub/service/catalog"
)

type cartForm struct {
	ID       string `form:"id"`
	Quantity int    `form:"quantity"`
	Op       string `form:"op"`
	Return   string `form:"return"`
}

func (h *handler) bindCart(c echo.Context) (cartForm, error) {
	var f cartForm
	if err := c.Bind(&f); err != nil {
		return f, errors.Wrap(err, "bind cart form")
	}
	f.Return = safeReturn(f.Return)
	return f, nil
}

// addToCart resolves the product server-side so the posted form cannot set
// prices.
func (h *handler) addToCart(c echo.Context) error {
	f, err := h.bindCart(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Catalog.Product(c.Request().Context(), f.ID)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			h.svc.Log.WithError(err).WithField("product", f.ID).Warn("add to cart lookup failed")
		}
		return h.redirect(c, f.Return, failure("Error", err))
	}
	card := catalog.NewCard(*p)
	if card.OutOfStock {
		return h.redirect(c, f.Return, &flash.Message{
			Kind:        flash.Error,
			Title:       "Out of Stock",
			Description: fmt.Sprintf("%s is currently out of stock", p.Name),
		})
	}
	item := card.CartItem()
	if f.Quantity > 1 {
		item.Quantity = f.Quantity
	}
	h.cart(c).Add(item, h.now())
	return h.redirect(c, f.Return, &flash.Message{
		Kind:        flash.Success,
		Title:       "Added to cart",
		Description: fmt.Sprintf("%s has been added to your cart", item.Name),
	})
}

func (h *handler) updateCart(c echo.Context) error {
	f, err := h.bindCart(c)
	if err != nil {
		return err
	}
	crt := h.cart(c)
	switch f.Op {
	case "inc":
		crt.Increment(f.ID)
	case "dec":
		crt.Decrement(f.ID)
	default:
		crt.UpdateQuantity(f.ID, f.Quantity)
	}
	return h.redirect(c, withCartOpen(f.Return), nil)
}

func (h *handler) removeFromCart(c echo.Context) error {
	f, err := h.bindCart(c)
	if err != nil {
		return err
	}
	var m *flash.Message
	if h.cart(c).Remove(f.ID) {
		m = &flash.Message{Kind: flash.Info, Title: "Item removed", Description: "Item has been removed from your cart"}
	}
	return h.redirect(c, withCartOpen(f.Return), m)
}
