// Package html serves the storefront and the admin dashboard as
// server-rendered pages.
package html

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"shophub/api"
	"shophub/core/flash"
	"shophub/service"
)

func init() {
	api.RegisterRoute(RegisterRoutes)
}

// RegisterRoutes installs the renderer, the deep-link rewrite and all page
// routes. It panics when the embedded templates do not parse.
func RegisterRoutes(e *echo.Echo, svc *service.Container) {
	t, err := NewTemplate(svc.Config.MediaHosts)
	if err != nil {
		panic("html: " + err.Error())
	}
	e.Renderer = t
	e.Pre(DeepLink())
	e.Use(ForwardCredentials(svc.Session.CookieName, flash.CookieName))

	h := &handler{svc: svc, media: &http.Client{Timeout: 10 * time.Second}, now: time.Now}
	sess := svc.Session.Middleware()

	e.GET("/", h.catalog, sess)
	e.GET("/collections", h.collections, sess)
	e.POST("/cart", h.addToCart, sess)
	e.POST("/cart/update", h.updateCart, sess)
	e.POST("/cart/remove", h.removeFromCart, sess)
	e.GET("/checkout", h.checkoutPage, sess)
	e.POST("/checkout", h.submitCheckout, sess)
	e.POST("/checkout/validate", h.validateCheckout, sess)
	e.GET("/media/thumb", h.thumb)

	g := e.Group("/admin", sess)
	g.GET("", h.adminDashboard)
	g.GET("/products", h.adminProducts)
	g.GET("/products/new", h.newProduct)
	g.POST("/products", h.saveProduct)
	g.GET("/products/:id/edit", h.editProduct)
	g.POST("/products/:id", h.saveProduct)
	g.GET("/products/:id/delete", h.confirmDeleteProduct)
	g.POST("/products/:id/delete", h.deleteProduct)
	g.GET("/orders", h.adminOrders)
	g.POST("/orders/:id/status", h.updateOrderStatus)
	g.GET("/inventory", h.adminInventory)
}
