package html

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"shophub/core/validation"
	catalogEntity "shophub/model/entity/catalog"
	"shophub/model/entity/sales"
	"shophub/service/admin"
)

type dashboardData struct {
	*admin.Dashboard
	Error string
}

func (h *handler) adminDashboard(c echo.Context) error {
	d, err := h.svc.Admin.Dashboard(c.Request().Context())
	if err != nil {
		return h.render(c, http.StatusOK, "admin/dashboard.html", "Dashboard", dashboardData{Dashboard: &admin.Dashboard{}, Error: err.Error()})
	}
	return h.render(c, http.StatusOK, "admin/dashboard.html", "Dashboard", dashboardData{Dashboard: d})
}

type productsData struct {
	Products []catalogEntity.Product
	Total    int
	Error    string
}

func (h *handler) adminProducts(c echo.Context) error {
	list, err := h.svc.Admin.Products(c.Request().Context())
	data := productsData{Products: list.Products, Total: list.Total}
	if err != nil {
		data.Error = err.Error()
	}
	return h.render(c, http.StatusOK, "admin/products.html", "Products", data)
}

type productFormData struct {
	ID         string
	Form       admin.ProductForm
	Errors     validation.FieldErrors
	Categories []catalogEntity.Category
	Statuses   []string
}

func (h *handler) renderProductForm(c echo.Context, code int, data productFormData, v *View) error {
	cats, err := h.svc.Catalog.Categories(c.Request().Context())
	if err != nil {
		h.svc.Log.WithError(err).Warn("categories unavailable for product form")
	}
	data.Categories = cats
	data.Statuses = []string{catalogEntity.StatusActive, catalogEntity.StatusDraft, catalogEntity.StatusArchived}
	title := "Add Product"
	if data.ID != "" {
		title = "Edit Product"
	}
	if v == nil {
		return h.render(c, code, "admin/product_form.html", title, data)
	}
	v.Title = title
	v.Data = data
	return c.Render(code, "admin/product_form.html", *v)
}

func (h *handler) newProduct(c echo.Context) error {
	return h.renderProductForm(c, http.StatusOK, productFormData{Form: admin.NewProductForm()}, nil)
}

func (h *handler) editProduct(c echo.Context) error {
	p, err := h.svc.Admin.Product(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.redirect(c, "/admin/products", failure("Error", err))
	}
	return h.renderProductForm(c, http.StatusOK, productFormData{ID: p.ID, Form: admin.FormFromProduct(*p)}, nil)
}

// saveProduct creates when id is empty and updates otherwise. Failures
// re-render the form with the posted values.
func (h *handler) saveProduct(c echo.Context) error {
	id := c.Param("id")
	var f admin.ProductForm
	if err := c.Bind(&f); err != nil {
		return errors.Wrap(err, "bind product form")
	}
	ctx := c.Request().Context()
	var err error
	msg := "Product created successfully"
	if id == "" {
		err = h.svc.Admin.CreateProduct(ctx, f)
	} else {
		msg = "Product updated successfully"
		err = h.svc.Admin.UpdateProduct(ctx, id, f)
	}
	if err == nil {
		return h.redirect(c, "/admin/products", success(msg))
	}

	data := productFormData{ID: id, Form: f}
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		data.Errors = fieldErrs
		return h.renderProductForm(c, http.StatusUnprocessableEntity, data, nil)
	}
	v := h.view(c, "", nil)
	v.Flash = failure("Error", err)
	return h.renderProductForm(c, http.StatusBadGateway, data, &v)
}

func (h *handler) confirmDeleteProduct(c echo.Context) error {
	p, err := h.svc.Admin.Product(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.redirect(c, "/admin/products", failure("Error", err))
	}
	return h.render(c, http.StatusOK, "admin/product_delete.html", "Delete Product", p)
}

func (h *handler) deleteProduct(c echo.Context) error {
	if err := h.svc.Admin.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return h.redirect(c, "/admin/products", failure("Error", err))
	}
	return h.redirect(c, "/admin/products", success("Product deleted successfully"))
}

type ordersData struct {
	Orders   []sales.Order
	Total    int
	Statuses []string
	Error    string
}

func (h *handler) adminOrders(c echo.Context) error {
	list, err := h.svc.Admin.Orders(c.Request().Context())
	data := ordersData{Orders: list.Orders, Total: list.Total, Statuses: sales.OrderStatuses}
	if err != nil {
		data.Error = err.Error()
	}
	return h.render(c, http.StatusOK, "admin/orders.html", "Orders", data)
}

func (h *handler) updateOrderStatus(c echo.Context) error {
	err := h.svc.Admin.UpdateOrderStatus(c.Request().Context(), c.Param("id"), c.FormValue("status"))
	if err != nil {
		return h.redirect(c, "/admin/orders", failure("Error", err))
	}
	return h.redirect(c, "/admin/orders", success("Order status updated successfully"))
}

type inventoryData struct {
	*admin.Inventory
	Error string
}

func (h *handler) adminInventory(c echo.Context) error {
	inv, err := h.svc.Admin.Inventory(c.Request().Context())
	if err != nil {
		return h.render(c, http.StatusOK, "admin/inventory.html", "Inventory", inventoryData{Inventory: &admin.Inventory{}, Error: err.Error()})
	}
	return h.render(c, http.StatusOK, "admin/inventory.html", "Inventory", inventoryData{Inventory: inv})
}
