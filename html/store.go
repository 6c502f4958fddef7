package html

import (
	"net/http"

	"github.com/labstack/echo/v4"

	catalogEntity "shophub/model/entity/catalog"
	"shophub/service/catalog"
)

type catalogData struct {
	Filter     catalog.Filter
	Cards      []catalog.Card
	Categories []catalogEntity.Category
	Total      int
	Sorts      interface{}
	Error      string
	Empty      string
}

func (h *handler) catalog(c echo.Context) error {
	f := catalog.FilterFromQuery(c.QueryParams())
	data := catalogData{Filter: f, Sorts: catalog.SortOptions, Empty: catalog.EmptyMessage}

	page, err := h.svc.Catalog.Load(c.Request().Context(), f)
	if err != nil {
		h.svc.Log.WithError(err).Warn("catalog load failed")
		data.Error = "Error loading products: " + err.Error()
		return h.render(c, http.StatusOK, "catalog.html", "Shop", data)
	}
	data.Cards = catalog.Cards(page.Products, h.cart(c), h.now())
	data.Categories = page.Categories
	data.Total = page.Total
	return h.render(c, http.StatusOK, "catalog.html", "Shop", data)
}

type collectionsData struct {
	Featured []catalog.Collection
	All      []catalog.Collection
	Error    string
}

func (h *handler) collections(c echo.Context) error {
	var data collectionsData
	cols, err := h.svc.Catalog.Collections(c.Request().Context())
	if err != nil {
		h.svc.Log.WithError(err).Warn("collections load failed")
		data.Error = "Error loading collections: " + err.Error()
		return h.render(c, http.StatusOK, "collections.html", "Collections", data)
	}
	data.All = cols
	for _, col := range cols {
		if col.Featured {
			data.Featured = append(data.Featured, col)
		}
	}
	return h.render(c, http.StatusOK, "collections.html", "Collections", data)
}
