package html

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"shophub/core/flash"
	"shophub/core/session"
	"shophub/service"
	"shophub/service/cart"
)

// View is the data every page template receives.
type View struct {
	AppName  string
	Title    string
	Path     string
	Return   string
	Flash    *flash.Message
	Cart     []cart.Item
	Quote    cart.Quote
	CartOpen bool
	Data     interface{}
}

type handler struct {
	svc   *service.Container
	media *http.Client
	now   func() time.Time
}

func (h *handler) cart(c echo.Context) *cart.Cart {
	return h.svc.Carts.Get(session.ID(c))
}

func (h *handler) view(c echo.Context, title string, data interface{}) View {
	crt := h.cart(c)
	return View{
		AppName:  h.svc.Config.AppName,
		Title:    title,
		Path:     c.Request().URL.Path,
		Return:   currentURL(c.Request().URL),
		Flash:    h.svc.Flash.Pop(c),
		Cart:     crt.Items(),
		Quote:    crt.Quote(),
		CartOpen: c.QueryParam("cart") == "open",
		Data:     data,
	}
}

func (h *handler) render(c echo.Context, code int, page, title string, data interface{}) error {
	if err := c.Render(code, page, h.view(c, title, data)); err != nil {
		return errors.Wrapf(err, "render %s", page)
	}
	return nil
}

// redirect queues m and sends the browser to target.
func (h *handler) redirect(c echo.Context, target string, m *flash.Message) error {
	if m != nil {
		if err := h.svc.Flash.Set(c, *m); err != nil {
			return errors.Wrap(err, "set flash")
		}
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func success(desc string) *flash.Message {
	return &flash.Message{Kind: flash.Success, Title: "Success", Description: desc}
}

func failure(title string, err error) *flash.Message {
	return &flash.Message{Kind: flash.Error, Title: title, Description: err.Error()}
}

// currentURL drops the sidebar toggle so forms return to the plain page.
func currentURL(u *url.URL) string {
	q := u.Query()
	q.Del("cart")
	if len(q) == 0 {
		return u.Path
	}
	return u.Path + "?" + q.Encode()
}

// safeReturn accepts only same-site absolute paths.
func safeReturn(s string) string {
	if s == "" || !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/\\") {
		return "/"
	}
	return s
}

// withCartOpen appends the sidebar toggle to a return path.
func withCartOpen(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return "/?cart=open"
	}
	q := u.Query()
	q.Set("cart", "open")
	u.RawQuery = q.Encode()
	return u.String()
}
