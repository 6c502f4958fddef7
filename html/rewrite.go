package html

import (
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// DeepLink restores paths that a static host's 404 page folded into the
// query string, e.g. /?/admin/orders&a=1~and~b=2 becomes /admin/orders?a=1&b=2.
func DeepLink() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if r.URL.Path == "/" && strings.HasPrefix(r.URL.RawQuery, "/") {
				if p, q, ok := unfoldDeepLink(r.URL.RawQuery); ok {
					r.URL.Path = p
					r.URL.RawPath = ""
					r.URL.RawQuery = q
					r.RequestURI = r.URL.RequestURI()
				}
			}
			return next(c)
		}
	}
}

func unfoldDeepLink(raw string) (path, query string, ok bool) {
	parts := strings.Split(raw, "&")
	for i := range parts {
		parts[i] = strings.ReplaceAll(parts[i], "~and~", "&")
	}
	p, err := url.PathUnescape(parts[0])
	if err != nil || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "", "", false
	}
	return p, strings.Join(parts[1:], "&"), true
}
