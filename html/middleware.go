package html

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"shophub/core/client"
)

// RequestLogger writes one structured line per request and reports the
// handler time in X-Request-Duration-ms.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			res := c.Response()
			res.Before(func() {
				res.Header().Set("X-Request-Duration-ms", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
			})
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			entry := log.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     res.Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"request_id": res.Header().Get(echo.HeaderXRequestID),
			})
			switch {
			case res.Status >= 500:
				entry.WithError(err).Error("request")
			case res.Status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}

// ForwardCredentials passes the visitor's cookies on to backend calls made
// while serving the request. Cookies named in own belong to the storefront
// and are not forwarded.
func ForwardCredentials(own ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var parts []string
		cookies:
			for _, ck := range req.Cookies() {
				for _, name := range own {
					if ck.Name == name {
						continue cookies
					}
				}
				parts = append(parts, ck.Name+"="+ck.Value)
			}
			if len(parts) > 0 {
				ctx := client.WithCredentials(req.Context(), strings.Join(parts, "; "))
				c.SetRequest(req.WithContext(ctx))
			}
			return next(c)
		}
	}
}
