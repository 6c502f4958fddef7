// Package session issues the signed visitor cookie that keys carts and
// checkout state.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var ErrInvalid = errors.New("invalid session cookie")

const (
	CookieName = "shophub_sid"
	contextKey = "session_id"
)

type Codec struct {
	Secret     []byte
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

func New(secret []byte, secure bool) *Codec {
	return &Codec{Secret: secret, CookieName: CookieName, Secure: secure, MaxAge: 30 * 24 * time.Hour}
}

// value format: id.base64(hmac(id))
func (c *Codec) Encode(id string) string {
	return id + "." + Sign(c.Secret, id)
}

func (c *Codec) Decode(v string) (string, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", ErrInvalid
	}
	if !Verify(c.Secret, parts[0], parts[1]) {
		return "", ErrInvalid
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return "", ErrInvalid
	}
	return parts[0], nil
}

// Middleware makes sure every request carries a session id, minting one
// when the cookie is missing or forged.
func (c *Codec) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id := ""
			if ck, err := ctx.Cookie(c.CookieName); err == nil && ck.Value != "" {
				id, _ = c.Decode(ck.Value)
			}
			if id == "" {
				id = uuid.NewString()
				ctx.SetCookie(&http.Cookie{
					Name:     c.CookieName,
					Value:    c.Encode(id),
					Path:     "/",
					MaxAge:   int(c.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   c.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx.Set(contextKey, id)
			return next(ctx)
		}
	}
}

// ID returns the session id set by Middleware.
func ID(ctx echo.Context) string {
	id, _ := ctx.Get(contextKey).(string)
	return id
}

func Sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func Verify(secret []byte, payload, sig string) bool {
	return hmac.Equal([]byte(Sign(secret, payload)), []byte(sig))
}
