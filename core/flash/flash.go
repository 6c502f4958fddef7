// Package flash carries one-shot notifications across a redirect in a
// signed cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"shophub/core/session"
)

var ErrInvalid = errors.New("invalid flash cookie")

const CookieName = "shophub_flash"

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Message is a toast: a title plus optional description.
type Message struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Codec struct {
	Secret []byte
	Secure bool
}

func NewCodec(secret []byte, secure bool) *Codec {
	return &Codec{Secret: secret, Secure: secure}
}

// value format: base64(json).base64(hmac)
func (c *Codec) Encode(m Message) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + session.Sign(c.Secret, payload), nil
}

func (c *Codec) Decode(v string) (*Message, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 2 {
		return nil, ErrInvalid
	}
	if !session.Verify(c.Secret, parts[0], parts[1]) {
		return nil, ErrInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalid
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrInvalid
	}
	if strings.TrimSpace(m.Title) == "" {
		return nil, ErrInvalid
	}
	return &m, nil
}

// Set queues m for the next rendered page.
func (c *Codec) Set(ctx echo.Context, m Message) error {
	v, err := c.Encode(m)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    v,
		Path:     "/",
		MaxAge:   int((2 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the queued message, if any, and clears it.
func (c *Codec) Pop(ctx echo.Context) *Message {
	ck, err := ctx.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	ctx.SetCookie(&http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: c.Secure})
	m, err := c.Decode(ck.Value)
	if err != nil {
		return nil
	}
	return m
}
