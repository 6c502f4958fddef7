package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New([]byte("secret"), false)
	id := "6f1c2a4e-8f3b-4b8e-9d6a-1c2b3d4e5f60"
	got, err := c.Decode(c.Encode(id))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != id {
		t.Errorf("Decode = %q, want %q", got, id)
	}
}

func TestCodec_RejectsTampering(t *testing.T) {
	c := New([]byte("secret"), false)
	other := New([]byte("other"), false)
	id := "6f1c2a4e-8f3b-4b8e-9d6a-1c2b3d4e5f60"
	for _, v := range []string{"", "abc", id, other.Encode(id), c.Encode(id) + "x", "x." + Sign([]byte("secret"), "x")} {
		if _, err := c.Decode(v); err == nil {
			t.Errorf("Decode(%q): want error", v)
		}
	}
}

func TestMiddleware_IssuesAndReuses(t *testing.T) {
	c := New([]byte("secret"), false)
	e := echo.New()
	e.Use(c.Middleware())
	e.GET("/", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, ID(ctx))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	first := rec.Body.String()
	if first == "" {
		t.Fatal("no session id")
	}
	cookie := rec.Header().Get("Set-Cookie")
	if !strings.HasPrefix(cookie, CookieName+"=") {
		t.Fatalf("Set-Cookie = %q", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", strings.SplitN(cookie, ";", 2)[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != first {
		t.Errorf("second id = %q, want %q", rec.Body.String(), first)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Error("valid cookie should not be reissued")
	}
}
