package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"shophub/core/registry"
	"shophub/service"
)

func TestRegistry_Register_Apply(t *testing.T) {
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryRoutes)
	RegisterGET("/test/registry/check", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	var got *service.Container
	svc := &service.Container{}
	RegisterRoute(func(e *echo.Echo, s *service.Container) {
		got = s
	})

	e := echo.New()
	ApplyRoutes(e, svc)

	for _, path := range []string{"/test/registry/check", "/_healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
	}
	if got != svc {
		t.Error("route module did not receive the container")
	}
}

func TestRegistry_LockedPanics(t *testing.T) {
	ApplyRoutes(echo.New(), nil)
	defer registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryRoutes)
	defer func() {
		if recover() == nil {
			t.Error("RegisterRoute after ApplyRoutes should panic")
		}
	}()
	RegisterGET("/late", func(c echo.Context) error { return nil })
}
