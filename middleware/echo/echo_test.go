package echo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mihaimyh/botquota/pkg/botquota"
	"github.com/mihaimyh/botquota/storage/memory"
)

// Test helper to create a test manager
func setupTestManager(t *testing.T) *botquota.Manager {
	t.Helper()

	manager, err := botquota.NewManager(memory.New(), botquota.Config{
		Cooldown:          5 * time.Second,
		DefaultDailyLimit: 2,
		MonthlyCap:        100,
	})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return manager
}

func setupTestApp(manager *botquota.Manager) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{
		Manager:   manager,
		GetUserID: FromHeader("X-User-ID"),
	}))
	e.POST("/action", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func doRequest(e *echo.Echo, userID string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/action", nil)
	if userID != "" {
		r.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func TestMiddleware_Allowed(t *testing.T) {
	manager := setupTestManager(t)
	e := setupTestApp(manager)

	w := doRequest(e, "user1")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	count, _ := manager.DailyUsage(context.Background(), "user1")
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
}

func TestMiddleware_Unauthorized(t *testing.T) {
	manager := setupTestManager(t)
	e := setupTestApp(manager)

	w := doRequest(e, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestMiddleware_CooldownDenied(t *testing.T) {
	manager := setupTestManager(t)
	e := setupTestApp(manager)

	if w := doRequest(e, "user1"); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w := doRequest(e, "user1")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on cooldown denial")
	}
}

func TestMiddleware_HandlerErrorConsumesNoQuota(t *testing.T) {
	manager := setupTestManager(t)

	e := echo.New()
	e.Use(Middleware(Config{
		Manager:   manager,
		GetUserID: FromHeader("X-User-ID"),
	}))
	e.POST("/action", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	doRequest(e, "user1")

	count, _ := manager.DailyUsage(context.Background(), "user1")
	if count != 0 {
		t.Errorf("Expected count 0, got %d", count)
	}
}

func TestMiddleware_CustomOnDenied(t *testing.T) {
	manager := setupTestManager(t)

	e := echo.New()
	e.Use(Middleware(Config{
		Manager:   manager,
		GetUserID: FromHeader("X-User-ID"),
		OnDenied: func(c echo.Context, d botquota.Decision) error {
			return c.String(http.StatusServiceUnavailable, string(d.Verdict))
		},
	}))
	e.POST("/action", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	doRequest(e, "user1")
	w := doRequest(e, "user1")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 from custom callback, got %d", w.Code)
	}
}
