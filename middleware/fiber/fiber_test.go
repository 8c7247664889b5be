package fiber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

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

func setupTestApp(manager *botquota.Manager) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{
		Manager:   manager,
		GetUserID: FromHeader("X-User-ID"),
	}))
	app.Post("/action", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, userID string) *http.Response {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/action", nil)
	if userID != "" {
		r.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(r)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	return resp
}

func TestMiddleware_Allowed(t *testing.T) {
	manager := setupTestManager(t)
	app := setupTestApp(manager)

	resp := doRequest(t, app, "user1")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	count, _ := manager.DailyUsage(context.Background(), "user1")
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
}

func TestMiddleware_Unauthorized(t *testing.T) {
	manager := setupTestManager(t)
	app := setupTestApp(manager)

	resp := doRequest(t, app, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestMiddleware_CooldownDenied(t *testing.T) {
	manager := setupTestManager(t)
	app := setupTestApp(manager)

	if resp := doRequest(t, app, "user1"); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	resp := doRequest(t, app, "user1")
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on cooldown denial")
	}
}

func TestMiddleware_HandlerErrorConsumesNoQuota(t *testing.T) {
	manager := setupTestManager(t)

	app := fiber.New()
	app.Use(Middleware(Config{
		Manager:   manager,
		GetUserID: FromHeader("X-User-ID"),
	}))
	app.Post("/action", func(c *fiber.Ctx) error {
		return fiber.ErrInternalServerError
	})

	doRequest(t, app, "user1")

	count, _ := manager.DailyUsage(context.Background(), "user1")
	if count != 0 {
		t.Errorf("Expected count 0, got %d", count)
	}
}
