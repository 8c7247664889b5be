// Package fiber provides Fiber middleware for quota enforcement
package fiber

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// UserIDExtractor extracts the user ID from a Fiber context
// Return empty string if user is not authenticated
type UserIDExtractor func(c *fiber.Ctx) string

// Config holds middleware configuration
type Config struct {
	// Manager is the quota manager instance (required)
	Manager *botquota.Manager

	// GetUserID extracts user ID from context (required)
	GetUserID UserIDExtractor

	// OnDenied is called when the policy engine denies the request.
	// If nil, returns 429 JSON; cooldown denials carry a Retry-After header.
	OnDenied func(c *fiber.Ctx, decision botquota.Decision) error

	// OnUnauthorized is called when user is not authenticated
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(c *fiber.Ctx) error

	// OnNearCap is called when an allowed request carries the near-cap
	// warning (optional). A default X-Quota-Warning header is always added.
	OnNearCap func(c *fiber.Ctx, decision botquota.Decision)
}

// Middleware creates a Fiber middleware that enforces the quota policy.
// Requests are evaluated before the handler runs and the outcome is reported
// afterwards; any status below 500 counts as a consumed action.
func Middleware(cfg Config) fiber.Handler {
	// Validate required configuration at startup (fail fast)
	if cfg.Manager == nil {
		panic("botquota/fiber: Config.Manager is required")
	}
	if cfg.GetUserID == nil {
		panic("botquota/fiber: Config.GetUserID is required")
	}

	return func(c *fiber.Ctx) error {
		userID := cfg.GetUserID(c)
		if userID == "" {
			if cfg.OnUnauthorized != nil {
				return cfg.OnUnauthorized(c)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		ctx := c.UserContext()
		decision := cfg.Manager.Evaluate(ctx, userID)
		if !decision.Allowed() {
			if decision.Verdict == botquota.VerdictDenyCooldown {
				c.Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision)))
			}
			if cfg.OnDenied != nil {
				return cfg.OnDenied(c, decision)
			}
			return defaultDenied(c, decision)
		}

		if decision.NearCap {
			c.Set("X-Quota-Warning",
				fmt.Sprintf("monthly budget %d/%d", decision.MonthlyTotal, decision.MonthlyCap))
			if cfg.OnNearCap != nil {
				cfg.OnNearCap(c, decision)
			}
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		cfg.Manager.ReportOutcome(ctx, userID, status < fiber.StatusInternalServerError)

		return err
	}
}

func defaultDenied(c *fiber.Ctx, decision botquota.Decision) error {
	switch decision.Verdict {
	case botquota.VerdictDenyCooldown:
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       "Cooldown active",
			"retry_after": decision.RetryAfter.Seconds(),
		})
	case botquota.VerdictDenyDailyLimit:
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Daily limit reached",
			"used":  decision.DailyCount,
			"limit": decision.DailyLimit,
		})
	case botquota.VerdictDenyMonthlyCap:
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Monthly cap reached",
			"total": decision.MonthlyTotal,
			"cap":   decision.MonthlyCap,
		})
	default:
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Request denied"})
	}
}

func retryAfterSeconds(decision botquota.Decision) int {
	secs := int(decision.RetryAfter.Seconds())
	if decision.RetryAfter.Seconds() > float64(secs) {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Convenience extractors for User ID

// FromLocals returns a UserIDExtractor that gets user ID from Fiber locals
func FromLocals(key string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		if val := c.Locals(key); val != nil {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns a UserIDExtractor that gets user ID from a header
func FromHeader(headerName string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		return c.Get(headerName)
	}
}

// FromParam returns a UserIDExtractor that gets user ID from a route parameter
func FromParam(paramName string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		return c.Params(paramName)
	}
}

// FromQuery returns a UserIDExtractor that gets user ID from a query parameter
func FromQuery(queryName string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		return c.Query(queryName)
	}
}
