// Package echo provides Echo middleware for quota enforcement
package echo

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// UserIDExtractor extracts the user ID from an Echo context
// Return empty string if user is not authenticated
type UserIDExtractor func(c echo.Context) string

// Config holds middleware configuration
type Config struct {
	// Manager is the quota manager instance (required)
	Manager *botquota.Manager

	// GetUserID extracts user ID from context (required)
	GetUserID UserIDExtractor

	// OnDenied is called when the policy engine denies the request.
	// If nil, returns 429 JSON; cooldown denials carry a Retry-After header.
	OnDenied func(c echo.Context, decision botquota.Decision) error

	// OnUnauthorized is called when user is not authenticated
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(c echo.Context) error

	// OnNearCap is called when an allowed request carries the near-cap
	// warning (optional). A default X-Quota-Warning header is always added.
	OnNearCap func(c echo.Context, decision botquota.Decision)
}

// Middleware creates an Echo middleware that enforces the quota policy.
// Requests are evaluated before the handler runs and the outcome is reported
// afterwards; any status below 500 counts as a consumed action.
func Middleware(cfg Config) echo.MiddlewareFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Manager == nil {
		panic("botquota/echo: Config.Manager is required")
	}
	if cfg.GetUserID == nil {
		panic("botquota/echo: Config.GetUserID is required")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := cfg.GetUserID(c)
			if userID == "" {
				if cfg.OnUnauthorized != nil {
					return cfg.OnUnauthorized(c)
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			ctx := c.Request().Context()
			decision := cfg.Manager.Evaluate(ctx, userID)
			if !decision.Allowed() {
				if decision.Verdict == botquota.VerdictDenyCooldown {
					c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision)))
				}
				if cfg.OnDenied != nil {
					return cfg.OnDenied(c, decision)
				}
				return defaultDenied(c, decision)
			}

			if decision.NearCap {
				c.Response().Header().Set("X-Quota-Warning",
					fmt.Sprintf("monthly budget %d/%d", decision.MonthlyTotal, decision.MonthlyCap))
				if cfg.OnNearCap != nil {
					cfg.OnNearCap(c, decision)
				}
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			cfg.Manager.ReportOutcome(ctx, userID, status < http.StatusInternalServerError)

			return err
		}
	}
}

func defaultDenied(c echo.Context, decision botquota.Decision) error {
	switch decision.Verdict {
	case botquota.VerdictDenyCooldown:
		return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
			"error":       "Cooldown active",
			"retry_after": decision.RetryAfter.Seconds(),
		})
	case botquota.VerdictDenyDailyLimit:
		return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
			"error": "Daily limit reached",
			"used":  decision.DailyCount,
			"limit": decision.DailyLimit,
		})
	case botquota.VerdictDenyMonthlyCap:
		return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
			"error": "Monthly cap reached",
			"total": decision.MonthlyTotal,
			"cap":   decision.MonthlyCap,
		})
	default:
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Request denied"})
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

// FromContext returns a UserIDExtractor that gets user ID from Echo context values
func FromContext(key string) UserIDExtractor {
	return func(c echo.Context) string {
		if val := c.Get(key); val != nil {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns a UserIDExtractor that gets user ID from a header
func FromHeader(headerName string) UserIDExtractor {
	return func(c echo.Context) string {
		return c.Request().Header.Get(headerName)
	}
}

// FromParam returns a UserIDExtractor that gets user ID from a route parameter
func FromParam(paramName string) UserIDExtractor {
	return func(c echo.Context) string {
		return c.Param(paramName)
	}
}

// FromQuery returns a UserIDExtractor that gets user ID from a query parameter
func FromQuery(queryName string) UserIDExtractor {
	return func(c echo.Context) string {
		return c.QueryParam(queryName)
	}
}
