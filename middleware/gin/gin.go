// Package gin provides Gin middleware for quota enforcement
package gin

import (
	"fmt"
	"net/http"
	"strconv"

	gongin "github.com/gin-gonic/gin"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// UserIDExtractor extracts the user ID from a Gin context
// Return empty string if user is not authenticated
type UserIDExtractor func(c *gongin.Context) string

// Config holds middleware configuration
type Config struct {
	// Manager is the quota manager instance (required)
	Manager *botquota.Manager

	// GetUserID extracts user ID from context (required)
	GetUserID UserIDExtractor

	// OnDenied is called when the policy engine denies the request.
	// If nil, returns 429 JSON; cooldown denials carry a Retry-After header.
	OnDenied func(c *gongin.Context, decision botquota.Decision)

	// OnUnauthorized is called when user is not authenticated
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(c *gongin.Context)

	// OnNearCap is called when an allowed request carries the near-cap
	// warning (optional). A default X-Quota-Warning header is always added.
	//
	// IMPORTANT: This function should ONLY set headers (c.Header).
	// Do NOT write to the response body or status code, as the actual
	// request handler runs after the middleware completes.
	OnNearCap func(c *gongin.Context, decision botquota.Decision)
}

// Middleware creates a Gin middleware that enforces the quota policy.
// Requests are evaluated before the handler runs and the outcome is reported
// afterwards; any status below 500 counts as a consumed action.
func Middleware(cfg Config) gongin.HandlerFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Manager == nil {
		panic("botquota/gin: Config.Manager is required")
	}
	if cfg.GetUserID == nil {
		panic("botquota/gin: Config.GetUserID is required")
	}

	return func(c *gongin.Context) {
		userID := cfg.GetUserID(c)
		if userID == "" {
			if cfg.OnUnauthorized != nil {
				cfg.OnUnauthorized(c)
			} else {
				c.JSON(http.StatusUnauthorized, gongin.H{"error": "Unauthorized"})
			}
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		decision := cfg.Manager.Evaluate(ctx, userID)
		if !decision.Allowed() {
			if decision.Verdict == botquota.VerdictDenyCooldown {
				c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(decision)))
			}
			if cfg.OnDenied != nil {
				cfg.OnDenied(c, decision)
			} else {
				defaultDenied(c, decision)
			}
			c.Abort()
			return
		}

		if decision.NearCap {
			c.Header("X-Quota-Warning",
				fmt.Sprintf("monthly budget %d/%d", decision.MonthlyTotal, decision.MonthlyCap))
			if cfg.OnNearCap != nil {
				cfg.OnNearCap(c, decision)
			}
		}

		c.Next()

		cfg.Manager.ReportOutcome(ctx, userID, c.Writer.Status() < http.StatusInternalServerError)
	}
}

func defaultDenied(c *gongin.Context, decision botquota.Decision) {
	switch decision.Verdict {
	case botquota.VerdictDenyCooldown:
		c.JSON(http.StatusTooManyRequests, gongin.H{
			"error":       "Cooldown active",
			"retry_after": decision.RetryAfter.Seconds(),
		})
	case botquota.VerdictDenyDailyLimit:
		c.JSON(http.StatusTooManyRequests, gongin.H{
			"error": "Daily limit reached",
			"used":  decision.DailyCount,
			"limit": decision.DailyLimit,
		})
	case botquota.VerdictDenyMonthlyCap:
		c.JSON(http.StatusTooManyRequests, gongin.H{
			"error": "Monthly cap reached",
			"total": decision.MonthlyTotal,
			"cap":   decision.MonthlyCap,
		})
	default:
		c.JSON(http.StatusTooManyRequests, gongin.H{"error": "Request denied"})
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

// FromContext returns a UserIDExtractor that gets user ID from Gin context values
// This is the recommended approach for integrating with auth middleware that sets
// user information via c.Set("UserID", "...") or similar.
//
// Example:
//
//	// In your auth middleware:
//	c.Set("UserID", userID)
//
//	// In quota middleware config:
//	GetUserID: gin.FromContext("UserID")
func FromContext(key string) UserIDExtractor {
	return func(c *gongin.Context) string {
		if val, exists := c.Get(key); exists {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns a UserIDExtractor that gets user ID from a header
func FromHeader(headerName string) UserIDExtractor {
	return func(c *gongin.Context) string {
		return c.GetHeader(headerName)
	}
}

// FromParam returns a UserIDExtractor that gets user ID from a route parameter
func FromParam(paramName string) UserIDExtractor {
	return func(c *gongin.Context) string {
		return c.Param(paramName)
	}
}

// FromQuery returns a UserIDExtractor that gets user ID from a query parameter
func FromQuery(queryName string) UserIDExtractor {
	return func(c *gongin.Context) string {
		return c.Query(queryName)
	}
}
