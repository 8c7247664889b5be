// Package http provides HTTP middleware that gates requests through the
// quota policy engine.
package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// UserIDExtractor extracts the user ID from an HTTP request.
// Return empty string if user is not authenticated.
type UserIDExtractor func(r *http.Request) string

// Config holds middleware configuration.
type Config struct {
	// Manager is the quota manager instance (required)
	Manager *botquota.Manager

	// GetUserID extracts user ID from request (required)
	GetUserID UserIDExtractor

	// OnDenied is called when the policy engine denies the request.
	// If nil, returns 429 Too Many Requests with a Retry-After header on
	// cooldown denials.
	OnDenied func(w http.ResponseWriter, r *http.Request, decision botquota.Decision)

	// OnUnauthorized is called when user is not authenticated.
	// If nil, returns 401 Unauthorized.
	OnUnauthorized func(w http.ResponseWriter, r *http.Request)

	// OnNearCap is called when an allowed request carries the near-cap
	// warning (optional).
	OnNearCap func(r *http.Request, decision botquota.Decision)
}

// Middleware creates an HTTP middleware that enforces the quota policy.
// Requests are evaluated before the wrapped handler runs; the outcome is
// reported afterwards, with any status below 500 counting as a consumed
// action. The cooldown stamp is consumed by the evaluation itself.
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := config.GetUserID(r)
			if userID == "" {
				if config.OnUnauthorized != nil {
					config.OnUnauthorized(w, r)
				} else {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
				}
				return
			}

			ctx := r.Context()
			decision := config.Manager.Evaluate(ctx, userID)
			if !decision.Allowed() {
				if config.OnDenied != nil {
					config.OnDenied(w, r, decision)
				} else {
					denyResponse(w, decision)
				}
				return
			}

			if decision.NearCap && config.OnNearCap != nil {
				config.OnNearCap(r, decision)
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			config.Manager.ReportOutcome(ctx, userID, rec.status < http.StatusInternalServerError)
		})
	}
}

func denyResponse(w http.ResponseWriter, decision botquota.Decision) {
	var msg string
	switch decision.Verdict {
	case botquota.VerdictDenyCooldown:
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision)))
		msg = "cooldown active"
	case botquota.VerdictDenyDailyLimit:
		msg = fmt.Sprintf("daily limit reached: %d/%d", decision.DailyCount, decision.DailyLimit)
	case botquota.VerdictDenyMonthlyCap:
		msg = fmt.Sprintf("monthly cap reached: %d/%d", decision.MonthlyTotal, decision.MonthlyCap)
	default:
		msg = "request denied"
	}
	http.Error(w, msg, http.StatusTooManyRequests)
}

// retryAfterSeconds rounds the remaining cooldown up to whole seconds, never
// returning less than 1 for an active cooldown.
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

// statusRecorder captures the response status for outcome reporting.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
