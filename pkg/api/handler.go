// Package api provides HTTP endpoints for quota inspection and admin
// overrides. Handlers are plain http.HandlerFunc methods, mountable on any
// router.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

const maxUserIDLen = 255

// Handler provides HTTP endpoints over a quota manager.
type Handler struct {
	config Config
}

// GetQuota returns the caller's daily quota standing.
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID := h.config.GetUserID(r)
	if userID == "" {
		h.handleError(w, r, fmt.Errorf("user ID not found"), http.StatusUnauthorized)
		return
	}
	if len(userID) > maxUserIDLen {
		h.handleError(w, r, fmt.Errorf("invalid user ID format"), http.StatusBadRequest)
		return
	}

	used, limit := h.config.Manager.DailyUsage(r.Context(), userID)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	h.writeJSON(w, QuotaResponse{
		UserID:    userID,
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
	})
}

// GetMonthlyStatus returns the shared monthly counter. No authentication:
// the shared budget is public to every caller.
func (h *Handler) GetMonthlyStatus(w http.ResponseWriter, r *http.Request) {
	total, cap := h.config.Manager.MonthlyStatus(r.Context())
	remaining := cap - total
	if remaining < 0 {
		remaining = 0
	}

	h.writeJSON(w, MonthlyResponse{
		Total:     total,
		Cap:       cap,
		Remaining: remaining,
	})
}

// ResetUserDaily zeroes a user's daily usage. Admin only.
func (h *Handler) ResetUserDaily(w http.ResponseWriter, r *http.Request) {
	callerID := h.config.GetUserID(r)

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.handleError(w, r, fmt.Errorf("user_id is required"), http.StatusBadRequest)
		return
	}

	if err := h.config.Manager.ResetUserDaily(r.Context(), callerID, req.UserID); err != nil {
		h.handleManagerError(w, r, err)
		return
	}
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// SetDailyLimit sets a per-user daily limit override. Admin only.
func (h *Handler) SetDailyLimit(w http.ResponseWriter, r *http.Request) {
	callerID := h.config.GetUserID(r)

	var req SetLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.handleError(w, r, fmt.Errorf("user_id and limit are required"), http.StatusBadRequest)
		return
	}

	if err := h.config.Manager.SetUserDailyLimit(r.Context(), callerID, req.UserID, req.Limit); err != nil {
		h.handleManagerError(w, r, err)
		return
	}
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// ResetMonth zeroes the global monthly counter. Admin only.
func (h *Handler) ResetMonth(w http.ResponseWriter, r *http.Request) {
	callerID := h.config.GetUserID(r)

	if err := h.config.Manager.ResetMonthlyGlobal(r.Context(), callerID); err != nil {
		h.handleManagerError(w, r, err)
		return
	}
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// GetStats returns today's non-zero usage counts. Admin only.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	callerID := h.config.GetUserID(r)

	stats, err := h.config.Manager.DailyStats(r.Context(), callerID)
	if err != nil {
		h.handleManagerError(w, r, err)
		return
	}

	resp := StatsResponse{Users: make([]StatsEntry, 0, len(stats))}
	for _, uc := range stats {
		resp.Total += uc.Count
		resp.Users = append(resp.Users, StatsEntry{UserID: uc.UserID, Count: uc.Count})
	}
	h.writeJSON(w, resp)
}

func (h *Handler) handleManagerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, botquota.ErrUnauthorized):
		h.handleError(w, r, err, http.StatusForbidden)
	case errors.Is(err, botquota.ErrInvalidArgument):
		h.handleError(w, r, err, http.StatusBadRequest)
	default:
		h.handleError(w, r, err, http.StatusInternalServerError)
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if h.config.OnError != nil {
		h.config.OnError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response already committed; nothing useful to do.
		return
	}
}
