package botquota

import (
	"context"
	"sort"
	"time"
)

// IsAdmin reports whether id is in the configured admin set.
func (m *Manager) IsAdmin(id string) bool {
	_, ok := m.admins[id]
	return ok
}

// ResetUserDaily zeroes userID's usage record for today. Admin only.
func (m *Manager) ResetUserDaily(ctx context.Context, callerID, userID string) error {
	if !m.IsAdmin(callerID) {
		return ErrUnauthorized
	}

	day := DayKey(m.config.Clock.Now())

	start := time.Now()
	err := m.store.ResetUsage(ctx, userID, day)
	m.config.Metrics.RecordStoreOperation("reset_usage", time.Since(start), err)
	if err != nil {
		m.degraded("reset_usage", err, Field{Key: "user_id", Value: userID})
		return nil
	}

	m.config.Logger.Info("daily usage reset",
		Field{Key: "caller_id", Value: callerID},
		Field{Key: "user_id", Value: userID},
		Field{Key: "day", Value: day})
	return nil
}

// SetUserDailyLimit sets a per-user daily limit override. Admin only; limit
// must be non-negative.
func (m *Manager) SetUserDailyLimit(ctx context.Context, callerID, userID string, limit int) error {
	if !m.IsAdmin(callerID) {
		return ErrUnauthorized
	}
	if limit < 0 {
		return ErrInvalidArgument
	}

	start := time.Now()
	err := m.store.SetDailyLimit(ctx, userID, limit)
	m.config.Metrics.RecordStoreOperation("set_daily_limit", time.Since(start), err)
	if err != nil {
		m.degraded("set_daily_limit", err, Field{Key: "user_id", Value: userID})
		return nil
	}

	m.config.Logger.Info("daily limit updated",
		Field{Key: "caller_id", Value: callerID},
		Field{Key: "user_id", Value: userID},
		Field{Key: "limit", Value: limit})
	return nil
}

// ResetMonthlyGlobal zeroes the global counter for the current month.
// Admin only.
func (m *Manager) ResetMonthlyGlobal(ctx context.Context, callerID string) error {
	if !m.IsAdmin(callerID) {
		return ErrUnauthorized
	}

	month := MonthKey(m.config.Clock.Now())

	start := time.Now()
	err := m.store.ResetMonthlyTotal(ctx, month)
	m.config.Metrics.RecordStoreOperation("reset_monthly_total", time.Since(start), err)
	if err != nil {
		m.degraded("reset_monthly_total", err)
		return nil
	}

	m.config.Logger.Info("monthly total reset",
		Field{Key: "caller_id", Value: callerID},
		Field{Key: "month", Value: month})
	return nil
}

// DailyStats returns today's non-zero usage counts per user, sorted by user
// ID. Admin only. Store failures yield an empty snapshot, not an error.
func (m *Manager) DailyStats(ctx context.Context, callerID string) ([]UserCount, error) {
	if !m.IsAdmin(callerID) {
		return nil, ErrUnauthorized
	}

	day := DayKey(m.config.Clock.Now())

	start := time.Now()
	counts, err := m.store.DailyCounts(ctx, day)
	m.config.Metrics.RecordStoreOperation("daily_counts", time.Since(start), err)
	if err != nil {
		m.degraded("daily_counts", err)
		return nil, nil
	}

	stats := make([]UserCount, 0, len(counts))
	for userID, count := range counts {
		if count == 0 {
			continue
		}
		stats = append(stats, UserCount{UserID: userID, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].UserID < stats[j].UserID })
	return stats, nil
}
