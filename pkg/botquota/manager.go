// Package botquota enforces per-user daily quotas, a global monthly cap, and
// a per-user cooldown over a pluggable Store. Store failures degrade to
// permissive defaults (fail open) so a missing or broken backend never blocks
// the gated functionality.
package botquota

import (
	"context"
	"errors"
	"time"
)

// Manager evaluates quota policy and records usage. It holds no persistent
// state: all counters live in the Store, and the manager may be shared freely
// across concurrent request handlers.
type Manager struct {
	store  Store
	config Config
	admins map[string]struct{}
}

// NewManager creates a quota manager with the given store and configuration.
func NewManager(store Store, config Config) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreUnavailable
	}

	// Set defaults
	if config.Cooldown == 0 {
		config.Cooldown = DefaultCooldown
	}
	if config.DefaultDailyLimit == 0 {
		config.DefaultDailyLimit = DefaultDailyLimit
	}
	if config.MonthlyCap == 0 {
		config.MonthlyCap = DefaultMonthlyCap
	}
	if config.WarnFraction == 0 {
		config.WarnFraction = DefaultWarnFraction
	}
	if config.Clock == nil {
		config.Clock = systemClock{}
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}

	admins := make(map[string]struct{}, len(config.AdminIDs))
	for _, id := range config.AdminIDs {
		admins[id] = struct{}{}
	}

	return &Manager{
		store:  store,
		config: config,
		admins: admins,
	}, nil
}

// Evaluate decides whether userID may perform one gated action now.
//
// Checks run in a fixed order and the first failure wins: cooldown, daily
// limit, monthly cap. Passing the cooldown check immediately persists the new
// cooldown timestamp, before the action runs, so the next eligible time is
// established regardless of whether the action later succeeds. Quota counters
// are not touched here; callers report completion via ReportOutcome.
func (m *Manager) Evaluate(ctx context.Context, userID string) Decision {
	now := m.config.Clock.Now()
	day := DayKey(now)

	usage := m.usageOrZero(ctx, userID, day)

	elapsed := unixSeconds(now) - usage.LastActionTS
	if cooldown := m.config.Cooldown.Seconds(); elapsed < cooldown {
		retry := time.Duration((cooldown - elapsed) * float64(time.Second))
		return m.decided(Decision{
			Verdict:    VerdictDenyCooldown,
			RetryAfter: retry,
			DailyCount: usage.Count,
		})
	}
	// Stamp the cooldown clock without touching the count. Runs even when a
	// later check denies the action, which keeps rejected retries throttled.
	m.setUsage(ctx, userID, day, UsageRecord{
		Count:        usage.Count,
		LastActionTS: unixSeconds(now),
	})

	limit := m.dailyLimitOrDefault(ctx, userID)
	if usage.Count >= limit {
		return m.decided(Decision{
			Verdict:    VerdictDenyDailyLimit,
			DailyCount: usage.Count,
			DailyLimit: limit,
		})
	}

	total := m.monthlyTotalOrZero(ctx, MonthKey(now))
	monthCap := m.config.MonthlyCap
	if total >= monthCap {
		return m.decided(Decision{
			Verdict:      VerdictDenyMonthlyCap,
			DailyCount:   usage.Count,
			DailyLimit:   limit,
			MonthlyTotal: total,
			MonthlyCap:   monthCap,
		})
	}

	d := Decision{
		Verdict:      VerdictAllow,
		DailyCount:   usage.Count,
		DailyLimit:   limit,
		MonthlyTotal: total,
		MonthlyCap:   monthCap,
	}
	if float64(total) >= m.config.WarnFraction*float64(monthCap) {
		d.NearCap = true
		m.config.Metrics.RecordNearCap()
	}
	return m.decided(d)
}

// ReportOutcome records the result of a gated action that was previously
// allowed. On success it increments the user's daily count and the global
// monthly total; on failure it records nothing, so quota is only consumed for
// verified successes. The cooldown stamp written by Evaluate stands either way.
func (m *Manager) ReportOutcome(ctx context.Context, userID string, success bool) {
	if !success {
		return
	}

	now := m.config.Clock.Now()

	start := time.Now()
	err := m.store.IncrementDailyCount(ctx, userID, DayKey(now))
	m.config.Metrics.RecordStoreOperation("increment_daily", time.Since(start), err)
	if err != nil {
		m.degraded("increment_daily", err, Field{Key: "user_id", Value: userID})
	}

	start = time.Now()
	err = m.store.IncrementMonthlyTotal(ctx, MonthKey(now))
	m.config.Metrics.RecordStoreOperation("increment_monthly", time.Since(start), err)
	if err != nil {
		m.degraded("increment_monthly", err)
	}
}

// DailyUsage returns the user's count and effective limit for today.
func (m *Manager) DailyUsage(ctx context.Context, userID string) (count, limit int) {
	day := DayKey(m.config.Clock.Now())
	usage := m.usageOrZero(ctx, userID, day)
	return usage.Count, m.dailyLimitOrDefault(ctx, userID)
}

// MonthlyStatus returns the global total and cap for the current month.
// It is intentionally unauthenticated: any caller may inspect the shared
// budget.
func (m *Manager) MonthlyStatus(ctx context.Context) (total, cap int) {
	month := MonthKey(m.config.Clock.Now())
	return m.monthlyTotalOrZero(ctx, month), m.config.MonthlyCap
}

func (m *Manager) decided(d Decision) Decision {
	m.config.Metrics.RecordDecision(string(d.Verdict))
	return d
}

// usageOrZero reads the usage record, degrading to a zero record on error.
func (m *Manager) usageOrZero(ctx context.Context, userID, day string) UsageRecord {
	start := time.Now()
	rec, err := m.store.GetUsage(ctx, userID, day)
	m.config.Metrics.RecordStoreOperation("get_usage", time.Since(start), err)
	if err != nil {
		m.degraded("get_usage", err, Field{Key: "user_id", Value: userID})
		return UsageRecord{}
	}
	return rec
}

// setUsage writes the usage record, dropping the write on error.
func (m *Manager) setUsage(ctx context.Context, userID, day string, rec UsageRecord) {
	start := time.Now()
	err := m.store.SetUsage(ctx, userID, day, rec)
	m.config.Metrics.RecordStoreOperation("set_usage", time.Since(start), err)
	if err != nil {
		m.degraded("set_usage", err, Field{Key: "user_id", Value: userID})
	}
}

// dailyLimitOrDefault resolves the user's effective daily limit. Both a
// missing override and a store failure yield the configured default.
func (m *Manager) dailyLimitOrDefault(ctx context.Context, userID string) int {
	start := time.Now()
	limit, err := m.store.GetDailyLimit(ctx, userID)
	m.config.Metrics.RecordStoreOperation("get_daily_limit", time.Since(start), err)
	if err != nil {
		if !errors.Is(err, ErrLimitNotSet) {
			m.degraded("get_daily_limit", err, Field{Key: "user_id", Value: userID})
		}
		return m.config.DefaultDailyLimit
	}
	return limit
}

// monthlyTotalOrZero reads the global monthly counter, degrading to zero on
// error.
func (m *Manager) monthlyTotalOrZero(ctx context.Context, month string) int {
	start := time.Now()
	total, err := m.store.GetMonthlyTotal(ctx, month)
	m.config.Metrics.RecordStoreOperation("get_monthly_total", time.Since(start), err)
	if err != nil {
		m.degraded("get_monthly_total", err)
		return 0
	}
	return total
}

func (m *Manager) degraded(op string, err error, fields ...Field) {
	m.config.Metrics.RecordStoreDegraded(op)
	fields = append(fields, Field{Key: "operation", Value: op}, Field{Key: "error", Value: err.Error()})
	m.config.Logger.Warn("store unavailable, failing open", fields...)
}
