package botquota

import "time"

// Default policy values, matching the bot's historical environment defaults.
const (
	DefaultCooldown     = 5 * time.Second
	DefaultDailyLimit   = 10
	DefaultMonthlyCap   = 100
	DefaultWarnFraction = 0.8
)

// UsageRecord is the per-user, per-day usage state persisted by a Store.
// LastActionTS is a wall-clock timestamp in seconds, kept as a float to match
// the backend's JSON schema.
type UsageRecord struct {
	Count        int     `json:"count"`
	LastActionTS float64 `json:"last_ts"`
}

// Verdict is the outcome of a policy evaluation.
type Verdict string

const (
	// VerdictAllow permits the gated action.
	VerdictAllow Verdict = "allow"
	// VerdictDenyCooldown rejects an action issued before the per-user
	// cooldown has elapsed.
	VerdictDenyCooldown Verdict = "deny_cooldown"
	// VerdictDenyDailyLimit rejects an action once the user's daily limit
	// is reached.
	VerdictDenyDailyLimit Verdict = "deny_daily_limit"
	// VerdictDenyMonthlyCap rejects an action once the global monthly cap
	// is reached, for every user.
	VerdictDenyMonthlyCap Verdict = "deny_monthly_cap"
)

// Decision is the result of Manager.Evaluate.
type Decision struct {
	Verdict Verdict

	// NearCap is set on an allow when the global monthly total has crossed
	// the warning fraction of the cap. Callers surface it to the user.
	NearCap bool

	// RetryAfter is how long until the cooldown expires. Only set on
	// VerdictDenyCooldown.
	RetryAfter time.Duration

	// DailyCount and DailyLimit describe the user's standing before the
	// requested action.
	DailyCount int
	DailyLimit int

	// MonthlyTotal and MonthlyCap describe the shared monthly counter.
	MonthlyTotal int
	MonthlyCap   int
}

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllow
}

// UserCount is one row of a daily stats snapshot.
type UserCount struct {
	UserID string
	Count  int
}

// Config holds quota manager configuration.
type Config struct {
	// AdminIDs is the set of privileged user identifiers. Loaded once at
	// startup and immutable for the manager's lifetime.
	AdminIDs []string

	// Cooldown is the minimum gap between two actions by the same user
	// (default: 5s).
	Cooldown time.Duration

	// DefaultDailyLimit applies to users without a per-user override
	// (default: 10).
	DefaultDailyLimit int

	// MonthlyCap is the global ceiling on successful actions per calendar
	// month, shared across all users (default: 100).
	MonthlyCap int

	// WarnFraction is the fraction of MonthlyCap at which allows start
	// carrying the near-cap flag (default: 0.8).
	WarnFraction float64

	// Clock supplies the current time. Inject a fake in tests to simulate
	// day and month rollover (default: system clock).
	Clock Clock

	// Logger is used for structured logging (default: NoopLogger).
	Logger Logger

	// Metrics is used for tracking decisions and store health
	// (default: NoopMetrics).
	Metrics Metrics
}
