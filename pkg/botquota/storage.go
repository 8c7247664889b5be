package botquota

import "context"

// Store defines the interface for quota persistence. Keys are derived by the
// manager: day keys from DayKey, month keys from MonthKey.
//
// Implementations return real errors; the manager owns the fail-open policy
// (degrade reads to zero values, drop writes) so backends never need to.
// Increment operations should be atomic where the backend allows it; the
// daily counter is contended per user, the monthly total across all users.
type Store interface {
	// GetUsage retrieves the usage record for a user and day.
	// A missing record is not an error: return a zero UsageRecord.
	GetUsage(ctx context.Context, userID, day string) (UsageRecord, error)

	// SetUsage overwrites the usage record for a user and day.
	// Used for cooldown timestamp updates and admin resets.
	SetUsage(ctx context.Context, userID, day string, rec UsageRecord) error

	// IncrementDailyCount adds one to the user's count for the day,
	// creating the record if absent.
	IncrementDailyCount(ctx context.Context, userID, day string) error

	// GetDailyLimit retrieves the user's daily limit override.
	// Returns ErrLimitNotSet when no override exists.
	GetDailyLimit(ctx context.Context, userID string) (int, error)

	// SetDailyLimit stores a per-user daily limit override.
	SetDailyLimit(ctx context.Context, userID string, limit int) error

	// GetMonthlyTotal retrieves the global counter for the month.
	// A missing counter is not an error: return 0.
	GetMonthlyTotal(ctx context.Context, month string) (int, error)

	// IncrementMonthlyTotal adds one to the global counter for the month,
	// creating it if absent.
	IncrementMonthlyTotal(ctx context.Context, month string) error

	// ResetUsage overwrites the user's record for the day with zero values.
	ResetUsage(ctx context.Context, userID, day string) error

	// ResetMonthlyTotal overwrites the global counter for the month with zero.
	ResetMonthlyTotal(ctx context.Context, month string) error

	// DailyCounts returns the non-zero counts for all users on the given day.
	DailyCounts(ctx context.Context, day string) (map[string]int, error)
}
