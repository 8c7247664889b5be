package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mihaimyh/botquota/pkg/botquota"
	"github.com/mihaimyh/botquota/storage/memory"
)

func TestStore_Usage(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	rec, err := store.GetUsage(ctx, "user1", "2025-06-15")
	require.NoError(t, err)
	require.Zero(t, rec)

	want := botquota.UsageRecord{Count: 3, LastActionTS: 1750000000}
	require.NoError(t, store.SetUsage(ctx, "user1", "2025-06-15", want))

	rec, err = store.GetUsage(ctx, "user1", "2025-06-15")
	require.NoError(t, err)
	require.Equal(t, want, rec)

	// Other days and users stay isolated.
	rec, err = store.GetUsage(ctx, "user1", "2025-06-16")
	require.NoError(t, err)
	require.Zero(t, rec)
	rec, err = store.GetUsage(ctx, "user2", "2025-06-15")
	require.NoError(t, err)
	require.Zero(t, rec)
}

func TestStore_IncrementDailyCount(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SetUsage(ctx, "user1", "2025-06-15", botquota.UsageRecord{LastActionTS: 42}))
	require.NoError(t, store.IncrementDailyCount(ctx, "user1", "2025-06-15"))
	require.NoError(t, store.IncrementDailyCount(ctx, "user1", "2025-06-15"))

	rec, err := store.GetUsage(ctx, "user1", "2025-06-15")
	require.NoError(t, err)
	require.Equal(t, 2, rec.Count)
	// The increment must not disturb the cooldown stamp.
	require.Equal(t, float64(42), rec.LastActionTS)
}

func TestStore_DailyLimit(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	_, err := store.GetDailyLimit(ctx, "user1")
	require.ErrorIs(t, err, botquota.ErrLimitNotSet)

	require.NoError(t, store.SetDailyLimit(ctx, "user1", 0))
	limit, err := store.GetDailyLimit(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, 0, limit)
}

func TestStore_MonthlyTotal(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	total, err := store.GetMonthlyTotal(ctx, "2025-06")
	require.NoError(t, err)
	require.Equal(t, 0, total)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.IncrementMonthlyTotal(ctx, "2025-06"))
	}
	total, err = store.GetMonthlyTotal(ctx, "2025-06")
	require.NoError(t, err)
	require.Equal(t, 5, total)

	require.NoError(t, store.ResetMonthlyTotal(ctx, "2025-06"))
	total, err = store.GetMonthlyTotal(ctx, "2025-06")
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestStore_ResetUsage(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SetUsage(ctx, "user1", "2025-06-15", botquota.UsageRecord{Count: 9, LastActionTS: 1}))
	require.NoError(t, store.ResetUsage(ctx, "user1", "2025-06-15"))

	rec, err := store.GetUsage(ctx, "user1", "2025-06-15")
	require.NoError(t, err)
	require.Zero(t, rec)
}

func TestStore_DailyCounts(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SetUsage(ctx, "alice", "2025-06-15", botquota.UsageRecord{Count: 5}))
	require.NoError(t, store.SetUsage(ctx, "bob", "2025-06-15", botquota.UsageRecord{Count: 2}))
	require.NoError(t, store.SetUsage(ctx, "carol", "2025-06-14", botquota.UsageRecord{Count: 7}))
	// Zero-count records (cooldown stamp only) are excluded.
	require.NoError(t, store.SetUsage(ctx, "dave", "2025-06-15", botquota.UsageRecord{LastActionTS: 1}))

	counts, err := store.DailyCounts(ctx, "2025-06-15")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"alice": 5, "bob": 2}, counts)
}

func TestStore_ConcurrentIncrements(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.IncrementDailyCount(ctx, "user1", "2025-06-15")
			_ = store.IncrementMonthlyTotal(ctx, "2025-06")
		}()
	}
	wg.Wait()

	rec, err := store.GetUsage(ctx, "user1", "2025-06-15")
	require.NoError(t, err)
	require.Equal(t, n, rec.Count)

	total, err := store.GetMonthlyTotal(ctx, "2025-06")
	require.NoError(t, err)
	require.Equal(t, n, total)
}

func TestStore_Clear(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SetUsage(ctx, "user1", "2025-06-15", botquota.UsageRecord{Count: 1}))
	require.NoError(t, store.SetDailyLimit(ctx, "user1", 3))
	require.NoError(t, store.IncrementMonthlyTotal(ctx, "2025-06"))

	store.Clear()

	rec, _ := store.GetUsage(ctx, "user1", "2025-06-15")
	require.Zero(t, rec)
	_, err := store.GetDailyLimit(ctx, "user1")
	require.ErrorIs(t, err, botquota.ErrLimitNotSet)
	total, _ := store.GetMonthlyTotal(ctx, "2025-06")
	require.Equal(t, 0, total)
}
