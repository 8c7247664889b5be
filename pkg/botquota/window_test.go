package botquota_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

func TestDayKey(t *testing.T) {
	ts := time.Date(2025, 6, 5, 23, 59, 59, 0, time.UTC)
	require.Equal(t, "2025-06-05", botquota.DayKey(ts))

	// One second later is the next day's bucket.
	require.Equal(t, "2025-06-06", botquota.DayKey(ts.Add(time.Second)))
}

func TestMonthKey(t *testing.T) {
	ts := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	require.Equal(t, "2025-12", botquota.MonthKey(ts))
	require.Equal(t, "2026-01", botquota.MonthKey(ts.Add(time.Second)))
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	got := botquota.SystemClock().Now()
	after := time.Now()

	require.False(t, got.Before(before))
	require.False(t, got.After(after))
}
