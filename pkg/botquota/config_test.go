package botquota_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", "123, 456 ,,789")
	t.Setenv("COOLDOWN_SECONDS", "12")
	t.Setenv("DEFAULT_DAILY_LIMIT", "25")
	t.Setenv("MONTHLY_GLOBAL_CAP", "500")

	cfg := botquota.ConfigFromEnv()
	require.Equal(t, []string{"123", "456", "789"}, cfg.AdminIDs)
	require.Equal(t, 12*time.Second, cfg.Cooldown)
	require.Equal(t, 25, cfg.DefaultDailyLimit)
	require.Equal(t, 500, cfg.MonthlyCap)
}

func TestConfigFromEnv_Empty(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", "")
	t.Setenv("COOLDOWN_SECONDS", "")
	t.Setenv("DEFAULT_DAILY_LIMIT", "")
	t.Setenv("MONTHLY_GLOBAL_CAP", "")

	cfg := botquota.ConfigFromEnv()
	require.Empty(t, cfg.AdminIDs)
	require.Zero(t, cfg.Cooldown)
	require.Zero(t, cfg.DefaultDailyLimit)
	require.Zero(t, cfg.MonthlyCap)
}

func TestConfigFromEnv_Malformed(t *testing.T) {
	t.Setenv("COOLDOWN_SECONDS", "fast")
	t.Setenv("DEFAULT_DAILY_LIMIT", "ten")

	cfg := botquota.ConfigFromEnv()
	require.Zero(t, cfg.Cooldown)
	require.Zero(t, cfg.DefaultDailyLimit)
}
