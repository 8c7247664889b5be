package botquota

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigFromEnv builds a Config from the environment variables the bot has
// always used: ADMIN_USER_IDS (comma-separated), COOLDOWN_SECONDS,
// DEFAULT_DAILY_LIMIT, and MONTHLY_GLOBAL_CAP. Unset or malformed values fall
// back to the package defaults via NewManager.
func ConfigFromEnv() Config {
	var cfg Config

	for _, id := range strings.Split(os.Getenv("ADMIN_USER_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.AdminIDs = append(cfg.AdminIDs, id)
		}
	}

	if secs, ok := envInt("COOLDOWN_SECONDS"); ok {
		cfg.Cooldown = time.Duration(secs) * time.Second
	}
	if n, ok := envInt("DEFAULT_DAILY_LIMIT"); ok {
		cfg.DefaultDailyLimit = n
	}
	if n, ok := envInt("MONTHLY_GLOBAL_CAP"); ok {
		cfg.MonthlyCap = n
	}

	return cfg
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
