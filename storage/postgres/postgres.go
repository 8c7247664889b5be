// Package postgres provides a PostgreSQL implementation of the botquota.Store
// interface. Counter updates use INSERT ... ON CONFLICT DO UPDATE, so
// increments are atomic at the database.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// Schema is the DDL for the tables this adapter expects. Apply it with your
// migration tooling or via EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS bot_usage (
	user_id  TEXT NOT NULL,
	day      TEXT NOT NULL,
	count    INTEGER NOT NULL DEFAULT 0,
	last_ts  DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, day)
);

CREATE TABLE IF NOT EXISTS bot_limits (
	user_id     TEXT PRIMARY KEY,
	daily_limit INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bot_monthly (
	month       TEXT PRIMARY KEY,
	total_count INTEGER NOT NULL DEFAULT 0
);
`

// Store implements botquota.Store using PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	config Config
}

// Config holds PostgreSQL storage configuration.
type Config struct {
	// ConnectionString is the PostgreSQL connection string.
	ConnectionString string

	// Pool configuration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// New creates a new PostgreSQL storage adapter.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, config: config}, nil
}

// EnsureSchema creates the adapter's tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetUsage implements botquota.Store
func (s *Store) GetUsage(ctx context.Context, userID, day string) (botquota.UsageRecord, error) {
	var rec botquota.UsageRecord

	err := s.pool.QueryRow(ctx,
		`SELECT count, last_ts FROM bot_usage WHERE user_id = $1 AND day = $2`,
		userID, day).Scan(&rec.Count, &rec.LastActionTS)

	if err == pgx.ErrNoRows {
		return botquota.UsageRecord{}, nil
	}
	if err != nil {
		return botquota.UsageRecord{}, fmt.Errorf("failed to get usage: %w", err)
	}
	return rec, nil
}

// SetUsage implements botquota.Store
func (s *Store) SetUsage(ctx context.Context, userID, day string, rec botquota.UsageRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bot_usage (user_id, day, count, last_ts)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, day) DO UPDATE SET
				count = EXCLUDED.count,
				last_ts = EXCLUDED.last_ts`,
		userID, day, rec.Count, rec.LastActionTS)

	if err != nil {
		return fmt.Errorf("failed to set usage: %w", err)
	}
	return nil
}

// IncrementDailyCount implements botquota.Store
func (s *Store) IncrementDailyCount(ctx context.Context, userID, day string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bot_usage (user_id, day, count)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_id, day) DO UPDATE SET
				count = bot_usage.count + 1`,
		userID, day)

	if err != nil {
		return fmt.Errorf("failed to increment daily count: %w", err)
	}
	return nil
}

// GetDailyLimit implements botquota.Store
func (s *Store) GetDailyLimit(ctx context.Context, userID string) (int, error) {
	var limit int

	err := s.pool.QueryRow(ctx,
		`SELECT daily_limit FROM bot_limits WHERE user_id = $1`,
		userID).Scan(&limit)

	if err == pgx.ErrNoRows {
		return 0, botquota.ErrLimitNotSet
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get daily limit: %w", err)
	}
	return limit, nil
}

// SetDailyLimit implements botquota.Store
func (s *Store) SetDailyLimit(ctx context.Context, userID string, limit int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bot_limits (user_id, daily_limit)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET daily_limit = EXCLUDED.daily_limit`,
		userID, limit)

	if err != nil {
		return fmt.Errorf("failed to set daily limit: %w", err)
	}
	return nil
}

// GetMonthlyTotal implements botquota.Store
func (s *Store) GetMonthlyTotal(ctx context.Context, month string) (int, error) {
	var total int

	err := s.pool.QueryRow(ctx,
		`SELECT total_count FROM bot_monthly WHERE month = $1`,
		month).Scan(&total)

	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get monthly total: %w", err)
	}
	return total, nil
}

// IncrementMonthlyTotal implements botquota.Store
func (s *Store) IncrementMonthlyTotal(ctx context.Context, month string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bot_monthly (month, total_count)
			VALUES ($1, 1)
			ON CONFLICT (month) DO UPDATE SET
				total_count = bot_monthly.total_count + 1`,
		month)

	if err != nil {
		return fmt.Errorf("failed to increment monthly total: %w", err)
	}
	return nil
}

// ResetUsage implements botquota.Store
func (s *Store) ResetUsage(ctx context.Context, userID, day string) error {
	return s.SetUsage(ctx, userID, day, botquota.UsageRecord{})
}

// ResetMonthlyTotal implements botquota.Store
func (s *Store) ResetMonthlyTotal(ctx context.Context, month string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bot_monthly (month, total_count)
			VALUES ($1, 0)
			ON CONFLICT (month) DO UPDATE SET total_count = 0`,
		month)

	if err != nil {
		return fmt.Errorf("failed to reset monthly total: %w", err)
	}
	return nil
}

// DailyCounts implements botquota.Store
func (s *Store) DailyCounts(ctx context.Context, day string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, count FROM bot_usage WHERE day = $1 AND count > 0`,
		day)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts[userID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily counts: %w", err)
	}
	return counts, nil
}
