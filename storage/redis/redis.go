// Package redis provides a Redis implementation of the botquota.Store
// interface. Counter updates use HINCRBY/INCR, so increments are atomic and
// the lost-update race of read-then-write backends does not apply.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// Store implements botquota.Store using Redis.
type Store struct {
	client redis.UniversalClient
	config Config
}

// Config holds Redis storage configuration.
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "botquota:")
	KeyPrefix string

	// UsageTTL is the TTL applied to per-day usage keys (0 = no expiration).
	// Day keys become unreachable after rollover; a TTL lets Redis reclaim
	// them instead of leaving them orphaned.
	UsageTTL time.Duration

	// ScanCount is the COUNT hint for SCAN during stats snapshots
	// (default: 100).
	ScanCount int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "botquota:",
		UsageTTL:  0,
		ScanCount: 100,
	}
}

// New creates a new Redis storage adapter.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = "botquota:"
	}
	if config.ScanCount == 0 {
		config.ScanCount = 100
	}

	return &Store{client: client, config: config}, nil
}

// GetUsage implements botquota.Store
func (s *Store) GetUsage(ctx context.Context, userID, day string) (botquota.UsageRecord, error) {
	results, err := s.client.HMGet(ctx, s.usageKey(userID, day), "count", "last_ts").Result()
	if err != nil {
		return botquota.UsageRecord{}, fmt.Errorf("failed to get usage: %w", err)
	}

	var rec botquota.UsageRecord
	if len(results) == 2 {
		if str, ok := results[0].(string); ok {
			if count, err := strconv.Atoi(str); err == nil {
				rec.Count = count
			}
		}
		if str, ok := results[1].(string); ok {
			if ts, err := strconv.ParseFloat(str, 64); err == nil {
				rec.LastActionTS = ts
			}
		}
	}
	return rec, nil
}

// SetUsage implements botquota.Store
func (s *Store) SetUsage(ctx context.Context, userID, day string, rec botquota.UsageRecord) error {
	key := s.usageKey(userID, day)

	err := s.client.HSet(ctx, key,
		"count", rec.Count,
		"last_ts", strconv.FormatFloat(rec.LastActionTS, 'f', -1, 64),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set usage: %w", err)
	}

	s.maybeExpire(ctx, key)
	return nil
}

// IncrementDailyCount implements botquota.Store
func (s *Store) IncrementDailyCount(ctx context.Context, userID, day string) error {
	key := s.usageKey(userID, day)

	if err := s.client.HIncrBy(ctx, key, "count", 1).Err(); err != nil {
		return fmt.Errorf("failed to increment daily count: %w", err)
	}

	s.maybeExpire(ctx, key)
	return nil
}

// GetDailyLimit implements botquota.Store
func (s *Store) GetDailyLimit(ctx context.Context, userID string) (int, error) {
	limit, err := s.client.Get(ctx, s.limitKey(userID)).Int()
	if err == redis.Nil {
		return 0, botquota.ErrLimitNotSet
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get daily limit: %w", err)
	}
	return limit, nil
}

// SetDailyLimit implements botquota.Store
func (s *Store) SetDailyLimit(ctx context.Context, userID string, limit int) error {
	if err := s.client.Set(ctx, s.limitKey(userID), limit, 0).Err(); err != nil {
		return fmt.Errorf("failed to set daily limit: %w", err)
	}
	return nil
}

// GetMonthlyTotal implements botquota.Store
func (s *Store) GetMonthlyTotal(ctx context.Context, month string) (int, error) {
	total, err := s.client.Get(ctx, s.monthKey(month)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get monthly total: %w", err)
	}
	return total, nil
}

// IncrementMonthlyTotal implements botquota.Store
func (s *Store) IncrementMonthlyTotal(ctx context.Context, month string) error {
	if err := s.client.Incr(ctx, s.monthKey(month)).Err(); err != nil {
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
	if err := s.client.Set(ctx, s.monthKey(month), 0, 0).Err(); err != nil {
		return fmt.Errorf("failed to reset monthly total: %w", err)
	}
	return nil
}

// DailyCounts implements botquota.Store. SCAN finds the day's usage keys and
// the counts are fetched concurrently.
func (s *Store) DailyCounts(ctx context.Context, day string) (map[string]int, error) {
	pattern := s.config.KeyPrefix + "usage:*:" + day

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, s.config.ScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan usage keys: %w", err)
	}

	var mu sync.Mutex
	counts := make(map[string]int, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			count, err := s.client.HGet(gctx, key, "count").Int()
			if err == redis.Nil || (err == nil && count == 0) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get count for %s: %w", key, err)
			}

			userID := strings.TrimSuffix(strings.TrimPrefix(key, s.config.KeyPrefix+"usage:"), ":"+day)
			mu.Lock()
			counts[userID] = count
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Store) usageKey(userID, day string) string {
	return s.config.KeyPrefix + "usage:" + userID + ":" + day
}

func (s *Store) limitKey(userID string) string {
	return s.config.KeyPrefix + "limit:" + userID
}

func (s *Store) monthKey(month string) string {
	return s.config.KeyPrefix + "month:" + month
}

func (s *Store) maybeExpire(ctx context.Context, key string) {
	if s.config.UsageTTL > 0 {
		// Best effort: a missed expiry only delays reclamation.
		_ = s.client.Expire(ctx, key, s.config.UsageTTL).Err()
	}
}
