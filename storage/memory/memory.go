// Package memory provides an in-memory implementation of the botquota.Store
// interface. It serves tests and development, and doubles as the stub to
// inject when no remote backend is configured: quota state then lives only
// for the process lifetime.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// Store implements botquota.Store using in-memory maps. All operations are
// guarded by a single mutex, so increments are race-free.
type Store struct {
	mu      sync.RWMutex
	usage   map[string]botquota.UsageRecord // "{userID}/{day}"
	limits  map[string]int
	monthly map[string]int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		usage:   make(map[string]botquota.UsageRecord),
		limits:  make(map[string]int),
		monthly: make(map[string]int),
	}
}

// GetUsage implements botquota.Store
func (s *Store) GetUsage(ctx context.Context, userID, day string) (botquota.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.usage[usageKey(userID, day)], nil
}

// SetUsage implements botquota.Store
func (s *Store) SetUsage(ctx context.Context, userID, day string, rec botquota.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage[usageKey(userID, day)] = rec
	return nil
}

// IncrementDailyCount implements botquota.Store
func (s *Store) IncrementDailyCount(ctx context.Context, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey(userID, day)
	rec := s.usage[key]
	rec.Count++
	s.usage[key] = rec
	return nil
}

// GetDailyLimit implements botquota.Store
func (s *Store) GetDailyLimit(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit, ok := s.limits[userID]
	if !ok {
		return 0, botquota.ErrLimitNotSet
	}
	return limit, nil
}

// SetDailyLimit implements botquota.Store
func (s *Store) SetDailyLimit(ctx context.Context, userID string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limits[userID] = limit
	return nil
}

// GetMonthlyTotal implements botquota.Store
func (s *Store) GetMonthlyTotal(ctx context.Context, month string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.monthly[month], nil
}

// IncrementMonthlyTotal implements botquota.Store
func (s *Store) IncrementMonthlyTotal(ctx context.Context, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.monthly[month]++
	return nil
}

// ResetUsage implements botquota.Store
func (s *Store) ResetUsage(ctx context.Context, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage[usageKey(userID, day)] = botquota.UsageRecord{}
	return nil
}

// ResetMonthlyTotal implements botquota.Store
func (s *Store) ResetMonthlyTotal(ctx context.Context, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.monthly[month] = 0
	return nil
}

// DailyCounts implements botquota.Store
func (s *Store) DailyCounts(ctx context.Context, day string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	suffix := "/" + day
	for key, rec := range s.usage {
		if rec.Count == 0 || !strings.HasSuffix(key, suffix) {
			continue
		}
		counts[strings.TrimSuffix(key, suffix)] = rec.Count
	}
	return counts, nil
}

// Clear removes all data (useful for testing)
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage = make(map[string]botquota.UsageRecord)
	s.limits = make(map[string]int)
	s.monthly = make(map[string]int)
}

func usageKey(userID, day string) string {
	return userID + "/" + day
}
