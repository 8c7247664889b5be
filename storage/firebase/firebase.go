// Package firebase provides a botquota.Store backed by a Firebase Realtime
// Database accessed over its REST interface. The backend offers independent
// GET/PUT per key and nothing transactional, so increments are read-then-write;
// a per-key mutex serializes them within this process. Replicas of the process
// can still race on the same key, which callers accept as bounded undercounting.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// Store implements botquota.Store over the RTDB REST API.
type Store struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Config holds Firebase storage configuration.
type Config struct {
	// BaseURL is the database root, e.g. "https://project-id.firebaseio.com".
	BaseURL string

	// HTTPClient is used for all requests. Defaults to a client with Timeout.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil (default: 10s).
	Timeout time.Duration
}

// New creates a new Firebase storage adapter.
func New(config Config) (*Store, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Store{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  client,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// GetUsage implements botquota.Store
func (s *Store) GetUsage(ctx context.Context, userID, day string) (botquota.UsageRecord, error) {
	var rec botquota.UsageRecord
	_, err := s.getJSON(ctx, s.usageURL(userID, day), &rec)
	if err != nil {
		return botquota.UsageRecord{}, err
	}
	return rec, nil
}

// SetUsage implements botquota.Store
func (s *Store) SetUsage(ctx context.Context, userID, day string, rec botquota.UsageRecord) error {
	return s.putJSON(ctx, s.usageURL(userID, day), rec)
}

// IncrementDailyCount implements botquota.Store. The read and write are two
// REST calls; the per-key lock keeps concurrent handlers in this process from
// losing updates.
func (s *Store) IncrementDailyCount(ctx context.Context, userID, day string) error {
	url := s.baseURL + "/usage/" + userID + "/" + day + "/count.json"

	lock := s.keyLock(userID + "/" + day)
	lock.Lock()
	defer lock.Unlock()

	var count int
	if _, err := s.getJSON(ctx, url, &count); err != nil {
		return err
	}
	return s.putJSON(ctx, url, count+1)
}

// GetDailyLimit implements botquota.Store
func (s *Store) GetDailyLimit(ctx context.Context, userID string) (int, error) {
	var limit int
	found, err := s.getJSON(ctx, s.baseURL+"/limits/"+userID+"/daily.json", &limit)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, botquota.ErrLimitNotSet
	}
	return limit, nil
}

// SetDailyLimit implements botquota.Store
func (s *Store) SetDailyLimit(ctx context.Context, userID string, limit int) error {
	return s.putJSON(ctx, s.baseURL+"/limits/"+userID+"/daily.json", limit)
}

// GetMonthlyTotal implements botquota.Store
func (s *Store) GetMonthlyTotal(ctx context.Context, month string) (int, error) {
	var total int
	if _, err := s.getJSON(ctx, s.monthURL(month), &total); err != nil {
		return 0, err
	}
	return total, nil
}

// IncrementMonthlyTotal implements botquota.Store. The monthly counter is
// shared by every user, making it the most contended key in the database.
func (s *Store) IncrementMonthlyTotal(ctx context.Context, month string) error {
	url := s.monthURL(month)

	lock := s.keyLock("month/" + month)
	lock.Lock()
	defer lock.Unlock()

	var total int
	if _, err := s.getJSON(ctx, url, &total); err != nil {
		return err
	}
	return s.putJSON(ctx, url, total+1)
}

// ResetUsage implements botquota.Store
func (s *Store) ResetUsage(ctx context.Context, userID, day string) error {
	return s.putJSON(ctx, s.usageURL(userID, day), botquota.UsageRecord{})
}

// ResetMonthlyTotal implements botquota.Store
func (s *Store) ResetMonthlyTotal(ctx context.Context, month string) error {
	return s.putJSON(ctx, s.monthURL(month), 0)
}

// DailyCounts implements botquota.Store by reading the whole usage tree,
// mirroring how the stats snapshot has always been computed.
func (s *Store) DailyCounts(ctx context.Context, day string) (map[string]int, error) {
	var tree map[string]map[string]botquota.UsageRecord
	if _, err := s.getJSON(ctx, s.baseURL+"/usage.json", &tree); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for userID, days := range tree {
		if rec, ok := days[day]; ok && rec.Count > 0 {
			counts[userID] = rec.Count
		}
	}
	return counts, nil
}

func (s *Store) usageURL(userID, day string) string {
	return s.baseURL + "/usage/" + userID + "/" + day + ".json"
}

func (s *Store) monthURL(month string) string {
	return s.baseURL + "/usage_images/" + month + "/total_count.json"
}

// getJSON fetches url and unmarshals the body into v. A JSON null body means
// the key is absent; v is left at its zero value and found is false.
func (s *Store) getJSON(ctx context.Context, url string, v interface{}) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return false, nil
	}

	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", url, err)
	}
	return true, nil
}

func (s *Store) putJSON(ctx context.Context, url string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}

// keyLock returns the mutex serializing increments for key.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
