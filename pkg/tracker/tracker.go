// Package tracker holds the state that crosses polls: the previous market per
// fixture, the last signal per fixture and API call counters.
package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenomenon0/latesignal/pkg/football/match"
	"github.com/phenomenon0/latesignal/pkg/football/signal"
)

// Record is a stored signal.
type Record struct {
	ID         string        `json:"id"`
	FixtureID  int64         `json:"fixture_id"`
	Signal     signal.Signal `json:"signal"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Option configures a Store or Counter.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store keeps per-fixture market and signal state. It satisfies
// feed.MarketMemory.
type Store struct {
	now func() time.Time

	mu      sync.RWMutex
	markets map[int64]match.Market
	signals map[int64]Record
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		now:     o.now,
		markets: make(map[int64]match.Market),
		signals: make(map[int64]Record),
	}
}

// PreviousMarket returns a copy of the last market seen for a fixture.
func (s *Store) PreviousMarket(fixtureID int64) *match.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markets[fixtureID]
	if !ok {
		return nil
	}
	return &m
}

// RememberMarket stores m as the previous market for the next poll. A nil
// m forgets the stored market.
func (s *Store) RememberMarket(fixtureID int64, m *match.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == nil {
		delete(s.markets, fixtureID)
		return
	}
	s.markets[fixtureID] = *m
}

// RecordSignal stores sig as the fixture's latest signal under a new id.
func (s *Store) RecordSignal(sig signal.Signal) Record {
	rec := Record{
		ID:         uuid.NewString(),
		FixtureID:  sig.FixtureID,
		Signal:     sig,
		RecordedAt: s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[sig.FixtureID] = rec
	return rec
}

// LastSignal returns the latest recorded signal of a fixture.
func (s *Store) LastSignal(fixtureID int64) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.signals[fixtureID]
	return rec, ok
}

// FixtureCount returns the number of fixtures with a recorded signal.
func (s *Store) FixtureCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals)
}

// Forget drops all state for a fixture.
func (s *Store) Forget(fixtureID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markets, fixtureID)
	delete(s.signals, fixtureID)
}

// Prune drops fixtures whose last signal is older than maxAge and returns
// how many were removed.
func (s *Store) Prune(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, rec := range s.signals {
		if rec.RecordedAt.Before(cutoff) {
			delete(s.signals, id)
			delete(s.markets, id)
			n++
		}
	}
	return n
}

// Reset clears the store.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets = make(map[int64]match.Market)
	s.signals = make(map[int64]Record)
}

// ErrBudgetExhausted is returned once a key has used its daily call budget.
var ErrBudgetExhausted = errors.New("daily call budget exhausted")

// Counter counts calls per key against a daily budget. Counts reset when the
// calendar day changes.
type Counter struct {
	limit int // 0 means unlimited
	now   func() time.Time

	mu     sync.Mutex
	counts map[string]int
	total  int
	day    int // day of year
}

// NewCounter creates a counter with a daily limit per key.
func NewCounter(dailyLimit int, opts ...Option) *Counter {
	o := buildOptions(opts)
	return &Counter{
		limit:  dailyLimit,
		now:    o.now,
		counts: make(map[string]int),
		day:    o.now().YearDay(),
	}
}

// Take counts one call for key, refusing it once the budget is spent.
func (c *Counter) Take(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetDailyIfNeeded()

	if c.limit > 0 && c.counts[key] >= c.limit {
		return fmt.Errorf("%s: %d calls today: %w", key, c.counts[key], ErrBudgetExhausted)
	}
	c.counts[key]++
	c.total++
	return nil
}

// Count returns today's calls for key.
func (c *Counter) Count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetDailyIfNeeded()
	return c.counts[key]
}

// Reset zeroes every count.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
	c.total = 0
	c.day = c.now().YearDay()
}

// CounterStatus summarises today's usage.
type CounterStatus struct {
	Total      int            `json:"total"`
	DailyLimit int            `json:"daily_limit"`
	ByKey      map[string]int `json:"by_key"`
}

// Status returns a snapshot of the counts.
func (c *Counter) Status() CounterStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetDailyIfNeeded()

	byKey := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		byKey[k] = v
	}
	return CounterStatus{Total: c.total, DailyLimit: c.limit, ByKey: byKey}
}

func (c *Counter) resetDailyIfNeeded() {
	if day := c.now().YearDay(); day != c.day {
		c.counts = make(map[string]int)
		c.total = 0
		c.day = day
	}
}
