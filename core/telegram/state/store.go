package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
)

// DefaultTTL is how long an untouched session stays visible.
const DefaultTTL = 15 * time.Minute

type entry[T any] struct {
	value     T
	updatedAt time.Time
}

// Store maps chat ids to sessions of type T. T should be a value type: sessions are
// copied in and out, so callers never share mutable state through the store.
type Store[T any] struct {
	mu       sync.Mutex
	sessions map[int64]entry[T]
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewStore returns an empty store.
func NewStore[T any](opts ...Option) *Store[T] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		sessions: make(map[int64]entry[T]),
		ttl:      o.ttl,
		now:      o.now,
	}
}

func (s *Store[T]) expired(e entry[T], now time.Time) bool {
	return now.Sub(e.updatedAt) > s.ttl
}

// Begin starts a session for chatID, replacing any previous one.
func (s *Store[T]) Begin(chatID int64, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = entry[T]{value: value, updatedAt: s.now()}
}

// Get returns the live session for chatID.
func (s *Store[T]) Get(chatID int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[chatID]
	if !ok || s.expired(e, s.now()) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Update applies fn to the live session of chatID and refreshes its timestamp.
// It reports false, without calling fn, when there is no live session.
func (s *Store[T]) Update(chatID int64, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.sessions[chatID]
	if !ok || s.expired(e, now) {
		return false
	}
	fn(&e.value)
	e.updatedAt = now
	s.sessions[chatID] = e
	return true
}

// Clear drops the session of chatID.
func (s *Store[T]) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// Len counts stored sessions, expired ones included until swept.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions that expired by now and returns how many were removed.
func (s *Store[T]) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Store[T]) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				logger.Session.Info("expired sessions swept",
					slog.String("event", "session.sweep"),
					slog.Int("swept", n),
					slog.Int("sessions", s.Len()),
				)
			}
		}
	}
}
