// Package session keeps per-user questionnaire state in memory for the
// duration of one conversation.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/clock"
	"github.com/rksstudio/detailbot/internal/domain"
)

// Config holds session store settings.
type Config struct {
	// IdleTTL is how long an untouched session survives before eviction.
	// Abandoned conversations must not hold state forever.
	IdleTTL time.Duration
	// CleanupInterval is how often the janitor sweeps idle sessions.
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		IdleTTL:         30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// Store holds exactly one session per active user, keyed by Telegram user
// ID. Access goes through Do, which serializes events for the same user so
// retried or duplicate updates cannot race on one session.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry

	cfg    Config
	clock  clock.Clock
	logger *zap.Logger
}

type entry struct {
	mu      sync.Mutex
	session *domain.Session
}

// NewStore creates an empty session store.
func NewStore(cfg Config, clk clock.Clock, logger *zap.Logger) *Store {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultConfig().IdleTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		entries: make(map[int64]*entry),
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
	}
}

// CleanupInterval returns the configured janitor period.
func (s *Store) CleanupInterval() time.Duration {
	return s.cfg.CleanupInterval
}

// Do runs fn with the user's session under the per-user lock, creating the
// session on first contact. The session is touched after fn returns so TTL
// accounting follows activity.
func (s *Store) Do(userID int64, username string, fn func(sess *domain.Session) error) error {
	e := s.get(userID, username)

	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.session)
	e.session.Touch(s.clock.NowUTC())
	return err
}

func (s *Store) get(userID int64, username string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[userID]; ok {
		return e
	}
	e := &entry{session: domain.NewSession(userID, username)}
	s.entries[userID] = e
	return e
}

// Clear drops the user's session entirely.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// Active returns the number of live sessions.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// EvictIdle removes sessions untouched for longer than the TTL and returns
// how many were dropped.
func (s *Store) EvictIdle() int {
	now := s.clock.NowUTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.entries {
		if e.session.IdleSince(now) > s.cfg.IdleTTL {
			delete(s.entries, id)
			evicted++
		}
	}
	if evicted > 0 && s.logger != nil {
		s.logger.Debug("evicted idle sessions", zap.Int("count", evicted))
	}
	return evicted
}
