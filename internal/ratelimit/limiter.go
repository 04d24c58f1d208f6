// Package ratelimit provides per-chat flood protection for inbound updates.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/clock"
)

// Config holds flood limiter settings.
type Config struct {
	// Burst is how many updates a chat may send back to back.
	Burst int
	// RefillPeriod is how long one spent token takes to come back.
	RefillPeriod time.Duration
	// StaleAfter is how long an inactive chat keeps its bucket.
	StaleAfter time.Duration
}

// DefaultConfig returns limits generous enough for a person tapping
// through the questionnaire but tight for a script.
func DefaultConfig() Config {
	return Config{
		Burst:        20,
		RefillPeriod: time.Second,
		StaleAfter:   30 * time.Minute,
	}
}

// Limiter is a per-chat token bucket limiter.
type Limiter struct {
	mu      sync.Mutex
	buckets map[int64]*bucket
	cfg     Config
	clock   clock.Clock
	logger  *zap.Logger
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// New creates a new Limiter.
func New(cfg Config, clk clock.Clock, logger *zap.Logger) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if cfg.RefillPeriod <= 0 {
		cfg.RefillPeriod = DefaultConfig().RefillPeriod
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultConfig().StaleAfter
	}
	return &Limiter{
		buckets: make(map[int64]*bucket),
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
	}
}

// Allow reports whether the chat may send one more update now.
func (l *Limiter) Allow(chatID int64) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[chatID]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.Burst)}
		l.buckets[chatID] = b
	} else {
		refill := now.Sub(b.lastSeen).Seconds() / l.cfg.RefillPeriod.Seconds()
		b.tokens += refill
		if b.tokens > float64(l.cfg.Burst) {
			b.tokens = float64(l.cfg.Burst)
		}
	}
	b.lastSeen = now

	if b.tokens < 1 {
		l.logger.Debug("update rate limited", zap.Int64("chat_id", chatID))
		return false
	}
	b.tokens--
	return true
}

// Sweep drops buckets for chats idle longer than StaleAfter and returns
// how many were removed. Meant to run on the janitor tick.
func (l *Limiter) Sweep() int {
	cutoff := l.clock.Now().Add(-l.cfg.StaleAfter)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for chatID, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, chatID)
			removed++
		}
	}
	return removed
}

// Tracked returns how many chats currently hold a bucket.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
