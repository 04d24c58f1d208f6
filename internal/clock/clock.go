// Package clock abstracts time.Now behind an interface so time-dependent
// logic (appointment validation, session TTL) is deterministic in tests.
package clock

import (
	"sync"
	"time"
)

// Clock provides the time operations the application needs.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time

	// NowUTC returns the current time in UTC. Preferred for storage.
	NowUTC() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}

// realClock delegates to the time package.
type realClock struct{}

// New returns a Clock backed by the system time.
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time                  { return time.Now() }
func (realClock) NowUTC() time.Time               { return time.Now().UTC() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

// zonedClock reports system time in a fixed location. The studio's
// timezone, not the server's, decides what "сегодня 18:00" means.
type zonedClock struct {
	loc *time.Location
}

// NewInLocation returns a Clock whose Now is expressed in loc.
func NewInLocation(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return zonedClock{loc: loc}
}

func (c zonedClock) Now() time.Time                  { return time.Now().In(c.loc) }
func (c zonedClock) NowUTC() time.Time               { return time.Now().UTC() }
func (c zonedClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Mock is a Clock whose current time is set by the test.
type Mock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMock creates a Mock frozen at t.
func NewMock(t time.Time) *Mock {
	return &Mock{current: t}
}

func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Mock) NowUTC() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.UTC()
}

func (m *Mock) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

// Set moves the mock to an absolute time.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the mock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}
