package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/clock"
	"github.com/rksstudio/detailbot/internal/domain"
)

func newTestStore(t *testing.T, cfg Config) (*Store, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock(time.Now().UTC())
	return NewStore(cfg, mock, zap.NewNop()), mock
}

func TestDoCreatesSessionOnFirstContact(t *testing.T) {
	store, _ := newTestStore(t, DefaultConfig())

	err := store.Do(42, "client", func(sess *domain.Session) error {
		if sess.UserID != 42 {
			t.Errorf("UserID = %d, want 42", sess.UserID)
		}
		if sess.Username != "client" {
			t.Errorf("Username = %q, want %q", sess.Username, "client")
		}
		if sess.Step != domain.StepIdle {
			t.Errorf("Step = %q, want %q", sess.Step, domain.StepIdle)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if got := store.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}
}

func TestDoReturnsSameSession(t *testing.T) {
	store, _ := newTestStore(t, DefaultConfig())

	_ = store.Do(42, "client", func(sess *domain.Session) error {
		sess.Name = "Аня"
		return nil
	})
	_ = store.Do(42, "client", func(sess *domain.Session) error {
		if sess.Name != "Аня" {
			t.Errorf("Name = %q, want carried over value", sess.Name)
		}
		return nil
	})

	if got := store.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}
}

func TestDoPropagatesError(t *testing.T) {
	store, _ := newTestStore(t, DefaultConfig())

	wantErr := errors.New("boom")
	err := store.Do(42, "client", func(sess *domain.Session) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Do() error = %v, want %v", err, wantErr)
	}
}

func TestDoSerializesPerUser(t *testing.T) {
	store, _ := newTestStore(t, DefaultConfig())

	const workers = 16
	const rounds = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				_ = store.Do(7, "client", func(sess *domain.Session) error {
					// Non-atomic read-modify-write: only safe when Do
					// serializes callers.
					n := len(sess.Selected)
					sess.Selected[string(rune('a'+n%26))] = true
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if got := store.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t, DefaultConfig())

	_ = store.Do(42, "client", func(sess *domain.Session) error { return nil })
	store.Clear(42)

	if got := store.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0", got)
	}
}

func TestEvictIdle(t *testing.T) {
	cfg := Config{IdleTTL: 30 * time.Minute, CleanupInterval: time.Minute}
	store, mock := newTestStore(t, cfg)

	_ = store.Do(1, "stale", func(sess *domain.Session) error { return nil })
	_ = store.Do(2, "stale-too", func(sess *domain.Session) error { return nil })

	// Nothing is idle yet.
	if got := store.EvictIdle(); got != 0 {
		t.Fatalf("EvictIdle() = %d, want 0", got)
	}

	mock.Advance(31 * time.Minute)

	// User 2 comes back just before the sweep; Touch resets their clock.
	_ = store.Do(2, "stale-too", func(sess *domain.Session) error { return nil })

	if got := store.EvictIdle(); got != 1 {
		t.Errorf("EvictIdle() = %d, want 1", got)
	}
	if got := store.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}

	// The survivor must still hold their state.
	_ = store.Do(2, "stale-too", func(sess *domain.Session) error {
		if sess.Username != "stale-too" {
			t.Errorf("Username = %q, want %q", sess.Username, "stale-too")
		}
		return nil
	})
}

func TestNewStoreAppliesDefaults(t *testing.T) {
	store := NewStore(Config{}, nil, zap.NewNop())

	if got := store.CleanupInterval(); got != DefaultConfig().CleanupInterval {
		t.Errorf("CleanupInterval() = %v, want %v", got, DefaultConfig().CleanupInterval)
	}
}
