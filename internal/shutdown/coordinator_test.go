package shutdown

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestShutdownPhaseOrdering(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	// Register out of phase order on purpose.
	c.RegisterFunc(PhaseCleanup, "database", record("database"))
	c.RegisterFunc(PhaseDrain, "poller", record("poller"))
	c.RegisterFunc(PhaseShutdown, "http", record("http"))

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := []string{"poller", "http", "database"}
	if len(order) != len(want) {
		t.Fatalf("shutdown order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("shutdown order = %v, want %v", order, want)
		}
	}
}

func TestShutdownConcurrentWithinPhase(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	var inFlight, peak int32
	slow := func(context.Context) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	}

	c.RegisterFunc(PhaseShutdown, "worker-1", slow)
	c.RegisterFunc(PhaseShutdown, "worker-2", slow)
	c.RegisterFunc(PhaseShutdown, "worker-3", slow)

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if atomic.LoadInt32(&peak) < 2 {
		t.Errorf("peak concurrency = %d, services in one phase should overlap", peak)
	}
}

func TestShutdownServiceErrorDoesNotBlockOthers(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	var cleaned atomic.Bool
	c.RegisterFunc(PhaseShutdown, "broken", func(context.Context) error {
		return errors.New("close failed")
	})
	c.RegisterFunc(PhaseCleanup, "database", func(context.Context) error {
		cleaned.Store(true)
		return nil
	})

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !cleaned.Load() {
		t.Error("cleanup phase skipped after an earlier service error")
	}
}

func TestShutdownTimeoutStopsLaterPhases(t *testing.T) {
	c := NewCoordinator(50*time.Millisecond, zap.NewNop())

	var cleaned atomic.Bool
	c.RegisterFunc(PhaseDrain, "stuck", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c.RegisterFunc(PhaseCleanup, "database", func(context.Context) error {
		cleaned.Store(true)
		return nil
	})

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if cleaned.Load() {
		t.Error("cleanup phase ran after the shutdown deadline expired")
	}
}

func TestShutdownCallerContextCancellation(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	release := make(chan struct{})
	c.RegisterFunc(PhaseDrain, "slow", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := c.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown() error = %v, want deadline exceeded", err)
	}
	close(release)
}

func TestShutdownIdempotent(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	var calls int32
	c.RegisterFunc(PhaseDrain, "once", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("service shut down %d times, want 1", got)
	}
}

func TestShutdownChClosesOnShutdown(t *testing.T) {
	c := NewCoordinator(time.Second, zap.NewNop())

	select {
	case <-c.ShutdownCh():
		t.Fatal("shutdown channel closed before Shutdown()")
	default:
	}

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case <-c.ShutdownCh():
	default:
		t.Fatal("shutdown channel not closed after Shutdown()")
	}
}
