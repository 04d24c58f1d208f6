package engine

import (
	"context"
	"sync"
)

// mockRegistrar is a hand-rolled Registrar for engine tests.
type mockRegistrar struct {
	mu sync.Mutex

	RegisterCalls   int
	UnregisterCalls int

	// LastSecret is the secret from the most recent Register call.
	LastSecret string
	// Registered tracks user IDs admitted into the registry.
	Registered map[int64]bool

	// RegisterErr is returned from Register when set.
	RegisterErr error
	// UnregisterErr is returned from Unregister when set.
	UnregisterErr error
}

func newMockRegistrar() *mockRegistrar {
	return &mockRegistrar{Registered: make(map[int64]bool)}
}

func (m *mockRegistrar) Register(_ context.Context, userID int64, _, _, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RegisterCalls++
	m.LastSecret = secret
	if m.RegisterErr != nil {
		return m.RegisterErr
	}
	m.Registered[userID] = true
	return nil
}

func (m *mockRegistrar) Unregister(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UnregisterCalls++
	if m.UnregisterErr != nil {
		return m.UnregisterErr
	}
	delete(m.Registered, userID)
	return nil
}
