package service

import (
	"context"
	"sync"

	"github.com/rksstudio/detailbot/internal/domain"
)

// mockLeadRepo implements domain.LeadRepository.
type mockLeadRepo struct {
	mu      sync.Mutex
	created []*domain.Lead

	createErr error
	count     int64
	countErr  error
}

func (m *mockLeadRepo) Create(_ context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, lead)
	return nil
}

func (m *mockLeadRepo) Count(_ context.Context) (int64, error) {
	return m.count, m.countErr
}

// mockOperatorRepo implements domain.OperatorRepository.
type mockOperatorRepo struct {
	mu        sync.Mutex
	operators map[int64]*domain.Operator

	upsertErr error
	removeErr error
	listErr   error
}

func newMockOperatorRepo(ids ...int64) *mockOperatorRepo {
	ops := make(map[int64]*domain.Operator, len(ids))
	for _, id := range ids {
		ops[id] = &domain.Operator{UserID: id}
	}
	return &mockOperatorRepo{operators: ops}
}

func (m *mockOperatorRepo) Upsert(_ context.Context, op *domain.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.operators[op.UserID] = op
	return nil
}

func (m *mockOperatorRepo) Remove(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.operators, userID)
	return nil
}

func (m *mockOperatorRepo) List(_ context.Context) ([]*domain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ops := make([]*domain.Operator, 0, len(m.operators))
	for _, op := range m.operators {
		ops = append(ops, op)
	}
	return ops, nil
}

// mockSender implements notify.Sender.
type mockSender struct {
	mu      sync.Mutex
	sent    []int64
	failFor map[int64]error
}

func (m *mockSender) SendMessage(_ context.Context, chatID int64, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, chatID)
	if err, ok := m.failFor[chatID]; ok {
		return err
	}
	return nil
}
