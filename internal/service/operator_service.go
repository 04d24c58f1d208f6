package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rksstudio/detailbot/internal/domain"
	"github.com/rksstudio/detailbot/internal/engine"
	"github.com/rksstudio/detailbot/internal/metrics"
	"github.com/rksstudio/detailbot/internal/repository"
)

// OperatorService manages the operator registry. It implements
// engine.Registrar so the conversation engine can register and remove
// operators without knowing about storage or the shared secret.
type OperatorService struct {
	repo       domain.OperatorRepository
	secretHash []byte
	metrics    *metrics.Metrics
	events     *metrics.BusinessEventLogger
	logger     *zap.Logger
}

// NewOperatorService creates a new OperatorService. The plaintext shared
// secret is hashed once here and never retained.
func NewOperatorService(
	repo domain.OperatorRepository,
	secret string,
	m *metrics.Metrics,
	events *metrics.BusinessEventLogger,
	logger *zap.Logger,
) (*OperatorService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash operator secret: %w", err)
	}

	return &OperatorService{
		repo:       repo,
		secretHash: hash,
		metrics:    m,
		events:     events,
		logger:     logger,
	}, nil
}

// Register verifies the shared secret and adds the user to the operator
// registry. A wrong secret returns engine.ErrBadSecret and leaves the
// registry untouched.
func (s *OperatorService) Register(ctx context.Context, userID int64, username, name, secret string) error {
	if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(secret)); err != nil {
		s.events.OperatorRegistrationDenied(userID)
		return engine.ErrBadSecret
	}

	writeCtx, cancel := repository.WithWriteTimeout(ctx)
	defer cancel()

	op := domain.NewOperator(userID, username, name)
	if err := s.repo.Upsert(writeCtx, op); err != nil {
		return fmt.Errorf("failed to register operator: %w", err)
	}

	s.events.OperatorRegistered(userID, name)
	s.refreshGauge(ctx)
	return nil
}

// Unregister removes the user from the operator registry. Removing a user
// who was never registered is not an error.
func (s *OperatorService) Unregister(ctx context.Context, userID int64) error {
	writeCtx, cancel := repository.WithWriteTimeout(ctx)
	defer cancel()

	err := s.repo.Remove(writeCtx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to remove operator: %w", err)
	}

	if err == nil {
		s.events.OperatorRemoved(userID)
	}
	s.refreshGauge(ctx)
	return nil
}

// List returns all registered operators.
func (s *OperatorService) List(ctx context.Context) ([]*domain.Operator, error) {
	queryCtx, cancel := repository.WithQueryTimeout(ctx)
	defer cancel()
	return s.repo.List(queryCtx)
}

// Count returns the number of registered operators.
func (s *OperatorService) Count(ctx context.Context) (int, error) {
	operators, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(operators), nil
}

func (s *OperatorService) refreshGauge(ctx context.Context) {
	operators, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh operator gauge", zap.Error(err))
		return
	}
	s.metrics.OperatorsActive.Set(float64(len(operators)))
}
