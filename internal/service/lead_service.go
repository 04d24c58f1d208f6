// Package service implements the business logic layer between the
// conversation engine and persistence.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/domain"
	"github.com/rksstudio/detailbot/internal/metrics"
	"github.com/rksstudio/detailbot/internal/notify"
	"github.com/rksstudio/detailbot/internal/repository"
	"github.com/rksstudio/detailbot/internal/score"
)

// LeadService scores, persists and dispatches finished leads.
type LeadService struct {
	leads     domain.LeadRepository
	operators domain.OperatorRepository
	notifier  *notify.Notifier
	metrics   *metrics.Metrics
	events    *metrics.BusinessEventLogger
	logger    *zap.Logger
}

// NewLeadService creates a new LeadService.
func NewLeadService(
	leads domain.LeadRepository,
	operators domain.OperatorRepository,
	notifier *notify.Notifier,
	m *metrics.Metrics,
	events *metrics.BusinessEventLogger,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leads:     leads,
		operators: operators,
		notifier:  notifier,
		metrics:   m,
		events:    events,
		logger:    logger,
	}
}

// Submit scores the lead, stores it and fans it out to the operator
// registry. It returns how many operators actually received the
// notification. Persistence failure aborts the submission; delivery
// failures do not, the lead is already safe in the database.
func (s *LeadService) Submit(ctx context.Context, lead *domain.Lead) (int, error) {
	lead.Temperature = score.Score(score.FromLead(lead))

	writeCtx, cancel := repository.WithWriteTimeout(ctx)
	defer cancel()

	if err := s.leads.Create(writeCtx, lead); err != nil {
		s.metrics.LeadSubmitErrors.Inc()
		return 0, fmt.Errorf("failed to store lead: %w", err)
	}

	s.metrics.LeadsTotal.WithLabelValues(string(lead.Temperature)).Inc()
	s.events.LeadCaptured(lead.ID, lead.UserID, string(lead.Temperature), len(lead.Services), lead.HasPhone())

	operators, err := s.operators.List(ctx)
	if err != nil {
		// The lead is stored; report zero reach rather than failing.
		s.logger.Error("failed to list operators for dispatch",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err),
		)
		s.metrics.RecordDeliveries(0, 0)
		s.events.LeadDispatched(lead.ID, 0, 0)
		return 0, nil
	}

	reached := s.notifier.Deliver(ctx, lead, operators)
	s.metrics.RecordDeliveries(reached, len(operators))
	s.events.LeadDispatched(lead.ID, reached, len(operators))

	return reached, nil
}

// Count returns the total number of captured leads.
func (s *LeadService) Count(ctx context.Context) (int64, error) {
	queryCtx, cancel := repository.WithQueryTimeout(ctx)
	defer cancel()
	return s.leads.Count(queryCtx)
}
