package metrics

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/sanitize"
)

// BusinessEventLogger provides structured logs for business events. It
// complements the Prometheus counters with searchable per-lead detail;
// personal data is masked before it is written.
type BusinessEventLogger struct {
	logger *zap.Logger
}

// NewBusinessEventLogger creates a business event logger.
func NewBusinessEventLogger(logger *zap.Logger) *BusinessEventLogger {
	return &BusinessEventLogger{logger: logger.Named("business_events")}
}

// LeadCaptured logs a completed questionnaire.
func (l *BusinessEventLogger) LeadCaptured(leadID uuid.UUID, userID int64, temperature string, services int, hasPhone bool) {
	l.logger.Info("lead_captured",
		zap.String("event_type", "lead.captured"),
		zap.String("lead_id", leadID.String()),
		zap.Int64("user_id", userID),
		zap.String("temperature", temperature),
		zap.Int("services", services),
		zap.Bool("has_phone", hasPhone),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// LeadDispatched logs the operator fan-out result for a lead.
func (l *BusinessEventLogger) LeadDispatched(leadID uuid.UUID, reached, total int) {
	fields := []zap.Field{
		zap.String("event_type", "lead.dispatched"),
		zap.String("lead_id", leadID.String()),
		zap.Int("operators_reached", reached),
		zap.Int("operators_total", total),
		zap.Time("timestamp", time.Now().UTC()),
	}
	if reached == 0 {
		l.logger.Warn("lead_dispatch_empty", fields...)
		return
	}
	l.logger.Info("lead_dispatched", fields...)
}

// OperatorRegistered logs a successful operator registration.
func (l *BusinessEventLogger) OperatorRegistered(userID int64, name string) {
	l.logger.Info("operator_registered",
		zap.String("event_type", "operator.registered"),
		zap.Int64("user_id", userID),
		zap.String("name", sanitize.MaskName(name)),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// OperatorRegistrationDenied logs a failed shared-secret check.
func (l *BusinessEventLogger) OperatorRegistrationDenied(userID int64) {
	l.logger.Warn("operator_registration_denied",
		zap.String("event_type", "operator.registration_denied"),
		zap.Int64("user_id", userID),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// OperatorRemoved logs an operator unregistering.
func (l *BusinessEventLogger) OperatorRemoved(userID int64) {
	l.logger.Info("operator_removed",
		zap.String("event_type", "operator.removed"),
		zap.Int64("user_id", userID),
		zap.Time("timestamp", time.Now().UTC()),
	)
}
