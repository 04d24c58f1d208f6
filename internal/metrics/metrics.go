// Package metrics provides Prometheus metrics collection for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus collectors for the bot.
type Metrics struct {
	// Update processing
	UpdatesTotal       *prometheus.CounterVec
	UpdatesDropped     prometheus.Counter
	HandlerErrorsTotal prometheus.Counter
	HandleDuration     prometheus.Histogram

	// Questionnaire outcomes
	LeadsTotal       *prometheus.CounterVec
	LeadSubmitErrors prometheus.Counter
	SessionsActive   prometheus.Gauge
	SessionsEvicted  prometheus.Counter

	// Operator delivery
	OperatorDeliveries *prometheus.CounterVec
	OperatorsActive    prometheus.Gauge

	registry prometheus.Gatherer
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	m := newWithRegisterer(prometheus.DefaultRegisterer)
	m.registry = prometheus.DefaultGatherer
	return m
}

// NewWithRegistry creates metrics on a custom registry (for testing).
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := newWithRegisterer(reg)
	m.registry = reg
	return m
}

func newWithRegisterer(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		UpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detailbot_updates_total",
				Help: "Inbound Telegram updates by event kind",
			},
			[]string{"kind"},
		),
		UpdatesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "detailbot_updates_dropped_total",
				Help: "Updates dropped by the per-chat flood limiter",
			},
		),
		HandlerErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "detailbot_handler_errors_total",
				Help: "Update handler failures recovered by the poll loop",
			},
		),
		HandleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "detailbot_handle_duration_seconds",
				Help:    "Time spent handling one update end to end",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		LeadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detailbot_leads_total",
				Help: "Completed leads by temperature",
			},
			[]string{"temperature"},
		),
		LeadSubmitErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "detailbot_lead_submit_errors_total",
				Help: "Lead submissions that failed to persist",
			},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "detailbot_sessions_active",
				Help: "Sessions currently held in the store",
			},
		),
		SessionsEvicted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "detailbot_sessions_evicted_total",
				Help: "Sessions dropped by the idle TTL janitor",
			},
		),
		OperatorDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detailbot_operator_deliveries_total",
				Help: "Per-operator lead delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		OperatorsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "detailbot_operators_active",
				Help: "Operators currently registered to receive leads",
			},
		),
	}
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	if m.registry != nil {
		return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// RecordDeliveries adds per-operator delivery outcomes after a dispatch.
func (m *Metrics) RecordDeliveries(reached, total int) {
	m.OperatorDeliveries.WithLabelValues(OutcomeSuccess).Add(float64(reached))
	m.OperatorDeliveries.WithLabelValues(OutcomeFailure).Add(float64(total - reached))
}
