// Package metrics provides Prometheus metrics for the signal service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/phenomenon0/latesignal/pkg/football/odds"
	"github.com/phenomenon0/latesignal/pkg/football/signal"
)

// SignalMetrics collects and exposes signal-related Prometheus metrics.
type SignalMetrics struct {
	registry *prometheus.Registry

	// Signal metrics
	SignalsTotal        *prometheus.CounterVec
	SignalScore         *prometheus.HistogramVec
	SignalConfidence    *prometheus.HistogramVec
	ComputeDuration     *prometheus.HistogramVec
	BetPlansTotal       *prometheus.CounterVec
	BetPlanStake        *prometheus.HistogramVec
	LateGoalProbability *prometheus.HistogramVec

	// Odds metrics
	OddsResolutions *prometheus.CounterVec
	OddsLines       *prometheus.HistogramVec

	// Collaborator metrics
	CollaboratorErrors *prometheus.CounterVec
	TrackedFixtures    *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	RateLimitedReqs *prometheus.CounterVec

	// Streaming metrics
	StreamClients  *prometheus.GaugeVec
	StreamMessages *prometheus.CounterVec
}

// New creates a collector set on its own registry.
func New() *SignalMetrics {
	registry := prometheus.NewRegistry()

	sm := &SignalMetrics{
		registry: registry,

		SignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latesignal_signals_total",
				Help: "Signals computed by action and scenario",
			},
			[]string{"action", "scenario"},
		),
		SignalScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latesignal_signal_score",
				Help:    "Signal score (0-100)",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"phase"},
		),
		SignalConfidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latesignal_signal_confidence",
				Help:    "Signal confidence (0-100)",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"phase"},
		),
		ComputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latesignal_compute_duration_seconds",
				Help:    "Time to resolve inputs and compute one signal",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
			[]string{},
		),
		BetPlansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latesignal_bet_plans_total",
				Help: "Bet plans emitted by action",
			},
			[]string{"action"},
		),
		BetPlanStake: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latesignal_bet_plan_stake_pct",
				Help:    "Suggested stake percentage",
				Buckets: []float64{1, 1.5, 2, 3},
			},
			[]string{},
		),
		LateGoalProbability: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latesignal_late_goal_probability",
				Help:    "Poisson probability of at least one more goal",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{},
		),

		OddsResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latesignal_odds_resolutions_total",
				Help: "Odds payloads resolved by fetch status",
			},
			[]string{"status"},
		),
		OddsLines: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latesignal_odds_lines",
				Help:    "Over/under lines observed per payload",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
			[]string{},
		),

		CollaboratorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latesignal_collaborator_errors_total",
				Help: "Upstream failures degraded to absent data",
			},
			[]string{"source"},
		),
		TrackedFixtures: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "latesignal_tracked_fixtures",
				Help: "Fixtures with a recorded signal",
			},
			[]string{},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latesignal_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latesignal_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"route"},
		),
		RateLimitedReqs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latesignal_rate_limited_total",
				Help: "Requests rejected by the ingestion rate limiter",
			},
			[]string{"route"},
		),

		StreamClients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "latesignal_stream_clients",
				Help: "Connected WebSocket clients",
			},
			[]string{},
		),
		StreamMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latesignal_stream_messages_total",
				Help: "Messages broadcast by type",
			},
			[]string{"type"},
		),
	}

	sm.registerAll()

	return sm
}

func (sm *SignalMetrics) registerAll() {
	sm.registry.MustRegister(
		sm.SignalsTotal,
		sm.SignalScore,
		sm.SignalConfidence,
		sm.ComputeDuration,
		sm.BetPlansTotal,
		sm.BetPlanStake,
		sm.LateGoalProbability,
		sm.OddsResolutions,
		sm.OddsLines,
		sm.CollaboratorErrors,
		sm.TrackedFixtures,
		sm.HTTPRequests,
		sm.HTTPDuration,
		sm.RateLimitedReqs,
		sm.StreamClients,
		sm.StreamMessages,
	)
}

// Registry returns the prometheus registry.
func (sm *SignalMetrics) Registry() *prometheus.Registry {
	return sm.registry
}

// --- Helper methods for recording metrics ---

// RecordSignal records a computed signal and its bet plan.
func (sm *SignalMetrics) RecordSignal(sig signal.Signal, durationSec float64) {
	sm.SignalsTotal.WithLabelValues(string(sig.Action), string(sig.Scenario)).Inc()
	sm.SignalScore.WithLabelValues(string(sig.Phase)).Observe(sig.Score)
	sm.SignalConfidence.WithLabelValues(string(sig.Phase)).Observe(sig.Confidence)
	sm.LateGoalProbability.WithLabelValues().Observe(sig.PoissonGoalProb)
	if durationSec > 0 {
		sm.ComputeDuration.WithLabelValues().Observe(durationSec)
	}
	if sig.BetPlan != nil {
		sm.BetPlansTotal.WithLabelValues(string(sig.Action)).Inc()
		sm.BetPlanStake.WithLabelValues().Observe(DecimalToFloat64(sig.BetPlan.StakePct))
	}
}

// RecordOdds records one resolved odds table.
func (sm *SignalMetrics) RecordOdds(t odds.Table) {
	sm.OddsResolutions.WithLabelValues(string(t.FetchStatus)).Inc()
	sm.OddsLines.WithLabelValues().Observe(float64(len(t.AllLines)))
}

// RecordCollaboratorError records an upstream failure.
func (sm *SignalMetrics) RecordCollaboratorError(source string) {
	sm.CollaboratorErrors.WithLabelValues(source).Inc()
}

// UpdateTrackedFixtures sets the tracked fixture count.
func (sm *SignalMetrics) UpdateTrackedFixtures(count int) {
	sm.TrackedFixtures.WithLabelValues().Set(float64(count))
}

// RecordHTTP records a served request.
func (sm *SignalMetrics) RecordHTTP(method, route, status string, durationSec float64) {
	sm.HTTPRequests.WithLabelValues(method, route, status).Inc()
	sm.HTTPDuration.WithLabelValues(route).Observe(durationSec)
}

// RecordRateLimited records a rejected request.
func (sm *SignalMetrics) RecordRateLimited(route string) {
	sm.RateLimitedReqs.WithLabelValues(route).Inc()
}

// UpdateStreamClients sets the connected client count.
func (sm *SignalMetrics) UpdateStreamClients(count int) {
	sm.StreamClients.WithLabelValues().Set(float64(count))
}

// RecordStreamMessage records a broadcast message.
func (sm *SignalMetrics) RecordStreamMessage(msgType string) {
	sm.StreamMessages.WithLabelValues(msgType).Inc()
}

// --- Decimal helpers ---

// DecimalToFloat64 converts decimal.Decimal to float64 for metrics.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
