// Package metrics provides Prometheus instrumentation for the poll loops,
// refresh intervals and chat sends.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal counts status polls by the status they returned.
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connection_polls_total",
			Help: "Total status polls issued by connection pollers",
		},
		[]string{"status"},
	)

	// ConnectionOutcomes counts pairing sessions reaching a terminal status.
	ConnectionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connection_outcomes_total",
			Help: "Pairing sessions reaching a terminal status",
		},
		[]string{"status"},
	)

	// ActivePollLoops tracks running poll loops.
	ActivePollLoops = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connection_poll_loops_active",
			Help: "Number of running connection poll loops",
		},
	)

	// RefreshTicks counts silent refresh ticks by outcome.
	RefreshTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_refresh_ticks_total",
			Help: "Silent chat refresh ticks",
		},
		[]string{"outcome"},
	)

	// SendsTotal counts chat sends by mode and outcome.
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sends_total",
			Help: "Chat messages sent",
		},
		[]string{"mode", "outcome"},
	)

	// APIRequestDuration tracks backend request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "status"},
	)
)

// RecordPoll records one status poll.
func RecordPoll(status string) {
	PollsTotal.WithLabelValues(status).Inc()
}

// RecordOutcome records a terminal pairing status.
func RecordOutcome(status string) {
	ConnectionOutcomes.WithLabelValues(status).Inc()
}

// RecordRefresh records a silent refresh tick.
func RecordRefresh(outcome string) {
	RefreshTicks.WithLabelValues(outcome).Inc()
}

// RecordSend records a chat send.
func RecordSend(mode, outcome string) {
	SendsTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordRequest records a backend request.
func RecordRequest(method, status string, seconds float64) {
	APIRequestDuration.WithLabelValues(method, status).Observe(seconds)
}
