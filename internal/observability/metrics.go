// Package observability exposes the Prometheus instrumentation shared by
// the dispatch path, the scheduler and the HTTP layer.
package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spritewire",
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Inbound webhook dispatches by source and outcome.",
		},
		[]string{"source", "outcome"},
	)
	executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spritewire",
			Subsystem: "executor",
			Name:      "executions_total",
			Help:      "Sprite executions by result.",
		},
		[]string{"success"},
	)
	scheduleFirings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spritewire",
			Subsystem: "scheduler",
			Name:      "firings_total",
			Help:      "Cron automation firings by result.",
		},
		[]string{"success"},
	)
)

// SourceUnknown is the fixed source label for requests naming an
// unregistered source. Raw request values must never become label
// values: each distinct value creates a new series for the lifetime of
// the process.
const SourceUnknown = "unknown"

// Dispatch outcomes.
const (
	OutcomeRejected  = "rejected"  // unknown source or failed validation
	OutcomeError     = "error"     // configuration or catalog failure
	OutcomeNoMatch   = "no_match"  // validated, zero automations matched
	OutcomeSucceeded = "succeeded" // all matched executions succeeded
	OutcomeFailed    = "failed"    // at least one matched execution failed
	OutcomeHandshake = "handshake" // transport-level handshake, no matching
)

// RegisterMetrics registers all collectors with the default registry.
// Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(dispatches, executions, scheduleFirings)
	})
}

func RecordDispatch(source, outcome string) {
	RegisterMetrics()
	dispatches.WithLabelValues(source, outcome).Inc()
}

func RecordExecution(success bool) {
	RegisterMetrics()
	executions.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordScheduleFiring(success bool) {
	RegisterMetrics()
	scheduleFirings.WithLabelValues(strconv.FormatBool(success)).Inc()
}
