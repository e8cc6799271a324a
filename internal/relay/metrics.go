// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package relay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for relay operation metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusNoop    = "noop"
)

// Operation names used as metric labels.
const (
	OpLoad   = "load"
	OpUnload = "unload"
	OpInvoke = "invoke"
	OpUndo   = "undo"
	OpRedo   = "redo"
	OpInfo   = "info"
)

// Operations is the counter for relay operations.
// Use RegisterMetrics to register this with a Prometheus registry.
var Operations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cmdrelay_operations_total",
		Help: "Total number of relay operations by operation and status",
	},
	[]string{"operation", "status"},
)

// ContainerErrors counts errors the loaded module reported through the
// console, such as a failed doIt or a command panic.
var ContainerErrors = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "cmdrelay_container_errors_total",
		Help: "Total number of errors reported from inside the boundary",
	},
)

// ActiveBoundaries is the number of live boundaries.
var ActiveBoundaries = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "cmdrelay_active_boundaries",
		Help: "Number of live isolation boundaries",
	},
)

// LoadDuration is the histogram for module load time, from boundary
// creation to plugin initialization.
var LoadDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "cmdrelay_load_duration_seconds",
		Help:    "Module load duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

// RegisterMetrics registers relay metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(ContainerErrors)
	reg.MustRegister(ActiveBoundaries)
	reg.MustRegister(LoadDuration)
}

// RecordOperation increments the operation counter.
func RecordOperation(operation, status string) {
	Operations.WithLabelValues(operation, status).Inc()
}

// RecordLoadDuration observes how long a load took.
func RecordLoadDuration(d time.Duration) {
	LoadDuration.Observe(d.Seconds())
}
