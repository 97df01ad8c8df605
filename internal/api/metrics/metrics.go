// Package metrics defines and registers all custom Prometheus metrics of the
// learner agent. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation; /metrics on the control API exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "learner"

// ── Remote API metrics ────────────────────────────────────────────────────────

// APIRequestsTotal counts remote API calls.
// Labels:
//   - method: HTTP method
//   - code: HTTP status, or "timeout" / "network" when no response arrived
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of remote API requests, by method and outcome code.",
	},
	[]string{"method", "code"},
)

// APIRequestDuration measures remote API round trips.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of remote API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// CacheLookupsTotal counts GET cache lookups.
// Label:
//   - result: "hit" (served from cache, revalidated in background) or "miss"
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of GET cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// CacheRevalidationsTotal counts background revalidations.
// Label:
//   - result: "ok", "error" (swallowed) or "discarded" (cache cleared meanwhile)
var CacheRevalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_revalidations_total",
		Help:      "Total number of background cache revalidations, by result.",
	},
	[]string{"result"},
)

// ── Enrollment metrics ────────────────────────────────────────────────────────

// ReconciliationsTotal counts reconciliation attempts.
// Label:
//   - outcome: "success", "fallback", "failed", "skipped", "discarded", "no_learner"
var ReconciliationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliations_total",
		Help:      "Total number of enrollment reconciliation attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ReconciliationDuration measures full reconciliation passes.
var ReconciliationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconciliation_duration_seconds",
		Help:      "Duration of enrollment reconciliation passes.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"forced"},
)

// EnrolledCourses is the size of the course list currently shown.
var EnrolledCourses = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "enrolled_courses",
		Help:      "Number of course cards currently published by the enrollment store.",
	},
)

// CourseFetchErrorsTotal counts course detail fetches omitted from a pass.
// Label:
//   - reason: "not_found" or "error"
var CourseFetchErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "course_fetch_errors_total",
		Help:      "Total number of course detail fetches that were omitted from a reconciliation.",
	},
	[]string{"reason"},
)

// ── Session and trigger metrics ───────────────────────────────────────────────

// SessionTransitionsTotal counts resolver state transitions.
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of identity resolver transitions, by target state.",
	},
	[]string{"state"},
)

// TriggersTotal counts refresh triggers handled by the dispatcher.
// Labels:
//   - kind: "startup", "interval", "focus", "token_changed"
//   - result: "queued", "dropped" or "ignored" (no active learner)
var TriggersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "triggers_total",
		Help:      "Total number of refresh triggers, by kind and result.",
	},
	[]string{"kind", "result"},
)
