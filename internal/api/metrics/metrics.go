// Package metrics defines and registers all custom Prometheus metrics for
// the control bot. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry at import time via promauto;
// the ops server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "controlbot"

// ── Brain client metrics ─────────────────────────────────────────────────────

// BrainRequestsTotal counts brain calls by operation and outcome.
// Labels:
//   - op: client operation name (e.g. "create_task", "get_user")
//   - outcome: "ok", "not_found", "app_error", or "transport_error"
var BrainRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "brain_requests_total",
		Help:      "Total number of brain backend calls, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// BrainRequestDuration measures brain call latency end-to-end.
// Label:
//   - op: client operation name
var BrainRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "brain_request_duration_seconds",
		Help:      "Duration of brain backend calls from request build to envelope decode.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Command metrics ──────────────────────────────────────────────────────────

// CommandsDispatchedTotal counts successfully created tasks.
// Label:
//   - type: task type (e.g. "lock", "reboot")
var CommandsDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_dispatched_total",
		Help:      "Total number of device commands dispatched, by task type.",
	},
	[]string{"type"},
)

// AccessDeniedTotal counts denials emitted by the access gate.
// Label:
//   - reason: "unresolved" (no identity), "level" (device access check),
//     "not_admin" (admin-only operation)
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of denied actions, by denial reason.",
	},
	[]string{"reason"},
)

// ── Identity cache metrics ───────────────────────────────────────────────────

// IdentityCacheTotal counts cache lookups.
// Label:
//   - result: "hit" (fresh entry returned) or "miss" (expired or absent)
var IdentityCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_cache_total",
		Help:      "Total number of identity cache lookups, by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Broadcast metrics ────────────────────────────────────────────────────────

// BroadcastQueueDepth tracks pending commands per dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var BroadcastQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "broadcast_queue_depth",
		Help:      "Current number of commands pending in each broadcast worker channel.",
	},
	[]string{"worker_id"},
)
