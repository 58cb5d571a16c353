// Package metrics defines and registers all custom Prometheus metrics for the
// ATV backend. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry via promauto at
// package init, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/autotradevip/atv-backend/internal/core/domain"
)

const namespace = "atv"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "failure" or "throttled"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of users registered.",
	},
)

// VIPUpdatesTotal counts VIP status writes.
// Label:
//   - vip_status: the value written ("true"/"false")
var VIPUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vip_updates_total",
		Help:      "Total number of VIP status updates, by value written.",
	},
	[]string{"vip_status"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events handled by the pipeline.
// Labels:
//   - action: the audit action (e.g. "user.login")
//   - result: "stored" or "error"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events processed, by action and result.",
	},
	[]string{"action", "result"},
)

// AuditEventsDroppedTotal counts events discarded because a worker queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped on a full queue.",
	},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditProcessingDuration measures how long a single audit event takes to store.
var AuditProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_processing_duration_seconds",
		Help:      "Duration of audit event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── User base gauges ──────────────────────────────────────────────────────────

// Users reports the size of the user base.
// Label:
//   - segment: "total", "vip", "admin" or "trading_accounts"
var Users = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users",
		Help:      "Current number of users per segment, refreshed periodically.",
	},
	[]string{"segment"},
)

// ObserveUserStats copies a stats snapshot into the Users gauge.
func ObserveUserStats(s domain.UserStats) {
	Users.WithLabelValues("total").Set(float64(s.TotalUsers))
	Users.WithLabelValues("vip").Set(float64(s.VIPUsers))
	Users.WithLabelValues("admin").Set(float64(s.AdminUsers))
	Users.WithLabelValues("trading_accounts").Set(float64(s.TradingAccounts))
}
