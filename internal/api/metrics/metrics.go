// Package metrics defines and registers all custom Prometheus metrics for the
// cinema services. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cinema"

// ── Replication metrics ───────────────────────────────────────────────────────

// ReplicationMessagesTotal counts replication messages by final outcome.
// Labels:
//   - type: message type (e.g. "client.created")
//   - outcome: "created", "updated", "unchanged", "duplicate", "conflict", "malformed" or "error"
var ReplicationMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replication_messages_total",
		Help:      "Total number of replication messages handled, by type and outcome.",
	},
	[]string{"type", "outcome"},
)

// ReplicationConflictsTotal counts creation messages rejected for carrying a
// different login than the mirror already holds.
var ReplicationConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replication_conflicts_total",
		Help:      "Total number of identity conflicts detected while replicating clients.",
	},
)

// ReplicationDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit", "miss" or "error"
var ReplicationDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replication_dedup_total",
		Help:      "Total number of deduplication checks, labelled by result.",
	},
	[]string{"result"},
)

// ReplicationQueueDepth tracks messages waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ReplicationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "replication_queue_depth",
		Help:      "Current number of replication messages pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ReplicationRetriesTotal counts transient apply failures that were retried.
var ReplicationRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replication_retries_total",
		Help:      "Total number of replication apply attempts retried after a transient failure.",
	},
)

// ReplicationApplyDuration measures a single apply, dedup to persistence.
var ReplicationApplyDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "replication_apply_duration_seconds",
		Help:      "Duration of applying one replication message to the client mirror.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ReplicationPublishedTotal counts messages emitted by the User service.
// Labels:
//   - type: message type
//   - result: "ok" or "error"
var ReplicationPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replication_published_total",
		Help:      "Total number of replication messages published, by type and result.",
	},
	[]string{"type", "result"},
)

// ── Ticket metrics ────────────────────────────────────────────────────────────

// TicketsCreatedTotal counts sold tickets.
// Label:
//   - ticket_type: "normal" or "reduced"
var TicketsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_created_total",
		Help:      "Total number of tickets created, by ticket type.",
	},
	[]string{"ticket_type"},
)

// TicketRejectionsTotal counts purchases refused before a ticket was stored.
// Label:
//   - reason: "client_not_found", "client_inactive", "forbidden", "no_seats", "movie_not_found"
var TicketRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_rejections_total",
		Help:      "Total number of ticket purchases rejected, by reason.",
	},
	[]string{"reason"},
)

// ── Trust metrics ─────────────────────────────────────────────────────────────

// TokenRejectionsTotal counts bearer tokens refused at the HTTP boundary.
// Label:
//   - reason: "missing", "malformed", "expired", "signature", "subject_mismatch", "subject_inactive"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of session tokens rejected, by reason.",
	},
	[]string{"reason"},
)

// SignatureRejectionsTotal counts entity signatures that failed verification.
// Labels:
//   - kind: "user", "movie" or "ticket"
//   - reason: "malformed", "invalid", "kind_mismatch", "entity_mismatch"
var SignatureRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signature_rejections_total",
		Help:      "Total number of entity signatures rejected, by kind and reason.",
	},
	[]string{"kind", "reason"},
)
