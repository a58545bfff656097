// Package metrics declares the custom Prometheus metrics of the catalog API.
// All metrics register with the default registry on package init through
// promauto and are exposed on /metrics next to the echoprometheus HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reelbase"

// ── Account metrics ───────────────────────────────────────────────────────────

// AccountEventsTotal counts account lifecycle outcomes.
// Label:
//   - event: "registered", "login", "login_failed", "email_verified",
//     "email_change_requested", "profile_updated"
var AccountEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_events_total",
		Help:      "Total number of account lifecycle events.",
	},
	[]string{"event"},
)

// VerificationMailsTotal counts verification mail attempts.
// Label:
//   - result: "sent" or "failed"
var VerificationMailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_mails_total",
		Help:      "Total number of verification mails attempted, by result.",
	},
	[]string{"result"},
)

// ── Watchlist and review metrics ──────────────────────────────────────────────

// WatchlistOpsTotal counts successful watchlist mutations.
// Label:
//   - op: "add" or "remove"
var WatchlistOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watchlist_operations_total",
		Help:      "Total number of watchlist mutations.",
	},
	[]string{"op"},
)

// ReviewOpsTotal counts successful review mutations.
// Label:
//   - op: "create", "update" or "delete"
var ReviewOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_operations_total",
		Help:      "Total number of review mutations.",
	},
	[]string{"op"},
)

// ── Idempotency metrics ───────────────────────────────────────────────────────

// IdempotencyChecksTotal counts Idempotency-Key lookups.
// Label:
//   - result: "hit" (replay rejected), "miss" (first use) or "error" (store unavailable)
var IdempotencyChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_checks_total",
		Help:      "Total number of idempotency key checks, by result.",
	},
	[]string{"result"},
)
