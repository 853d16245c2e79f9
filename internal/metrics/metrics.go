// Package metrics defines all custom Prometheus metrics for the user
// manager. It is the single source of truth for metric names, labels, and
// help strings; metrics register themselves with the default registry via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "usermanager"

// EntityWritesTotal counts persisted entity mutations.
// Labels:
//   - kind: "user", "role", or "permission"
//   - op: "create", "update", or "delete"
var EntityWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entity_writes_total",
		Help:      "Total number of entity mutations persisted, by kind and operation.",
	},
	[]string{"kind", "op"},
)

// TransactionsTotal counts finished change-context transactions.
// Label:
//   - result: "committed" or "rolled_back"
var TransactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_total",
		Help:      "Total number of change-context transactions, by result.",
	},
	[]string{"result"},
)

// NotificationsFiredTotal counts post-commit change notifications. One
// notification is fired per affected kind per transaction.
var NotificationsFiredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_fired_total",
		Help:      "Total number of post-commit change notifications fired, by kind.",
	},
	[]string{"kind"},
)

// ListingCacheTotal counts listing-cache reads.
// Labels:
//   - kind: the entity kind requested
//   - result: "hit" (served from cache) or "miss" (reloaded from the repository)
var ListingCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_cache_total",
		Help:      "Total number of listing-cache reads, by kind and result.",
	},
	[]string{"kind", "result"},
)
