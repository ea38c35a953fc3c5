// Package metrics holds the prometheus collectors exported at /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SettlementToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripmate",
		Name:      "settlement_toggles_total",
		Help:      "Settlement toggles by write outcome.",
	}, []string{"outcome"})

	CascadeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripmate",
		Name:      "group_cascades_total",
		Help:      "Group rename/delete cascades by kind and resulting status.",
	}, []string{"kind", "status"})

	StoreWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripmate",
		Name:      "store_write_failures_total",
		Help:      "Failed writes to the trip store by operation.",
	}, []string{"op"})

	SettlementConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tripmate",
		Name:      "settlement_conflicts_total",
		Help:      "Local settlement changes discarded when reconciling with the store.",
	})

	ProfileCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripmate",
		Name:      "profile_cache_lookups_total",
		Help:      "Profile lookups by the tier that answered them.",
	}, []string{"tier"})

	TaskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripmate",
		Name:      "scheduled_task_runs_total",
		Help:      "Scheduled task executions by task name and status.",
	}, []string{"task", "status"})
)
