package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and resolution Prometheus metrics.
var (
	RetrievalQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_queries_total",
			Help:      "Retrieval queries executed, by type and outcome",
		},
		[]string{"type", "status"}, // status: "ok" / "error" / "skipped"
	)

	RetrievalQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_query_duration_seconds",
			Help:      "Single retrieval query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"type"},
	)

	RetrievalCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_candidates",
			Help:      "Candidate count after each retrieval stage",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"stage"}, // "fused" / "filtered" / "final"
	)

	ResolverRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_runs_total",
			Help:      "Dependency resolution runs, by outcome",
		},
		[]string{"status"},
	)

	ResolverDependenciesAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_dependencies_added_total",
			Help:      "Dependencies pulled into resolved mod sets",
		},
	)

	ResolverConflictsRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_conflicts_removed_total",
			Help:      "Mods removed by conflict resolution, by phase",
		},
		[]string{"phase"}, // "selection" / "dependency"
	)
)
