package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modcurator"

var (
	embeddingOnce sync.Once
	engineOnce    sync.Once
	httpOnce      sync.Once
)

// RegisterEmbeddingMetrics registers the embedding provider and cache metrics
// on the default registry. Repeated calls are no-ops.
func RegisterEmbeddingMetrics() {
	embeddingOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
		)
	})
}

// RegisterEngineMetrics registers the retrieval and resolver metrics.
// Repeated calls are no-ops.
func RegisterEngineMetrics() {
	engineOnce.Do(func() {
		prometheus.MustRegister(
			RetrievalQueriesTotal,
			RetrievalQueryDuration,
			RetrievalCandidates,
			ResolverRunsTotal,
			ResolverDependenciesAdded,
			ResolverConflictsRemoved,
		)
	})
}

// RegisterHTTPMetrics registers the API request metrics. Repeated calls are no-ops.
func RegisterHTTPMetrics() {
	httpOnce.Do(func() {
		prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
	})
}
