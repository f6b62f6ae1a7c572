// Package observability holds the prometheus collectors shared by the
// storage and engine layers. Scraped from /metrics on the API server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts read-through cache hits per collection.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmledger_cache_hits_total",
		Help: "Read-through cache hits by collection.",
	}, []string{"collection"})

	// CacheMisses counts read-through cache misses per collection.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmledger_cache_misses_total",
		Help: "Read-through cache misses by collection.",
	}, []string{"collection"})

	// RemoteFailures counts remote store errors by collection and operation.
	RemoteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmledger_remote_failures_total",
		Help: "Remote store failures by collection and op.",
	}, []string{"collection", "op"})

	// FallbackWrites counts best-effort degradations to the local store.
	FallbackWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmledger_fallback_writes_total",
		Help: "Mutations degraded to the local fallback store.",
	}, []string{"collection"})

	// SagaStepFailures counts failed compensation steps during order deletes.
	SagaStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmledger_saga_step_failures_total",
		Help: "Failed steps in multi-step compensations.",
	}, []string{"operation", "step"})
)
