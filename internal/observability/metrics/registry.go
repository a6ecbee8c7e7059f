package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request-level metrics recorded by the API server's middleware.
var (
	// HTTPRequestsTotal counts requests by method, normalized path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds. The
	// buckets cover fast cache hits (5-25ms), normal scoring passes
	// (50-250ms), and slow rebuilds (0.5-10s) so p95 and p99 stay accurate.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize observes request body sizes; ratings ingests are the
	// only sizeable bodies, so the buckets stretch wide.
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize observes response body sizes, dominated by the
	// recommendation list payloads.
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight gauges how many requests are currently inside
	// a handler.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Recommendation metrics track the scoring and caching pipeline
var (
	// CacheLookupsTotal counts recommendation cache lookups by result
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_lookups_total",
			Help: "Total number of recommendation cache lookups",
		},
		[]string{"result"}, // result: hit, miss, stale, stale_served, fallback
	)

	// RecommendationBuildDuration measures a full per-user scoring pass
	RecommendationBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_build_duration_seconds",
			Help:    "Time taken to build one user's recommendation list",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"branch"}, // branch: cf, content_seed, popularity
	)

	// SingleflightSharedTotal counts rebuild calls coalesced onto an
	// in-flight computation for the same user
	SingleflightSharedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_singleflight_shared_total",
			Help: "Total number of rebuild requests that shared an in-flight result",
		},
	)

	// TrainingRunsTotal counts model training runs by outcome
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cf_training_runs_total",
			Help: "Total number of collaborative filtering training runs",
		},
		[]string{"status"}, // status: success, insufficient_data, failure
	)

	// TrainingDuration measures end-to-end model training time
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cf_training_duration_seconds",
			Help:    "Time taken to train the collaborative filtering model",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	// ModelUsersTotal tracks users covered by the loaded model
	ModelUsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cf_model_users_total",
			Help: "Number of users covered by the loaded model",
		},
	)

	// ModelItemsTotal tracks movies covered by the loaded model
	ModelItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cf_model_items_total",
			Help: "Number of movies covered by the loaded model",
		},
	)

	// SimilarityEdgesTotal tracks the size of the similarity graph after the
	// latest rebuild
	SimilarityEdgesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_edges_total",
			Help: "Number of edges in the content similarity graph",
		},
	)

	// SimilarityBuildDuration measures a full similarity graph rebuild
	SimilarityBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_build_duration_seconds",
			Help:    "Time taken to rebuild the content similarity graph",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// RecomputeUsersTotal counts users processed by batch recompute by outcome
	RecomputeUsersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_recompute_users_total",
			Help: "Total number of users processed by batch recompute",
		},
		[]string{"status"}, // status: success, failure
	)
)

// DBQueryDuration observes per-operation query latency in the Postgres
// repositories.
var DBQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Database query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
	},
	[]string{"operation"},
)
