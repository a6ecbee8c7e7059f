package metrics

import "time"

// RecordCacheLookup records the outcome of a recommendation cache lookup.
// Result should be one of "hit", "miss", "stale", "stale_served", "fallback".
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRecommendationBuild records one per-user scoring pass and which
// branch of the cold start ladder produced it.
func RecordRecommendationBuild(branch string, duration time.Duration) {
	RecommendationBuildDuration.WithLabelValues(branch).Observe(duration.Seconds())
}

// RecordSingleflightShared records a rebuild request that was coalesced onto
// an already in-flight computation for the same user.
func RecordSingleflightShared() {
	SingleflightSharedTotal.Inc()
}

// RecordTrainingRun records the outcome of a model training run.
// Status should be "success", "insufficient_data", or "failure".
func RecordTrainingRun(status string, duration time.Duration) {
	TrainingRunsTotal.WithLabelValues(status).Inc()
	TrainingDuration.Observe(duration.Seconds())
}

// UpdateModelCoverage updates the user and movie coverage gauges after a
// model swap.
func UpdateModelCoverage(users, items int) {
	ModelUsersTotal.Set(float64(users))
	ModelItemsTotal.Set(float64(items))
}

// RecordSimilarityBuild records a similarity graph rebuild and the resulting
// edge count.
func RecordSimilarityBuild(edges int, duration time.Duration) {
	SimilarityEdgesTotal.Set(float64(edges))
	SimilarityBuildDuration.Observe(duration.Seconds())
}

// RecordRecomputeUser records one user processed by the batch recompute pass.
func RecordRecomputeUser(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	RecomputeUsersTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_neighbors",
// "replace_recommendations").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
