// Package metrics defines every Prometheus collector the engine
// exports: HTTP request counts and latency, cache hit and miss rates,
// scoring branch choices, rebuild durations, and training outcomes.
// Collectors register with the default registry at init and are served
// from the /metrics endpoint of both binaries.
//
//	start := time.Now()
//	// score and cache the list
//	metrics.RecordRecommendationBuild(branch, time.Since(start))
package metrics
