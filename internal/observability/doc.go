// Package observability groups the logging, metrics, and tracing
// subpackages the API server and worker share.
//
//   - logging: slog setup with JSON output and request ID helpers
//   - metrics: Prometheus collectors for HTTP, cache, scoring, and
//     training activity
//   - tracing: OpenTelemetry span middleware and trace ID propagation
//
// A typical main wires all three:
//
//	logger := logging.NewLogger()
//	handler := tracing.Middleware(mux)
//	metrics.RecordCacheLookup("hit")
package observability
