// Package tracing wires OpenTelemetry spans into the HTTP layer. Trace
// context arrives in W3C headers, each request gets a server span, and
// the trace ID is echoed back so clients can reference it in reports.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cinebox-recs"

// GetTracer resolves the engine's tracer from the current global
// provider, for spans outside the HTTP middleware such as scoring or
// cache refresh sections.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
