// Package notify provides the use case for dispatching operator reports
// across multiple channels. Batch jobs (similarity rebuild, model
// retraining, full recompute) produce status reports; this package fans
// them out to every enabled delivery channel with circuit breakers,
// bounded concurrency, and observability.
package notify

import (
	"context"

	"cinebox-recs/internal/infra/notifier"
)

// Channel represents a report delivery channel (Slack, etc.). Each
// channel implementation handles its own rate limiting, retries, and
// error handling.
//
// Retry Policy Contract:
//   - Transient failures (5xx, network errors): retry with exponential backoff (max 2 attempts)
//   - Rate limits (429): sleep for retry_after duration, then retry
//   - Client errors (4xx except 429): no retry
//   - Context timeout: no retry
//
// All methods must be safe for concurrent use.
type Channel interface {
	// Name returns the channel identifier (lowercase, alphanumeric).
	// Used for logging, metrics, and health check endpoints.
	Name() string

	// IsEnabled returns true if this channel is enabled via
	// configuration. Disabled channels are skipped during dispatch.
	IsEnabled() bool

	// Send delivers an operator report to this channel.
	//
	// Implementations must respect context cancellation, apply rate
	// limiting, and retry transient failures per the policy above.
	// Returns ErrChannelDisabled if called on a disabled channel and
	// ErrInvalidReport if the report has no title.
	Send(ctx context.Context, report notifier.Report) error
}
