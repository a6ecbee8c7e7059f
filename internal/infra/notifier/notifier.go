// Package notifier provides abstraction for sending operational reports about
// background jobs (model training, similarity rebuilds, batch recomputes).
// It defines the Notifier interface which allows different notification
// mechanisms (Slack, email, etc.) to be used interchangeably through
// dependency injection.
//
// The package includes a Slack webhook implementation and a no-op notifier
// for when notifications are disabled.
package notifier

import "context"

// Report statuses.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusFailure = "failure"
)

// Field is one labeled value in a report, rendered as a key/value line.
type Field struct {
	Name  string
	Value string
}

// Report describes the outcome of one background job run.
type Report struct {
	// Title names the job, e.g. "Model training".
	Title string

	// Status is one of StatusSuccess, StatusWarning, StatusFailure.
	Status string

	// Fields carry job-specific details in display order.
	Fields []Field
}

// Notifier is an interface for sending job reports.
// Implementations should handle rate limiting, retries, and error logging
// internally.
type Notifier interface {
	// NotifyReport sends a report about a finished background job.
	//
	// Returns a non-nil error if the notification failed after all retry
	// attempts. Implementations should respect context cancellation.
	NotifyReport(ctx context.Context, report Report) error
}
