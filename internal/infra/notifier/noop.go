package notifier

import "context"

// NoOpNotifier satisfies Notifier when no webhook is configured, so
// callers never branch on a nil notifier.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyReport discards the report.
func (n *NoOpNotifier) NotifyReport(ctx context.Context, report Report) error {
	return nil
}
