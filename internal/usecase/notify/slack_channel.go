package notify

import (
	"context"

	"cinebox-recs/internal/infra/notifier"
)

// SlackChannel implements the Channel interface for Slack. It wraps the
// SlackNotifier from the infrastructure layer so the fan-out service
// can treat Slack like any other channel while reusing the webhook
// implementation's rate limiting and retry behavior.
type SlackChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewSlackChannel creates a Slack channel from the given configuration.
// When Slack reporting is disabled a NoOpNotifier backs the channel so
// the Channel contract is always satisfied without nil checks.
func NewSlackChannel(config notifier.SlackConfig) *SlackChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &SlackChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns the channel identifier "slack".
func (c *SlackChannel) Name() string {
	return "slack"
}

// IsEnabled returns whether Slack reporting is enabled via configuration.
func (c *SlackChannel) IsEnabled() bool {
	return c.enabled
}

// Send delivers an operator report to Slack. The underlying notifier
// handles rate limiting, retries, context cancellation, and request ID
// logging.
func (c *SlackChannel) Send(ctx context.Context, report notifier.Report) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if report.Title == "" {
		return ErrInvalidReport
	}
	return c.notifier.NotifyReport(ctx, report)
}
