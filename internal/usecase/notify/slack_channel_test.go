package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinebox-recs/internal/infra/notifier"
)

func TestSlackChannel_Name(t *testing.T) {
	ch := NewSlackChannel(notifier.SlackConfig{Enabled: false})
	if ch.Name() != "slack" {
		t.Errorf("Name() = %q, want %q", ch.Name(), "slack")
	}
}

func TestSlackChannel_DisabledRejectsSend(t *testing.T) {
	ch := NewSlackChannel(notifier.SlackConfig{Enabled: false})

	if ch.IsEnabled() {
		t.Error("IsEnabled() = true, want false")
	}
	err := ch.Send(context.Background(), notifier.Report{Title: "t", Status: notifier.StatusSuccess})
	if !errors.Is(err, ErrChannelDisabled) {
		t.Errorf("Send err=%v, want ErrChannelDisabled", err)
	}
}

func TestSlackChannel_RejectsEmptyTitle(t *testing.T) {
	ch := NewSlackChannel(notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: "https://hooks.slack.invalid/services/x",
		Timeout:    time.Second,
	})

	err := ch.Send(context.Background(), notifier.Report{})
	if !errors.Is(err, ErrInvalidReport) {
		t.Errorf("Send err=%v, want ErrInvalidReport", err)
	}
}
