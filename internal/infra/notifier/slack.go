package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SlackConfig configures the Slack Incoming Webhook channel.
type SlackConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// SlackNotifier posts job reports to a Slack Incoming Webhook. Sends
// are paced to the webhook limit of one message per second.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload is the Block Kit message body.
type SlackWebhookPayload struct {
	Text   string       `json:"text"` // notification fallback
	Blocks []SlackBlock `json:"blocks"`
}

type SlackBlock struct {
	Type     string            `json:"type"` // section, context
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

type SlackTextObject struct {
	Type string `json:"type"` // mrkdwn or plain_text
	Text string `json:"text"`
}

// Block Kit limits: section text tops out at 3000 characters.
const (
	maxSectionTextLength  = 3000
	maxFallbackLength     = 150
	slackTruncationSuffix = "..."
)

func statusEmoji(status string) string {
	switch status {
	case StatusSuccess:
		return ":white_check_mark:"
	case StatusWarning:
		return ":warning:"
	default:
		return ":x:"
	}
}

// buildBlockKitPayload renders a job report as one section block (title
// plus field lines) and one context block (status and timestamp).
func (s *SlackNotifier) buildBlockKitPayload(report Report) SlackWebhookPayload {
	fallback := truncateText(
		fmt.Sprintf("%s - %s", report.Title, report.Status),
		maxFallbackLength, slackTruncationSuffix)

	section := fmt.Sprintf("%s *%s*", statusEmoji(report.Status), report.Title)
	for _, f := range report.Fields {
		section += fmt.Sprintf("\n• %s: %s", f.Name, f.Value)
	}
	section = truncateText(section, maxSectionTextLength, slackTruncationSuffix)

	return SlackWebhookPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: section},
			},
			{
				Type: "context",
				Elements: []SlackTextObject{{
					Type: "mrkdwn",
					Text: fmt.Sprintf("%s • %s", report.Status, time.Now().UTC().Format(time.RFC3339)),
				}},
			},
		},
	}
}

// sendWebhookRequest posts the report once and classifies the outcome:
// RateLimitError on 429, ClientError on other 4xx, ServerError on 5xx.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, report Report) error {
	jsonData, err := json.Marshal(s.buildBlockKitPayload(report))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "Slack rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API client error: %s", string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API server error: %s", string(body)),
		}
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}

// sendWebhookRequestWithRetry retries once after a failure. A 429 waits
// for the duration Slack asked for, a 5xx or network error backs off
// five seconds, and other 4xx responses fail immediately.
func (s *SlackNotifier) sendWebhookRequestWithRetry(ctx context.Context, report Report) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)
	log := slog.Default().With(
		slog.String("request_id", requestID),
		slog.String("report", report.Title))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = s.sendWebhookRequest(ctx, report)
		if lastErr == nil {
			log.Info("Slack notification successful", slog.Int("attempt", attempt))
			return nil
		}

		var delay time.Duration
		switch {
		case isRateLimitError(lastErr):
			rl, _ := is429Error(lastErr)
			delay = rl.RetryAfter
			log.Warn("Slack rate limit hit, backing off",
				slog.Duration("retry_after", delay), slog.Int("attempt", attempt))
		case isRetryableError(lastErr):
			if attempt == maxAttempts {
				continue
			}
			delay = baseDelay * time.Duration(attempt)
			log.Warn("Slack API request failed, retrying",
				slog.Any("error", lastErr),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
		default:
			log.Error("Slack notification failed with non-retryable error",
				slog.Any("error", lastErr), slog.Int("attempt", attempt))
			return lastErr
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
		}
	}

	log.Error("Slack notification failed after all retries",
		slog.Any("error", lastErr), slog.Int("max_attempts", maxAttempts))
	return fmt.Errorf("slack notification failed after %d attempts: %w", maxAttempts, lastErr)
}

// NotifyReport implements Notifier: it tags the send with a request ID,
// waits for a rate limit slot, and posts the report with retry.
func (s *SlackNotifier) NotifyReport(ctx context.Context, report Report) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Slack notification",
		slog.String("request_id", requestID),
		slog.String("report", report.Title),
		slog.String("status", report.Status))

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return s.sendWebhookRequestWithRetry(ctx, report)
}
