package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"cinebox-recs/internal/infra/notifier"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const (
	// failuresToOpen consecutive failures take a channel out of rotation
	// for breakerCooldown.
	failuresToOpen  = 5
	breakerCooldown = 5 * time.Minute

	// slotWait bounds how long a delivery waits for a worker slot before
	// the report is dropped; deliveryTimeout bounds the send itself.
	slotWait        = 5 * time.Second
	deliveryTimeout = 30 * time.Second
)

// Service fans job reports out to every enabled channel. It satisfies
// notifier.Notifier, so the train and batch services stay unaware of
// how many channels the worker wired up.
type Service interface {
	// NotifyReport hands the report to all enabled channels and returns
	// immediately. Deliveries run in the background; a failing channel
	// is logged and counted, never surfaced to the caller.
	NotifyReport(ctx context.Context, report notifier.Report) error

	// GetChannelHealth reports per-channel breaker state for the worker
	// health endpoint.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown blocks until in-flight deliveries finish or ctx expires.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus is one channel's view in GetChannelHealth.
type ChannelHealthStatus struct {
	Name               string
	Enabled            bool
	CircuitBreakerOpen bool
	DisabledUntil      *time.Time // nil while the breaker is closed
}

type service struct {
	channels []Channel
	slots    chan struct{} // caps concurrent deliveries

	mu      sync.RWMutex
	breaker map[string]*channelBreaker

	wg         sync.WaitGroup
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// channelBreaker counts consecutive failures for one channel and holds
// the cooldown deadline once it trips.
type channelBreaker struct {
	mu            sync.Mutex
	failures      int
	disabledUntil time.Time
}

// NewService builds a dispatcher over channels with at most
// maxConcurrent deliveries in flight.
func NewService(channels []Channel, maxConcurrent int) Service {
	baseCtx, cancelBase := context.WithCancel(context.Background())

	svc := &service{
		channels:   channels,
		slots:      make(chan struct{}, maxConcurrent),
		breaker:    make(map[string]*channelBreaker),
		baseCtx:    baseCtx,
		cancelBase: cancelBase,
	}
	for _, ch := range channels {
		svc.breaker[ch.Name()] = &channelBreaker{}
	}
	return svc
}

func (s *service) NotifyReport(ctx context.Context, report notifier.Report) error {
	if report.Title == "" {
		slog.Warn("dropping report without a title")
		return nil
	}

	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		requestID = uuid.New().String()
	}

	enabled := 0
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabled++
		}
	}
	SetChannelsEnabled(float64(enabled))

	if enabled == 0 {
		slog.Debug("no report channels enabled",
			slog.String("request_id", requestID),
			slog.String("title", report.Title))
		return nil
	}

	slog.Info("dispatching job report",
		slog.String("request_id", requestID),
		slog.String("title", report.Title),
		slog.String("status", report.Status),
		slog.Int("enabled_channels", enabled))

	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		s.wg.Add(1)
		go s.deliver(requestID, ch, report)
	}
	return nil
}

// deliver sends one report to one channel, honoring the worker slot
// cap and the channel's breaker.
func (s *service) deliver(requestID string, channel Channel, report notifier.Report) {
	defer s.wg.Done()

	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in report channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-time.After(slotWait):
		slog.Warn("report dropped, all delivery workers busy",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "pool_full")
		return
	}

	br := s.channelBreaker(channel.Name())
	br.mu.Lock()
	if time.Now().Before(br.disabledUntil) {
		until := br.disabledUntil
		br.mu.Unlock()
		slog.Warn("report dropped, channel breaker open",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Time("disabled_until", until))
		RecordDropped(channel.Name(), "circuit_open")
		return
	}
	br.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.baseCtx, deliveryTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	start := time.Now()
	RecordDispatch(channel.Name())

	err := channel.Send(ctx, report)
	elapsed := time.Since(start)

	br.mu.Lock()
	if err != nil {
		br.failures++
		if br.failures >= failuresToOpen {
			br.disabledUntil = time.Now().Add(breakerCooldown)
			slog.Error("channel breaker opened",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Int("consecutive_failures", br.failures))
			RecordCircuitBreakerOpen(channel.Name())
		}
	} else {
		br.failures = 0
	}
	br.mu.Unlock()

	if err != nil {
		RecordFailure(channel.Name(), elapsed)
		slog.Warn("report delivery failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.String("title", report.Title),
			slog.Duration("send_duration", elapsed),
			slog.Any("error", err))
		return
	}

	RecordSuccess(channel.Name(), elapsed)
	slog.Info("report delivered",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.String("title", report.Title),
		slog.Duration("send_duration", elapsed))
}

func (s *service) channelBreaker(name string) *channelBreaker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.breaker[name]
}

func (s *service) GetChannelHealth() []ChannelHealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		br := s.breaker[ch.Name()]

		br.mu.Lock()
		var disabledUntil *time.Time
		open := time.Now().Before(br.disabledUntil)
		if open {
			until := br.disabledUntil
			disabledUntil = &until
		}
		br.mu.Unlock()

		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: open,
			DisabledUntil:      disabledUntil,
		})
	}
	return statuses
}

func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("report dispatcher shutting down")
	s.cancelBase()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("report dispatcher drained")
		return nil
	case <-ctx.Done():
		slog.Warn("report dispatcher shutdown timed out")
		return ctx.Err()
	}
}
