// Package circuitbreaker guards the synchronous scoring path with a
// gobreaker circuit. A run of rebuild failures usually means the
// database is struggling, so the breaker sheds rebuild load while
// cached rows keep serving.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes when the circuit trips and how it recovers.
type Config struct {
	Name             string
	MaxRequests      uint32        // trial requests admitted while half-open
	Interval         time.Duration // closed-state window for failure counting
	Timeout          time.Duration // open-state hold before the half-open trial
	FailureThreshold float64       // failure ratio that trips the circuit
	MinRequests      uint32        // samples required before the ratio counts
}

// ScoringConfig is tuned for recommendation rebuilds: scoring fans out
// into several catalog and signal queries per request, so five samples
// with a 60% failure rate is already a clear database problem.
func ScoringConfig() Config {
	return Config{
		Name:             "recommendation-scoring",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// CircuitBreaker wraps gobreaker with the engine's trip rule and
// state-change logging.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// Execute runs fn through the circuit. While open it fails fast with
// gobreaker.ErrOpenState and fn never runs.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the circuit's current state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the configured circuit name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
