package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound Slack calls so alert storms from failing
// jobs do not trip the webhook's own 429 handling.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows a sustained requestsPerSecond with the given
// burst headroom.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow blocks until a send slot is available or ctx ends.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
