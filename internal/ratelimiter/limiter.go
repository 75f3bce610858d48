package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// DispatchLimiter is a token bucket bounding how fast the processor pushes
// messages at the gateway. A large tick can drain hundreds of partitions at
// once; without a cap that turns into a thundering herd against the gateway.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type DispatchLimiter struct {
	limiter *rate.Limiter
}

// New creates a DispatchLimiter allowing ratePerSec sends per second.
func New(ratePerSec int) *DispatchLimiter {
	return &DispatchLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

// Wait blocks until the limiter grants a token.
// Called by the processor immediately before each gateway send.
// Returns a non-nil error only if ctx is cancelled or its deadline passes
// while waiting.
func (dl *DispatchLimiter) Wait(ctx context.Context) error {
	return dl.limiter.Wait(ctx)
}
