package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"labassist/internal/port"
)

// RateLimitedBackend throttles outgoing completions with a token bucket shared
// by every caller of the wrapped backend.
type RateLimitedBackend struct {
	next    port.ReasoningBackend
	limiter *rate.Limiter
}

// NewRateLimitedBackend wraps next with a limit of rps requests per second and the given burst.
func NewRateLimitedBackend(next port.ReasoningBackend, rps float64, burst int) *RateLimitedBackend {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedBackend{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedBackend) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		// Wait fails early, with its own error, when the deadline would pass
		// before a token is free.
		if ctx.Err() == nil {
			if _, ok := ctx.Deadline(); ok {
				return nil, fmt.Errorf("waiting for rate limiter: %v: %w", err, context.DeadlineExceeded)
			}
		}
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return r.next.Complete(ctx, req)
}
