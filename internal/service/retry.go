package service

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"labassist/internal/llm"
)

// RetryPolicy bounds how often a reasoning component re-issues a failed backend call.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
}

// DefaultRetryPolicy allows two retries with exponential backoff from one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Base: time.Second}
}

// Do runs fn until it succeeds, returns a permanent error, or the retry budget
// is spent. Only errors classified transient by llm.IsTransient are retried.
// The last error is returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(base))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !llm.IsTransient(err) {
			return err
		}
		if attempt <= maxRetries {
			logger.Warn(op+": transient failure, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return retry.RetryableError(err)
	})
}
