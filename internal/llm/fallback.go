package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"labassist/internal/port"
)

// circuitState tracks rate-limit backoff for a single backend.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackBackend tries backends in order, skipping those with open circuits.
// A backend that answers 429 is skipped until its Retry-After elapses.
type FallbackBackend struct {
	backends []port.ReasoningBackend
	circuits []*circuitState
	names    []string
	logger   *zap.Logger
}

// NewFallbackBackend creates a FallbackBackend from an ordered list of backends and their names.
func NewFallbackBackend(backends []port.ReasoningBackend, names []string, logger *zap.Logger) *FallbackBackend {
	circuits := make([]*circuitState, len(backends))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackBackend{
		backends: backends,
		circuits: circuits,
		names:    names,
		logger:   logger,
	}
}

func (f *FallbackBackend) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, b := range f.backends {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.logger.Debug("llm.FallbackBackend: skipping backend, circuit open",
				zap.String("provider", f.names[i]),
				zap.Time("reset_at", resetAt),
			)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := b.Complete(ctx, req)
		if err == nil {
			return out, nil
		}

		f.logger.Warn("llm.FallbackBackend: backend failed",
			zap.String("provider", f.names[i]),
			zap.Error(err),
		)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	// Either every backend was skipped, or every attempt was rate limited.
	if lastErr == nil || allRateLimited {
		retryAfter := time.Until(earliestReset)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all backends rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all backends failed: %w", lastErr)
}
