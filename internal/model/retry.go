package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retrier wraps an Invoker with a synchronous fixed-delay retry loop.
// The delay is fixed, not backoff; retries block the caller's turn.
type Retrier struct {
	inner       Invoker
	maxAttempts int
	delay       time.Duration
	logger      *slog.Logger

	// sleep is injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Interface guard.
var _ Invoker = (*Retrier)(nil)

// NewRetrier wraps inner with up to maxAttempts tries separated by a
// fixed delay.
func NewRetrier(inner Invoker, maxAttempts int, delay time.Duration, logger *slog.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		inner:       inner,
		maxAttempts: maxAttempts,
		delay:       delay,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// ModelName implements Invoker.
func (r *Retrier) ModelName() string {
	return r.inner.ModelName()
}

// Complete implements Invoker. Every failure is retried after the fixed
// delay until the attempt budget runs out; context cancellation stops
// the loop immediately.
func (r *Retrier) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		reply, err := r.inner.Complete(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		r.logger.Warn("model completion failed",
			"model", r.inner.ModelName(),
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"error", err,
		)

		if attempt < r.maxAttempts {
			if err := r.sleep(ctx, r.delay); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("model: %d attempts exhausted: %w", r.maxAttempts, lastErr)
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
