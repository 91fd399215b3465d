// Package effects runs secondary work (notifications, event fan-out,
// embedding generation) off the request path. A failed effect is logged and
// dropped; it never fails the request that launched it.
package effects

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RetryPolicy controls re-execution of a failed effect. Attempt n waits
// Backoff*n before the next try.
type RetryPolicy struct {
	Retries int
	Backoff time.Duration
}

// Effect is a unit of background work.
type Effect struct {
	Name  string
	Retry RetryPolicy
	Run   func(ctx context.Context) error
}

// Launcher starts effects. Go never blocks on the effect and never reports
// its outcome to the caller.
type Launcher interface {
	Go(effect Effect)
}

// Runner executes effects on goroutines detached from the request context.
type Runner struct {
	logger  *slog.Logger
	timeout time.Duration
	inline  bool
	wg      sync.WaitGroup
}

// DefaultTimeout bounds a single effect including its retries.
const DefaultTimeout = time.Minute

// NewRunner creates a Runner that runs each effect on its own goroutine.
func NewRunner(logger *slog.Logger, timeout time.Duration) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{logger: logger, timeout: timeout}
}

// NewInline creates a Runner that finishes each effect before Go returns.
// Failures are still swallowed.
func NewInline(logger *slog.Logger) *Runner {
	r := NewRunner(logger, 0)
	r.inline = true
	return r
}

// Go launches the effect.
func (r *Runner) Go(effect Effect) {
	if effect.Run == nil {
		return
	}
	if r.inline {
		r.run(effect)
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(effect)
	}()
}

// Wait blocks until in-flight effects finish or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) run(effect Effect) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	attempts := effect.Retry.Retries + 1
	for attempt := 1; ; attempt++ {
		err := r.attempt(ctx, effect)
		if err == nil {
			if attempt > 1 {
				r.logger.Debug("background effect recovered", "effect", effect.Name, "attempt", attempt)
			}
			return
		}
		if attempt >= attempts {
			r.logger.Warn("background effect failed", "effect", effect.Name, "attempts", attempt, "error", err)
			return
		}

		wait := effect.Retry.Backoff * time.Duration(attempt)
		r.logger.Debug("background effect retrying", "effect", effect.Name, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			r.logger.Warn("background effect abandoned", "effect", effect.Name, "attempts", attempt, "error", ctx.Err())
			return
		}
	}
}

func (r *Runner) attempt(ctx context.Context, effect Effect) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return effect.Run(ctx)
}
