// internal/stability/guard.go

// Package stability re-validates element references that may have gone stale
// and polls page conditions until they hold.
package stability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// DefaultMaxAttempts is the probe budget used by DefaultPolicy.
const DefaultMaxAttempts = 20

// ErrExhausted is returned when every probe in the budget failed.
var ErrExhausted = errors.New("element did not stabilize")

// Policy bounds a stabilization run. The interval is constant between probes.
type Policy struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultPolicy returns a policy with DefaultMaxAttempts probes.
func DefaultPolicy(poll time.Duration) Policy {
	return Policy{PollInterval: poll, MaxAttempts: DefaultMaxAttempts}
}

// Validate rejects a negative interval or an empty budget.
func (p Policy) Validate() error {
	if p.PollInterval < 0 {
		return fmt.Errorf("stability: poll interval must not be negative, got %v", p.PollInterval)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("stability: max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	return nil
}

// newBackOff builds the constant schedule shared by the guard and the waiter.
// maxAttempts <= 0 means unbounded; the context then ends the loop.
func newBackOff(ctx context.Context, interval time.Duration, maxAttempts int) backoff.BackOffContext {
	var b backoff.BackOff = backoff.NewConstantBackOff(interval)
	if maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Option configures a Guard or a Waiter.
type Option func(*options)

type options struct {
	newTimer func() backoff.Timer
}

// WithTimer replaces the real sleep between probes. Tests use it to observe
// the schedule without waiting.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(o *options) { o.newTimer = newTimer }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// timer returns nil for the real clock; backoff substitutes its own then.
func (o options) timer() backoff.Timer {
	if o.newTimer == nil {
		return nil
	}
	return o.newTimer()
}

// Guard probes an element until it answers or the budget runs out.
type Guard struct {
	logger *zap.Logger
	opts   options
}

// NewGuard returns a Guard logging through logger.
func NewGuard(logger *zap.Logger, opts ...Option) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		logger: logger.Named("stability"),
		opts:   buildOptions(opts),
	}
}

// Stabilize probes el with IsDisplayed. A stale or not-found failure sleeps
// p.PollInterval and probes again, up to p.MaxAttempts probes in total with
// no sleep after the last one. Any other failure is returned at once.
//
// On success el itself is returned. On exhaustion the result is nil and the
// error matches both ErrExhausted and the last probe error.
func (g *Guard) Stabilize(ctx context.Context, el driver.Element, p Policy) (driver.Element, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("stability: %w", driver.ErrNoSuchElement)
	}

	attempts := 0
	probe := func() error {
		attempts++
		if _, err := el.IsDisplayed(ctx); err != nil {
			if driver.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		g.logger.Debug("Element not ready, retrying",
			zap.Stringer("element", el),
			zap.Int("attempt", attempts),
			zap.Duration("next", next),
			zap.Error(err))
	}

	err := backoff.RetryNotifyWithTimer(probe, newBackOff(ctx, p.PollInterval, p.MaxAttempts), notify, g.opts.timer())
	switch {
	case err == nil:
		g.logger.Info("Refreshing element", zap.Stringer("element", el), zap.Int("attempts", attempts))
		return el, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case driver.IsRetryable(err):
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
	default:
		return nil, err
	}
}
