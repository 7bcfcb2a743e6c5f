// internal/stability/wait.go
package stability

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// Condition reports whether a wait is satisfied. Not-found and stale errors
// count as "not yet"; any other error aborts the wait.
type Condition func(ctx context.Context) (bool, error)

var errNotYet = errors.New("condition not met")

// Waiter polls conditions at a constant interval until they hold or a
// timeout expires.
type Waiter struct {
	poll   time.Duration
	logger *zap.Logger
	opts   options
}

// MinPoll is the shortest interval a Waiter polls at.
const MinPoll = 10 * time.Millisecond

// NewWaiter returns a Waiter checking conditions every poll. Intervals below
// MinPoll are raised to it.
func NewWaiter(poll time.Duration, logger *zap.Logger, opts ...Option) *Waiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poll < MinPoll {
		poll = MinPoll
	}
	return &Waiter{
		poll:   poll,
		logger: logger.Named("wait"),
		opts:   buildOptions(opts),
	}
}

// Poll returns the interval between condition checks.
func (w *Waiter) Poll() time.Duration { return w.poll }

// Until checks cond immediately and then every poll interval. It returns nil
// once cond is true, a *driver.TimeoutError when timeout elapses first, or the
// first non-retryable error cond reports. Cancelling ctx returns ctx.Err().
func (w *Waiter) Until(ctx context.Context, timeout time.Duration, what string, cond Condition) error {
	if timeout <= 0 {
		return errors.New("wait: timeout must be positive")
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last error
	check := func() error {
		ok, err := cond(waitCtx)
		switch {
		case err == nil && ok:
			return nil
		case err == nil:
			last = nil
			return errNotYet
		case driver.IsRetryable(err):
			last = err
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	err := backoff.RetryNotifyWithTimer(check, newBackOff(waitCtx, w.poll, 0), nil, w.opts.timer())
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case waitCtx.Err() != nil:
		w.logger.Debug("Wait timed out", zap.String("condition", what), zap.Duration("timeout", timeout), zap.Error(last))
		return &driver.TimeoutError{What: what, Timeout: timeout, Last: last}
	default:
		return err
	}
}
