// internal/driver/cdp/context.go
package cdp

import (
	"context"
	"time"
)

// CombineContext derives a context from tab, which carries the chromedp
// target, that is also cancelled when op is done and inherits op's deadline
// when it is earlier. Values come from tab only.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(tab)

	var cancelDeadline context.CancelFunc = func() {}
	if deadline, ok := op.Deadline(); ok {
		ctx, cancelDeadline = context.WithDeadline(ctx, deadline)
	}

	stop := context.AfterFunc(op, func() {
		cancel(context.Cause(op))
	})

	return ctx, func() {
		stop()
		cancelDeadline()
		cancel(context.Canceled)
	}
}

// valueOnlyContext keeps the values of its parent but none of its
// cancellation or deadline.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that carries ctx's chromedp target but survives
// ctx's cancellation. Event listeners use it to answer dialogs and auth
// challenges after the command that triggered them has returned.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
