// internal/driver/cdp/errors.go
package cdp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// staleMarker is thrown by element functions whose node left the document.
const staleMarker = "pagekit: stale element reference"

// Protocol error messages that mean a remote object or its execution context
// is gone, i.e. the element reference went stale across a navigation.
var staleMessages = []string{
	"Could not find object with given id",
	"Cannot find context with specified id",
	"No node with given id found",
	"Node is detached from document",
	"Execution context was destroyed",
}

// classify maps chromedp and protocol failures onto the driver taxonomy.
// Context errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, chromedp.ErrInvalidContext) || errors.Is(err, chromedp.ErrInvalidTarget) {
		return fmt.Errorf("%w: %v", driver.ErrNoDriver, err)
	}

	var exc *runtime.ExceptionDetails
	if errors.As(err, &exc) {
		msg := exceptionMessage(exc)
		if strings.Contains(msg, staleMarker) {
			return driver.ErrStaleElement
		}
		return &driver.ScriptError{Message: msg}
	}

	var perr *cdproto.Error
	if errors.As(err, &perr) {
		for _, m := range staleMessages {
			if strings.Contains(perr.Message, m) {
				return fmt.Errorf("%w: %s", driver.ErrStaleElement, perr.Message)
			}
		}
	}
	return err
}

// exceptionMessage prefers the first line of the thrown value's description
// ("TypeError: x is undefined") over the generic "Uncaught" text.
func exceptionMessage(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		desc, _, _ := strings.Cut(exc.Exception.Description, "\n")
		return desc
	}
	if exc.Exception != nil && len(exc.Exception.Value) > 0 {
		return strings.Trim(string(exc.Exception.Value), `"`)
	}
	return exc.Text
}
