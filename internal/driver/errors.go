// internal/driver/errors.go
package driver

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by every driver implementation. Implementations wrap
// these sentinels so callers can branch with errors.Is.
var (
	// ErrNoSuchElement means a locator matched nothing.
	ErrNoSuchElement = errors.New("no such element")
	// ErrStaleElement means a previously located element left the document.
	ErrStaleElement = errors.New("stale element reference")
	// ErrScript means page JavaScript threw or could not be evaluated.
	ErrScript = errors.New("script execution failed")
	// ErrNoDriver means no browser is bound to the caller.
	ErrNoDriver = errors.New("driver not initialized")
	// ErrNoSuchWindow means a window handle does not name an open window.
	ErrNoSuchWindow = errors.New("no such window")
	// ErrNoAlert means no JavaScript dialog is open.
	ErrNoAlert = errors.New("no alert open")
	// ErrAlertOpen means input was refused because a JavaScript dialog is
	// blocking the page.
	ErrAlertOpen = errors.New("unexpected alert open")
	// ErrTimeout means a bounded wait expired before its condition held.
	ErrTimeout = errors.New("timed out")
	// ErrNotInteractable means the element cannot take the requested input,
	// e.g. it has no size or is disabled.
	ErrNotInteractable = errors.New("element not interactable")
	// ErrUnsupported means the operation does not apply to the target,
	// e.g. deselecting on a single-select dropdown.
	ErrUnsupported = errors.New("unsupported operation")
)

// IsRetryable reports whether err is one of the element lookup failures that
// polling loops treat as "not ready yet" rather than fatal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNoSuchElement) || errors.Is(err, ErrStaleElement)
}

// ScriptError carries the exception text reported by the page.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%v: %s", ErrScript, e.Message)
}

func (e *ScriptError) Unwrap() error { return ErrScript }

// TimeoutError is returned by bounded waits. Last holds the most recent
// condition error, if any, so a wait on a missing element still says so.
type TimeoutError struct {
	What    string
	Timeout time.Duration
	Last    error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("waiting for %s: %v after %v (last error: %v)", e.What, ErrTimeout, e.Timeout, e.Last)
	}
	return fmt.Sprintf("waiting for %s: %v after %v", e.What, ErrTimeout, e.Timeout)
}

// Unwrap exposes both the timeout sentinel and the last condition error.
func (e *TimeoutError) Unwrap() []error {
	if e.Last != nil {
		return []error{ErrTimeout, e.Last}
	}
	return []error{ErrTimeout}
}
