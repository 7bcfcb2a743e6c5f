// internal/driver/cdp/element.go
package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// element is a remote reference to a DOM node in the tab it was found in.
// The reference goes stale when the node is detached or the document
// navigates away.
type element struct {
	s    *Session
	tab  *tab
	id   runtime.RemoteObjectID
	desc string
}

var _ driver.Element = (*element)(nil)

func (e *element) objectID() runtime.RemoteObjectID { return e.id }

func (e *element) String() string { return e.desc }

// call runs fn on the node and decodes its by-value result into res.
func (e *element) call(ctx context.Context, fn string, res any, args ...any) error {
	obj, err := e.s.callOn(ctx, e.tab, e.id, guardedFunction(fn), true, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", e.desc, err)
	}
	return decodeResult(obj, res)
}

func (e *element) Find(ctx context.Context, by driver.By) (driver.Element, error) {
	el, err := e.s.find(ctx, e.tab, e.id, guardedFunction(findFunction), by)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.desc, err)
	}
	return el, nil
}

func (e *element) FindAll(ctx context.Context, by driver.By) ([]driver.Element, error) {
	els, err := e.s.findAll(ctx, e.tab, e.id, guardedFunction(findFunction), by)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.desc, err)
	}
	return els, nil
}

// perform scrolls the node into view and dispatches g at its center.
func (e *element) perform(ctx context.Context, g gesture) error {
	var b box
	if err := e.call(ctx, centerFunction, &b); err != nil {
		return err
	}
	if b.empty() {
		return fmt.Errorf("%s: %w: cannot %s an element with no size", e.desc, driver.ErrNotInteractable, g)
	}
	if err := e.s.interactOn(ctx, e.tab, mouseActions(g, b)...); err != nil {
		return fmt.Errorf("%s: %s: %w", e.desc, g, err)
	}
	return nil
}

func (e *element) Click(ctx context.Context) error       { return e.perform(ctx, gestureClick) }
func (e *element) DoubleClick(ctx context.Context) error { return e.perform(ctx, gestureDoubleClick) }
func (e *element) RightClick(ctx context.Context) error  { return e.perform(ctx, gestureRightClick) }
func (e *element) Hover(ctx context.Context) error       { return e.perform(ctx, gestureHover) }

// Clear empties an input, textarea or contenteditable and fires input and
// change events.
func (e *element) Clear(ctx context.Context) error {
	var cleared bool
	if err := e.call(ctx, clearFunction, &cleared); err != nil {
		return err
	}
	if !cleared {
		return fmt.Errorf("%s: %w: element is disabled or read-only", e.desc, driver.ErrNotInteractable)
	}
	return nil
}

// SendKeys focuses the node and types keys as keyboard events.
func (e *element) SendKeys(ctx context.Context, keys string) error {
	if err := e.call(ctx, focusFunction, nil); err != nil {
		return err
	}
	if err := e.s.interactOn(ctx, e.tab, chromedp.KeyEvent(keys)); err != nil {
		return fmt.Errorf("%s: typing: %w", e.desc, err)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.call(ctx, textFunction, &text)
	return text, err
}

// Attribute returns the property value when the node has a scalar property
// of that name, else the attribute. ok is false when neither exists.
func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var value *string
	if err := e.call(ctx, attributeFunction, &value, name); err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	var shown bool
	err := e.call(ctx, displayedFunction, &shown)
	return shown, err
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := e.call(ctx, enabledFunction, &enabled)
	return enabled, err
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	var selected bool
	err := e.call(ctx, selectedFunction, &selected)
	return selected, err
}

// Call runs a caller supplied function declaration on the node.
func (e *element) Call(ctx context.Context, function string, res any, args ...any) error {
	return e.call(ctx, function, res, args...)
}
