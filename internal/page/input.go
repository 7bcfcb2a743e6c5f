// internal/page/input.go
package page

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
	"github.com/xkilldash9x/pagekit/internal/stability"
)

const (
	jsClearValue     = "arguments[0].value = '';"
	jsScrollIntoView = "arguments[0].scrollIntoView(true);"
	jsScrollBy       = "window.scrollBy(0, arguments[0]);"
)

// jsInputPolicy is the stabilisation budget used before a script clear.
var jsInputPolicy = stability.Policy{PollInterval: 150 * time.Millisecond, MaxAttempts: 25}

// SetValueInInputField waits for el to be visible, clicks it, clears it and
// types value.
func (p *Page) SetValueInInputField(ctx context.Context, el driver.Element, value string) error {
	err := p.interactive(ctx, el)
	if err == nil {
		err = p.waitForVisible(ctx, el, p.cfg.ExplicitWaitTimeout)
	}
	if err == nil {
		err = p.do(ctx, el.Click)
	}
	if err == nil {
		err = p.do(ctx, el.Clear)
	}
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return el.SendKeys(ctx, value) })
	}
	if err == nil {
		p.logger.Info("Set value in input field.", zap.Stringer("element", el), zap.String("value", value))
	}
	return p.finish(VerbSetValueInInputField, el, err)
}

// SetValueInInputFieldJS stabilises el, empties it from script and types
// value. Use it for fields that re-render while focused.
func (p *Page) SetValueInInputFieldJS(ctx context.Context, el driver.Element, value string) error {
	err := p.interactive(ctx, el)
	var stable driver.Element
	if err == nil {
		stable, err = p.guard.Stabilize(ctx, el, jsInputPolicy)
	}
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error {
			return p.driver.Execute(ctx, jsClearValue, nil, stable)
		})
	}
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return stable.SendKeys(ctx, value) })
	}
	if err == nil {
		p.logger.Info("Set value in input field using JavaScript.", zap.Stringer("element", el), zap.String("value", value))
	}
	return p.finish(VerbSetValueInInputFieldJS, el, err)
}

// ClearInputElement clears the value of el.
func (p *Page) ClearInputElement(ctx context.Context, el driver.Element) error {
	err := p.interactive(ctx, el)
	if err == nil {
		err = p.do(ctx, el.Clear)
	}
	if err == nil {
		p.logger.Info("Cleared input field.", zap.Stringer("element", el))
	}
	return p.finish(VerbClearInputElement, el, err)
}

// PressKey sends key, usually one of the driver.Key constants, to el.
func (p *Page) PressKey(ctx context.Context, el driver.Element, key driver.Key) error {
	err := p.interactive(ctx, el)
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return el.SendKeys(ctx, key) })
	}
	if err == nil {
		p.logger.Info("Pressed key.", zap.Stringer("element", el), zap.String("key", keyName(key)))
	}
	return p.finish(VerbPressKey, el, err)
}

var keyNames = map[driver.Key]string{
	driver.KeyTab:        "Tab",
	driver.KeyEnter:      "Enter",
	driver.KeyEscape:     "Escape",
	driver.KeyBackspace:  "Backspace",
	driver.KeyDelete:     "Delete",
	driver.KeyArrowUp:    "ArrowUp",
	driver.KeyArrowDown:  "ArrowDown",
	driver.KeyArrowLeft:  "ArrowLeft",
	driver.KeyArrowRight: "ArrowRight",
	driver.KeyHome:       "Home",
	driver.KeyEnd:        "End",
	driver.KeyPageUp:     "PageUp",
	driver.KeyPageDown:   "PageDown",
}

// keyName renders key for logs. Printable keys are returned as is.
func keyName(key driver.Key) string {
	if n, ok := keyNames[key]; ok {
		return n
	}
	return key
}

// ScrollToElement scrolls el to the top of the viewport.
func (p *Page) ScrollToElement(ctx context.Context, el driver.Element) error {
	err := p.interactive(ctx, el)
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error {
			return p.driver.Execute(ctx, jsScrollIntoView, nil, el)
		})
	}
	if err == nil {
		p.logger.Info("Scrolled to element.", zap.Stringer("element", el))
	}
	return p.finish(VerbScrollToElement, el, err)
}

// ScrollPageVertical scrolls the window by px pixels; negative scrolls up.
func (p *Page) ScrollPageVertical(ctx context.Context, px int) error {
	err := p.ready()
	if err == nil {
		err = p.pace(ctx)
	}
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error {
			return p.driver.Execute(ctx, jsScrollBy, nil, px)
		})
	}
	if err == nil {
		p.logger.Info("Scrolled page vertically.", zap.Int("pixels", px))
	}
	return p.finish(VerbScrollPageVertical, nil, err)
}

// Rebuild re-validates el with the stability guard, returning it once it
// answers a liveness probe. On exhaustion the error matches
// stability.ErrExhausted and the last probe failure.
func (p *Page) Rebuild(ctx context.Context, el driver.Element, policy stability.Policy) (driver.Element, error) {
	if err := p.ready(); err != nil {
		return nil, p.finish(VerbRebuild, el, err)
	}
	stable, err := p.guard.Stabilize(ctx, el, policy)
	if err != nil {
		return nil, p.finish(VerbRebuild, el, err)
	}
	return stable, nil
}
