// internal/page/wait.go
package page

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

const (
	jsReadyState = "return document.readyState;"
	// A page without jQuery counts as idle.
	jsJQueryIdle = "return typeof window.jQuery === 'undefined' || window.jQuery.active === 0;"
)

// WaitForClickable waits up to timeout for el to be displayed and enabled.
func (p *Page) WaitForClickable(ctx context.Context, el driver.Element, timeout time.Duration) error {
	err := p.ready()
	if err == nil {
		err = element(el)
	}
	if err == nil {
		p.logger.Info("Waiting for element to be clickable.", zap.Stringer("element", el), zap.Duration("timeout", timeout))
		err = p.waiter.Until(ctx, timeout, "element "+el.String()+" to be clickable", func(ctx context.Context) (bool, error) {
			shown, err := el.IsDisplayed(ctx)
			if err != nil || !shown {
				return false, err
			}
			return el.IsEnabled(ctx)
		})
	}
	return p.finish(VerbWaitForClickable, el, err)
}

// WaitForVisible waits up to the explicit wait timeout for el to be displayed.
func (p *Page) WaitForVisible(ctx context.Context, el driver.Element) error {
	err := p.ready()
	if err == nil {
		err = element(el)
	}
	if err == nil {
		err = p.waitForVisible(ctx, el, p.cfg.ExplicitWaitTimeout)
	}
	return p.finish(VerbWaitForVisible, el, err)
}

func (p *Page) waitForVisible(ctx context.Context, el driver.Element, timeout time.Duration) error {
	p.logger.Info("Waiting for element to be visible.", zap.Stringer("element", el), zap.Duration("timeout", timeout))
	return p.waiter.Until(ctx, timeout, "element "+el.String()+" to be visible", el.IsDisplayed)
}

// WaitForSelected waits up to the explicit wait timeout for el to be selected.
func (p *Page) WaitForSelected(ctx context.Context, el driver.Element) error {
	return p.finish(VerbWaitForSelected, el, p.waitSelection(ctx, el, true))
}

// WaitForNotSelected waits up to the explicit wait timeout for el to be
// deselected.
func (p *Page) WaitForNotSelected(ctx context.Context, el driver.Element) error {
	return p.finish(VerbWaitForNotSelected, el, p.waitSelection(ctx, el, false))
}

func (p *Page) waitSelection(ctx context.Context, el driver.Element, want bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := element(el); err != nil {
		return err
	}
	state := "selected"
	if !want {
		state = "not selected"
	}
	p.logger.Info("Waiting for element selection state.", zap.Stringer("element", el), zap.String("state", state))
	return p.waiter.Until(ctx, p.cfg.ExplicitWaitTimeout, "element "+el.String()+" to be "+state, func(ctx context.Context) (bool, error) {
		selected, err := el.IsSelected(ctx)
		return err == nil && selected == want, err
	})
}

// WaitForTitle waits up to the explicit wait timeout for the document title
// to equal title.
func (p *Page) WaitForTitle(ctx context.Context, title string) error {
	return p.finish(VerbWaitForTitle, nil, p.waitForTitle(ctx, title))
}

func (p *Page) waitForTitle(ctx context.Context, title string) error {
	if err := p.ready(); err != nil {
		return err
	}
	p.logger.Info("Waiting for page title.", zap.String("title", title))
	return p.waiter.Until(ctx, p.cfg.ExplicitWaitTimeout, fmt.Sprintf("title %q", title), func(ctx context.Context) (bool, error) {
		got, err := p.driver.Title(ctx)
		return err == nil && got == title, err
	})
}

// IsCorrectPageLoaded waits for the title to become title and reports
// whether it did. A timeout is a false result, not an error.
func (p *Page) IsCorrectPageLoaded(ctx context.Context, title string) (bool, error) {
	err := p.waitForTitle(ctx, title)
	if errors.Is(err, driver.ErrTimeout) {
		p.logger.Info("Page title did not match.", zap.String("expected", title), zap.Error(err))
		return false, nil
	}
	if err != nil {
		return false, p.finish(VerbIsCorrectPageLoaded, nil, err)
	}
	p.logger.Info("Correct page loaded.", zap.String("title", title))
	return true, nil
}

// WaitForPageLoad waits up to the page load timeout for document.readyState
// to reach "complete".
func (p *Page) WaitForPageLoad(ctx context.Context) error {
	return p.finish(VerbWaitForPageLoad, nil, p.waitForPageLoad(ctx))
}

func (p *Page) waitForPageLoad(ctx context.Context) error {
	if err := p.ready(); err != nil {
		return err
	}
	return p.waiter.Until(ctx, p.cfg.PageLoadTimeout, "document to load", func(ctx context.Context) (bool, error) {
		var state string
		if err := p.driver.Execute(ctx, jsReadyState, &state); err != nil {
			return false, err
		}
		p.logger.Debug("Document ready state.", zap.String("state", state))
		return state == "complete", nil
	})
}

// WaitForJQuery waits up to timeout for jQuery to have no active requests.
// timeout must be positive.
func (p *Page) WaitForJQuery(ctx context.Context, timeout time.Duration) error {
	return p.finish(VerbWaitForJQuery, nil, p.waitForJQuery(ctx, timeout))
}

func (p *Page) waitForJQuery(ctx context.Context, timeout time.Duration) error {
	if err := p.ready(); err != nil {
		return err
	}
	if timeout <= 0 {
		return fmt.Errorf("jQuery wait needs a positive timeout, got %v", timeout)
	}
	return p.waiter.Until(ctx, timeout, "jQuery to go idle", func(ctx context.Context) (bool, error) {
		var idle bool
		err := p.driver.Execute(ctx, jsJQueryIdle, &idle)
		return err == nil && idle, err
	})
}

// DeadWait sleeps for d unless ctx ends first. Prefer a condition wait.
func (p *Page) DeadWait(ctx context.Context, d time.Duration) error {
	p.logger.Info("Waiting unconditionally.", zap.Duration("duration", d))
	return p.finish(VerbDeadWait, nil, sleep(ctx, d))
}
