// internal/page/click.go
package page

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

const jsClick = "arguments[0].click();"

// SimpleClick clicks el.
func (p *Page) SimpleClick(ctx context.Context, el driver.Element) error {
	err := p.click(ctx, el)
	if err == nil {
		p.logger.Info("Clicked on element.", zap.Stringer("element", el))
	}
	return p.finish(VerbSimpleClick, el, err)
}

func (p *Page) click(ctx context.Context, el driver.Element) error {
	if err := p.interactive(ctx, el); err != nil {
		return err
	}
	return p.do(ctx, el.Click)
}

// ClickWithJS waits for jQuery and the document to go idle, then clicks el
// from script. Failures always propagate.
func (p *Page) ClickWithJS(ctx context.Context, el driver.Element) error {
	err := p.clickWithJS(ctx, el)
	if err == nil {
		p.logger.Info("Clicked on element using JavaScript.", zap.Stringer("element", el))
	}
	return p.finish(VerbClickWithJS, el, err)
}

func (p *Page) clickWithJS(ctx context.Context, el driver.Element) error {
	if err := p.interactive(ctx, el); err != nil {
		return err
	}
	if err := p.waitForJQuery(ctx, p.cfg.JQueryTimeout); err != nil {
		return err
	}
	if err := p.waitForPageLoad(ctx); err != nil {
		return err
	}
	return p.do(ctx, func(ctx context.Context) error {
		return p.driver.Execute(ctx, jsClick, nil, el)
	})
}

// RightClick opens the context menu on el.
func (p *Page) RightClick(ctx context.Context, el driver.Element) error {
	err := p.rightClick(ctx, el)
	if err == nil {
		p.logger.Info("Right clicked on element.", zap.Stringer("element", el))
	}
	return p.finish(VerbRightClick, el, err)
}

func (p *Page) rightClick(ctx context.Context, el driver.Element) error {
	if err := p.interactive(ctx, el); err != nil {
		return err
	}
	return p.do(ctx, el.RightClick)
}

// RightClickAndChooseOption right clicks el and clicks, from script, the
// first link inside it whose text contains option.
func (p *Page) RightClickAndChooseOption(ctx context.Context, el driver.Element, option string) error {
	err := p.rightClick(ctx, el)
	if err == nil {
		var item driver.Element
		err = p.do(ctx, func(ctx context.Context) error {
			var findErr error
			item, findErr = el.Find(ctx, driver.PartialLinkText(option))
			return findErr
		})
		if err == nil {
			err = p.clickWithJS(ctx, item)
		}
	}
	if err == nil {
		p.logger.Info("Chose context menu option.", zap.Stringer("element", el), zap.String("option", option))
	}
	return p.finish(VerbRightClickAndChooseOption, el, err)
}

// DoubleClick waits for el to be visible, then double clicks it.
func (p *Page) DoubleClick(ctx context.Context, el driver.Element) error {
	err := p.interactive(ctx, el)
	if err == nil {
		err = p.waitForVisible(ctx, el, p.cfg.ExplicitWaitTimeout)
	}
	if err == nil {
		err = p.do(ctx, el.DoubleClick)
	}
	if err == nil {
		p.logger.Info("Double clicked on element.", zap.Stringer("element", el))
	}
	return p.finish(VerbDoubleClick, el, err)
}

// ClickAndClearField clicks el and clears its value. Each step carries its
// own disposition, so under the lenient policy a suppressed click still
// lets the clear run.
func (p *Page) ClickAndClearField(ctx context.Context, el driver.Element) error {
	if err := p.SimpleClick(ctx, el); err != nil {
		return err
	}
	return p.ClearInputElement(ctx, el)
}
