// internal/page/script.go
package page

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

const (
	jsDocumentTitle   = "return document.title;"
	jsInnerText       = "return document.documentElement.innerText;"
	jsReload          = "history.go(0);"
	jsInnerDimensions = "return [window.innerHeight, window.innerWidth];"
)

// JSDriver returns the script executor of the bound driver. A missing
// driver always propagates ErrNoDriver.
func (p *Page) JSDriver() (driver.Scripter, error) {
	if err := p.ready(); err != nil {
		return nil, p.finish(VerbJSDriver, nil, err)
	}
	return p.driver, nil
}

// Execute runs script with args and decodes its return value into res,
// which may be nil.
func (p *Page) Execute(ctx context.Context, script string, res any, args ...any) error {
	js, err := p.JSDriver()
	if err != nil {
		return err
	}
	err = p.do(ctx, func(ctx context.Context) error { return js.Execute(ctx, script, res, args...) })
	if err == nil {
		p.logger.Debug("Executed script.", zap.Int("args", len(args)))
	}
	return p.finish(VerbExecute, nil, err)
}

// DocumentTitle reads document.title from script.
func (p *Page) DocumentTitle(ctx context.Context) (string, error) {
	title, err := p.evalString(ctx, jsDocumentTitle)
	if err != nil {
		return "", p.finish(VerbDocumentTitle, nil, err)
	}
	p.logger.Info("Document title.", zap.String("title", title))
	return title, nil
}

// InnerText returns the rendered text of the whole document.
func (p *Page) InnerText(ctx context.Context) (string, error) {
	text, err := p.evalString(ctx, jsInnerText)
	if err != nil {
		return "", p.finish(VerbInnerText, nil, err)
	}
	p.logger.Info("Read document text.", zap.Int("length", len(text)))
	return text, nil
}

func (p *Page) evalString(ctx context.Context, script string) (string, error) {
	if err := p.ready(); err != nil {
		return "", err
	}
	var s string
	err := p.do(ctx, func(ctx context.Context) error { return p.driver.Execute(ctx, script, &s) })
	return s, err
}

// Refresh reloads the page from script.
func (p *Page) Refresh(ctx context.Context) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return p.driver.Execute(ctx, jsReload, nil) })
	}
	if err == nil {
		p.logger.Info("Browser window is getting refreshed.")
	}
	return p.finish(VerbRefresh, nil, err)
}

// InnerDimensions returns the viewport height and width in CSS pixels.
func (p *Page) InnerDimensions(ctx context.Context) (height, width int, err error) {
	if err = p.ready(); err != nil {
		return 0, 0, p.finish(VerbInnerDimensions, nil, err)
	}
	var dims []int
	err = p.do(ctx, func(ctx context.Context) error { return p.driver.Execute(ctx, jsInnerDimensions, &dims) })
	if err == nil && len(dims) != 2 {
		err = fmt.Errorf("%w: expected [height, width], got %v", driver.ErrScript, dims)
	}
	if err != nil {
		return 0, 0, p.finish(VerbInnerDimensions, nil, err)
	}
	p.logger.Info("Browser inner dimensions.", zap.Int("height", dims[0]), zap.Int("width", dims[1]))
	return dims[0], dims[1], nil
}
