// internal/page/window.go
package page

import (
	"context"

	"go.uber.org/zap"
)

// CurrentWindow returns the handle of the active window.
func (p *Page) CurrentWindow(ctx context.Context) (string, error) {
	if err := p.ready(); err != nil {
		return "", p.finish(VerbCurrentWindow, nil, err)
	}
	var handle string
	err := p.do(ctx, func(ctx context.Context) error {
		var werr error
		handle, werr = p.driver.CurrentWindow(ctx)
		return werr
	})
	if err != nil {
		return "", p.finish(VerbCurrentWindow, nil, err)
	}
	p.logger.Info("Current window handle.", zap.String("handle", handle))
	return handle, nil
}

// Windows returns the handles of every open window.
func (p *Page) Windows(ctx context.Context) ([]string, error) {
	if err := p.ready(); err != nil {
		return nil, p.finish(VerbWindows, nil, err)
	}
	var handles []string
	err := p.do(ctx, func(ctx context.Context) error {
		var werr error
		handles, werr = p.driver.Windows(ctx)
		return werr
	})
	if err != nil {
		return nil, p.finish(VerbWindows, nil, err)
	}
	p.logger.Info("Open windows.", zap.Strings("handles", handles))
	return handles, nil
}

// SelectWindow makes handle the active window. An unknown handle always
// propagates ErrNoSuchWindow.
func (p *Page) SelectWindow(ctx context.Context, handle string) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return p.driver.SwitchWindow(ctx, handle) })
	}
	if err == nil {
		p.logger.Info("Switched to window.", zap.String("handle", handle))
	}
	return p.finish(VerbSelectWindow, nil, err)
}

// Open navigates the active window to url.
func (p *Page) Open(ctx context.Context, url string) error {
	err := p.ready()
	if err == nil {
		err = p.pace(ctx)
	}
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return p.driver.Navigate(ctx, url) })
	}
	if err == nil {
		p.logger.Info("Opened page.", zap.String("url", url))
	}
	return p.finish(VerbOpen, nil, err)
}

// CurrentURL returns the address of the active window.
func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	if err := p.ready(); err != nil {
		return "", p.finish(VerbCurrentURL, nil, err)
	}
	var url string
	err := p.do(ctx, func(ctx context.Context) error {
		var uerr error
		url, uerr = p.driver.URL(ctx)
		return uerr
	})
	if err != nil {
		return "", p.finish(VerbCurrentURL, nil, err)
	}
	p.logger.Info("Current URL.", zap.String("url", url))
	return url, nil
}

// Title returns the title of the active window.
func (p *Page) Title(ctx context.Context) (string, error) {
	if err := p.ready(); err != nil {
		return "", p.finish(VerbTitle, nil, err)
	}
	var title string
	err := p.do(ctx, func(ctx context.Context) error {
		var terr error
		title, terr = p.driver.Title(ctx)
		return terr
	})
	if err != nil {
		return "", p.finish(VerbTitle, nil, err)
	}
	p.logger.Info("Page title.", zap.String("title", title))
	return title, nil
}
