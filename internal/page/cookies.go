// internal/page/cookies.go
package page

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrCookieNotDeleted is returned when a cookie survives DeleteCookie.
var ErrCookieNotDeleted = errors.New("cookie still present after delete")

// DeleteAllCookies clears the cookie jar of the current page.
func (p *Page) DeleteAllCookies(ctx context.Context) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, p.driver.DeleteAllCookies)
	}
	if err == nil {
		p.logger.Info("Deleted all cookies.")
	}
	return p.finish(VerbDeleteAllCookies, nil, err)
}

// DeleteCookie deletes the cookie called name and checks that it is gone.
func (p *Page) DeleteCookie(ctx context.Context, name string) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return p.driver.DeleteCookie(ctx, name) })
	}
	if err != nil {
		return p.finish(VerbDeleteCookie, nil, err)
	}

	err = p.do(ctx, func(ctx context.Context) error {
		c, err := p.driver.Cookie(ctx, name)
		if err != nil {
			return err
		}
		if c != nil {
			p.logger.Warn("Cookie is still present after delete.", zap.String("cookie", name), zap.String("domain", c.Domain))
			return fmt.Errorf("%w: %s", ErrCookieNotDeleted, name)
		}
		return nil
	})
	if err == nil {
		p.logger.Info("Successfully deleted cookie.", zap.String("cookie", name))
	}
	return p.finish(VerbDeleteCookie, nil, err)
}
