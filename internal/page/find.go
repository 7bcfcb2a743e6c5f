// internal/page/find.go
package page

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// Find returns the first element matching by. With a positive timeout it
// keeps looking until the element appears or the timeout expires.
func (p *Page) Find(ctx context.Context, by driver.By, timeout time.Duration) (driver.Element, error) {
	if err := p.ready(); err != nil {
		return nil, p.finish(VerbFind, nil, err)
	}

	var found driver.Element
	lookup := func(ctx context.Context) (bool, error) {
		el, err := p.driver.Find(ctx, by)
		if err != nil {
			return false, err
		}
		found = el
		return true, nil
	}

	var err error
	if timeout > 0 {
		err = p.waiter.Until(ctx, timeout, "element "+by.String(), lookup)
	} else {
		err = p.do(ctx, func(ctx context.Context) error {
			_, lerr := lookup(ctx)
			return lerr
		})
	}
	if err != nil {
		return nil, p.finish(VerbFind, nil, err)
	}
	p.logger.Debug("Located element.", zap.Stringer("locator", by), zap.Stringer("element", found))
	return found, nil
}
