// internal/driver/cdp/cookies.go
package cdp

import (
	"context"
	"math"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// toCookie converts a protocol cookie. Session cookies have a zero Expires.
func toCookie(c *network.Cookie) driver.Cookie {
	out := driver.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: string(c.SameSite),
	}
	if !c.Session && c.Expires > 0 {
		sec, frac := math.Modf(c.Expires)
		out.Expires = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return out
}

func (s *Session) networkCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	return cookies, err
}

// Cookies returns the cookies visible to the active page.
func (s *Session) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	raw, err := s.networkCookies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]driver.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, toCookie(c))
	}
	return out, nil
}

// Cookie returns the named cookie, or nil when the page has none.
func (s *Session) Cookie(ctx context.Context, name string) (*driver.Cookie, error) {
	raw, err := s.networkCookies(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range raw {
		if c.Name == name {
			cookie := toCookie(c)
			return &cookie, nil
		}
	}
	return nil, nil
}

// DeleteCookie removes every cookie visible to the page with that name.
func (s *Session) DeleteCookie(ctx context.Context, name string) error {
	return s.deleteCookies(ctx, func(c *network.Cookie) bool { return c.Name == name })
}

// DeleteAllCookies removes every cookie visible to the page. Cookies of
// other sites stay in the browser jar, as with WebDriver's delete-all.
func (s *Session) DeleteAllCookies(ctx context.Context) error {
	return s.deleteCookies(ctx, func(*network.Cookie) bool { return true })
}

func (s *Session) deleteCookies(ctx context.Context, match func(*network.Cookie) bool) error {
	raw, err := s.networkCookies(ctx)
	if err != nil {
		return err
	}
	actions := deleteActions(raw, match)
	if len(actions) == 0 {
		return nil
	}
	return s.run(ctx, actions...)
}

// deleteActions builds one Network.deleteCookies call per matching cookie,
// scoped to its own domain and path.
func deleteActions(raw []*network.Cookie, match func(*network.Cookie) bool) []chromedp.Action {
	var actions []chromedp.Action
	for _, c := range raw {
		if match(c) {
			actions = append(actions, network.DeleteCookies(c.Name).WithDomain(c.Domain).WithPath(c.Path))
		}
	}
	return actions
}
