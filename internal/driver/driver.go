// internal/driver/driver.go

// Package driver defines the browser capability set the page layer is written
// against. The concrete implementation lives in internal/driver/cdp; tests use
// the testify mocks in internal/mocks.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp/kb"
)

// Strategy names an element location strategy.
type Strategy string

const (
	StrategyCSS             Strategy = "css"
	StrategyXPath           Strategy = "xpath"
	StrategyID              Strategy = "id"
	StrategyName            Strategy = "name"
	StrategyLinkText        Strategy = "link"
	StrategyPartialLinkText Strategy = "partial_link"
	StrategyTagName         Strategy = "tag"
)

// By is a locator: a strategy plus the value it is evaluated with.
type By struct {
	Strategy Strategy
	Value    string
}

func (b By) String() string {
	return fmt.Sprintf("%s=%q", b.Strategy, b.Value)
}

func CSS(selector string) By         { return By{StrategyCSS, selector} }
func XPath(expr string) By           { return By{StrategyXPath, expr} }
func ID(id string) By                { return By{StrategyID, id} }
func Name(name string) By            { return By{StrategyName, name} }
func LinkText(text string) By        { return By{StrategyLinkText, text} }
func PartialLinkText(text string) By { return By{StrategyPartialLinkText, text} }
func TagName(tag string) By          { return By{StrategyTagName, tag} }

// Valid reports whether the locator has a known strategy and a value.
func (b By) Valid() bool {
	switch b.Strategy {
	case StrategyCSS, StrategyXPath, StrategyID, StrategyName,
		StrategyLinkText, StrategyPartialLinkText, StrategyTagName:
		return b.Value != ""
	}
	return false
}

// Key is a keyboard key or key sequence accepted by Element.SendKeys.
type Key = string

// Common keys, as understood by chromedp's key event encoder.
const (
	KeyTab        Key = kb.Tab
	KeyEnter      Key = kb.Enter
	KeyEscape     Key = kb.Escape
	KeyBackspace  Key = kb.Backspace
	KeyDelete     Key = kb.Delete
	KeyArrowUp    Key = kb.ArrowUp
	KeyArrowDown  Key = kb.ArrowDown
	KeyArrowLeft  Key = kb.ArrowLeft
	KeyArrowRight Key = kb.ArrowRight
	KeyHome       Key = kb.Home
	KeyEnd        Key = kb.End
	KeyPageUp     Key = kb.PageUp
	KeyPageDown   Key = kb.PageDown
)

// Locator finds elements. Both the page and individual elements locate.
type Locator interface {
	// Find returns the first match or an error matching ErrNoSuchElement.
	Find(ctx context.Context, by By) (Element, error)
	// FindAll returns every match; an empty result is not an error.
	FindAll(ctx context.Context, by By) ([]Element, error)
}

// Element is an opaque, possibly invalidated reference to a DOM node. Any
// method may fail with ErrStaleElement once the node has left the document.
type Element interface {
	Locator

	Click(ctx context.Context) error
	DoubleClick(ctx context.Context) error
	RightClick(ctx context.Context) error
	Hover(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error

	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)

	// IsDisplayed is the liveness probe used by the stability guard. A hidden
	// but attached element answers (false, nil).
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)

	// Call runs a JavaScript function declaration with the element bound to
	// `this`. The result is JSON-decoded into res when res is non-nil.
	Call(ctx context.Context, function string, res any, args ...any) error

	String() string
}

// Scripter executes JavaScript in the page context. Element values passed in
// args are handed to the script as live DOM nodes (arguments[i]).
type Scripter interface {
	Execute(ctx context.Context, script string, res any, args ...any) error
}

// Windows manages top-level browsing contexts. Handles are opaque strings.
type Windows interface {
	CurrentWindow(ctx context.Context) (string, error)
	Windows(ctx context.Context) ([]string, error)
	SwitchWindow(ctx context.Context, handle string) error
}

// Cookie is a browser cookie.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	SameSite string    `json:"same_site,omitempty"`
}

func (c Cookie) String() string {
	return c.Name + "=" + c.Value
}

// Cookies manages the cookie jar visible to the current page.
type Cookies interface {
	Cookies(ctx context.Context) ([]Cookie, error)
	// Cookie returns nil, nil when no cookie with that name exists.
	Cookie(ctx context.Context, name string) (*Cookie, error)
	DeleteCookie(ctx context.Context, name string) error
	DeleteAllCookies(ctx context.Context) error
}

// Alerts handles JavaScript dialogs and HTTP authentication challenges.
// Operations on dialogs fail with ErrNoAlert when none is open.
type Alerts interface {
	AlertText(ctx context.Context) (string, error)
	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error
	// SetAlertText stores the text submitted with a prompt() on accept.
	SetAlertText(ctx context.Context, text string) error
	Authenticate(ctx context.Context, username, password string) error
}

// Driver is the full capability set of one browser tab.
type Driver interface {
	Locator
	Scripter
	Windows
	Cookies
	Alerts

	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}
