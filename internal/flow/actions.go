// internal/flow/actions.go
package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/pagekit/internal/driver"
	"github.com/xkilldash9x/pagekit/internal/page"
)

// call is the state one action runs with. el is set for targeted actions.
type call struct {
	page *page.Page
	step Step
	el   driver.Element
}

// timeout returns the step timeout or fallback.
func (c *call) timeout(fallback time.Duration) time.Duration {
	if c.step.Timeout > 0 {
		return c.step.Timeout
	}
	return fallback
}

type actionDef struct {
	target  bool
	value   bool
	timeout bool
	// result marks actions whose return value is recorded and may be checked.
	result   bool
	validate func(Step) error
	run      func(ctx context.Context, c *call) (any, error)
}

// defaultWait bounds waits whose step sets no timeout.
const defaultWait = 30 * time.Second

var actions = map[string]actionDef{
	"open": {value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.Open(ctx, c.step.Value)
	}},
	"refresh": {run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.Refresh(ctx)
	}},
	"click": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.SimpleClick(ctx, c.el)
	}},
	"js_click": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.ClickWithJS(ctx, c.el)
	}},
	"double_click": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.DoubleClick(ctx, c.el)
	}},
	"right_click": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.RightClick(ctx, c.el)
	}},
	"context_menu": {target: true, value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.RightClickAndChooseOption(ctx, c.el, c.step.Value)
	}},
	"type": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.SetValueInInputField(ctx, c.el, c.step.Value)
	}},
	"type_js": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.SetValueInInputFieldJS(ctx, c.el, c.step.Value)
	}},
	"clear": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.ClearInputElement(ctx, c.el)
	}},
	"key": {target: true, value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.PressKey(ctx, c.el, keyFor(c.step.Value))
	}},
	"select_value": {target: true, value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.SelectByValue(ctx, c.el, c.step.Value)
	}},
	"select_index": {target: true, validate: nonNegativeIndex, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.SelectByIndex(ctx, c.el, c.step.Index)
	}},
	"select_text": {target: true, value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.SelectByVisibleText(ctx, c.el, c.step.Value)
	}},
	"deselect_all": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.DeselectAll(ctx, c.el)
	}},
	"selected_options": {target: true, result: true, run: func(ctx context.Context, c *call) (any, error) {
		opts, err := c.page.AllSelectedOptions(ctx, c.el, false)
		if err != nil {
			return nil, err
		}
		texts := make([]string, 0, len(opts))
		for _, o := range opts {
			text, err := o.Text(ctx)
			if err != nil {
				return nil, err
			}
			texts = append(texts, text)
		}
		return texts, nil
	}},
	"wait_visible": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.WaitForVisible(ctx, c.el)
	}},
	"wait_clickable": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.WaitForClickable(ctx, c.el, c.timeout(defaultWait))
	}},
	"wait_selected": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.WaitForSelected(ctx, c.el)
	}},
	"wait_title": {value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.WaitForTitle(ctx, c.step.Value)
	}},
	"wait_page_load": {run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.WaitForPageLoad(ctx)
	}},
	"wait_jquery": {run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.WaitForJQuery(ctx, c.timeout(defaultWait))
	}},
	"stabilize": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		_, err := c.page.Rebuild(ctx, c.el, c.page.DefaultPolicy())
		return nil, err
	}},
	"scroll_to": {target: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.ScrollToElement(ctx, c.el)
	}},
	"scroll_by": {value: true, validate: integerValue, run: func(ctx context.Context, c *call) (any, error) {
		px, _ := strconv.Atoi(c.step.Value)
		return nil, c.page.ScrollPageVertical(ctx, px)
	}},
	"accept_alert": {run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.AcceptAlert(ctx)
	}},
	"dismiss_alert": {run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.DismissAlert(ctx)
	}},
	"alert_text": {result: true, run: func(ctx context.Context, c *call) (any, error) {
		return c.page.AlertText(ctx)
	}},
	"alert_input": {value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.SetAlertText(ctx, c.step.Value)
	}},
	"authenticate": {validate: credentials, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.AuthenticateAlert(ctx, c.step.Username, c.step.Password)
	}},
	"delete_cookie": {value: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.DeleteCookie(ctx, c.step.Value)
	}},
	"delete_cookies": {run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.DeleteAllCookies(ctx)
	}},
	"switch_window": {value: true, run: switchWindow},
	"eval": {value: true, result: true, run: func(ctx context.Context, c *call) (any, error) {
		var raw json.RawMessage
		if err := c.page.Execute(ctx, c.step.Value, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}},
	"title": {result: true, run: func(ctx context.Context, c *call) (any, error) {
		return c.page.Title(ctx)
	}},
	"url": {result: true, run: func(ctx context.Context, c *call) (any, error) {
		return c.page.CurrentURL(ctx)
	}},
	"dimensions": {result: true, run: func(ctx context.Context, c *call) (any, error) {
		h, w, err := c.page.InnerDimensions(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"height": h, "width": w}, nil
	}},
	"assert_title": {value: true, run: func(ctx context.Context, c *call) (any, error) {
		ok, err := c.page.IsCorrectPageLoaded(ctx, c.step.Value)
		if err != nil {
			return nil, err
		}
		return nil, c.page.HardAssertTrue(ok, fmt.Sprintf("expected page title %q", c.step.Value), "title matched")
	}},
	"sleep": {timeout: true, run: func(ctx context.Context, c *call) (any, error) {
		return nil, c.page.DeadWait(ctx, c.step.Timeout)
	}},
}

// ActionNames lists the known actions, sorted.
func ActionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func nonNegativeIndex(s Step) error {
	if s.Index < 0 {
		return fmt.Errorf("index must not be negative, got %d", s.Index)
	}
	return nil
}

func integerValue(s Step) error {
	if _, err := strconv.Atoi(s.Value); err != nil {
		return fmt.Errorf("value must be an integer, got %q", s.Value)
	}
	return nil
}

func credentials(s Step) error {
	if s.Username == "" {
		return fmt.Errorf("authenticate needs a username")
	}
	return nil
}

// switchWindow selects a window by handle. "last" picks the most recently
// listed window, which is where popups land.
func switchWindow(ctx context.Context, c *call) (any, error) {
	handle := c.step.Value
	if handle == "last" {
		handles, err := c.page.Windows(ctx)
		if err != nil {
			return nil, err
		}
		if len(handles) == 0 {
			return nil, driver.ErrNoSuchWindow
		}
		handle = handles[len(handles)-1]
	}
	return nil, c.page.SelectWindow(ctx, handle)
}

var keysByName = map[string]driver.Key{
	"tab":        driver.KeyTab,
	"enter":      driver.KeyEnter,
	"escape":     driver.KeyEscape,
	"backspace":  driver.KeyBackspace,
	"delete":     driver.KeyDelete,
	"arrowup":    driver.KeyArrowUp,
	"arrowdown":  driver.KeyArrowDown,
	"arrowleft":  driver.KeyArrowLeft,
	"arrowright": driver.KeyArrowRight,
	"home":       driver.KeyHome,
	"end":        driver.KeyEnd,
	"pageup":     driver.KeyPageUp,
	"pagedown":   driver.KeyPageDown,
}

// keyFor maps a key name such as "Enter" to its key; anything else is
// typed literally.
func keyFor(name string) driver.Key {
	if k, ok := keysByName[strings.ToLower(name)]; ok {
		return k
	}
	return name
}
