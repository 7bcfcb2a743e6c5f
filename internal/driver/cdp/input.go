// internal/driver/cdp/input.go
package cdp

import (
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// gesture is a mouse interaction performed at an element's center.
type gesture int

const (
	gestureClick gesture = iota
	gestureDoubleClick
	gestureRightClick
	gestureHover
)

func (g gesture) String() string {
	switch g {
	case gestureClick:
		return "click"
	case gestureDoubleClick:
		return "double click"
	case gestureRightClick:
		return "right click"
	case gestureHover:
		return "hover"
	}
	return "unknown gesture"
}

// box is an element's center and size in viewport coordinates.
type box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b box) empty() bool { return b.Width <= 0 || b.Height <= 0 }

// mouseActions returns the Input.dispatchMouseEvent sequence for g at b.
// Every gesture starts by moving the pointer so hover styles and
// mouseover handlers run first.
func mouseActions(g gesture, b box) []chromedp.Action {
	move := chromedp.MouseEvent(input.MouseMoved, b.X, b.Y, chromedp.ButtonNone)
	press := func(btn input.MouseButton, count int) []chromedp.Action {
		return []chromedp.Action{
			chromedp.MouseEvent(input.MousePressed, b.X, b.Y, chromedp.ButtonType(btn), chromedp.ClickCount(count)),
			chromedp.MouseEvent(input.MouseReleased, b.X, b.Y, chromedp.ButtonType(btn), chromedp.ClickCount(count)),
		}
	}

	actions := []chromedp.Action{move}
	switch g {
	case gestureClick:
		actions = append(actions, press(input.Left, 1)...)
	case gestureDoubleClick:
		actions = append(actions, press(input.Left, 1)...)
		actions = append(actions, press(input.Left, 2)...)
	case gestureRightClick:
		actions = append(actions, press(input.Right, 1)...)
	}
	return actions
}
