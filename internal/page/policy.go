// internal/page/policy.go
package page

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// Disposition says what a verb does with an element lookup failure under the
// lenient error policy. Under the strict policy every failure is returned.
type Disposition int

const (
	// Propagate returns the failure.
	Propagate Disposition = iota
	// Suppress logs ErrNoSuchElement and ErrStaleElement at Warn, records
	// them and returns nil.
	Suppress
)

func (d Disposition) String() string {
	if d == Suppress {
		return "suppress"
	}
	return "propagate"
}

// Verb names, as used in error messages, log fields and the table below.
const (
	VerbSelectByValue             = "SelectByValue"
	VerbSelectByIndex             = "SelectByIndex"
	VerbSelectByVisibleText       = "SelectByVisibleText"
	VerbDeselectAll               = "DeselectAll"
	VerbDeselectByIndex           = "DeselectByIndex"
	VerbDeselectByValue           = "DeselectByValue"
	VerbDeselectByVisibleText     = "DeselectByVisibleText"
	VerbAllSelectedOptions        = "AllSelectedOptions"
	VerbSimpleClick               = "SimpleClick"
	VerbClickWithJS               = "ClickWithJS"
	VerbRightClick                = "RightClick"
	VerbRightClickAndChooseOption = "RightClickAndChooseOption"
	VerbDoubleClick               = "DoubleClick"
	VerbSetValueInInputField      = "SetValueInInputField"
	VerbSetValueInInputFieldJS    = "SetValueInInputFieldJS"
	VerbClearInputElement         = "ClearInputElement"
	VerbPressKey                  = "PressKey"
	VerbScrollToElement           = "ScrollToElement"
	VerbScrollPageVertical        = "ScrollPageVertical"
	VerbRebuild                   = "Rebuild"
	VerbFind                      = "Find"
	VerbWaitForClickable          = "WaitForClickable"
	VerbWaitForVisible            = "WaitForVisible"
	VerbWaitForSelected           = "WaitForSelected"
	VerbWaitForNotSelected        = "WaitForNotSelected"
	VerbWaitForTitle              = "WaitForTitle"
	VerbIsCorrectPageLoaded       = "IsCorrectPageLoaded"
	VerbWaitForPageLoad           = "WaitForPageLoad"
	VerbWaitForJQuery             = "WaitForJQuery"
	VerbDeadWait                  = "DeadWait"
	VerbJSDriver                  = "JSDriver"
	VerbExecute                   = "Execute"
	VerbDocumentTitle             = "DocumentTitle"
	VerbInnerText                 = "InnerText"
	VerbRefresh                   = "Refresh"
	VerbInnerDimensions           = "InnerDimensions"
	VerbCurrentWindow             = "CurrentWindow"
	VerbWindows                   = "Windows"
	VerbSelectWindow              = "SelectWindow"
	VerbOpen                      = "Open"
	VerbCurrentURL                = "CurrentURL"
	VerbTitle                     = "Title"
	VerbDeleteAllCookies          = "DeleteAllCookies"
	VerbDeleteCookie              = "DeleteCookie"
	VerbAcceptAlert               = "AcceptAlert"
	VerbDismissAlert              = "DismissAlert"
	VerbAuthenticateAlert         = "AuthenticateAlert"
	VerbAlertText                 = "AlertText"
	VerbSetAlertText              = "SetAlertText"
)

// dispositions lists the verbs that may swallow lookup failures. They are
// the verbs whose only driver interaction targets a caller-supplied element
// and whose result nothing downstream depends on. Every verb not listed
// propagates; ClickWithJS, JSDriver and SelectWindow must never be added.
var dispositions = map[string]Disposition{
	VerbSelectByValue:             Suppress,
	VerbSelectByIndex:             Suppress,
	VerbSelectByVisibleText:       Suppress,
	VerbDeselectAll:               Suppress,
	VerbDeselectByIndex:           Suppress,
	VerbDeselectByValue:           Suppress,
	VerbDeselectByVisibleText:     Suppress,
	VerbSimpleClick:               Suppress,
	VerbRightClick:                Suppress,
	VerbRightClickAndChooseOption: Suppress,
	VerbDoubleClick:               Suppress,
	VerbSetValueInInputField:      Suppress,
	VerbClearInputElement:         Suppress,
}

// DispositionOf returns the lenient-mode disposition of verb.
func DispositionOf(verb string) Disposition {
	return dispositions[verb]
}

// Suppressed records a failure swallowed under the lenient policy.
type Suppressed struct {
	Verb    string
	Element string
	Err     error
	At      time.Time
}

// Suppressed returns a copy of the failures swallowed so far.
func (p *Page) Suppressed() []Suppressed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Suppressed(nil), p.suppressed...)
}

// hint suggests a fix for a lookup failure.
func hint(err error) string {
	switch {
	case errors.Is(err, driver.ErrStaleElement):
		return "element left the document; locate it again or stabilise it first"
	case errors.Is(err, driver.ErrNoSuchElement):
		return "check the locator or wait for the element before acting on it"
	}
	return ""
}

// suppressible reports whether err is a bare lookup failure. Timeouts that
// merely carry one as their last error are not.
func suppressible(err error) bool {
	return driver.IsRetryable(err) && !errors.Is(err, driver.ErrTimeout)
}

// finish applies the error disposition of verb to err. el may be nil.
func (p *Page) finish(verb string, el driver.Element, err error) error {
	if err == nil {
		return nil
	}
	fields := []zap.Field{zap.String("verb", verb), zap.Error(err)}
	if el != nil {
		fields = append(fields, zap.Stringer("element", el))
	}

	if p.lenient && DispositionOf(verb) == Suppress && suppressible(err) {
		p.logger.Warn("Suppressed element failure.", append(fields, zap.String("hint", hint(err)))...)
		s := Suppressed{Verb: verb, Err: err, At: time.Now()}
		if el != nil {
			s.Element = el.String()
		}
		p.mu.Lock()
		p.suppressed = append(p.suppressed, s)
		p.mu.Unlock()
		return nil
	}

	if h := hint(err); h != "" {
		fields = append(fields, zap.String("hint", h))
	}
	p.logger.Warn("Page action failed.", fields...)
	return fmt.Errorf("%s: %w", verb, err)
}
