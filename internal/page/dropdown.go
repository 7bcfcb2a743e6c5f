// internal/page/dropdown.go
package page

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// Match modes understood by selectFunction.
const (
	matchValue = "value"
	matchIndex = "index"
	matchText  = "text"
	matchAll   = "all"
)

// selectFunction selects or deselects the options of a <select> bound to
// `this`. Visible text is compared after collapsing whitespace. A single
// select only takes the first match. Change events fire when anything moved.
const selectFunction = `function(selecting, mode, want) {
	if (!(this instanceof HTMLSelectElement)) {
		throw new Error("element is not a <select>, got <" + String(this.tagName).toLowerCase() + ">");
	}
	if (!selecting && !this.multiple) {
		return {multiple: false, matched: 0};
	}
	const norm = (s) => String(s).replace(/\s+/g, " ").trim();
	const opts = Array.from(this.options);
	const hit = opts.filter((o, i) => {
		switch (mode) {
		case "value": return o.value === want;
		case "index": return i === want;
		case "text": return norm(o.text) === norm(want);
		default: return true;
		}
	});
	const targets = selecting && !this.multiple ? hit.slice(0, 1) : hit;
	let changed = false;
	for (const o of targets) {
		if (o.selected !== selecting) {
			o.selected = selecting;
			changed = true;
		}
	}
	if (changed) {
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
	}
	return {multiple: this.multiple, matched: hit.length};
}`

type selectResult struct {
	Multiple bool `json:"multiple"`
	Matched  int  `json:"matched"`
}

// choose runs selectFunction and maps its result onto the error taxonomy.
func (p *Page) choose(ctx context.Context, el driver.Element, selecting bool, mode string, want any) error {
	if err := p.interactive(ctx, el); err != nil {
		return err
	}
	var res selectResult
	err := p.do(ctx, func(ctx context.Context) error {
		return el.Call(ctx, selectFunction, &res, selecting, mode, want)
	})
	if err != nil {
		return err
	}
	if !selecting && !res.Multiple {
		return fmt.Errorf("%w: may only deselect options of a multi-select", driver.ErrUnsupported)
	}
	if res.Matched == 0 && mode != matchAll {
		return fmt.Errorf("%w: no option with %s %v", driver.ErrNoSuchElement, mode, want)
	}
	return nil
}

func (p *Page) SelectByValue(ctx context.Context, el driver.Element, value string) error {
	err := p.choose(ctx, el, true, matchValue, value)
	if err == nil {
		p.logger.Info("Selected dropdown option by value.", zap.Stringer("element", el), zap.String("value", value))
	}
	return p.finish(VerbSelectByValue, el, err)
}

// SelectByIndex selects the option at the zero-based index.
func (p *Page) SelectByIndex(ctx context.Context, el driver.Element, index int) error {
	err := p.choose(ctx, el, true, matchIndex, index)
	if err == nil {
		p.logger.Info("Selected dropdown option by index.", zap.Stringer("element", el), zap.Int("index", index))
	}
	return p.finish(VerbSelectByIndex, el, err)
}

func (p *Page) SelectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	err := p.choose(ctx, el, true, matchText, text)
	if err == nil {
		p.logger.Info("Selected dropdown option by visible text.", zap.Stringer("element", el), zap.String("text", text))
	}
	return p.finish(VerbSelectByVisibleText, el, err)
}

// DeselectAll clears every selected option of a multi-select.
func (p *Page) DeselectAll(ctx context.Context, el driver.Element) error {
	err := p.choose(ctx, el, false, matchAll, nil)
	if err == nil {
		p.logger.Info("Deselected all dropdown options.", zap.Stringer("element", el))
	}
	return p.finish(VerbDeselectAll, el, err)
}

func (p *Page) DeselectByIndex(ctx context.Context, el driver.Element, index int) error {
	err := p.choose(ctx, el, false, matchIndex, index)
	if err == nil {
		p.logger.Info("Deselected dropdown option by index.", zap.Stringer("element", el), zap.Int("index", index))
	}
	return p.finish(VerbDeselectByIndex, el, err)
}

func (p *Page) DeselectByValue(ctx context.Context, el driver.Element, value string) error {
	err := p.choose(ctx, el, false, matchValue, value)
	if err == nil {
		p.logger.Info("Deselected dropdown option by value.", zap.Stringer("element", el), zap.String("value", value))
	}
	return p.finish(VerbDeselectByValue, el, err)
}

func (p *Page) DeselectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	err := p.choose(ctx, el, false, matchText, text)
	if err == nil {
		p.logger.Info("Deselected dropdown option by visible text.", zap.Stringer("element", el), zap.String("text", text))
	}
	return p.finish(VerbDeselectByVisibleText, el, err)
}

// AllSelectedOptions returns the selected <option> elements of el. With
// logText set, each option's text is logged.
func (p *Page) AllSelectedOptions(ctx context.Context, el driver.Element, logText bool) ([]driver.Element, error) {
	if err := p.ready(); err != nil {
		return nil, p.finish(VerbAllSelectedOptions, el, err)
	}
	if err := element(el); err != nil {
		return nil, p.finish(VerbAllSelectedOptions, el, err)
	}

	var options []driver.Element
	err := p.do(ctx, func(ctx context.Context) error {
		var findErr error
		options, findErr = el.FindAll(ctx, driver.CSS("option:checked"))
		return findErr
	})
	if err != nil {
		return nil, p.finish(VerbAllSelectedOptions, el, err)
	}

	p.logger.Info("Collected selected dropdown options.", zap.Stringer("element", el), zap.Int("count", len(options)))
	if logText {
		for i, o := range options {
			text, err := o.Text(ctx)
			if err != nil {
				return nil, p.finish(VerbAllSelectedOptions, o, err)
			}
			p.logger.Info("Selected option.", zap.Int("index", i), zap.String("text", text))
		}
	}
	return options, nil
}
