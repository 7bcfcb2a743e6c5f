// internal/flow/flow.go

// Package flow runs scripted page interactions described in YAML.
package flow

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/multierr"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// Flow is an ordered list of steps run against one page.
type Flow struct {
	Name string `yaml:"name" json:"name"`
	// URL, when set, is opened before the first step.
	URL   string `yaml:"url" json:"url,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one page action.
type Step struct {
	Name     string        `yaml:"name" json:"name,omitempty"`
	Action   string        `yaml:"action" json:"action"`
	Target   *Target       `yaml:"target" json:"target,omitempty"`
	Value    string        `yaml:"value" json:"value,omitempty"`
	Index    int           `yaml:"index" json:"index,omitempty"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout,omitempty"`
	Username string        `yaml:"username" json:"username,omitempty"`
	Password string        `yaml:"password" json:"-"`
	Expect   *Expect       `yaml:"expect" json:"expect,omitempty"`
}

// Label names the step in logs and reports.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Action
}

// Target locates the element a step acts on. Exactly one field is set.
type Target struct {
	CSS         string `yaml:"css" json:"css,omitempty"`
	XPath       string `yaml:"xpath" json:"xpath,omitempty"`
	ID          string `yaml:"id" json:"id,omitempty"`
	Name        string `yaml:"name" json:"name,omitempty"`
	Link        string `yaml:"link" json:"link,omitempty"`
	PartialLink string `yaml:"partial_link" json:"partial_link,omitempty"`
	Tag         string `yaml:"tag" json:"tag,omitempty"`
}

// By converts the target to a locator.
func (t *Target) By() (driver.By, error) {
	var set []driver.By
	if t != nil {
		for _, by := range []driver.By{
			driver.CSS(t.CSS), driver.XPath(t.XPath), driver.ID(t.ID), driver.Name(t.Name),
			driver.LinkText(t.Link), driver.PartialLinkText(t.PartialLink), driver.TagName(t.Tag),
		} {
			if by.Value != "" {
				set = append(set, by)
			}
		}
	}
	if len(set) != 1 {
		return driver.By{}, fmt.Errorf("target needs exactly one locator, got %d", len(set))
	}
	return set[0], nil
}

// Expect checks the result of a step. Path is a gjson path into the JSON
// result; a nil Equals only requires the path to exist.
type Expect struct {
	Path   string `yaml:"path" json:"path"`
	Equals any    `yaml:"equals" json:"equals,omitempty"`
}

// Load reads and validates the flow at path.
func Load(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flow: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a YAML flow. Unknown keys are rejected.
func Parse(data []byte) (*Flow, error) {
	var f Flow
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("decoding flow:\n%s", yaml.FormatError(err, false, true))
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every step before anything runs and reports all problems
// at once.
func (f *Flow) Validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", f.Name)
	}
	var errs error
	for i, s := range f.Steps {
		if err := s.validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("step %d (%s): %w", i+1, s.Label(), err))
		}
	}
	return errs
}

func (s Step) validate() error {
	def, ok := actions[s.Action]
	if !ok {
		return fmt.Errorf("unknown action %q (known: %s)", s.Action, strings.Join(ActionNames(), ", "))
	}
	if def.target {
		if _, err := s.Target.By(); err != nil {
			return err
		}
	} else if s.Target != nil {
		return fmt.Errorf("action %q takes no target", s.Action)
	}
	if def.value && s.Value == "" {
		return fmt.Errorf("action %q needs a value", s.Action)
	}
	if def.timeout && s.Timeout <= 0 {
		return fmt.Errorf("action %q needs a positive timeout", s.Action)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if def.validate != nil {
		if err := def.validate(s); err != nil {
			return err
		}
	}
	if s.Expect != nil && s.Expect.Path == "" {
		return fmt.Errorf("expect needs a path")
	}
	if s.Expect != nil && !def.result {
		return fmt.Errorf("action %q produces no result to check", s.Action)
	}
	return nil
}
