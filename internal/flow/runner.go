// internal/flow/runner.go
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/page"
)

// Step statuses reported in StepResult.Status.
const (
	StatusPassed = "passed"
	// StatusSuppressed means the step ran but the page swallowed an element
	// failure under the lenient policy.
	StatusSuppressed = "suppressed"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
)

// ErrExpectation is returned when a step result does not match its Expect.
var ErrExpectation = errors.New("expectation not met")

// Report is the outcome of one run. It encodes to JSON as is.
type Report struct {
	Flow       string       `json:"flow"`
	Started    time.Time    `json:"started"`
	DurationMS int64        `json:"duration_ms"`
	Passed     bool         `json:"passed"`
	Steps      []StepResult `json:"steps"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index      int             `json:"index"`
	Name       string          `json:"name"`
	Action     string          `json:"action"`
	Status     string          `json:"status"`
	DurationMS int64           `json:"duration_ms"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Runner executes flows against a page.
type Runner struct {
	page   *page.Page
	logger *zap.Logger
	// findTimeout bounds element lookups of targeted steps without a timeout.
	findTimeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFindTimeout sets how long targeted steps wait for their element when
// the step sets no timeout. Zero looks once.
func WithFindTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.findTimeout = d }
}

// NewRunner returns a Runner driving p.
func NewRunner(p *page.Page, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{page: p, logger: logger.Named("flow"), findTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes f in order and stops at the first failing step; the
// remaining steps are reported as skipped. The returned error is that
// step's failure, and the report is always complete.
func (r *Runner) Run(ctx context.Context, f *Flow) (*Report, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flow: %w", err)
	}

	steps := f.Steps
	if f.URL != "" {
		steps = append([]Step{{Name: "open " + f.URL, Action: "open", Value: f.URL}}, steps...)
	}

	report := &Report{Flow: f.Name, Started: time.Now(), Passed: true}
	log := r.logger.With(zap.String("flow", f.Name))
	log.Info("Starting flow.", zap.Int("steps", len(steps)))

	var runErr error
	for i, s := range steps {
		res := StepResult{Index: i + 1, Name: s.Label(), Action: s.Action}
		if runErr != nil {
			res.Status = StatusSkipped
			report.Steps = append(report.Steps, res)
			continue
		}

		start := time.Now()
		res.Status, res.Result, runErr = r.runStep(ctx, s)
		res.DurationMS = time.Since(start).Milliseconds()
		if runErr != nil {
			res.Error = runErr.Error()
			report.Passed = false
			log.Warn("Step failed.", zap.Int("step", i+1), zap.String("name", s.Label()), zap.Error(runErr))
			runErr = fmt.Errorf("step %d (%s): %w", i+1, s.Label(), runErr)
		} else {
			log.Info("Step finished.", zap.Int("step", i+1), zap.String("name", s.Label()), zap.String("status", res.Status))
		}
		report.Steps = append(report.Steps, res)
	}

	report.DurationMS = time.Since(report.Started).Milliseconds()
	log.Info("Flow finished.", zap.Bool("passed", report.Passed), zap.Int64("duration_ms", report.DurationMS))
	return report, runErr
}

// runStep locates the target, runs the action and checks its result.
func (r *Runner) runStep(ctx context.Context, s Step) (string, json.RawMessage, error) {
	def := actions[s.Action]
	c := &call{page: r.page, step: s}

	if def.target {
		by, err := s.Target.By()
		if err != nil {
			return StatusFailed, nil, err
		}
		el, err := r.page.Find(ctx, by, c.timeout(r.findTimeout))
		if err != nil {
			return StatusFailed, nil, err
		}
		c.el = el
	}

	before := len(r.page.Suppressed())
	value, err := def.run(ctx, c)
	if err != nil {
		return StatusFailed, nil, err
	}

	var raw json.RawMessage
	if def.result {
		if raw, err = encodeResult(value); err != nil {
			return StatusFailed, nil, err
		}
	}
	if s.Expect != nil {
		if err := check(raw, s.Expect); err != nil {
			return StatusFailed, raw, err
		}
	}
	if len(r.page.Suppressed()) > before {
		return StatusSuppressed, raw, nil
	}
	return StatusPassed, raw, nil
}

func encodeResult(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return b, nil
}

// check evaluates exp against the JSON result. A path of "@this" addresses
// the whole result.
func check(raw json.RawMessage, exp *Expect) error {
	got := gjson.GetBytes(raw, exp.Path)
	if !got.Exists() {
		return fmt.Errorf("%w: %s not found in %s", ErrExpectation, exp.Path, raw)
	}
	if exp.Equals == nil {
		return nil
	}
	want, err := json.Marshal(exp.Equals)
	if err != nil {
		return fmt.Errorf("encoding expected value: %w", err)
	}
	if !cmp.Equal(gjson.ParseBytes(want).Value(), got.Value()) {
		return fmt.Errorf("%w: %s is %s, want %s", ErrExpectation, exp.Path, got.Raw, want)
	}
	return nil
}
