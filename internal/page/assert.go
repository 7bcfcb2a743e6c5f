// internal/page/assert.go
package page

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AssertionError is a failed assertion.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return "assertion failed: " + e.Message
}

// HardAssertTrue returns an *AssertionError carrying failMsg when cond is
// false. An optional successMsg is logged when it holds.
func (p *Page) HardAssertTrue(cond bool, failMsg string, successMsg ...string) error {
	if !cond {
		p.logger.Warn("Hard assertion failed.", zap.String("message", failMsg))
		return &AssertionError{Message: failMsg}
	}
	logPassed(p.logger, "Hard assertion successful.", successMsg)
	return nil
}

// SoftAssert collects assertion failures so a run can report them together.
type SoftAssert struct {
	logger *zap.Logger

	mu  sync.Mutex
	err error
}

// SoftAssert returns a collector logging through the page logger.
func (p *Page) SoftAssert() *SoftAssert {
	return &SoftAssert{logger: p.logger}
}

// True records failMsg when cond is false and reports cond.
func (s *SoftAssert) True(cond bool, failMsg string, successMsg ...string) bool {
	if !cond {
		s.logger.Warn("Soft assertion failed.", zap.String("message", failMsg))
		s.mu.Lock()
		s.err = multierr.Append(s.err, &AssertionError{Message: failMsg})
		s.mu.Unlock()
		return false
	}
	logPassed(s.logger, "Soft assertion successful.", successMsg)
	return true
}

// Err returns every recorded failure combined, or nil. multierr.Errors
// splits the result back into the individual *AssertionError values.
func (s *SoftAssert) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func logPassed(logger *zap.Logger, msg string, successMsg []string) {
	if len(successMsg) > 0 && successMsg[0] != "" {
		logger.Info(msg, zap.String("message", successMsg[0]))
		return
	}
	logger.Info(msg)
}
