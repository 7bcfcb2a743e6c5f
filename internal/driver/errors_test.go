// internal/driver/errors_test.go
package driver

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such element", ErrNoSuchElement, true},
		{"stale element", ErrStaleElement, true},
		{"wrapped stale", fmt.Errorf("click: %w", ErrStaleElement), true},
		{"script", &ScriptError{Message: "boom"}, false},
		{"no driver", ErrNoDriver, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestScriptError(t *testing.T) {
	err := fmt.Errorf("execute: %w", &ScriptError{Message: "ReferenceError: jQuery is not defined"})

	assert.True(t, errors.Is(err, ErrScript))
	var se *ScriptError
	assert.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "jQuery is not defined")
}

func TestTimeoutError(t *testing.T) {
	t.Run("with last error", func(t *testing.T) {
		err := &TimeoutError{What: "element visible", Timeout: time.Second, Last: ErrNoSuchElement}
		assert.True(t, errors.Is(err, ErrTimeout))
		assert.True(t, errors.Is(err, ErrNoSuchElement))
		assert.Contains(t, err.Error(), "last error")
	})

	t.Run("without last error", func(t *testing.T) {
		err := &TimeoutError{What: "title", Timeout: 2 * time.Second}
		assert.True(t, errors.Is(err, ErrTimeout))
		assert.False(t, errors.Is(err, ErrNoSuchElement))
		assert.Equal(t, "waiting for title: timed out after 2s", err.Error())
	})
}

func TestByValid(t *testing.T) {
	assert.True(t, CSS("#id").Valid())
	assert.True(t, PartialLinkText("Save").Valid())
	assert.False(t, CSS("").Valid())
	assert.False(t, By{Strategy: "bogus", Value: "x"}.Valid())
	assert.Equal(t, `css="#login"`, CSS("#login").String())
}
