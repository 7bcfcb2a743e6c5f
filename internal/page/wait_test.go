// internal/page/wait_test.go
package page

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/driver"
)

func TestWaitForClickable(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)
	el := newElement(t, "#save")
	el.On("IsDisplayed", mock.Anything).Return(true, nil)
	el.On("IsEnabled", mock.Anything).Return(false, nil).Twice()
	el.On("IsEnabled", mock.Anything).Return(true, nil).Once()

	require.NoError(t, f.page.WaitForClickable(context.Background(), el, time.Second))
}

func TestWaitForClickable_Timeout(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)
	el := newElement(t, "#save")
	el.On("IsDisplayed", mock.Anything).Return(false, nil)

	err := f.page.WaitForClickable(context.Background(), el, 30*time.Millisecond)
	var timeout *driver.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 30*time.Millisecond, timeout.Timeout)
	assert.Contains(t, timeout.What, "#save")
}

func TestWaitForVisible(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)
	el := newElement(t, "#toast")
	el.On("IsDisplayed", mock.Anything).Return(false, driver.ErrNoSuchElement).Once()
	el.On("IsDisplayed", mock.Anything).Return(true, nil).Once()

	require.NoError(t, f.page.WaitForVisible(context.Background(), el))
}

func TestWaitForSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ErrorPolicyStrict)
	el := newElement(t, "#agree")
	el.On("IsSelected", mock.Anything).Return(false, nil).Once()
	el.On("IsSelected", mock.Anything).Return(true, nil).Once()

	require.NoError(t, f.page.WaitForSelected(ctx, el))

	el.On("IsSelected", mock.Anything).Return(true, nil)
	err := f.page.WaitForNotSelected(ctx, el)
	assert.ErrorIs(t, err, driver.ErrTimeout)
	assert.Contains(t, err.Error(), "not selected")
}

func TestWaitForTitle(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)
	f.driver.On("Title", mock.Anything).Return("Loading", nil).Once()
	f.driver.On("Title", mock.Anything).Return("Dashboard", nil).Once()

	require.NoError(t, f.page.WaitForTitle(context.Background(), "Dashboard"))
}

func TestIsCorrectPageLoaded(t *testing.T) {
	ctx := context.Background()

	t.Run("match", func(t *testing.T) {
		f := newFixture(t, config.ErrorPolicyStrict)
		f.driver.On("Title", mock.Anything).Return("Home", nil)
		ok, err := f.page.IsCorrectPageLoaded(ctx, "Home")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, f.logs.FilterMessage("Correct page loaded.").Len())
	})

	t.Run("mismatch is false, not an error", func(t *testing.T) {
		f := newFixture(t, config.ErrorPolicyStrict)
		f.driver.On("Title", mock.Anything).Return("Error 500", nil)
		ok, err := f.page.IsCorrectPageLoaded(ctx, "Home")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("driver failure", func(t *testing.T) {
		f := newFixture(t, config.ErrorPolicyStrict)
		f.driver.On("Title", mock.Anything).Return("", driver.ErrNoSuchWindow)
		ok, err := f.page.IsCorrectPageLoaded(ctx, "Home")
		assert.False(t, ok)
		assert.ErrorIs(t, err, driver.ErrNoSuchWindow)
	})
}

func TestWaitForPageLoad_Timeout(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)
	f.driver.On("Execute", mock.Anything, jsReadyState, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*string) = "interactive" }).Return(nil)

	err := f.page.WaitForPageLoad(context.Background())
	assert.ErrorIs(t, err, driver.ErrTimeout)
}

func TestWaitForJQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("idle", func(t *testing.T) {
		f := newFixture(t, config.ErrorPolicyStrict)
		f.driver.On("Execute", mock.Anything, jsJQueryIdle, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { *args.Get(2).(*bool) = false }).Return(nil).Once()
		f.driver.On("Execute", mock.Anything, jsJQueryIdle, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { *args.Get(2).(*bool) = true }).Return(nil).Once()
		require.NoError(t, f.page.WaitForJQuery(ctx, time.Second))
	})

	t.Run("busy forever is bounded", func(t *testing.T) {
		f := newFixture(t, config.ErrorPolicyStrict)
		f.driver.On("Execute", mock.Anything, jsJQueryIdle, mock.Anything, mock.Anything).Return(nil)
		start := time.Now()
		err := f.page.WaitForJQuery(ctx, 40*time.Millisecond)
		assert.ErrorIs(t, err, driver.ErrTimeout)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("timeout is mandatory", func(t *testing.T) {
		f := newFixture(t, config.ErrorPolicyStrict)
		err := f.page.WaitForJQuery(ctx, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive timeout")
	})
}

func TestDeadWait(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)

	start := time.Now()
	require.NoError(t, f.page.DeadWait(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.page.DeadWait(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
}
