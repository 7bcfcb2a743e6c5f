// internal/page/page_test.go
package page

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/driver"
	"github.com/xkilldash9x/pagekit/internal/mocks"
	"github.com/xkilldash9x/pagekit/internal/stability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Fixtures --

func testConfig(policy string) config.PageConfig {
	cfg := config.NewDefaultConfig().Page()
	cfg.ErrorPolicy = policy
	cfg.PollInterval = 10 * time.Millisecond
	cfg.ExplicitWaitTimeout = 100 * time.Millisecond
	cfg.PageLoadTimeout = 100 * time.Millisecond
	cfg.JQueryTimeout = 100 * time.Millisecond
	cfg.ActionTimeout = time.Second
	return cfg
}

type fixture struct {
	page   *Page
	driver *mocks.MockDriver
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T, policy string, opts ...Option) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	d := new(mocks.MockDriver)
	t.Cleanup(func() { d.AssertExpectations(t) })
	return &fixture{
		page:   New(d, zap.New(core), testConfig(policy), opts...),
		driver: d,
		logs:   logs,
	}
}

func newElement(t *testing.T, name string) *mocks.MockElement {
	t.Helper()
	el := mocks.NewMockElement(name)
	t.Cleanup(func() { el.AssertExpectations(t) })
	return el
}

// stubPageIdle makes jQuery and the document report idle.
func stubPageIdle(d *mocks.MockDriver) {
	d.On("Execute", mock.Anything, jsJQueryIdle, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*bool) = true }).
		Return(nil)
	d.On("Execute", mock.Anything, jsReadyState, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*string) = "complete" }).
		Return(nil)
}

// -- Construction --

func TestNew(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := New(new(mocks.MockDriver), zap.New(core), testConfig(config.ErrorPolicyStrict))

	assert.False(t, p.Lenient())
	assert.NotNil(t, p.Driver())
	assert.NotNil(t, p.Guard())
	require.NotNil(t, p.Waiter())
	assert.Equal(t, 10*time.Millisecond, p.Waiter().Poll())
	assert.Nil(t, p.limiter, "pacing is off by default")
	assert.Equal(t, stability.DefaultMaxAttempts, p.DefaultPolicy().MaxAttempts)

	p.Info("hello")
	p.Warn("careful")
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "page", logs.All()[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestNew_LenientIsCaseInsensitive(t *testing.T) {
	p := New(nil, nil, testConfig("Lenient"))
	assert.True(t, p.Lenient())
	assert.NotNil(t, p.Logger())
}

func TestNew_Options(t *testing.T) {
	g := stability.NewGuard(nil)
	w := stability.NewWaiter(time.Second, nil)
	cfg := testConfig(config.ErrorPolicyStrict)
	cfg.MinActionInterval = time.Second

	p := New(nil, nil, cfg, WithGuard(g), WithWaiter(w), WithLimiter(nil))
	assert.Same(t, g, p.Guard())
	assert.Same(t, w, p.Waiter())
	assert.Nil(t, p.limiter)
}

// -- Missing driver --

func TestNilDriver(t *testing.T) {
	ctx := context.Background()
	p := New(nil, nil, testConfig(config.ErrorPolicyLenient))
	el := mocks.NewMockElement("#x")

	verbs := map[string]func() error{
		VerbSimpleClick:          func() error { return p.SimpleClick(ctx, el) },
		VerbClickWithJS:          func() error { return p.ClickWithJS(ctx, el) },
		VerbSelectByValue:        func() error { return p.SelectByValue(ctx, el, "a") },
		VerbSetValueInInputField: func() error { return p.SetValueInInputField(ctx, el, "a") },
		VerbScrollPageVertical:   func() error { return p.ScrollPageVertical(ctx, 10) },
		VerbWaitForTitle:         func() error { return p.WaitForTitle(ctx, "t") },
		VerbWaitForPageLoad:      func() error { return p.WaitForPageLoad(ctx) },
		VerbRefresh:              func() error { return p.Refresh(ctx) },
		VerbSelectWindow:         func() error { return p.SelectWindow(ctx, "w") },
		VerbOpen:                 func() error { return p.Open(ctx, "about:blank") },
		VerbDeleteCookie:         func() error { return p.DeleteCookie(ctx, "c") },
		VerbAcceptAlert:          func() error { return p.AcceptAlert(ctx) },
		VerbJSDriver: func() error {
			_, err := p.JSDriver()
			return err
		},
		VerbTitle: func() error {
			_, err := p.Title(ctx)
			return err
		},
		VerbRebuild: func() error {
			_, err := p.Rebuild(ctx, el, stability.DefaultPolicy(time.Millisecond))
			return err
		},
	}
	for verb, call := range verbs {
		t.Run(verb, func(t *testing.T) {
			err := call()
			require.Error(t, err, "a missing driver is never suppressed")
			assert.ErrorIs(t, err, driver.ErrNoDriver)
			assert.Contains(t, err.Error(), verb)
		})
	}
}

func TestNilElement(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)
	err := f.page.SimpleClick(context.Background(), nil)
	assert.ErrorIs(t, err, driver.ErrNoSuchElement)
}

// -- Pacing --

func TestPacing(t *testing.T) {
	cfg := testConfig(config.ErrorPolicyStrict)
	cfg.MinActionInterval = 30 * time.Millisecond
	d := new(mocks.MockDriver)
	p := New(d, nil, cfg)
	require.NotNil(t, p.limiter)

	el := mocks.NewMockElement("#go")
	el.On("Click", mock.Anything).Return(nil).Times(3)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.SimpleClick(context.Background(), el))
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond, "three clicks need two full intervals")
	el.AssertExpectations(t)
}

func TestPacing_ContextCancelled(t *testing.T) {
	cfg := testConfig(config.ErrorPolicyStrict)
	cfg.MinActionInterval = time.Hour
	p := New(new(mocks.MockDriver), nil, cfg)
	el := mocks.NewMockElement("#go")
	el.On("Click", mock.Anything).Return(nil).Once()

	require.NoError(t, p.SimpleClick(context.Background(), el), "the first action has a token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := p.SimpleClick(ctx, el)
	require.Error(t, err)
	assert.NotErrorIs(t, err, driver.ErrNoSuchElement)
	el.AssertExpectations(t)
}

func TestActionTimeout(t *testing.T) {
	f := newFixture(t, config.ErrorPolicyStrict)
	f.page.cfg.ActionTimeout = 20 * time.Millisecond

	el := newElement(t, "#slow")
	el.On("Click", mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(context.DeadlineExceeded)

	err := f.page.SimpleClick(context.Background(), el)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
