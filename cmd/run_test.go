// File: cmd/run_test.go
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/driver"
	"github.com/xkilldash9x/pagekit/internal/flow"
	"github.com/xkilldash9x/pagekit/internal/mocks"
)

const titleFlow = `
name: smoke
url: https://example.com/
steps:
  - action: title
    expect:
      path: "@this"
      equals: Example Domain
`

const clickFlow = `
name: flaky
steps:
  - action: click
    target: {css: "#flaky"}
`

func TestRunCmd_Args(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")

	flowFile := writeFile(t, "flow.yaml", titleFlow)
	_, err = executeCommandNoPreRun(t, "run", "--strict", "--lenient", flowFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict")

	_, err = executeCommandNoPreRun(t, "run", flowFile)
	assert.ErrorContains(t, err, "configuration missing")
}

func TestRunCmd_Passes(t *testing.T) {
	resetForTest(t)
	d := newDriver(t)
	seen := fakeBrowser(t, d)
	d.On("Navigate", mock.Anything, "https://example.com/").Return(nil).Once()
	d.On("Title", mock.Anything).Return("Example Domain", nil).Once()

	cfgFile := createTempConfig(t, "browser:\n  headless: false\n")
	flowFile := writeFile(t, "flow.yaml", titleFlow)

	out, err := executeCommand(t, "run", "-c", cfgFile, "--headless", "--browser", "/opt/chromium/chrome", flowFile)
	require.NoError(t, err)

	assert.True(t, seen.Headless, "--headless overrides the config file")
	assert.Equal(t, "/opt/chromium/chrome", seen.ExecPath)

	require.True(t, gjson.Valid(out), "stdout holds only the report: %s", out)
	assert.Equal(t, "smoke", gjson.Get(out, "flow").String())
	assert.True(t, gjson.Get(out, "passed").Bool())
	assert.Equal(t, int64(2), gjson.Get(out, "steps.#").Int())
	assert.Equal(t, "open", gjson.Get(out, "steps.0.action").String())
	assert.Equal(t, "Example Domain", gjson.Get(out, "steps.1.result").String())
}

func TestRunCmd_URLOverride(t *testing.T) {
	resetForTest(t)
	d := newDriver(t)
	fakeBrowser(t, d)
	d.On("Navigate", mock.Anything, "http://localhost:8080/").Return(nil).Once()
	d.On("Title", mock.Anything).Return("Example Domain", nil).Once()

	flowFile := writeFile(t, "flow.yaml", titleFlow)
	_, err := executeCommand(t, "run", "--url", "http://localhost:8080/", flowFile)
	require.NoError(t, err)
}

func TestRunCmd_FailureStillReports(t *testing.T) {
	resetForTest(t)
	d := newDriver(t)
	fakeBrowser(t, d)
	d.On("Navigate", mock.Anything, "https://example.com/").Return(nil).Once()
	d.On("Title", mock.Anything).Return("Not Found", nil).Once()

	flowFile := writeFile(t, "flow.yaml", titleFlow)
	out, err := executeCommand(t, "run", flowFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrExpectation)
	assert.Contains(t, err.Error(), `flow "smoke" failed`)

	assert.False(t, gjson.Get(out, "passed").Bool())
	assert.Equal(t, flow.StatusFailed, gjson.Get(out, "steps.1.status").String())
	assert.Equal(t, "Not Found", gjson.Get(out, "steps.1.result").String())
}

func TestRunCmd_ErrorPolicy(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		env        string
		wantStatus string
		wantErr    bool
	}{
		{name: "Default is strict", wantStatus: flow.StatusFailed, wantErr: true},
		{name: "Lenient flag", args: []string{"--lenient"}, wantStatus: flow.StatusSuppressed},
		{name: "Lenient from env", env: config.ErrorPolicyLenient, wantStatus: flow.StatusSuppressed},
		{name: "Strict flag beats env", args: []string{"--strict"}, env: config.ErrorPolicyLenient, wantStatus: flow.StatusFailed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetForTest(t)
			if tt.env != "" {
				t.Setenv("PAGEKIT_PAGE_ERROR_POLICY", tt.env)
			}
			d := newDriver(t)
			fakeBrowser(t, d)
			btn := mocks.NewMockElement("#flaky")
			t.Cleanup(func() { btn.AssertExpectations(t) })
			d.On("Find", mock.Anything, driver.CSS("#flaky")).Return(btn, nil).Once()
			btn.On("Click", mock.Anything).Return(driver.ErrStaleElement).Once()

			flowFile := writeFile(t, "flow.yaml", clickFlow)
			args := append([]string{"run", "--find-timeout", "0s"}, tt.args...)
			out, err := executeCommand(t, append(args, flowFile)...)

			if tt.wantErr {
				assert.ErrorIs(t, err, driver.ErrStaleElement)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, gjson.Get(out, "steps.0.status").String())
		})
	}
}

func TestRunCmd_OutputFile(t *testing.T) {
	resetForTest(t)
	d := newDriver(t)
	fakeBrowser(t, d)
	d.On("Navigate", mock.Anything, "https://example.com/").Return(nil).Once()
	d.On("Title", mock.Anything).Return("Example Domain", nil).Once()

	flowFile := writeFile(t, "flow.yaml", titleFlow)
	reportFile := filepath.Join(t.TempDir(), "report.json")

	out, err := executeCommand(t, "run", "-o", reportFile, flowFile)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(data, "passed").Bool())
}

func TestRunCmd_LaunchFailure(t *testing.T) {
	resetForTest(t)
	openSession = func(context.Context, config.BrowserConfig, *zap.Logger) (driver.Driver, func(context.Context) error, error) {
		return nil, nil, errors.New("chrome not found")
	}
	flowFile := writeFile(t, "flow.yaml", titleFlow)

	out, err := executeCommand(t, "run", flowFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting browser: chrome not found")
	assert.Empty(t, out)
}

func TestRunCmd_InvalidFlowNeverLaunches(t *testing.T) {
	resetForTest(t)
	openSession = func(context.Context, config.BrowserConfig, *zap.Logger) (driver.Driver, func(context.Context) error, error) {
		t.Fatal("the browser must not start for an invalid flow")
		return nil, nil, nil
	}
	flowFile := writeFile(t, "flow.yaml", "steps:\n  - action: teleport\n")

	_, err := executeCommand(t, "run", flowFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "teleport"`)

	_, err = executeCommand(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCmd_ReleaseErrorIsLogged(t *testing.T) {
	resetForTest(t)
	closeTimeout = 50 * time.Millisecond
	d := newDriver(t)
	d.On("Title", mock.Anything).Return("Example Domain", nil).Once()

	var releaseCtx context.Context
	openSession = func(context.Context, config.BrowserConfig, *zap.Logger) (driver.Driver, func(context.Context) error, error) {
		return d, func(ctx context.Context) error {
			releaseCtx = ctx
			return errors.New("browser hung")
		}, nil
	}

	flowFile := writeFile(t, "flow.yaml", "steps:\n  - action: title\n")
	_, err := executeCommand(t, "run", flowFile)
	require.NoError(t, err, "a failed shutdown does not fail a passing run")

	require.NotNil(t, releaseCtx)
	deadline, ok := releaseCtx.Deadline()
	require.True(t, ok, "shutdown is bounded")
	assert.WithinDuration(t, time.Now(), deadline, time.Second)
}

func TestApplyOverrides(t *testing.T) {
	t.Run("Only changed flags apply", func(t *testing.T) {
		cfg := new(mocks.MockConfig)
		cmd := newRunCmd()
		require.NoError(t, cmd.ParseFlags(nil))

		applyOverrides(cmd, cfg, &runOptions{headless: true})
		cfg.AssertNotCalled(t, "SetBrowserHeadless", mock.Anything)
		cfg.AssertNotCalled(t, "SetPageErrorPolicy", mock.Anything)
	})

	t.Run("Every flag", func(t *testing.T) {
		cfg := new(mocks.MockConfig)
		cfg.On("SetBrowserHeadless", false).Once()
		cfg.On("SetBrowserExecPath", "/usr/bin/chromium").Once()
		cfg.On("SetPageErrorPolicy", config.ErrorPolicyLenient).Once()
		cfg.On("SetPageExplicitWaitTimeout", 5*time.Second).Once()

		cmd := newRunCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--headless=false"}))

		applyOverrides(cmd, cfg, &runOptions{
			headless: false,
			execPath: "/usr/bin/chromium",
			lenient:  true,
			wait:     5 * time.Second,
		})
		cfg.AssertExpectations(t)
	})
}
