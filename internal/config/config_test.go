// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "pagekit", cfg.Logger().ServiceName)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 1920, cfg.Browser().WindowWidth)
	assert.Equal(t, 60*time.Second, cfg.Browser().LaunchTimeout)
	assert.Equal(t, ErrorPolicyStrict, cfg.Page().ErrorPolicy)
	assert.Equal(t, 20, cfg.Page().MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Page().PollInterval)
	assert.Equal(t, 200*time.Second, cfg.Page().ExplicitWaitTimeout)
	assert.Equal(t, 30*time.Second, cfg.Page().PageLoadTimeout)
	assert.Zero(t, cfg.Page().MinActionInterval)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	var iface Interface = cfg

	iface.SetBrowserHeadless(false)
	iface.SetBrowserExecPath("/usr/bin/chromium")
	iface.SetPageErrorPolicy(ErrorPolicyLenient)
	iface.SetPageExplicitWaitTimeout(5 * time.Second)

	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser().ExecPath)
	assert.Equal(t, ErrorPolicyLenient, cfg.Page().ErrorPolicy)
	assert.Equal(t, 5*time.Second, cfg.Page().ExplicitWaitTimeout)
}

// -- Validation Logic Tests --

func TestPageConfigValidation(t *testing.T) {
	valid := NewDefaultConfig().Page()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(p *PageConfig)
		wantErr string
	}{
		{"unknown policy", func(p *PageConfig) { p.ErrorPolicy = "silent" }, "error_policy must be"},
		{"zero attempts", func(p *PageConfig) { p.MaxAttempts = 0 }, "max_attempts must be at least 1"},
		{"negative poll", func(p *PageConfig) { p.PollInterval = -time.Millisecond }, "poll_interval must not be negative"},
		{"negative pacing", func(p *PageConfig) { p.MinActionInterval = -time.Second }, "min_action_interval must not be negative"},
		{"zero jquery timeout", func(p *PageConfig) { p.JQueryTimeout = 0 }, "must be positive durations"},
		{"zero explicit wait", func(p *PageConfig) { p.ExplicitWaitTimeout = 0 }, "must be positive durations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("zero poll interval is allowed", func(t *testing.T) {
		p := valid
		p.PollInterval = 0
		assert.NoError(t, p.Validate())
	})

	t.Run("policy is case insensitive", func(t *testing.T) {
		p := valid
		p.ErrorPolicy = "Lenient"
		assert.NoError(t, p.Validate())
	})
}

func TestConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.BrowserCfg.WindowWidth = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")

	cfg = NewDefaultConfig()
	cfg.PageCfg.MaxAttempts = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page configuration invalid")
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")

		yamlConfig := []byte(`
logger:
  level: debug
  format: json
browser:
  headless: false
  window_width: 1280
  args:
    - "--lang=en-US"
page:
  error_policy: lenient
  poll_interval: 250ms
  max_attempts: 5
  jquery_timeout: 10s
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logger().Level)
		assert.Equal(t, "json", cfg.Logger().Format)
		assert.False(t, cfg.Browser().Headless)
		assert.Equal(t, 1280, cfg.Browser().WindowWidth)
		assert.Equal(t, 1080, cfg.Browser().WindowHeight, "unset keys keep their defaults")
		assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser().Args)
		assert.Equal(t, ErrorPolicyLenient, cfg.Page().ErrorPolicy)
		assert.Equal(t, 250*time.Millisecond, cfg.Page().PollInterval)
		assert.Equal(t, 5, cfg.Page().MaxAttempts)
		assert.Equal(t, 10*time.Second, cfg.Page().JQueryTimeout)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("page.max_attempts", 0)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("Exec path from environment", func(t *testing.T) {
		t.Setenv("PAGEKIT_BROWSER_EXEC_PATH", "/opt/chrome/chrome")
		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "/opt/chrome/chrome", cfg.Browser().ExecPath)
	})

	t.Run("Home directory expansion", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		homedir.DisableCache = true
		t.Cleanup(func() { homedir.DisableCache = false })

		v := viper.New()
		SetDefaults(v)
		v.Set("logger.log_file", "~/logs/pagekit.log")
		v.Set("browser.user_data_dir", "~/.pagekit/profile")
		v.Set("browser.exec_path", "/usr/bin/chromium")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "logs", "pagekit.log"), cfg.Logger().LogFile)
		assert.Equal(t, filepath.Join(home, ".pagekit", "profile"), cfg.Browser().UserDataDir)
		assert.Equal(t, "/usr/bin/chromium", cfg.Browser().ExecPath, "absolute paths are untouched")

		v.Set("browser.exec_path", "~someone/chrome")
		_, err = NewConfigFromViper(v)
		assert.ErrorContains(t, err, "expanding path")
	})
}
