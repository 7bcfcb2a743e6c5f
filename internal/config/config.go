// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Page() PageConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserExecPath(string)

	// Page Setters
	SetPageErrorPolicy(string)
	SetPageExplicitWaitTimeout(time.Duration)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	PageCfg    PageConfig    `mapstructure:"page" yaml:"page"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Page() PageConfig       { return c.PageCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)      { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserExecPath(path string) { c.BrowserCfg.ExecPath = path }
func (c *Config) SetPageErrorPolicy(p string)    { c.PageCfg.ErrorPolicy = p }
func (c *Config) SetPageExplicitWaitTimeout(d time.Duration) {
	c.PageCfg.ExplicitWaitTimeout = d
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how Chromium is launched.
type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath      string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	UserDataDir   string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	WindowWidth   int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight  int           `mapstructure:"window_height" yaml:"window_height"`
	Args          []string      `mapstructure:"args" yaml:"args"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// Error policies understood by the page layer.
const (
	ErrorPolicyStrict  = "strict"
	ErrorPolicyLenient = "lenient"
)

// PageConfig tunes the page-object verbs: their waits, retry budget and
// error disposition.
type PageConfig struct {
	// ErrorPolicy is "strict" (every failure is returned) or "lenient"
	// (element lookup failures are logged and swallowed where allowed).
	ErrorPolicy string `mapstructure:"error_policy" yaml:"error_policy"`
	// PollInterval is the constant delay between stability probes and
	// between explicit-wait condition checks.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// MaxAttempts bounds the stability guard.
	MaxAttempts         int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	ExplicitWaitTimeout time.Duration `mapstructure:"explicit_wait_timeout" yaml:"explicit_wait_timeout"`
	PageLoadTimeout     time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	JQueryTimeout       time.Duration `mapstructure:"jquery_timeout" yaml:"jquery_timeout"`
	ActionTimeout       time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// MinActionInterval spaces consecutive interactive verbs. Zero disables pacing.
	MinActionInterval time.Duration `mapstructure:"min_action_interval" yaml:"min_action_interval"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	// Defaults are well-formed; an error here is a programming mistake.
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagekit")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.launch_timeout", "60s")

	// -- Page --
	v.SetDefault("page.error_policy", ErrorPolicyStrict)
	v.SetDefault("page.poll_interval", "100ms")
	v.SetDefault("page.max_attempts", 20)
	v.SetDefault("page.explicit_wait_timeout", "200s")
	v.SetDefault("page.page_load_timeout", "30s")
	v.SetDefault("page.jquery_timeout", "30s")
	v.SetDefault("page.action_timeout", "30s")
	v.SetDefault("page.min_action_interval", "0s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("browser.exec_path", "PAGEKIT_BROWSER_EXEC_PATH", "CHROME_BIN")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading "~" in file system settings.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.BrowserCfg.ExecPath, &c.BrowserCfg.UserDataDir, &c.LoggerCfg.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.WindowWidth < 0 || c.BrowserCfg.WindowHeight < 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must not be negative")
	}
	if err := c.PageCfg.Validate(); err != nil {
		return fmt.Errorf("page configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the page settings.
func (p *PageConfig) Validate() error {
	switch strings.ToLower(p.ErrorPolicy) {
	case ErrorPolicyStrict, ErrorPolicyLenient:
	default:
		return fmt.Errorf("error_policy must be %q or %q, got %q", ErrorPolicyStrict, ErrorPolicyLenient, p.ErrorPolicy)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if p.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative")
	}
	if p.MinActionInterval < 0 {
		return fmt.Errorf("min_action_interval must not be negative")
	}
	if p.ExplicitWaitTimeout <= 0 || p.PageLoadTimeout <= 0 || p.JQueryTimeout <= 0 || p.ActionTimeout <= 0 {
		return fmt.Errorf("explicit_wait_timeout, page_load_timeout, jquery_timeout and action_timeout must be positive durations")
	}
	return nil
}
