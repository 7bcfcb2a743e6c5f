// internal/driver/cdp/browser.go

// Package cdp implements driver.Driver on the Chrome DevTools Protocol
// through chromedp.
package cdp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/driver"
)

// Browser owns one Chromium process. Sessions are tabs within it.
type Browser struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// containerFlags let Chromium start as root in a container. browser.args
// can drop one with "--name=false".
var containerFlags = []string{"no-sandbox", "disable-gpu", "disable-dev-shm-usage"}

// launchFlags returns the command line flags layered on chromedp's defaults.
// A false bool removes a default flag.
func launchFlags(cfg config.BrowserConfig) map[string]any {
	flags := map[string]any{}
	for _, name := range containerFlags {
		flags[name] = true
	}
	if !cfg.Headless {
		flags["headless"] = false
		flags["hide-scrollbars"] = false
		flags["mute-audio"] = false
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		flags["window-size"] = fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.UserAgent != "" {
		flags["user-agent"] = cfg.UserAgent
	}
	if cfg.UserDataDir != "" {
		flags["user-data-dir"] = cfg.UserDataDir
	}
	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		switch {
		case hasValue && value == "false":
			flags[name] = false
		case hasValue:
			flags[name] = value
		default:
			flags[name] = true
		}
	}
	return flags
}

// allocatorOptions builds the exec allocator options for cfg.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	flags := launchFlags(cfg)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}
	return opts
}

// Launch starts Chromium and waits up to cfg.LaunchTimeout for it to accept
// commands. The browser outlives ctx; release it with Close.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("browser")
	sugar := log.Sugar()

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	startCtx := ctx
	if cfg.LaunchTimeout > 0 {
		var cancel context.CancelFunc
		startCtx, cancel = context.WithTimeout(ctx, cfg.LaunchTimeout)
		defer cancel()
	}

	log.Info("Launching browser.", zap.Bool("headless", cfg.Headless), zap.String("exec_path", cfg.ExecPath))
	if err := startWithin(startCtx, browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &Browser{
		cfg:         cfg,
		logger:      log,
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      browserCancel,
		sessions:    make(map[string]*Session),
	}, nil
}

// NewSession opens a new tab.
func (b *Browser) NewSession(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("%w: browser is closed", driver.ErrNoDriver)
	}

	s, err := newSession(ctx, b.ctx, b.logger)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("%w: browser is closed", driver.ErrNoDriver)
	}
	b.sessions[s.id] = s
	s.onClose = func() {
		b.mu.Lock()
		delete(b.sessions, s.id)
		b.mu.Unlock()
	}
	return s, nil
}

// Close closes all sessions concurrently, then the browser process. If ctx
// expires first the process is killed.
func (b *Browser) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sessions := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		s := s
		g.Go(func() error { return s.Close(gctx) })
	}
	errs := g.Wait()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(b.ctx) }()
	select {
	case err := <-done:
		errs = multierr.Append(errs, err)
	case <-ctx.Done():
		b.logger.Warn("Browser did not exit in time, killing it.", zap.Error(ctx.Err()))
		errs = multierr.Append(errs, ctx.Err())
	}
	b.cancel()
	b.allocCancel()

	b.logger.Info("Browser closed.", zap.Int("sessions", len(sessions)))
	return errs
}
