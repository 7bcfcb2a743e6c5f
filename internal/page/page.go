// internal/page/page.go

// Package page is the page-object layer: each verb wraps one driver
// operation with the waits, logging and error disposition test code expects.
package page

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/driver"
	"github.com/xkilldash9x/pagekit/internal/stability"
)

// Page binds one driver and one logger. It is safe for use by a single
// goroutine at a time; Suppressed may be read concurrently.
type Page struct {
	driver  driver.Driver
	logger  *zap.Logger
	cfg     config.PageConfig
	lenient bool
	guard   *stability.Guard
	waiter  *stability.Waiter
	limiter *rate.Limiter

	mu         sync.Mutex
	suppressed []Suppressed
}

// Option configures a Page.
type Option func(*Page)

// WithGuard replaces the stability guard built from the config.
func WithGuard(g *stability.Guard) Option {
	return func(p *Page) { p.guard = g }
}

// WithWaiter replaces the waiter built from the config.
func WithWaiter(w *stability.Waiter) Option {
	return func(p *Page) { p.waiter = w }
}

// WithLimiter replaces the pacing limiter. A nil limiter disables pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Page) { p.limiter = l }
}

// New returns a Page driving d. A nil d is allowed; every verb then fails
// with driver.ErrNoDriver.
func New(d driver.Driver, logger *zap.Logger, cfg config.PageConfig, opts ...Option) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Page{
		driver:  d,
		logger:  logger.Named("page"),
		cfg:     cfg,
		lenient: strings.EqualFold(cfg.ErrorPolicy, config.ErrorPolicyLenient),
	}
	p.guard = stability.NewGuard(logger)
	p.waiter = stability.NewWaiter(cfg.PollInterval, logger)
	if cfg.MinActionInterval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(cfg.MinActionInterval), 1)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// -- Accessors --

// Driver returns the bound driver, which may be nil.
func (p *Page) Driver() driver.Driver { return p.driver }

func (p *Page) Logger() *zap.Logger { return p.logger }

func (p *Page) Waiter() *stability.Waiter { return p.waiter }

func (p *Page) Guard() *stability.Guard { return p.guard }

// DefaultPolicy is the guard policy from page.poll_interval and
// page.max_attempts.
func (p *Page) DefaultPolicy() stability.Policy {
	return stability.Policy{PollInterval: p.cfg.PollInterval, MaxAttempts: p.cfg.MaxAttempts}
}

// Lenient reports whether suppressible lookup failures are swallowed.
func (p *Page) Lenient() bool { return p.lenient }

// Info logs msg on the page logger.
func (p *Page) Info(msg string, fields ...zap.Field) { p.logger.Info(msg, fields...) }

// Warn logs msg on the page logger.
func (p *Page) Warn(msg string, fields ...zap.Field) { p.logger.Warn(msg, fields...) }

// -- Internals shared by the verbs --

// ready reports ErrNoDriver when the page has no driver.
func (p *Page) ready() error {
	if p.driver == nil {
		return driver.ErrNoDriver
	}
	return nil
}

// element rejects a nil element the way a failed lookup would.
func element(el driver.Element) error {
	if el == nil {
		return fmt.Errorf("nil element: %w", driver.ErrNoSuchElement)
	}
	return nil
}

// pace blocks until the next interactive verb may run.
func (p *Page) pace(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// interactive runs the common preamble of verbs that touch the page: a
// bound driver, a usable element and the pacing gate.
func (p *Page) interactive(ctx context.Context, el driver.Element) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := element(el); err != nil {
		return err
	}
	return p.pace(ctx)
}

// sleep waits d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// bounded limits one driver operation to the configured action timeout.
func (p *Page) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.ActionTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.ActionTimeout)
}

// do runs a single driver operation under the action timeout.
func (p *Page) do(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := p.bounded(ctx)
	defer cancel()
	return op(opCtx)
}
