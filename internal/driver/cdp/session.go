// internal/driver/cdp/session.go
package cdp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// tab is one attached page target.
type tab struct {
	id      target.ID
	ctx     context.Context
	cancel  context.CancelFunc
	dialogs *dialogState
}

// Session drives one browser tab (plus any windows it switches to) and
// implements driver.Driver.
type Session struct {
	id     string
	logger *zap.Logger
	// browserCtx is the chromedp browser context new tabs are attached under.
	browserCtx context.Context

	mu      sync.RWMutex
	tabs    map[target.ID]*tab
	current *tab
	closed  bool

	authMu     sync.Mutex
	creds      *credentials
	authTried  map[string]bool
	closeOnce  sync.Once
	onClose    func()
	closeError error
}

var _ driver.Driver = (*Session)(nil)

// newSession opens a fresh tab under browserCtx.
func newSession(ctx context.Context, browserCtx context.Context, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	s := &Session{
		id:         id,
		logger:     logger.With(zap.String("session_id", id)),
		browserCtx: browserCtx,
		tabs:       make(map[target.ID]*tab),
		authTried:  make(map[string]bool),
	}

	t, err := s.openTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	s.tabs[t.id] = t
	s.current = t
	s.logger.Info("Session started.", zap.String("window", string(t.id)))
	return s, nil
}

// ID returns the session identifier used in log fields.
func (s *Session) ID() string { return s.id }

// startWithin runs the first (allocating or attaching) chromedp.Run on
// tabCtx. The run itself must use tabCtx, since chromedp binds the target's
// lifetime to it, so the caller's deadline is enforced by abandoning the wait.
func startWithin(ctx context.Context, tabCtx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(tabCtx) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// openTab creates a new tab, or attaches to an existing target when opts
// carry chromedp.WithTargetID, and starts listening to its events.
func (s *Session) openTab(ctx context.Context, opts ...chromedp.ContextOption) (*tab, error) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx, opts...)
	if err := startWithin(ctx, tabCtx); err != nil {
		cancel()
		return nil, classify(err)
	}
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		cancel()
		return nil, fmt.Errorf("%w: tab has no target", driver.ErrNoDriver)
	}

	t := &tab{
		id:      c.Target.TargetID,
		ctx:     tabCtx,
		cancel:  cancel,
		dialogs: newDialogState(),
	}
	s.listen(t)
	if s.credentials() != nil {
		if err := s.runOn(ctx, t, enableAuth()); err != nil {
			s.logger.Warn("Could not enable authentication on new tab.", zap.String("window", string(t.id)), zap.Error(err))
		}
	}
	return t, nil
}

// currentTab returns the active tab or ErrNoDriver once the session is closed.
func (s *Session) currentTab() (*tab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.current == nil {
		return nil, fmt.Errorf("%w: session %s is closed", driver.ErrNoDriver, s.id)
	}
	return s.current, nil
}

// run executes actions against the active tab.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	return s.runOn(ctx, t, actions...)
}

// runOn executes actions against t, bounded by ctx, and classifies failures.
func (s *Session) runOn(ctx context.Context, t *tab, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(t.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case t.ctx.Err() != nil:
		s.mu.RLock()
		closed := s.closed
		s.mu.RUnlock()
		if closed {
			return fmt.Errorf("%w: session %s is closed", driver.ErrNoDriver, s.id)
		}
		return fmt.Errorf("%w: %s", driver.ErrNoSuchWindow, t.id)
	}
	return classify(err)
}

// interactOn runs input actions on t. Input that opens a JavaScript dialog
// does not complete until the dialog is handled, so the call returns as soon
// as a dialog opens.
func (s *Session) interactOn(ctx context.Context, t *tab, actions ...chromedp.Action) error {
	if ev := t.dialogs.current(); ev != nil {
		return fmt.Errorf("%w: %s %q", driver.ErrAlertOpen, ev.Type, ev.Message)
	}
	opened := t.dialogs.wait()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- s.runOn(runCtx, t, actions...) }()

	select {
	case err := <-errc:
		return err
	case <-opened:
		s.logger.Debug("Dialog opened during input.", zap.String("window", string(t.id)))
		return nil
	}
}

// callOn invokes fn with `this` bound to the remote object id.
func (s *Session) callOn(ctx context.Context, t *tab, id runtime.RemoteObjectID, fn string, byValue bool, args ...any) (*runtime.RemoteObject, error) {
	cargs, err := callArguments(args)
	if err != nil {
		return nil, err
	}
	p := runtime.CallFunctionOn(fn).
		WithObjectID(id).
		WithReturnByValue(byValue).
		WithAwaitPromise(true).
		WithSilent(true)
	if len(cargs) > 0 {
		p = p.WithArguments(cargs)
	}

	var obj *runtime.RemoteObject
	err = s.runOn(ctx, t, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exc, err := p.Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		obj = res
		return nil
	}))
	return obj, err
}

// document returns a remote reference to t's document.
func (s *Session) document(ctx context.Context, t *tab) (runtime.RemoteObjectID, error) {
	var doc *runtime.RemoteObject
	if err := s.runOn(ctx, t, chromedp.Evaluate("document", &doc)); err != nil {
		return "", err
	}
	if doc == nil || doc.ObjectID == "" {
		return "", fmt.Errorf("%w: document is not available", driver.ErrNoDriver)
	}
	return doc.ObjectID, nil
}

// find resolves by under root. fn is the finder, guarded for element roots.
func (s *Session) find(ctx context.Context, t *tab, root runtime.RemoteObjectID, fn string, by driver.By) (driver.Element, error) {
	if !by.Valid() {
		return nil, fmt.Errorf("invalid locator %s", by)
	}
	obj, err := s.callOn(ctx, t, root, fn, false, string(by.Strategy), by.Value, false)
	if err != nil {
		return nil, err
	}
	if isNullish(obj) {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, by)
	}
	return &element{s: s, tab: t, id: obj.ObjectID, desc: by.String()}, nil
}

// findAll resolves every match of by under root, in document order.
func (s *Session) findAll(ctx context.Context, t *tab, root runtime.RemoteObjectID, fn string, by driver.By) ([]driver.Element, error) {
	if !by.Valid() {
		return nil, fmt.Errorf("invalid locator %s", by)
	}
	arr, err := s.callOn(ctx, t, root, fn, false, string(by.Strategy), by.Value, true)
	if err != nil {
		return nil, err
	}
	if isNullish(arr) || arr.ObjectID == "" {
		return nil, nil
	}

	var props []*runtime.PropertyDescriptor
	err = s.runOn(ctx, t, chromedp.ActionFunc(func(ctx context.Context) error {
		res, _, _, exc, err := runtime.GetProperties(arr.ObjectID).WithOwnProperties(true).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		props = res
		return nil
	}))
	if err != nil {
		return nil, err
	}

	type indexed struct {
		i  int
		id runtime.RemoteObjectID
	}
	var found []indexed
	for _, p := range props {
		i, convErr := strconv.Atoi(p.Name)
		if convErr != nil || p.Value == nil || p.Value.ObjectID == "" {
			continue
		}
		found = append(found, indexed{i, p.Value.ObjectID})
	}
	sort.Slice(found, func(a, b int) bool { return found[a].i < found[b].i })

	out := make([]driver.Element, 0, len(found))
	for _, f := range found {
		out = append(out, &element{s: s, tab: t, id: f.id, desc: fmt.Sprintf("%s[%d]", by, f.i)})
	}
	return out, nil
}

// Find implements driver.Locator against the active document.
func (s *Session) Find(ctx context.Context, by driver.By) (driver.Element, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	doc, err := s.document(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, t, doc, findFunction, by)
}

// FindAll implements driver.Locator against the active document.
func (s *Session) FindAll(ctx context.Context, by driver.By) ([]driver.Element, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	doc, err := s.document(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.findAll(ctx, t, doc, findFunction, by)
}

// Execute runs script as a function body with args available as
// arguments[i]. Elements are passed as live nodes; the return value is
// JSON-decoded into res.
func (s *Session) Execute(ctx context.Context, script string, res any, args ...any) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	doc, err := s.document(ctx, t)
	if err != nil {
		return err
	}
	s.logger.Debug("Executing script.", zap.String("script", scriptPreview(script)), zap.Int("args", len(args)))
	obj, err := s.callOn(ctx, t, doc, executeFunction(script), true, args...)
	if err != nil {
		return err
	}
	return decodeResult(obj, res)
}

// Navigate loads url in the active tab and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

// Reload reloads the active tab.
func (s *Session) Reload(ctx context.Context) error {
	return s.run(ctx, chromedp.Reload())
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, chromedp.Location(&url))
	return url, err
}

// Close closes every tab the session attached. It is safe to call more
// than once; later calls return the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		tabs := make([]*tab, 0, len(s.tabs))
		for _, t := range s.tabs {
			tabs = append(tabs, t)
		}
		s.tabs = nil
		s.current = nil
		s.mu.Unlock()

		s.logger.Info("Closing session.", zap.Int("windows", len(tabs)))
		var errs error
		for _, t := range tabs {
			if err := chromedp.Cancel(t.ctx); err != nil && ctx.Err() == nil {
				errs = multierr.Append(errs, fmt.Errorf("closing window %s: %w", t.id, err))
			}
			t.cancel()
		}
		s.closeError = errs

		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeError
}
