// internal/driver/cdp/alerts.go
package cdp

import (
	"context"
	"fmt"
	"sync"
	"time"

	chromecdp "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// listenerTimeout bounds commands issued from event listeners.
const listenerTimeout = 5 * time.Second

// dialogState tracks the JavaScript dialog open on a tab, if any.
type dialogState struct {
	mu     sync.Mutex
	open   *page.EventJavascriptDialogOpening
	prompt *string
	// signal is closed and replaced each time a dialog opens.
	signal chan struct{}
}

func newDialogState() *dialogState {
	return &dialogState{signal: make(chan struct{})}
}

func (d *dialogState) opened(ev *page.EventJavascriptDialogOpening) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = ev
	d.prompt = nil
	close(d.signal)
	d.signal = make(chan struct{})
}

func (d *dialogState) closed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = nil
	d.prompt = nil
}

func (d *dialogState) current() *page.EventJavascriptDialogOpening {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// wait returns a channel closed when the next dialog opens.
func (d *dialogState) wait() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signal
}

// pending returns the open dialog and the prompt text to submit with it.
func (d *dialogState) pending() (*page.EventJavascriptDialogOpening, *string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open, d.prompt
}

// setPrompt stores text for the open prompt() dialog.
func (d *dialogState) setPrompt(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open == nil {
		return driver.ErrNoAlert
	}
	if d.open.Type != page.DialogTypePrompt {
		return fmt.Errorf("%w: cannot type into a %s dialog", driver.ErrUnsupported, d.open.Type)
	}
	d.prompt = &text
	return nil
}

// credentials answer HTTP authentication challenges.
type credentials struct {
	username string
	password string
}

func (s *Session) credentials() *credentials {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	return s.creds
}

func enableAuth() chromedp.Action {
	return fetch.Enable().WithHandleAuthRequests(true)
}

// listen routes t's dialog and fetch events. Handlers that issue commands
// run in their own goroutine since listeners must not block the event loop.
func (s *Session) listen(t *tab) {
	chromedp.ListenTarget(t.ctx, func(ev any) {
		switch ev := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			s.logger.Info("Dialog opened.", zap.String("type", string(ev.Type)), zap.String("message", ev.Message))
			t.dialogs.opened(ev)
		case *page.EventJavascriptDialogClosed:
			t.dialogs.closed()
		case *fetch.EventAuthRequired:
			go s.answerAuth(t, ev)
		case *fetch.EventRequestPaused:
			go s.onTarget(t, "continue request", fetch.ContinueRequest(ev.RequestID))
		}
	})
}

// onTarget runs action on t from a listener goroutine.
func (s *Session) onTarget(t *tab, what string, action chromedp.Action) {
	c := chromedp.FromContext(t.ctx)
	if c == nil || c.Target == nil {
		return
	}
	ctx, cancel := context.WithTimeout(Detach(t.ctx), listenerTimeout)
	defer cancel()
	if err := action.Do(chromecdp.WithExecutor(ctx, c.Target)); err != nil && t.ctx.Err() == nil {
		s.logger.Debug("Listener command failed.", zap.String("command", what), zap.Error(err))
	}
}

// answerAuth supplies the stored credentials once per request and cancels
// the challenge if the server rejects them.
func (s *Session) answerAuth(t *tab, ev *fetch.EventAuthRequired) {
	s.authMu.Lock()
	creds := s.creds
	key := string(ev.RequestID)
	retried := s.authTried[key]
	s.authTried[key] = true
	s.authMu.Unlock()

	resp := &fetch.AuthChallengeResponse{Response: fetch.AuthChallengeResponseResponseDefault}
	switch {
	case creds == nil:
	case retried:
		s.logger.Warn("Credentials rejected, cancelling authentication.", zap.String("url", ev.Request.URL))
		resp.Response = fetch.AuthChallengeResponseResponseCancelAuth
	default:
		s.logger.Info("Answering authentication challenge.", zap.String("url", ev.Request.URL), zap.String("username", creds.username))
		resp = &fetch.AuthChallengeResponse{
			Response: fetch.AuthChallengeResponseResponseProvideCredentials,
			Username: creds.username,
			Password: creds.password,
		}
	}
	s.onTarget(t, "continue with auth", fetch.ContinueWithAuth(ev.RequestID, resp))
}

// AlertText returns the message of the open dialog.
func (s *Session) AlertText(ctx context.Context) (string, error) {
	t, err := s.currentTab()
	if err != nil {
		return "", err
	}
	ev := t.dialogs.current()
	if ev == nil {
		return "", driver.ErrNoAlert
	}
	return ev.Message, nil
}

func (s *Session) AcceptAlert(ctx context.Context) error  { return s.handleDialog(ctx, true) }
func (s *Session) DismissAlert(ctx context.Context) error { return s.handleDialog(ctx, false) }

func (s *Session) handleDialog(ctx context.Context, accept bool) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	ev, prompt := t.dialogs.pending()
	if ev == nil {
		return driver.ErrNoAlert
	}
	p := page.HandleJavaScriptDialog(accept)
	if accept && prompt != nil {
		p = p.WithPromptText(*prompt)
	}
	if err := s.runOn(ctx, t, p); err != nil {
		return err
	}
	t.dialogs.closed()
	return nil
}

// SetAlertText stores text that AcceptAlert submits to an open prompt().
func (s *Session) SetAlertText(ctx context.Context, text string) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	return t.dialogs.setPrompt(text)
}

// Authenticate answers HTTP authentication challenges raised from now on
// with the given credentials, in every window of the session.
func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	s.authMu.Lock()
	s.creds = &credentials{username: username, password: password}
	s.authTried = make(map[string]bool)
	s.authMu.Unlock()

	s.mu.RLock()
	tabs := make([]*tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		tabs = append(tabs, t)
	}
	s.mu.RUnlock()
	if len(tabs) == 0 {
		return fmt.Errorf("%w: session %s is closed", driver.ErrNoDriver, s.id)
	}
	for _, t := range tabs {
		if err := s.runOn(ctx, t, enableAuth()); err != nil {
			return fmt.Errorf("enabling authentication on window %s: %w", t.id, err)
		}
	}
	return nil
}
