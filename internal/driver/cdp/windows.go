// internal/driver/cdp/windows.go
package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// CurrentWindow returns the handle of the active tab.
func (s *Session) CurrentWindow(ctx context.Context) (string, error) {
	t, err := s.currentTab()
	if err != nil {
		return "", err
	}
	return string(t.id), nil
}

// Windows lists the handles of every open page in the browser.
func (s *Session) Windows(ctx context.Context) ([]string, error) {
	infos, err := s.pageTargets(ctx)
	if err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(infos))
	for _, info := range infos {
		handles = append(handles, string(info.TargetID))
	}
	return handles, nil
}

func (s *Session) pageTargets(ctx context.Context) ([]*target.Info, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	runCtx, cancel := CombineContext(t.ctx, ctx)
	defer cancel()

	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify(err)
	}
	pages := infos[:0]
	for _, info := range infos {
		if info.Type == "page" {
			pages = append(pages, info)
		}
	}
	return pages, nil
}

// SwitchWindow makes handle the active tab, attaching to it on first use.
// An unknown or closed handle yields ErrNoSuchWindow.
func (s *Session) SwitchWindow(ctx context.Context, handle string) error {
	infos, err := s.pageTargets(ctx)
	if err != nil {
		return err
	}
	id := target.ID(handle)
	exists := false
	for _, info := range infos {
		if info.TargetID == id {
			exists = true
			break
		}
	}
	if !exists {
		return fmt.Errorf("%w: %s", driver.ErrNoSuchWindow, handle)
	}

	s.mu.RLock()
	t, attached := s.tabs[id]
	s.mu.RUnlock()

	if !attached {
		t, err = s.openTab(ctx, chromedp.WithTargetID(id))
		if err != nil {
			return fmt.Errorf("attaching to window %s: %w", handle, err)
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			t.cancel()
			return fmt.Errorf("%w: session %s is closed", driver.ErrNoDriver, s.id)
		}
		s.tabs[id] = t
		s.mu.Unlock()
	}

	if err := s.runOn(ctx, t, target.ActivateTarget(id)); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = t
	s.mu.Unlock()
	s.logger.Info("Switched window.", zap.String("window", handle))
	return nil
}
