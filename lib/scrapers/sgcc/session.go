package sgcc

import (
	"context"
	"log/slog"
	"time"

	"gridwatch-backend/lib/browser"

	"github.com/mazen160/go-random"
)

// Session is one authenticated browsing context. It is created by
// Gate.Login, exclusively owned by a single run, and useless once End
// is called. All portal operations hang off of it.
type Session struct {
	drv           browser.Driver
	cfg           Config
	authenticated bool
	page          string

	// now is swappable so January-only behavior is reachable in tests
	now func() time.Time
}

func (s *Session) Authenticated() bool {
	return s.authenticated
}

// Page reports the logical page the session last navigated to.
func (s *Session) Page() string {
	return s.page
}

func (s *Session) PageSource(ctx context.Context) (string, error) {
	return s.drv.PageSource(ctx)
}

func (s *Session) Refresh(ctx context.Context) error {
	return s.drv.Refresh(ctx)
}

// End releases the underlying browser session. The Session must not be
// used afterwards.
func (s *Session) End(ctx context.Context) error {
	s.authenticated = false
	return s.drv.Quit(ctx)
}

func (s *Session) wait(ctx context.Context, cond browser.Condition, timeout time.Duration) error {
	return browser.WaitUntil(ctx, s.drv, cond, browser.WaitOptions{
		Timeout: timeout,
		Poll:    s.cfg.Poll,
	})
}

// shortWait is the budget for secondary waits (overlays, dropdown
// panes) that should give up well before the main element timeout.
func (s *Session) shortWait() time.Duration {
	if s.cfg.WaitTimeout < 5*time.Second {
		return s.cfg.WaitTimeout
	}
	return 5 * time.Second
}

// click waits out any loading overlay, then clicks the selector. An
// overlay that outlives its budget is clicked through anyway; it may
// never have been shown at all.
func (s *Session) click(ctx context.Context, selector string) error {
	if err := s.wait(ctx, browser.Invisible(selLoadingMask), s.shortWait()); err != nil {
		slog.DebugContext(ctx, "loading overlay still up, clicking anyway", "selector", selector)
	}
	el, err := s.drv.Find(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(ctx)
}

// pause sleeps for roughly d with a little random spread on top.
// Perfectly regular timing between UI events is what the portal's
// anti-bot heuristics key on.
func (s *Session) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	extraMs, err := random.IntRange(0, int(d/(4*time.Millisecond))+1)
	if err != nil {
		extraMs = 0
	}
	select {
	case <-time.After(d + time.Duration(extraMs)*time.Millisecond):
	case <-ctx.Done():
	}
}

// beat is the sub-second pacing between adjacent interactions.
func (s *Session) beat(ctx context.Context) {
	s.pause(ctx, s.cfg.ActionWait/3)
}

// selectAccount drives the account switcher to the index-th entry.
func (s *Session) selectAccount(ctx context.Context, index int) error {
	// a pending confirmation dialog blocks the switcher
	if _, err := s.drv.Find(ctx, selSwitchConfirm); err == nil {
		if err := s.click(ctx, selSwitchConfirm); err != nil {
			slog.WarnContext(ctx, "failed to dismiss confirm dialog", "err", err)
		}
	}
	if err := s.click(ctx, selAccountSuffix); err != nil {
		return err
	}
	if err := s.click(ctx, selAccountOption(index)); err != nil {
		return err
	}
	// the switcher updates its internal state asynchronously
	s.beat(ctx)
	return nil
}

// CurrentAccount reads back the account id the switcher actually
// landed on.
func (s *Session) CurrentAccount(ctx context.Context) (string, error) {
	el, err := s.drv.Find(ctx, selCurrentAccount)
	if err != nil {
		return "", err
	}
	return el.Text(ctx)
}

// OpenBalancePage navigates to the balance view and waits for the
// account selector to come up, which is a precondition for both
// enumeration and extraction.
func (s *Session) OpenBalancePage(ctx context.Context) error {
	if err := s.drv.Navigate(ctx, s.cfg.BalanceURL); err != nil {
		return err
	}
	s.page = s.cfg.BalanceURL
	if err := s.wait(ctx, browser.Present(selAccountSelect), s.cfg.WaitTimeout); err != nil {
		slog.WarnContext(ctx, "account selector not present on balance page", "err", err)
	}
	return nil
}
