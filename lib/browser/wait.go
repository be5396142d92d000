package browser

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrWaitTimeout signals that a condition did not hold within its
// budget. It is deliberately not fatal; callers decide whether to treat
// it as a failure, retry, or fall back to another strategy.
var ErrWaitTimeout = errors.New("wait condition timed out")

// Condition is a single poll of some page predicate. A false result
// without an error means "not yet"; errors other than ErrNotFound are
// surfaced to the caller immediately.
type Condition func(ctx context.Context, d Driver) (bool, error)

type WaitOptions struct {
	Timeout time.Duration
	// Poll defaults to 500ms, tuned for constrained hardware: slow
	// enough to leave the CPU alone, fast enough to catch UI changes.
	Poll time.Duration
}

const DefaultPoll = 500 * time.Millisecond

// WaitUntil blocks until cond holds, the timeout elapses, or the
// context is canceled.
func WaitUntil(ctx context.Context, d Driver, cond Condition, opts WaitOptions) error {
	poll := opts.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}

	deadline := time.Now().Add(opts.Timeout)
	for {
		ok, err := cond(ctx, d)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrWaitTimeout
		}
		select {
		case <-time.After(poll):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Visible holds once the selector resolves to a displayed element.
func Visible(selector string) Condition {
	return func(ctx context.Context, d Driver) (bool, error) {
		el, err := d.Find(ctx, selector)
		if err != nil {
			return false, err
		}
		return el.Displayed(ctx)
	}
}

// Present holds once the selector resolves at all, displayed or not.
func Present(selector string) Condition {
	return func(ctx context.Context, d Driver) (bool, error) {
		_, err := d.Find(ctx, selector)
		if err != nil {
			return false, err
		}
		return true, nil
	}
}

// Invisible holds while the selector is missing or hidden. Used to sit
// out loading overlays before clicking anything underneath them.
func Invisible(selector string) Condition {
	return func(ctx context.Context, d Driver) (bool, error) {
		el, err := d.Find(ctx, selector)
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		displayed, err := el.Displayed(ctx)
		if err != nil {
			return false, err
		}
		return !displayed, nil
	}
}

// URLChanged holds once the session has navigated away from `from`.
func URLChanged(from string) Condition {
	return func(ctx context.Context, d Driver) (bool, error) {
		current, err := d.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return current != from, nil
	}
}

// TextPresent holds once the selector resolves to an element whose text
// contains substr.
func TextPresent(selector, substr string) Condition {
	return func(ctx context.Context, d Driver) (bool, error) {
		el, err := d.Find(ctx, selector)
		if err != nil {
			return false, err
		}
		text, err := el.Text(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(text, substr), nil
	}
}
