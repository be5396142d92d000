package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrExhausted is returned by Do once every allowed attempt has been
// consumed without a successful outcome. The last retryable reason is
// wrapped so callers can still inspect it.
var ErrExhausted = errors.New("retry attempts exhausted")

type status int

const (
	statusDone status = iota
	statusAgain
	statusAbort
)

// Outcome is the explicit result of a single attempt. The portal we
// scrape fails in two very different ways: transiently (a challenge was
// misjudged, a dropdown didn't render) and terminally (credentials
// rejected, session gone). Attempt bodies must say which one happened
// instead of smuggling the distinction through error types.
type Outcome[T any] struct {
	value  T
	reason error
	status status
}

func Success[T any](value T) Outcome[T] {
	return Outcome[T]{value: value, status: statusDone}
}

// Again marks the attempt as failed but worth repeating.
func Again[T any](reason error) Outcome[T] {
	return Outcome[T]{reason: reason, status: statusAgain}
}

// Abort marks the attempt as failed in a way more attempts cannot fix.
func Abort[T any](reason error) Outcome[T] {
	return Outcome[T]{reason: reason, status: statusAbort}
}

type Options struct {
	// Name shows up in log lines, not in behavior.
	Name string
	// Attempts is the upper bound on calls to the attempt body.
	// Values below 1 are treated as 1. Nothing here retries forever.
	Attempts int
	// Wait is slept between a retryable failure and the next attempt.
	Wait time.Duration
	// OnRetry runs after a retryable failure, before the wait.
	// Used for page refreshes and challenge re-submissions.
	OnRetry func(ctx context.Context, attempt int, reason error)
}

// Do runs fn until it succeeds, aborts, exhausts opts.Attempts, or the
// context is canceled. It reports the value, the number of attempts
// actually consumed, and the terminal error if any.
func Do[T any](ctx context.Context, opts Options, fn func(ctx context.Context, attempt int) Outcome[T]) (T, int, error) {
	var zero T

	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastReason error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		out := fn(ctx, attempt)
		switch out.status {
		case statusDone:
			return out.value, attempt, nil
		case statusAbort:
			return zero, attempt, out.reason
		}

		lastReason = out.reason
		slog.WarnContext(
			ctx, "attempt failed",
			"op", opts.Name,
			"attempt", attempt,
			"limit", attempts,
			"reason", out.reason,
		)

		if attempt == attempts {
			break
		}
		if opts.OnRetry != nil {
			opts.OnRetry(ctx, attempt, out.reason)
		}
		if opts.Wait > 0 {
			select {
			case <-time.After(opts.Wait):
			case <-ctx.Done():
				return zero, attempt, ctx.Err()
			}
		}
	}

	if lastReason != nil {
		return zero, attempts, fmt.Errorf("%w: %s: %w", ErrExhausted, opts.Name, lastReason)
	}
	return zero, attempts, fmt.Errorf("%w: %s", ErrExhausted, opts.Name)
}
