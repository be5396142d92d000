package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSucceedsOnNthAttempt(t *testing.T) {
	ctx := context.Background()

	value, attempts, err := Do(ctx, Options{Name: "test", Attempts: 5}, func(ctx context.Context, attempt int) Outcome[string] {
		if attempt < 3 {
			return Again[string](fmt.Errorf("attempt %d misjudged", attempt))
		}
		return Success("ok")
	})
	require.NoError(t, err)
	require.Equal(t, "ok", value)
	require.Equal(t, 3, attempts)
}

func TestExhaustsBoundedAttempts(t *testing.T) {
	ctx := context.Background()

	calls := 0
	_, attempts, err := Do(ctx, Options{Name: "test", Attempts: 3}, func(ctx context.Context, attempt int) Outcome[int] {
		calls++
		return Again[int](errors.New("nope"))
	})
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 3, calls)
	require.Equal(t, 3, attempts)
}

func TestAbortStopsImmediately(t *testing.T) {
	ctx := context.Background()

	fatal := errors.New("credentials rejected")
	calls := 0
	_, attempts, err := Do(ctx, Options{Name: "test", Attempts: 5}, func(ctx context.Context, attempt int) Outcome[int] {
		calls++
		return Abort[int](fatal)
	})
	require.ErrorIs(t, err, fatal)
	require.NotErrorIs(t, err, ErrExhausted)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, attempts)
}

func TestOnRetryRunsBetweenAttemptsOnly(t *testing.T) {
	ctx := context.Background()

	retries := 0
	_, _, err := Do(ctx, Options{
		Name:     "test",
		Attempts: 3,
		OnRetry: func(ctx context.Context, attempt int, reason error) {
			retries++
		},
	}, func(ctx context.Context, attempt int) Outcome[int] {
		return Again[int](errors.New("nope"))
	})
	require.ErrorIs(t, err, ErrExhausted)
	// no refresh after the final attempt
	require.Equal(t, 2, retries)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Do(ctx, Options{Name: "test", Attempts: 3}, func(ctx context.Context, attempt int) Outcome[int] {
		t.Fatal("attempt body should not run")
		return Success(0)
	})
	require.ErrorIs(t, err, context.Canceled)
}
