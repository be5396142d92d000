package collector

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronSlog adapts the cron logger interface onto slog.
type cronSlog struct{}

func (cronSlog) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronSlog) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}

// RunDaemon performs one pass immediately and then keeps running on
// the given cron schedule until the context is canceled. A pass that
// overruns its slot suppresses the next one instead of stacking up.
func (s *Service) RunDaemon(ctx context.Context, schedule string) error {
	if err := s.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "initial run failed", "err", err)
	}

	logger := cronSlog{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	_, err := c.AddFunc(schedule, func() {
		if err := s.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "scheduled run failed", "err", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
