package main

import (
	"log/slog"
	"os"

	"gridwatch-backend/cmd/gridwatch/commands"
	"gridwatch-backend/lib/serviceutil"
	"gridwatch-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	if _, err := telemetry.SetupFromEnv(ctx, "gridwatch"); err != nil && !os.IsNotExist(err) {
		slog.Warn("telemetry setup failed", "err", err)
	}
	telemetry.InitSlog(true)

	commands.ExecuteContext(ctx)
}
