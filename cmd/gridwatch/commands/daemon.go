package commands

import (
	"context"
	"errors"
	"log/slog"

	"gridwatch-backend/lib/serviceutil"
	"gridwatch-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var daemonSchedule *string

func init() {
	daemonSchedule = daemonCmd.Flags().String("schedule", "",
		"Cron expression overriding the configured schedule.")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--schedule <cron expression>]",
	Short: "Runs acquisition passes on a schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		schedule := cfg.Schedule
		if *daemonSchedule != "" {
			schedule = *daemonSchedule
		}

		// unattended: no terminal to escalate to
		service := buildService(cfg, false)
		telemetry.InstrumentPerfStats(cmd.Context())

		slog.Info("starting daemon", "schedule", schedule)
		err := service.RunDaemon(cmd.Context(), schedule)
		if err != nil && !errors.Is(err, context.Canceled) {
			serviceutil.Fatal("daemon stopped", err)
		}
	},
}
