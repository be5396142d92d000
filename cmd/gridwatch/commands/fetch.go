package commands

import (
	"log/slog"
	"time"

	"gridwatch-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var fetchInteractive *bool

func init() {
	fetchInteractive = fetchCmd.Flags().Bool("interactive", true,
		"Ask on the terminal when account discovery fails instead of giving up.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Runs one full acquisition pass: login, discover accounts, extract and store readings.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		service := buildService(cfg, *fetchInteractive)

		t1 := time.Now()
		if err := service.Run(cmd.Context()); err != nil {
			serviceutil.Fatal("acquisition run failed", err)
		}
		slog.Info("acquisition time", "seconds", time.Since(t1).Seconds())
	},
}
