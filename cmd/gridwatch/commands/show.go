package commands

import (
	"fmt"
	"os"
	"sort"

	"gridwatch-backend/lib/serviceutil"
	"gridwatch-backend/lib/usagestore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showDailyLimit *int

func init() {
	showDailyLimit = showCmd.Flags().Int("days", 7, "How many stored daily readings to print.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [account]",
	Short: "Prints stored readings; without an account it lists the accounts in the database.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		db, err := cfg.Collector.Database.OpenDB()
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer db.Close()

		ctx := cmd.Context()
		if len(args) == 0 {
			accounts, err := usagestore.Accounts(ctx, db)
			if err != nil {
				serviceutil.Fatal("failed to list accounts", err)
			}
			for _, id := range accounts {
				fmt.Println(id)
			}
			return
		}

		store, err := usagestore.New(ctx, db, args[0])
		if err != nil {
			serviceutil.Fatal("failed to open account store", err)
		}

		facts, err := store.Facts(ctx)
		if err != nil {
			serviceutil.Fatal("failed to read facts", err)
		}
		names := make([]string, 0, len(facts))
		for name := range facts {
			names = append(names, name)
		}
		sort.Strings(names)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Value"})
		for _, name := range names {
			t.AppendRow(table.Row{name, facts[name]})
		}
		t.Render()

		daily, err := store.Daily(ctx)
		if err != nil {
			serviceutil.Fatal("failed to read daily usage", err)
		}
		if len(daily) > *showDailyLimit {
			daily = daily[:*showDailyLimit]
		}

		t = table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Usage (kWh)"})
		for _, day := range daily {
			t.AppendRow(table.Row{day.Date, day.Usage})
		}
		t.Render()
	},
}
