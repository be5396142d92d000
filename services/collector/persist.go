package collector

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"

	"gridwatch-backend/lib/scrapers/sgcc"
	"gridwatch-backend/lib/usagestore"
)

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// persistSnapshot reconciles one extraction pass into the store.
// Absent readings are logged and left alone so that a partial pass
// never clobbers values from an earlier, more complete one, and a
// rejected write costs only that one fact or date, never the rest of
// the snapshot. Only failing to open the account's tables aborts.
func persistSnapshot(ctx context.Context, db *sql.DB, snap sgcc.Snapshot) error {
	store, err := usagestore.New(ctx, db, snap.Account)
	if err != nil {
		return err
	}

	putFact := func(name, value string) {
		if err := store.UpsertFact(ctx, name, value); err != nil {
			slog.ErrorContext(ctx, "fact not stored",
				"account", snap.Account, "name", name, "err", err)
		}
	}

	putFact("user", snap.Account)

	if snap.Balance != nil {
		putFact("balance", formatAmount(*snap.Balance))
	} else {
		slog.InfoContext(ctx, "balance absent, keeping stored value", "account", snap.Account)
	}

	if snap.LastDailyDate != "" && snap.LastDailyUsage != nil {
		putFact("daily_date", snap.LastDailyDate)
		putFact("daily_usage", formatAmount(*snap.LastDailyUsage))
	} else {
		slog.InfoContext(ctx, "latest daily reading absent, keeping stored value", "account", snap.Account)
	}

	if snap.YearlyUsage != nil {
		putFact("yearly_usage", formatAmount(*snap.YearlyUsage))
	}
	if snap.YearlyCharge != nil {
		putFact("yearly_charge", formatAmount(*snap.YearlyCharge))
	}
	if snap.YearlyUsage == nil || snap.YearlyCharge == nil {
		slog.InfoContext(ctx, "yearly totals absent, keeping stored values", "account", snap.Account)
	}

	for _, row := range snap.Monthly {
		putFact(row.Label+"usage", formatAmount(row.Usage))
		putFact(row.Label+"charge", formatAmount(row.Charge))
	}
	if current, ok := snap.CurrentMonth(); ok {
		putFact("month_usage", formatAmount(current.Usage))
		putFact("month_charge", formatAmount(current.Charge))
	} else {
		slog.InfoContext(ctx, "monthly table absent, keeping stored values", "account", snap.Account)
	}

	for _, day := range snap.DailyHistory {
		if err := store.UpsertDaily(ctx, day.Date, day.Usage); err != nil {
			slog.ErrorContext(ctx, "daily reading not stored",
				"account", snap.Account, "date", day.Date, "err", err)
		}
	}
	return nil
}
