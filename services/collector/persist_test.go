package collector

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"gridwatch-backend/lib/scrapers/sgcc"
	"gridwatch-backend/lib/usagestore"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openPersistDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// One rejected write costs that one fact or date, never the rest of
// the snapshot.
func TestPersistSnapshotSurvivesRejectedWrites(t *testing.T) {
	ctx := context.Background()
	db := openPersistDB(t)

	_, err := usagestore.New(ctx, db, "1000001")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		CREATE TRIGGER reject_balance BEFORE INSERT ON data1000001
		WHEN NEW.name = 'balance'
		BEGIN SELECT RAISE(ABORT, 'balance writes rejected'); END`)
	require.NoError(t, err)

	balance := 100.5
	yearly := 1000.0
	err = persistSnapshot(ctx, db, sgcc.Snapshot{
		Account:     "1000001",
		Balance:     &balance,
		YearlyUsage: &yearly,
		DailyHistory: []sgcc.DailyRow{
			{Date: "2026-08-28", Usage: 3.2},
			{Date: "08/27/2026", Usage: 4.5},
			{Date: "2026-08-26", Usage: 2.1},
		},
	})
	require.NoError(t, err)

	store, err := usagestore.New(ctx, db, "1000001")
	require.NoError(t, err)
	facts, err := store.Facts(ctx)
	require.NoError(t, err)
	require.NotContains(t, facts, "balance")
	require.Equal(t, "1000001", facts["user"])
	require.Equal(t, "1000.00", facts["yearly_usage"])

	daily, err := store.Daily(ctx)
	require.NoError(t, err)
	require.Equal(t, []usagestore.DailyReading{
		{Date: "2026-08-28", Usage: 3.2},
		{Date: "2026-08-26", Usage: 2.1},
	}, daily)
}
