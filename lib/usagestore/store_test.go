package usagestore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewRejectsNonNumericAccount(t *testing.T) {
	db := openTestDB(t)
	_, err := New(context.Background(), db, "123; DROP TABLE users")
	require.Error(t, err)
	_, err = New(context.Background(), db, "")
	require.Error(t, err)
}

func TestUpsertDailyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store, err := New(ctx, db, "1000001")
	require.NoError(t, err)

	require.NoError(t, store.UpsertDaily(ctx, "2026-08-27", 4.5))
	require.NoError(t, store.UpsertDaily(ctx, "2026-08-27", 4.5))
	require.NoError(t, store.UpsertDaily(ctx, "2026-08-27", 5.0))
	require.NoError(t, store.UpsertDaily(ctx, "2026-08-28", 3.2))

	daily, err := store.Daily(ctx)
	require.NoError(t, err)
	require.Equal(t, []DailyReading{
		{Date: "2026-08-28", Usage: 3.2},
		{Date: "2026-08-27", Usage: 5.0},
	}, daily)
}

// A date sqlite cannot normalize must not slip in under a NULL key,
// which would duplicate on every replay.
func TestUpsertDailyRejectsMalformedDate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store, err := New(ctx, db, "1000001")
	require.NoError(t, err)

	require.NoError(t, store.UpsertDaily(ctx, "2026-08-27", 4.5))
	require.Error(t, store.UpsertDaily(ctx, "08/27/2026", 4.5))
	require.Error(t, store.UpsertDaily(ctx, "08/27/2026", 4.5))

	daily, err := store.Daily(ctx)
	require.NoError(t, err)
	require.Equal(t, []DailyReading{{Date: "2026-08-27", Usage: 4.5}}, daily)
}

func TestUpsertFactOverwrites(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store, err := New(ctx, db, "1000001")
	require.NoError(t, err)

	require.NoError(t, store.UpsertFact(ctx, "balance", "123.45"))
	require.NoError(t, store.UpsertFact(ctx, "balance", "120.00"))
	require.NoError(t, store.UpsertFact(ctx, "user", "1000001"))

	facts, err := store.Facts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"balance": "120.00",
		"user":    "1000001",
	}, facts)
}

func TestAccountsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	a, err := New(ctx, db, "1000001")
	require.NoError(t, err)
	b, err := New(ctx, db, "1000002")
	require.NoError(t, err)

	require.NoError(t, a.UpsertFact(ctx, "balance", "1.00"))
	require.NoError(t, b.UpsertFact(ctx, "balance", "2.00"))

	facts, err := a.Facts(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.00", facts["balance"])

	ids, err := Accounts(ctx, db)
	require.NoError(t, err)
	require.Equal(t, []string{"1000001", "1000002"}, ids)
}
