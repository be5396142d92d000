package sgcc

import (
	"context"
	"testing"
	"time"

	"gridwatch-backend/lib/browser/browsertest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func dailyRow(date, usage string) *browsertest.Element {
	return browsertest.Text("").
		WithChild(selDailyCellDate, browsertest.Text(date)).
		WithChild(selDailyCellUsage, browsertest.Text(usage))
}

// stageAccountPages puts up both portal pages for a single-account
// user with a full set of readings.
func stageAccountPages(f *browsertest.Fake) {
	f.Put(selAccountSelect, browsertest.Text(""))
	f.Put(selAccountSuffix, browsertest.Text(""))
	f.Put(selAccountOption(0), browsertest.Text(""))

	f.Put(selBalanceAmount, browsertest.Text("123.45"))
	f.Put(selBalanceStatus, browsertest.Text("结余"))

	f.Put(selTabsHeader, browsertest.Text(""))
	f.Put(selYearTab, browsertest.Text(""))
	f.Put(selTotals, browsertest.Text(""))
	f.Put(selYearlyUsage, browsertest.Text("1,234.5"))
	f.Put(selYearlyCharge, browsertest.Text("678.9"))
	f.Put(selMonthlyTable, browsertest.Text("2026年07月\n100\n50\nMAX\n2026年08月\n120\n60"))

	f.Put(selDayTab, browsertest.Text(""))
	f.Put(selDailyFirstDate, browsertest.Text("2026-08-28"))
	f.Put(selDailyFirstUsage, browsertest.Text("3.21"))
	f.Put(selRetention7, browsertest.Text(""))
	f.Put(selDailyRows,
		dailyRow("2026-08-28", "3.21"),
		dailyRow("", ""), // meter data not in yet
		dailyRow("2026-08-27", "4.56"),
	)
}

func extractSession(f *browsertest.Fake) *Session {
	sess := testSession(f)
	sess.now = func() time.Time {
		return time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	}
	return sess
}

func TestExtractFullSnapshot(t *testing.T) {
	f := browsertest.New()
	stageAccountPages(f)

	snap, err := extractSession(f).Extract(context.Background(), "1000001", 0)
	require.NoError(t, err)
	require.Equal(t, "1000001", snap.Account)

	require.NotNil(t, snap.Balance)
	require.Equal(t, 123.45, *snap.Balance)
	require.NotNil(t, snap.YearlyUsage)
	require.Equal(t, 1234.5, *snap.YearlyUsage)
	require.NotNil(t, snap.YearlyCharge)
	require.Equal(t, 678.9, *snap.YearlyCharge)

	require.Empty(t, cmp.Diff([]MonthRow{
		{Label: "2026年07月", Usage: 100, Charge: 50},
		{Label: "2026年08月", Usage: 120, Charge: 60},
	}, snap.Monthly))

	require.Equal(t, "2026-08-28", snap.LastDailyDate)
	require.NotNil(t, snap.LastDailyUsage)
	require.Equal(t, 3.21, *snap.LastDailyUsage)

	require.Equal(t, []DailyRow{
		{Date: "2026-08-28", Usage: 3.21},
		{Date: "2026-08-27", Usage: 4.56},
	}, snap.DailyHistory)
}

func TestExtractArrearsNegatesBalance(t *testing.T) {
	f := browsertest.New()
	stageAccountPages(f)
	f.Put(selBalanceAmount, browsertest.Text("56.78"))
	f.Put(selBalanceStatus, browsertest.Text("欠费"))

	snap, err := extractSession(f).Extract(context.Background(), "1000001", 0)
	require.NoError(t, err)
	require.NotNil(t, snap.Balance)
	require.Equal(t, -56.78, *snap.Balance)
}

// Losing one widget costs that one reading and nothing else.
func TestExtractToleratesMissingBalance(t *testing.T) {
	f := browsertest.New()
	stageAccountPages(f)
	f.Remove(selBalanceAmount)

	snap, err := extractSession(f).Extract(context.Background(), "1000001", 0)
	require.NoError(t, err)
	require.Nil(t, snap.Balance)
	require.NotNil(t, snap.YearlyUsage)
	require.NotEmpty(t, snap.Monthly)
	require.NotEmpty(t, snap.DailyHistory)
}

func TestExtractToleratesMissingTables(t *testing.T) {
	f := browsertest.New()
	stageAccountPages(f)
	f.Remove(selMonthlyTable)
	f.Remove(selDailyFirstDate)
	f.Remove(selDailyRows)

	snap, err := extractSession(f).Extract(context.Background(), "1000001", 0)
	require.NoError(t, err)
	require.NotNil(t, snap.Balance)
	require.Empty(t, snap.Monthly)
	require.Empty(t, snap.LastDailyDate)
	require.Nil(t, snap.LastDailyUsage)
	require.Empty(t, snap.DailyHistory)
}

// Not reaching the account switcher at all is the one hard failure.
func TestExtractFailsWithoutAccountSwitcher(t *testing.T) {
	f := browsertest.New()
	stageAccountPages(f)
	f.Remove(selAccountSuffix)

	_, err := extractSession(f).Extract(context.Background(), "1000001", 0)
	require.Error(t, err)
}

// The monthly table renders a beat after the year tab switch; the
// reader waits for it instead of sampling the page once.
func TestExtractWaitsForMonthlyTable(t *testing.T) {
	f := browsertest.New()
	stageAccountPages(f)
	f.Remove(selMonthlyTable)
	yearTab := browsertest.Text("")
	yearTab.OnClick = func() {
		time.AfterFunc(10*time.Millisecond, func() {
			f.Put(selMonthlyTable, browsertest.Text("2026年08月\n120\n60"))
		})
	}
	f.Put(selYearTab, yearTab)

	snap, err := extractSession(f).Extract(context.Background(), "1000001", 0)
	require.NoError(t, err)
	require.Equal(t, []MonthRow{{Label: "2026年08月", Usage: 120, Charge: 60}}, snap.Monthly)
}

func TestExtractSwitchesToPreviousYearInJanuary(t *testing.T) {
	f := browsertest.New()
	stageAccountPages(f)
	f.Put(selYearPicker, browsertest.Text(""))
	prev := browsertest.Text("2025")
	f.Put(selYearOptions, browsertest.Text("2026"), prev)

	sess := testSession(f)
	sess.now = func() time.Time {
		return time.Date(2026, time.January, 2, 9, 0, 0, 0, time.UTC)
	}
	_, err := sess.Extract(context.Background(), "1000001", 0)
	require.NoError(t, err)
	require.Equal(t, 1, prev.Clicks)
}
