package sgcc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMonthlyGrid(t *testing.T) {
	rows := ParseMonthlyGrid("2026年01月\n100\n50\nMAX\n2026年02月\n120\n60")
	require.Equal(t, []MonthRow{
		{Label: "2026年01月", Usage: 100, Charge: 50},
		{Label: "2026年02月", Usage: 120, Charge: 60},
	}, rows)
}

func TestParseMonthlyGridBlankLines(t *testing.T) {
	rows := ParseMonthlyGrid("\n2026年07月\n\n 81.5 \n42.35\n")
	require.Equal(t, []MonthRow{{Label: "2026年07月", Usage: 81.5, Charge: 42.35}}, rows)
}

// A month whose figures have not posted yet renders placeholder text;
// that row is dropped, never stored as zero usage.
func TestParseMonthlyGridDropsUnparseableRows(t *testing.T) {
	rows := ParseMonthlyGrid("2026年07月\n--\n50\n2026年08月\n120\n60")
	require.Equal(t, []MonthRow{{Label: "2026年08月", Usage: 120, Charge: 60}}, rows)
}

func TestParseMonthlyGridEmpty(t *testing.T) {
	require.Empty(t, ParseMonthlyGrid(""))
	require.Empty(t, ParseMonthlyGrid("MAX"))
}

func TestCurrentMonthPicksLatestByLabel(t *testing.T) {
	snap := Snapshot{Monthly: []MonthRow{
		{Label: "2026年08月", Usage: 120},
		{Label: "2026年03月", Usage: 100},
	}}
	row, ok := snap.CurrentMonth()
	require.True(t, ok)
	require.Equal(t, "2026年08月", row.Label)
}

func TestCurrentMonthFallsBackToLastRow(t *testing.T) {
	snap := Snapshot{Monthly: []MonthRow{
		{Label: "first", Usage: 1},
		{Label: "last", Usage: 2},
	}}
	row, ok := snap.CurrentMonth()
	require.True(t, ok)
	require.Equal(t, "last", row.Label)

	_, ok = Snapshot{}.CurrentMonth()
	require.False(t, ok)
}

func TestMonthOrdinal(t *testing.T) {
	ord, ok := monthOrdinal("2026年08月")
	require.True(t, ok)
	require.Equal(t, 2026*12+8, ord)

	ord, ok = monthOrdinal("08月")
	require.True(t, ok)
	require.Equal(t, 8, ord)

	_, ok = monthOrdinal("总计")
	require.False(t, ok)

	_, ok = monthOrdinal("2026年13月")
	require.False(t, ok)
}

func TestParseSignedAmount(t *testing.T) {
	v, ok := parseSignedAmount("1,234.56", "结余")
	require.True(t, ok)
	require.Equal(t, 1234.56, v)

	v, ok = parseSignedAmount("56.78", "欠费")
	require.True(t, ok)
	require.Equal(t, -56.78, v)

	_, ok = parseSignedAmount("--", "")
	require.False(t, ok)
}
