package sgcc

import (
	"log/slog"
	"strconv"
	"strings"

	"gridwatch-backend/lib/textutil"
)

// ParseMonthlyGrid reshapes the raw text of the monthly table into
// rows. The table renders as one cell per line; a sentinel cell marks
// the highest-usage month and must be removed before reshaping or
// every later row shifts by one. A row whose figures do not parse is
// dropped rather than emitted with zero in place of the reading.
func ParseMonthlyGrid(raw string) []MonthRow {
	var cells []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == monthlySentinel {
			continue
		}
		cells = append(cells, line)
	}

	rows := make([]MonthRow, 0, len(cells)/3)
	for i := 0; i+2 < len(cells); i += 3 {
		usage, uok := textutil.ParseNumber(cells[i+1])
		charge, cok := textutil.ParseNumber(cells[i+2])
		if !uok || !cok {
			slog.Warn("skipping monthly row with unparseable figures",
				"label", cells[i], "usage", cells[i+1], "charge", cells[i+2])
			continue
		}
		rows = append(rows, MonthRow{Label: cells[i], Usage: usage, Charge: charge})
	}
	return rows
}

// monthOrdinal maps a month label to a sortable ordinal. Labels carry
// either a year and month ("2026年08月") or a bare month ("08月");
// bare months sort among themselves.
func monthOrdinal(label string) (int, bool) {
	runs := textutil.DigitRuns(label)
	switch len(runs) {
	case 0:
		return 0, false
	case 1:
		m, err := strconv.Atoi(runs[0])
		if err != nil || m < 1 || m > 12 {
			return 0, false
		}
		return m, true
	default:
		year, err1 := strconv.Atoi(runs[0])
		month, err2 := strconv.Atoi(runs[1])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return 0, false
		}
		return year*12 + month, true
	}
}

// parseSignedAmount interprets the balance readout: the number widget
// always shows a magnitude, and a separate status line says whether
// the account is in arrears.
func parseSignedAmount(amount, status string) (float64, bool) {
	v, ok := textutil.ParseNumber(amount)
	if !ok {
		return 0, false
	}
	if strings.Contains(status, arrearsMarker) {
		v = -v
	}
	return v, true
}
