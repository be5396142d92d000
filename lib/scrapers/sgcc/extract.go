package sgcc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gridwatch-backend/lib/browser"
	"gridwatch-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Extract pulls everything the portal knows about one account. The
// only hard failure is not reaching the account's pages at all; each
// individual reading that cannot be parsed is logged and left absent
// in the snapshot so that one broken widget does not cost the rest.
func (s *Session) Extract(ctx context.Context, account string, index int) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "sgcc.Extract")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", account))

	snap := Snapshot{Account: account}

	if err := s.OpenBalancePage(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "opening balance page")
		return snap, fmt.Errorf("opening balance page for %s: %w", account, err)
	}
	if err := s.selectAccount(ctx, index); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "selecting account")
		return snap, fmt.Errorf("selecting account %s: %w", account, err)
	}
	if got, err := s.CurrentAccount(ctx); err == nil && !strings.Contains(got, account) {
		slog.WarnContext(ctx, "switcher readback does not match requested account",
			"want", account, "got", got)
	}

	if balance, err := s.extractBalance(ctx); err != nil {
		slog.WarnContext(ctx, "balance unavailable", "account", account, "err", err)
	} else {
		snap.Balance = &balance
	}

	if err := s.openUsagePage(ctx, index); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "opening usage page")
		return snap, fmt.Errorf("opening usage page for %s: %w", account, err)
	}

	if usage, charge, err := s.extractYearly(ctx); err != nil {
		slog.WarnContext(ctx, "yearly totals unavailable", "account", account, "err", err)
	} else {
		snap.YearlyUsage = &usage
		snap.YearlyCharge = &charge
	}

	if rows, err := s.extractMonthly(ctx); err != nil {
		slog.WarnContext(ctx, "monthly table unavailable", "account", account, "err", err)
	} else {
		snap.Monthly = rows
	}

	if date, usage, err := s.extractLatestDay(ctx); err != nil {
		slog.WarnContext(ctx, "latest daily reading unavailable", "account", account, "err", err)
	} else {
		snap.LastDailyDate = date
		snap.LastDailyUsage = &usage
	}

	if s.cfg.RetentionDays == 7 || s.cfg.RetentionDays == 30 {
		if rows, err := s.extractDailyHistory(ctx); err != nil {
			slog.WarnContext(ctx, "daily history unavailable", "account", account, "err", err)
		} else {
			snap.DailyHistory = rows
		}
	}

	return snap, nil
}

// openUsagePage navigates to the consumption view and re-selects the
// account, which the view does not carry over from the balance page.
func (s *Session) openUsagePage(ctx context.Context, index int) error {
	if err := s.drv.Navigate(ctx, s.cfg.UsageURL); err != nil {
		return err
	}
	s.page = s.cfg.UsageURL
	if err := s.wait(ctx, browser.Present(selTabsHeader), s.cfg.WaitTimeout); err != nil {
		return fmt.Errorf("usage tabs never appeared: %w", err)
	}
	return s.selectAccount(ctx, index)
}

func (s *Session) extractBalance(ctx context.Context) (float64, error) {
	if err := s.wait(ctx, browser.Visible(selBalanceAmount), s.cfg.WaitTimeout); err != nil {
		return 0, err
	}
	amountEl, err := s.drv.Find(ctx, selBalanceAmount)
	if err != nil {
		return 0, err
	}
	amount, err := amountEl.Text(ctx)
	if err != nil {
		return 0, err
	}

	var status string
	if statusEl, err := s.drv.Find(ctx, selBalanceStatus); err == nil {
		status, _ = statusEl.Text(ctx)
	}

	balance, ok := parseSignedAmount(amount, status)
	if !ok {
		return 0, fmt.Errorf("unparseable balance %q", amount)
	}
	return balance, nil
}

// extractYearly reads the running totals for the year. In January the
// current year has no data yet, so the picker is flipped to the
// previous year first; if that fails we still read whatever is shown.
func (s *Session) extractYearly(ctx context.Context) (usage, charge float64, err error) {
	if err := s.click(ctx, selYearTab); err != nil {
		return 0, 0, err
	}
	s.beat(ctx)

	if s.now().Month() == 1 {
		if err := s.selectPreviousYear(ctx); err != nil {
			slog.WarnContext(ctx, "could not switch to previous year", "err", err)
		}
	}

	if err := s.wait(ctx, browser.Visible(selTotals), s.cfg.WaitTimeout); err != nil {
		return 0, 0, fmt.Errorf("yearly totals never rendered: %w", err)
	}

	usageEl, err := s.drv.Find(ctx, selYearlyUsage)
	if err != nil {
		return 0, 0, err
	}
	usageText, err := usageEl.Text(ctx)
	if err != nil {
		return 0, 0, err
	}
	chargeEl, err := s.drv.Find(ctx, selYearlyCharge)
	if err != nil {
		return 0, 0, err
	}
	chargeText, err := chargeEl.Text(ctx)
	if err != nil {
		return 0, 0, err
	}

	usage, uok := textutil.ParseNumber(usageText)
	charge, cok := textutil.ParseNumber(chargeText)
	if !uok || !cok {
		return 0, 0, fmt.Errorf("unparseable yearly totals %q / %q", usageText, chargeText)
	}
	return usage, charge, nil
}

func (s *Session) selectPreviousYear(ctx context.Context) error {
	if err := s.click(ctx, selYearPicker); err != nil {
		return err
	}
	s.beat(ctx)

	options, err := s.drv.FindAll(ctx, selYearOptions)
	if err != nil {
		return err
	}
	want := fmt.Sprintf("%d", s.now().Year()-1)
	for _, opt := range options {
		text, err := opt.Text(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(text, want) {
			if err := opt.Click(ctx); err != nil {
				return err
			}
			s.beat(ctx)
			return nil
		}
	}
	return fmt.Errorf("year option %s not offered", want)
}

func (s *Session) extractMonthly(ctx context.Context) ([]MonthRow, error) {
	if err := s.wait(ctx, browser.Present(selMonthlyTable), s.cfg.WaitTimeout); err != nil {
		return nil, fmt.Errorf("monthly table never rendered: %w", err)
	}
	table, err := s.drv.Find(ctx, selMonthlyTable)
	if err != nil {
		return nil, err
	}
	raw, err := table.Text(ctx)
	if err != nil {
		return nil, err
	}
	rows := ParseMonthlyGrid(raw)
	if len(rows) == 0 {
		return nil, fmt.Errorf("monthly table rendered but yielded no rows")
	}
	return rows, nil
}

// extractLatestDay reads the newest daily reading off the first row of
// the per-day table.
func (s *Session) extractLatestDay(ctx context.Context) (string, float64, error) {
	if err := s.click(ctx, selDayTab); err != nil {
		return "", 0, err
	}
	if err := s.wait(ctx, browser.Visible(selDailyFirstDate), s.cfg.WaitTimeout); err != nil {
		return "", 0, fmt.Errorf("daily table never rendered: %w", err)
	}

	dateEl, err := s.drv.Find(ctx, selDailyFirstDate)
	if err != nil {
		return "", 0, err
	}
	date, err := dateEl.Text(ctx)
	if err != nil {
		return "", 0, err
	}
	usageEl, err := s.drv.Find(ctx, selDailyFirstUsage)
	if err != nil {
		return "", 0, err
	}
	usageText, err := usageEl.Text(ctx)
	if err != nil {
		return "", 0, err
	}

	usage, ok := textutil.ParseNumber(usageText)
	if !ok {
		return "", 0, fmt.Errorf("unparseable daily usage %q", usageText)
	}
	return strings.TrimSpace(date), usage, nil
}

// extractDailyHistory widens the per-day table to the configured
// retention window and walks its rows. Cells still blank (meter data
// lags a day or two) are skipped, not zeroed.
func (s *Session) extractDailyHistory(ctx context.Context) ([]DailyRow, error) {
	retention := selRetention7
	if s.cfg.RetentionDays == 30 {
		retention = selRetention30
	}
	if err := s.click(ctx, retention); err != nil {
		return nil, err
	}
	s.pause(ctx, s.cfg.ActionWait)

	rows, err := s.drv.FindAll(ctx, selDailyRows)
	if err != nil {
		return nil, err
	}

	var out []DailyRow
	for _, row := range rows {
		dateEl, err := row.Find(ctx, selDailyCellDate)
		if err != nil {
			continue
		}
		date, err := dateEl.Text(ctx)
		if err != nil || strings.TrimSpace(date) == "" {
			continue
		}
		usageEl, err := row.Find(ctx, selDailyCellUsage)
		if err != nil {
			continue
		}
		usageText, err := usageEl.Text(ctx)
		if err != nil {
			continue
		}
		usage, ok := textutil.ParseNumber(usageText)
		if !ok {
			continue
		}
		out = append(out, DailyRow{Date: strings.TrimSpace(date), Usage: usage})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("daily history rendered but yielded no rows")
	}
	return out, nil
}
