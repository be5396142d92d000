package sgcc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gridwatch-backend/lib/browser"
	"gridwatch-backend/lib/htmlutil"
	"gridwatch-backend/lib/retry"
	"gridwatch-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Accounts discovers the electricity account ids bound to the logged
// in user. The interactive account switcher is authoritative when it
// renders; the static page text is the fallback for layouts where the
// switcher never shows up. Wraps ErrNoAccounts when both come up
// empty after all attempts.
func (s *Session) Accounts(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "sgcc.Accounts")
	defer span.End()

	ids, _, err := retry.Do(ctx, retry.Options{
		Name:     "account enumeration",
		Attempts: 3,
		Wait:     s.cfg.ActionWait,
		OnRetry: func(ctx context.Context, attempt int, reason error) {
			if err := s.drv.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "refresh failed", "err", err)
			}
		},
	}, func(ctx context.Context, attempt int) retry.Outcome[[]string] {
		ids := s.dropdownAccounts(ctx)
		if len(ids) == 0 {
			ids = s.staticAccounts(ctx)
		}
		if len(ids) == 0 {
			return retry.Again[[]string](errors.New("no account ids on page"))
		}
		return retry.Success(dedupe(ids))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enumeration exhausted")
		return nil, fmt.Errorf("%w: %v", ErrNoAccounts, err)
	}

	span.SetAttributes(attribute.Int("accounts.count", len(ids)))
	return ids, nil
}

// dropdownAccounts opens the account switcher and reads the trailing
// digits out of each entry.
func (s *Session) dropdownAccounts(ctx context.Context) []string {
	if err := s.click(ctx, selAccountSelectInput); err != nil {
		slog.DebugContext(ctx, "account switcher not clickable", "err", err)
		return nil
	}
	if err := s.wait(ctx, browser.Visible(selSelectDropdownList), s.shortWait()); err != nil {
		slog.DebugContext(ctx, "switcher dropdown never opened", "err", err)
		return nil
	}

	items, err := s.drv.FindAll(ctx, selSelectDropdownItem)
	if err != nil {
		return nil
	}
	var ids []string
	for _, item := range items {
		text, err := item.Text(ctx)
		if err != nil {
			continue
		}
		if id := textutil.TrailingDigits(text); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// staticAccounts scans the rendered page for labeled account numbers.
func (s *Session) staticAccounts(ctx context.Context) []string {
	source, err := s.drv.PageSource(ctx)
	if err != nil {
		slog.DebugContext(ctx, "reading page source", "err", err)
		return nil
	}
	doc, err := htmlutil.Parse(source)
	if err != nil {
		slog.DebugContext(ctx, "parsing page source", "err", err)
		return nil
	}

	values := htmlutil.LabeledValues(doc, func(label string) bool {
		return textutil.MatchLabel(label, accountLabelText)
	})
	var ids []string
	for _, v := range values {
		if id := textutil.LeadingDigits(v); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
