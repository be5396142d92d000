// Package collector orchestrates full acquisition runs: login,
// account discovery, per-account extraction and persistence. One
// account failing never takes down the rest of the run.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gridwatch-backend/lib/browser"
	"gridwatch-backend/lib/captcha"
	configlibsql "gridwatch-backend/lib/configutil/libsql"
	"gridwatch-backend/lib/scrapers/sgcc"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/collector")

type Config struct {
	Portal   sgcc.Config         `json:"portal"`
	Database configlibsql.Struct `json:"database"`

	// StoreEnabled gates persistence; a disabled store turns runs
	// into dry runs that only log what they saw.
	StoreEnabled bool `json:"store_enabled"`
	// IgnoreAccounts lists account ids to skip entirely.
	IgnoreAccounts []string `json:"ignore_accounts"`
	// InspectWait is how long ChoiceInspect leaves the browser alone.
	InspectWait time.Duration `json:"inspect_wait"`
	// DumpDir receives page-source dumps from ChoiceDump.
	DumpDir string `json:"dump_dir"`
}

// Service runs acquisition passes. The browser comes from a factory
// so every pass gets a fresh session and daemon mode never reuses a
// wedged one.
type Service struct {
	newDriver func(ctx context.Context) (browser.Driver, error)
	estimator captcha.Estimator
	codes     sgcc.CodePrompt
	escalator Escalator
	cfg       Config
}

func New(
	newDriver func(ctx context.Context) (browser.Driver, error),
	estimator captcha.Estimator,
	codes sgcc.CodePrompt,
	escalator Escalator,
	cfg Config,
) *Service {
	if cfg.InspectWait <= 0 {
		cfg.InspectWait = time.Minute
	}
	return &Service{
		newDriver: newDriver,
		estimator: estimator,
		codes:     codes,
		escalator: escalator,
		cfg:       cfg,
	}
}

// Run performs one full acquisition pass. It fails outright only when
// login or account discovery fails, or when every discovered account
// fails to process.
func (s *Service) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "collector.Run")
	defer span.End()

	drv, err := s.newDriver(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "starting browser")
		return fmt.Errorf("starting browser: %w", err)
	}

	gate := sgcc.NewGate(drv, s.estimator, s.codes, s.cfg.Portal)
	sess, attempts, err := gate.Login(ctx)
	if err != nil {
		drv.Quit(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "login")
		return err
	}
	defer sess.End(ctx)
	span.SetAttributes(attribute.Int("login.attempts", attempts))

	if err := sess.OpenBalancePage(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "opening balance page")
		return err
	}

	accounts, err := s.enumerate(ctx, sess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "account discovery")
		return err
	}
	slog.InfoContext(ctx, "discovered accounts", "count", len(accounts))
	span.SetAttributes(attribute.Int("accounts.count", len(accounts)))

	processed, attempted := 0, 0
	for i, account := range accounts {
		if slices.Contains(s.cfg.IgnoreAccounts, account) {
			slog.InfoContext(ctx, "skipping ignored account", "account", account)
			continue
		}
		attempted++
		if err := s.processAccount(ctx, sess, account, i); err != nil {
			slog.ErrorContext(ctx, "account failed, moving on",
				"account", account, "err", err)
			continue
		}
		processed++
	}

	if attempted > 0 && processed == 0 {
		err := fmt.Errorf("all %d accounts failed", attempted)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no account processed")
		return err
	}
	slog.InfoContext(ctx, "run complete", "processed", processed, "skipped", len(accounts)-attempted)
	return nil
}

// enumerate discovers accounts, escalating to the operator when the
// scraper's own retries come up empty.
func (s *Service) enumerate(ctx context.Context, sess *sgcc.Session) ([]string, error) {
	for {
		accounts, err := sess.Accounts(ctx)
		if err == nil {
			return accounts, nil
		}
		if s.escalator == nil {
			return nil, err
		}
		slog.WarnContext(ctx, "account discovery failed, asking operator", "err", err)

	ask:
		for {
			choice, askErr := s.escalator.Ask(ctx)
			if askErr != nil {
				return nil, fmt.Errorf("escalation: %w", askErr)
			}
			switch choice {
			case ChoiceRetry:
				break ask
			case ChoiceRefresh:
				if err := sess.Refresh(ctx); err != nil {
					slog.WarnContext(ctx, "refresh failed", "err", err)
				}
				break ask
			case ChoiceDump:
				if path, dumpErr := s.dumpPage(ctx, sess); dumpErr != nil {
					slog.WarnContext(ctx, "page dump failed", "err", dumpErr)
				} else {
					slog.InfoContext(ctx, "page dumped", "path", path)
				}
			case ChoiceInspect:
				slog.InfoContext(ctx, "leaving browser for inspection", "wait", s.cfg.InspectWait)
				select {
				case <-time.After(s.cfg.InspectWait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			case ChoiceQuit:
				return nil, fmt.Errorf("aborted by operator: %w", err)
			default:
				slog.WarnContext(ctx, "unknown choice", "choice", choice)
			}
		}
	}
}

func (s *Service) dumpPage(ctx context.Context, sess *sgcc.Session) (string, error) {
	source, err := sess.PageSource(ctx)
	if err != nil {
		return "", err
	}
	dir := s.cfg.DumpDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("page-%s.html", time.Now().Format("20060102-150405")))
	return path, os.WriteFile(path, []byte(source), 0o644)
}

// processAccount extracts and persists one account. A panic out of
// the scraper is contained here so the remaining accounts still run.
// The store handle lives only for this account's persistence phase,
// keeping sqlite lock lifetimes per account.
func (s *Service) processAccount(ctx context.Context, sess *sgcc.Session, account string, index int) (err error) {
	ctx, span := tracer.Start(ctx, "collector.processAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", account))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing account %s: %v", account, r)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
		}
	}()

	snap, err := sess.Extract(ctx, account, index)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction")
		return err
	}

	if !s.cfg.StoreEnabled {
		slog.InfoContext(ctx, "store disabled, discarding snapshot", "account", account)
		return nil
	}
	db, err := s.cfg.Database.OpenDB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "opening database")
		return fmt.Errorf("opening database for account %s: %w", account, err)
	}
	defer db.Close()

	if err := persistSnapshot(ctx, db, snap); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence")
		return fmt.Errorf("persisting account %s: %w", account, err)
	}
	return nil
}
