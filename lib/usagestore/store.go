// Package usagestore persists per-account readings. Every account
// gets its own pair of tables, one keyed by date for daily usage and
// one keyed by name for scalar facts, and every write is an upsert so
// that replaying a day reconciles instead of duplicating.
package usagestore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schema string

// Store scopes reads and writes to a single account's tables. The
// database handle is shared and owned by the caller.
type Store struct {
	db      *sql.DB
	account string
}

// New ensures the account's tables exist and returns a store bound to
// them. The account id becomes part of the table names, so anything
// but digits is rejected outright.
func New(ctx context.Context, db *sql.DB, account string) (*Store, error) {
	if !digitsOnly(account) {
		return nil, fmt.Errorf("account id %q is not numeric", account)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(schema, account)); err != nil {
		return nil, fmt.Errorf("creating tables for account %s: %w", account, err)
	}
	return &Store{db: db, account: account}, nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UpsertDaily records the usage for one day, overwriting any earlier
// reading for the same date. The date is normalized to ISO form on the
// way in; a date sqlite cannot parse fails the insert rather than
// landing under a NULL key.
func (s *Store) UpsertDaily(ctx context.Context, date string, usage float64) error {
	query := fmt.Sprintf(
		`INSERT OR REPLACE INTO daily%s (date, usage) VALUES (strftime('%%Y-%%m-%%d', ?), ?)`,
		s.account)
	if _, err := s.db.ExecContext(ctx, query, date, usage); err != nil {
		return fmt.Errorf("upserting daily usage for %s: %w", date, err)
	}
	return nil
}

// UpsertFact records a named scalar reading, overwriting any earlier
// value under the same name.
func (s *Store) UpsertFact(ctx context.Context, name, value string) error {
	query := fmt.Sprintf(
		`INSERT OR REPLACE INTO data%s (name, value) VALUES (?, ?)`,
		s.account)
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("upserting fact %s: %w", name, err)
	}
	return nil
}

// Facts returns every scalar reading recorded for the account.
func (s *Store) Facts(ctx context.Context) (map[string]string, error) {
	query := fmt.Sprintf(`SELECT name, value FROM data%s`, s.account)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facts := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		facts[name] = value
	}
	return facts, rows.Err()
}

// DailyReading is one stored day of usage.
type DailyReading struct {
	Date  string
	Usage float64
}

// Daily returns the stored daily readings, newest first.
func (s *Store) Daily(ctx context.Context) ([]DailyReading, error) {
	query := fmt.Sprintf(`SELECT CAST(date AS TEXT), usage FROM daily%s ORDER BY date DESC`, s.account)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyReading
	for rows.Next() {
		var r DailyReading
		if err := rows.Scan(&r.Date, &r.Usage); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Accounts lists the account ids that have tables in the database.
func Accounts(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'data%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, err
		}
		id := strings.TrimPrefix(table, "data")
		if digitsOnly(id) {
			out = append(out, id)
		}
	}
	return out, rows.Err()
}
