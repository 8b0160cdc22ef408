// Package store persists pricing configuration and pricing runs in SQLite.
//
// Every configuration mutation runs in one transaction that also appends a row
// to config_versions, so a Snapshot always carries the version it was read at.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/partpricing/internal/pricing"
)

// ChangeType records why a configuration row was last written.
type ChangeType string

const (
	ChangeInitialLoad      ChangeType = "initial_load"
	ChangeIndividualChange ChangeType = "individual_change"
	ChangeReset            ChangeType = "reset"
	ChangePriceIncrease    ChangeType = "price_increase"
	ChangeBulkReplace      ChangeType = "bulk_replace"
)

const (
	targetMarkup      = "markup_table"
	targetMultipliers = "category_multipliers"
)

var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Snapshot reads the current markup table and multipliers in one transaction.
func (s *Store) Snapshot(ctx context.Context) (pricing.Snapshot, error) {
	var snap pricing.Snapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		snap, err = s.snapshot(ctx, tx)
		return err
	})
	return snap, err
}

func (s *Store) snapshot(ctx context.Context, q querier) (pricing.Snapshot, error) {
	version, err := configVersion(ctx, q)
	if err != nil {
		return pricing.Snapshot{}, err
	}
	markup, err := loadMarkup(ctx, q)
	if err != nil {
		return pricing.Snapshot{}, err
	}
	multipliers, err := loadMultipliers(ctx, q)
	if err != nil {
		return pricing.Snapshot{}, err
	}
	return pricing.Snapshot{
		Version:     version,
		TakenAt:     s.now(),
		Markup:      markup,
		Multipliers: multipliers,
	}, nil
}

// ConfigVersion returns the latest configuration version, 0 before any write.
func (s *Store) ConfigVersion(ctx context.Context) (int64, error) {
	return configVersion(ctx, s.db)
}

func configVersion(ctx context.Context, q querier) (int64, error) {
	var v int64
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM config_versions`).Scan(&v); err != nil {
		return 0, fmt.Errorf("query config version: %w", err)
	}
	return v, nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx, change ChangeType, target string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO config_versions (change_type, target) VALUES (?, ?)`, string(change), target)
	if err != nil {
		return 0, fmt.Errorf("insert config version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read config version id: %w", err)
	}
	return id, nil
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
