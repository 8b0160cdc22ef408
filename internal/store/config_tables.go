package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Simplici0/partpricing/internal/pricing"
)

// MarkupRow is a stored band with its audit columns.
type MarkupRow struct {
	pricing.MarkupBand
	ChangeType ChangeType `json:"change_type"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// MultiplierRow is a stored category multiplier with its audit columns.
type MultiplierRow struct {
	Category   string     `json:"category"`
	Multiplier float64    `json:"multiplier"`
	ChangeType ChangeType `json:"change_type"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func loadMarkup(ctx context.Context, q querier) (pricing.MarkupTable, error) {
	rows, err := listMarkupRows(ctx, q)
	if err != nil {
		return pricing.MarkupTable{}, err
	}
	bands := make([]pricing.MarkupBand, len(rows))
	for i, r := range rows {
		bands[i] = r.MarkupBand
	}
	table, err := pricing.NewMarkupTable(bands)
	if err != nil {
		return pricing.MarkupTable{}, fmt.Errorf("stored markup table: %w", err)
	}
	return table, nil
}

func listMarkupRows(ctx context.Context, q querier) ([]MarkupRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT from_price, to_price, rrpp_markup, change_type, updated_at
		FROM markup_bands
		ORDER BY from_price ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query markup bands: %w", err)
	}
	defer rows.Close()

	out := make([]MarkupRow, 0)
	for rows.Next() {
		var r MarkupRow
		var change, updatedAt string
		if err := rows.Scan(&r.Lower, &r.Upper, &r.Factor, &change, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan markup band: %w", err)
		}
		r.ChangeType = ChangeType(change)
		r.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markup bands: %w", err)
	}
	return out, nil
}

func loadMultipliers(ctx context.Context, q querier) (pricing.CategoryMultipliers, error) {
	rows, err := listMultiplierRows(ctx, q)
	if err != nil {
		return pricing.CategoryMultipliers{}, err
	}
	values := make(map[string]float64, len(rows))
	for _, r := range rows {
		values[r.Category] = r.Multiplier
	}
	m, err := pricing.NewCategoryMultipliers(values)
	if err != nil {
		return pricing.CategoryMultipliers{}, fmt.Errorf("stored category multipliers: %w", err)
	}
	return m, nil
}

func listMultiplierRows(ctx context.Context, q querier) ([]MultiplierRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category, multiplier, change_type, updated_at
		FROM category_multipliers
		ORDER BY category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query category multipliers: %w", err)
	}
	defer rows.Close()

	out := make([]MultiplierRow, 0)
	for rows.Next() {
		var r MultiplierRow
		var change, updatedAt string
		if err := rows.Scan(&r.Category, &r.Multiplier, &change, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan category multiplier: %w", err)
		}
		r.ChangeType = ChangeType(change)
		r.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category multipliers: %w", err)
	}
	return out, nil
}

// MarkupRows lists stored bands with their audit columns.
func (s *Store) MarkupRows(ctx context.Context) ([]MarkupRow, error) {
	return listMarkupRows(ctx, s.db)
}

// MultiplierRows lists stored multipliers with their audit columns.
func (s *Store) MultiplierRows(ctx context.Context) ([]MultiplierRow, error) {
	return listMultiplierRows(ctx, s.db)
}

// ReplaceMarkupTable swaps the whole markup table and returns the new version.
func (s *Store) ReplaceMarkupTable(ctx context.Context, table pricing.MarkupTable, change ChangeType) (int64, error) {
	var version int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		version, err = s.replaceMarkup(ctx, tx, table, change)
		return err
	})
	return version, err
}

func (s *Store) replaceMarkup(ctx context.Context, tx *sql.Tx, table pricing.MarkupTable, change ChangeType) (int64, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM markup_bands`); err != nil {
		return 0, fmt.Errorf("clear markup bands: %w", err)
	}
	now := s.now()
	for _, b := range table.Bands() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO markup_bands (from_price, to_price, rrpp_markup, change_type, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, b.Lower, b.Upper, b.Factor, string(change), now); err != nil {
			return 0, fmt.Errorf("insert markup band: %w", err)
		}
	}
	return bumpVersion(ctx, tx, change, targetMarkup)
}

// ResetMarkupTable restores the default bands.
func (s *Store) ResetMarkupTable(ctx context.Context) (int64, error) {
	return s.ReplaceMarkupTable(ctx, pricing.DefaultMarkupTable(), ChangeReset)
}

// IncreaseMarkup scales every stored markup factor by (1 + pct/100).
func (s *Store) IncreaseMarkup(ctx context.Context, pct float64) (int64, error) {
	var version int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := loadMarkup(ctx, tx)
		if err != nil {
			return err
		}
		next, err := current.IncreaseBy(pct)
		if err != nil {
			return err
		}
		version, err = s.replaceMarkup(ctx, tx, next, ChangePriceIncrease)
		return err
	})
	return version, err
}

// ReplaceMultipliers swaps every category multiplier.
func (s *Store) ReplaceMultipliers(ctx context.Context, m pricing.CategoryMultipliers, change ChangeType) (int64, error) {
	var version int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		version, err = s.replaceMultipliers(ctx, tx, m, change)
		return err
	})
	return version, err
}

func (s *Store) replaceMultipliers(ctx context.Context, tx *sql.Tx, m pricing.CategoryMultipliers, change ChangeType) (int64, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM category_multipliers`); err != nil {
		return 0, fmt.Errorf("clear category multipliers: %w", err)
	}
	now := s.now()
	for category, v := range m.Map() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_multipliers (category, multiplier, change_type, updated_at)
			VALUES (?, ?, ?, ?)
		`, category, v, string(change), now); err != nil {
			return 0, fmt.Errorf("insert category multiplier: %w", err)
		}
	}
	return bumpVersion(ctx, tx, change, targetMultipliers)
}

// SetMultiplier upserts a single category multiplier.
func (s *Store) SetMultiplier(ctx context.Context, category string, multiplier float64) (int64, error) {
	if _, err := (pricing.CategoryMultipliers{}).With(category, multiplier); err != nil {
		return 0, err
	}

	var version int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_multipliers (category, multiplier, change_type, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(category) DO UPDATE SET
				multiplier = excluded.multiplier,
				change_type = excluded.change_type,
				updated_at = excluded.updated_at
		`, category, multiplier, string(ChangeIndividualChange), s.now()); err != nil {
			return fmt.Errorf("upsert category multiplier: %w", err)
		}
		var err error
		version, err = bumpVersion(ctx, tx, ChangeIndividualChange, targetMultipliers)
		return err
	})
	return version, err
}

// IncreaseMultipliers scales one category, or all when category is
// pricing.AllCategories, by (1 + pct/100).
func (s *Store) IncreaseMultipliers(ctx context.Context, pct float64, category string) (int64, error) {
	var version int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := loadMultipliers(ctx, tx)
		if err != nil {
			return err
		}
		next, err := current.IncreaseBy(pct, category)
		if err != nil {
			return err
		}
		version, err = s.replaceMultipliers(ctx, tx, next, ChangePriceIncrease)
		return err
	})
	return version, err
}

// ResetMultipliers restores the default category multipliers.
func (s *Store) ResetMultipliers(ctx context.Context) (int64, error) {
	return s.ReplaceMultipliers(ctx, pricing.DefaultCategoryMultipliers(), ChangeReset)
}
