package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/partpricing/internal/pricing"
)

// Run is a persisted pricing batch.
type Run struct {
	ID         uuid.UUID         `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	CreatedBy  string            `json:"created_by"`
	SourceFile string            `json:"source_file"`
	Params     pricing.RunParams `json:"parameters"`
	Version    int64             `json:"config_version"`
	RowCount   int               `json:"row_count"`
	ErrorCount int               `json:"error_count"`
}

// StoredPart is a priced part as read back from a run.
type StoredPart struct {
	RunID     uuid.UUID `json:"run_id"`
	LineNo    int       `json:"line_no"`
	CreatedAt time.Time `json:"created_at"`
	pricing.PricedPart
}

// SaveRun appends a run and all of its priced parts. Earlier runs are kept.
func (s *Store) SaveRun(ctx context.Context, createdBy, sourceFile string, batch pricing.Batch) (Run, error) {
	run := Run{
		ID:         uuid.New(),
		CreatedAt:  s.now(),
		CreatedBy:  createdBy,
		SourceFile: sourceFile,
		Params:     batch.Params,
		Version:    batch.SnapshotVersion,
		RowCount:   len(batch.Parts),
		ErrorCount: len(batch.RowErrors),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pricing_runs (
				id, created_at, created_by, source_file, currency, exchange_rate,
				freight_cost, freight_mode, config_version, row_count, error_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID.String(), run.CreatedAt, run.CreatedBy, run.SourceFile,
			string(run.Params.Currency), run.Params.ExchangeRate, run.Params.FreightCost,
			string(run.Params.FreightMode), run.Version, run.RowCount, run.ErrorCount,
		); err != nil {
			return fmt.Errorf("insert pricing run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO priced_parts (
				run_id, line_no, part_number, description, invoice_number, qty, purchase_cost,
				category, purchase_cost_aud, landed_cost_aud, rrpp_markup, category_multiplier,
				rrpp, tier_1, tier_2, tier_3, tier_4, tier_5, tier_error, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare priced part insert: %w", err)
		}
		defer stmt.Close()

		for i, p := range batch.Parts {
			if _, err := stmt.ExecContext(ctx,
				run.ID.String(), i+1, p.PartNumber, p.Description, p.InvoiceNumber, p.Quantity, p.PurchaseCost,
				p.Category, p.PurchaseCostInBase, p.LandedCostInBase, p.Markup, p.Multiplier,
				p.RRPP, p.Tier1, p.Tier2, p.Tier3, p.Tier4, p.Tier5, p.TierError, run.CreatedAt,
			); err != nil {
				return fmt.Errorf("insert priced part %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// LatestRun returns the most recent run, or ErrNotFound.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx, runSelect+` WHERE id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

const runSelect = `
	SELECT id, created_at, created_by, source_file, currency, exchange_rate,
		freight_cost, freight_mode, config_version, row_count, error_count
	FROM pricing_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var id, createdAt, currency, mode string
	if err := sc.Scan(&id, &createdAt, &r.CreatedBy, &r.SourceFile, &currency, &r.Params.ExchangeRate,
		&r.Params.FreightCost, &mode, &r.Version, &r.RowCount, &r.ErrorCount); err != nil {
		return Run{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("parse run id %q: %w", id, err)
	}
	r.ID = parsed
	r.CreatedAt = parseTimestamp(createdAt)
	r.Params.Currency = pricing.Currency(currency)
	r.Params.FreightMode = pricing.FreightMode(mode)
	return r, nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, runSelect+`
		ORDER BY datetime(created_at) DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pricing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing runs: %w", err)
	}
	return runs, nil
}

// RunParts returns the parts of one run in upload order.
func (s *Store) RunParts(ctx context.Context, runID uuid.UUID) ([]StoredPart, error) {
	return s.queryParts(ctx, partSelect+` WHERE run_id = ? ORDER BY line_no ASC`, runID.String())
}

// ListPricedParts returns stored parts across runs, newest run first.
func (s *Store) ListPricedParts(ctx context.Context, limit int) ([]StoredPart, error) {
	if limit <= 0 {
		limit = 1000
	}
	return s.queryParts(ctx, partSelect+`
		ORDER BY datetime(created_at) DESC, id DESC
		LIMIT ?`, limit)
}

const partSelect = `
	SELECT run_id, line_no, created_at, part_number, description, invoice_number, qty,
		purchase_cost, category, purchase_cost_aud, landed_cost_aud, rrpp_markup,
		category_multiplier, rrpp, tier_1, tier_2, tier_3, tier_4, tier_5, tier_error
	FROM priced_parts`

func (s *Store) queryParts(ctx context.Context, query string, args ...any) ([]StoredPart, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query priced parts: %w", err)
	}
	defer rows.Close()

	parts := make([]StoredPart, 0)
	for rows.Next() {
		var p StoredPart
		var runID, createdAt string
		if err := rows.Scan(&runID, &p.LineNo, &createdAt, &p.PartNumber, &p.Description, &p.InvoiceNumber,
			&p.Quantity, &p.PurchaseCost, &p.Category, &p.PurchaseCostInBase, &p.LandedCostInBase,
			&p.Markup, &p.Multiplier, &p.RRPP, &p.Tier1, &p.Tier2, &p.Tier3, &p.Tier4, &p.Tier5,
			&p.TierError); err != nil {
			return nil, fmt.Errorf("scan priced part: %w", err)
		}
		if p.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", runID, err)
		}
		p.CreatedAt = parseTimestamp(createdAt)
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate priced parts: %w", err)
	}
	return parts, nil
}
