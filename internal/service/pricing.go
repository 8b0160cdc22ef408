// Package service runs pricing batches against the stored configuration.
package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/Simplici0/partpricing/internal/cache"
	"github.com/Simplici0/partpricing/internal/events"
	"github.com/Simplici0/partpricing/internal/ingest"
	"github.com/Simplici0/partpricing/internal/pricing"
	"github.com/Simplici0/partpricing/internal/store"
	"github.com/Simplici0/partpricing/pkg/logx"
)

// Repository is the part of store.Store the service depends on.
type Repository interface {
	ConfigVersion(ctx context.Context) (int64, error)
	Snapshot(ctx context.Context) (pricing.Snapshot, error)
	SaveRun(ctx context.Context, createdBy, sourceFile string, batch pricing.Batch) (store.Run, error)
}

type Pricing struct {
	repo      Repository
	cache     cache.SnapshotCache
	publisher events.Publisher
	loads     singleflight.Group
}

type Option func(*Pricing)

func WithCache(c cache.SnapshotCache) Option {
	return func(p *Pricing) { p.cache = c }
}

func WithPublisher(pub events.Publisher) Option {
	return func(p *Pricing) { p.publisher = pub }
}

func NewPricing(repo Repository, opts ...Option) *Pricing {
	p := &Pricing{repo: repo, cache: cache.Noop{}, publisher: events.Noop{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns the configuration at its current version. Concurrent callers
// share one database read per version.
func (p *Pricing) Snapshot(ctx context.Context) (pricing.Snapshot, error) {
	version, err := p.repo.ConfigVersion(ctx)
	if err != nil {
		return pricing.Snapshot{}, err
	}

	if snap, ok, err := p.cache.Get(ctx, version); err != nil {
		logx.Warn().Err(err).Int64("version", version).Msg("snapshot cache read failed")
	} else if ok {
		return snap, nil
	}

	v, err, _ := p.loads.Do(strconv.FormatInt(version, 10), func() (any, error) {
		snap, err := p.repo.Snapshot(ctx)
		if err != nil {
			return pricing.Snapshot{}, err
		}
		if err := p.cache.Set(ctx, snap); err != nil {
			logx.Warn().Err(err).Int64("version", snap.Version).Msg("snapshot cache write failed")
		}
		return snap, nil
	})
	if err != nil {
		return pricing.Snapshot{}, err
	}
	return v.(pricing.Snapshot), nil
}

// Validation is the pre-flight report of an upload.
type Validation struct {
	RowCount   int               `json:"row_count"`
	Categories []string          `json:"categories"`
	Mismatches []ingest.Mismatch `json:"mismatches"`
	Rows       []pricing.PartRow `json:"rows"`
}

// Validate reports rows whose category has no configured multiplier.
func (p *Pricing) Validate(ctx context.Context, rows []pricing.PartRow) (Validation, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return Validation{}, err
	}
	return Validation{
		RowCount:   len(rows),
		Categories: snap.Multipliers.Categories(),
		Mismatches: ingest.Mismatches(rows, snap.Multipliers),
		Rows:       rows,
	}, nil
}

type RunRequest struct {
	Rows          []pricing.PartRow
	Params        pricing.RunParams
	CategoryFixes map[int]string
	CreatedBy     string
	SourceFile    string
}

type RunResult struct {
	Run   store.Run     `json:"run"`
	Batch pricing.Batch `json:"batch"`
}

// Run prices the rows against one snapshot, persists the run and announces it.
// A failed announcement is logged and does not fail the run.
func (p *Pricing) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return RunResult{}, err
	}

	rows := req.Rows
	if len(req.CategoryFixes) > 0 {
		if rows, err = ingest.ApplyCategoryFixes(rows, req.CategoryFixes, snap.Multipliers); err != nil {
			return RunResult{}, err
		}
	}

	batch, err := pricing.PriceBatch(rows, req.Params, snap)
	if err != nil {
		return RunResult{}, err
	}

	run, err := p.repo.SaveRun(ctx, req.CreatedBy, req.SourceFile, batch)
	if err != nil {
		return RunResult{}, fmt.Errorf("save pricing run: %w", err)
	}

	logx.Info().
		Str("run_id", run.ID.String()).
		Int64("config_version", run.Version).
		Int("rows", run.RowCount).
		Int("row_errors", run.ErrorCount).
		Msg("pricing run saved")

	if err := p.publisher.PublishRunCompleted(ctx, events.RunCompleted{
		RunID:         run.ID.String(),
		CreatedAt:     run.CreatedAt,
		CreatedBy:     run.CreatedBy,
		SourceFile:    run.SourceFile,
		ConfigVersion: run.Version,
		Currency:      string(run.Params.Currency),
		RowCount:      run.RowCount,
		ErrorCount:    run.ErrorCount,
	}); err != nil {
		logx.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to publish run event")
	}

	return RunResult{Run: run, Batch: batch}, nil
}
