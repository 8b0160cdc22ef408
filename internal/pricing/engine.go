package pricing

import (
	"strings"
	"time"
)

// Snapshot is the configuration a pricing run is computed against. It is taken
// once at the start of a run; later configuration edits produce a new Snapshot and
// never affect a run in progress.
type Snapshot struct {
	Version     int64
	TakenAt     time.Time
	Markup      MarkupTable
	Multipliers CategoryMultipliers
}

// DefaultSnapshot is the factory configuration at version 0.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Markup:      DefaultMarkupTable(),
		Multipliers: DefaultCategoryMultipliers(),
	}
}

// PricedPart is a PartRow with every derived pricing field populated.
type PricedPart struct {
	PartRow
	PurchaseCostInBase float64 `json:"purchase_cost_aud"`
	LandedCostInBase   float64 `json:"landed_cost_aud"`
	Markup             float64 `json:"rrpp_markup"`
	Multiplier         float64 `json:"category_multiplier"`
	RRPP               float64 `json:"rrpp"`
	Tiers
	TierError string `json:"tier_error,omitempty"`
}

// Batch is the output of one pricing run.
type Batch struct {
	Params          RunParams    `json:"parameters"`
	SnapshotVersion int64        `json:"config_version"`
	Parts           []PricedPart `json:"processed_data"`
	RowErrors       []RowError   `json:"row_errors"`
}

// PriceBatch prices every row against snap. Invalid parameters or rows abort the
// batch with a *ConfigError or *DataError; rows whose tiers cannot be derived are
// kept with zero tiers and listed in RowErrors.
func PriceBatch(rows []PartRow, params RunParams, snap Snapshot) (Batch, error) {
	normalized := make([]PartRow, len(rows))
	for i, r := range rows {
		r.Category = strings.TrimSpace(r.Category)
		if r.Category == "" {
			r.Category = UnassignedCategory
		}
		normalized[i] = r
	}

	landed, err := ComputeLandedCost(normalized, params)
	if err != nil {
		return Batch{}, err
	}

	batch := Batch{
		Params:          params,
		SnapshotVersion: snap.Version,
		Parts:           make([]PricedPart, len(landed)),
		RowErrors:       make([]RowError, 0),
	}
	for i, lr := range landed {
		part, rowErr := PricePart(lr, snap)
		if rowErr != nil {
			batch.RowErrors = append(batch.RowErrors, RowError{
				Index:      i,
				PartNumber: lr.PartNumber,
				Message:    rowErr.Error(),
				Err:        rowErr,
			})
		}
		batch.Parts[i] = part
	}
	return batch, nil
}

// PricePart prices a single landed row. The returned part is always usable; a
// non-nil error means its tiers were left at zero.
func PricePart(lr LandedRow, snap Snapshot) (PricedPart, error) {
	res := ComputeRRPP(lr.LandedCostInBase, lr.Category, snap.Markup, snap.Multipliers)
	part := PricedPart{
		PartRow:            lr.PartRow,
		PurchaseCostInBase: lr.PurchaseCostInBase,
		LandedCostInBase:   lr.LandedCostInBase,
		Markup:             res.Markup,
		Multiplier:         res.Multiplier,
		RRPP:               res.RRPP,
	}
	if !finite(res.RRPP) {
		part.RRPP = 0
		part.TierError = ErrRRPPOutOfRange.Error()
		return part, ErrRRPPOutOfRange
	}

	tiers, err := ComputeTiers(res.RRPP, lr.Category)
	if err != nil {
		part.TierError = err.Error()
		return part, err
	}
	part.Tiers = tiers
	return part, nil
}
