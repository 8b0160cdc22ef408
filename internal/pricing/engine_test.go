package pricing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceBatch_SpecialityScenario(t *testing.T) {
	rows := []PartRow{{PartNumber: "PN1", Quantity: 10, PurchaseCost: 100, Category: "Speciality"}}
	params := RunParams{Currency: AUD, ExchangeRate: 1, FreightCost: 0, FreightMode: FreightAuto}

	batch, err := PriceBatch(rows, params, DefaultSnapshot())
	require.NoError(t, err)
	require.Len(t, batch.Parts, 1)
	assert.Empty(t, batch.RowErrors)

	p := batch.Parts[0]
	nearlyEqual(t, "landed", p.LandedCostInBase, 100)
	assert.Equal(t, 0.920515342, p.Markup)
	assert.Equal(t, 2.2, p.Multiplier)
	// 100 * (0.920515342*2.2 + 1) = 302.51...
	assert.Equal(t, 303.0, p.RRPP)
	assert.Equal(t, Tiers{Tier1: 273, Tier2: 259, Tier3: 233, Tier4: 198, Tier5: 188}, p.Tiers)
	assert.Equal(t, "PN1", p.PartNumber)
}

func TestPriceBatch_ZeroRRPPRowIsRecovered(t *testing.T) {
	rows := []PartRow{
		{PartNumber: "PN1", Quantity: 2, PurchaseCost: 50, Category: "ATS"},
		{PartNumber: "FREE", Quantity: 1, PurchaseCost: 0, Category: "ATS"},
	}

	batch, err := PriceBatch(rows, DefaultRunParams(), DefaultSnapshot())
	require.NoError(t, err)
	require.Len(t, batch.Parts, 2)
	require.Len(t, batch.RowErrors, 1)

	rowErr := batch.RowErrors[0]
	assert.Equal(t, 1, rowErr.Index)
	assert.Equal(t, "FREE", rowErr.PartNumber)
	assert.True(t, errors.Is(rowErr, ErrZeroRRPP))
	assert.NotEmpty(t, rowErr.Message)

	free := batch.Parts[1]
	assert.Equal(t, 0.0, free.RRPP)
	assert.Equal(t, Tiers{}, free.Tiers)
	assert.NotEmpty(t, free.TierError)

	assert.NotZero(t, batch.Parts[0].Tier5)
}

func TestPriceBatch_OverflowingRRPPIsRecovered(t *testing.T) {
	rows := []PartRow{
		{PartNumber: "PN1", Quantity: 2, PurchaseCost: 50, Category: "ATS"},
		{PartNumber: "HUGE", Quantity: 1, PurchaseCost: 1e308, Category: "Unlisted"},
	}

	batch, err := PriceBatch(rows, DefaultRunParams(), DefaultSnapshot())
	require.NoError(t, err)
	require.Len(t, batch.RowErrors, 1)
	assert.True(t, errors.Is(batch.RowErrors[0], ErrRRPPOutOfRange))

	huge := batch.Parts[1]
	assert.Equal(t, 0.0, huge.RRPP)
	assert.Equal(t, Tiers{}, huge.Tiers)
	assert.NotEmpty(t, huge.TierError)

	_, err = json.Marshal(batch)
	require.NoError(t, err)
}

func TestPriceBatch_BlankCategoryBecomesUnassigned(t *testing.T) {
	batch, err := PriceBatch([]PartRow{{Quantity: 1, PurchaseCost: 10, Category: "  "}}, DefaultRunParams(), DefaultSnapshot())
	require.NoError(t, err)
	assert.Equal(t, UnassignedCategory, batch.Parts[0].Category)
	assert.Equal(t, 1.0, batch.Parts[0].Multiplier)
}

func TestPriceBatch_ConfigErrorAbortsBeforeComputing(t *testing.T) {
	params := DefaultRunParams()
	params.Currency = USD
	params.ExchangeRate = 0

	batch, err := PriceBatch([]PartRow{{Quantity: 1, PurchaseCost: 10}}, params, DefaultSnapshot())

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Nil(t, batch.Parts)
}

func TestPriceBatch_IsDeterministic(t *testing.T) {
	rows := []PartRow{
		{PartNumber: "A", Quantity: 3, PurchaseCost: 12.5, Category: "Universal"},
		{PartNumber: "B", Quantity: 1, PurchaseCost: 1450, Category: "Trucks"},
		{PartNumber: "C", Quantity: 0, PurchaseCost: 75, Category: "Diagnostic"},
	}
	params := RunParams{Currency: USD, ExchangeRate: 0.66, FreightCost: 240, FreightMode: FreightAuto}

	first, err := PriceBatch(rows, params, DefaultSnapshot())
	require.NoError(t, err)
	second, err := PriceBatch(rows, params, DefaultSnapshot())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPriceBatch_UsesSnapshotNotLaterEdits(t *testing.T) {
	snap := DefaultSnapshot()
	rows := []PartRow{{Quantity: 1, PurchaseCost: 100, Category: "Speciality"}}

	before, err := PriceBatch(rows, DefaultRunParams(), snap)
	require.NoError(t, err)
	require.Equal(t, 303.0, before.Parts[0].RRPP)

	raised, err := snap.Multipliers.IncreaseBy(50, AllCategories)
	require.NoError(t, err)
	edited := Snapshot{Version: snap.Version + 1, Markup: snap.Markup, Multipliers: raised}

	again, err := PriceBatch(rows, DefaultRunParams(), snap)
	require.NoError(t, err)
	assert.Equal(t, before.Parts, again.Parts, "edits must not leak into the original snapshot")
	assert.Equal(t, 2.2, snap.Multipliers.Lookup("Speciality"))

	after, err := PriceBatch(rows, DefaultRunParams(), edited)
	require.NoError(t, err)
	assert.InDelta(t, 3.3, after.Parts[0].Multiplier, 1e-9)
	assert.Equal(t, 404.0, after.Parts[0].RRPP)
	assert.NotEqual(t, before.Parts[0].RRPP, after.Parts[0].RRPP)
}
