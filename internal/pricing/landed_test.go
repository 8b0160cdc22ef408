package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestComputeLandedCost_AllocatesFreightProRata(t *testing.T) {
	rows := []PartRow{
		{PartNumber: "A", Quantity: 10, PurchaseCost: 100},
		{PartNumber: "B", Quantity: 5, PurchaseCost: 40},
		{PartNumber: "C", Quantity: 0, PurchaseCost: 30},
	}
	params := RunParams{Currency: AUD, ExchangeRate: 1, FreightCost: 120, FreightMode: FreightAuto}

	landed, err := ComputeLandedCost(rows, params)
	require.NoError(t, err)
	require.Len(t, landed, 3)

	nearlyEqual(t, "A landed", landed[0].LandedCostInBase, 110)
	nearlyEqual(t, "B landed", landed[1].LandedCostInBase, 44)
	nearlyEqual(t, "C landed", landed[2].LandedCostInBase, 30)
	nearlyEqual(t, "C share", landed[2].FreightShare, 0)

	var total float64
	for _, r := range landed {
		total += r.FreightShare
	}
	nearlyEqual(t, "freight total", total, 120)
}

func TestComputeLandedCost_FreightIsConservedInForeignCurrency(t *testing.T) {
	rows := []PartRow{
		{Quantity: 3, PurchaseCost: 17.35},
		{Quantity: 7, PurchaseCost: 2.2},
		{Quantity: 1, PurchaseCost: 940},
	}
	params := RunParams{Currency: USD, ExchangeRate: 0.65, FreightCost: 83.4, FreightMode: FreightAuto}

	landed, err := ComputeLandedCost(rows, params)
	require.NoError(t, err)

	var total float64
	for i, r := range landed {
		total += r.FreightShare
		nearlyEqual(t, "in base", r.PurchaseCostInBase, rows[i].PurchaseCost/0.65)
	}
	assert.InDelta(t, 83.4, total, 1e-9)
}

func TestComputeLandedCost_ZeroQuantityRowSkipsFreight(t *testing.T) {
	rows := []PartRow{{Quantity: 0, PurchaseCost: 50}}
	params := RunParams{Currency: USD, ExchangeRate: 0.5, FreightCost: 100, FreightMode: FreightAuto}

	landed, err := ComputeLandedCost(rows, params)
	require.NoError(t, err)

	nearlyEqual(t, "landed", landed[0].LandedCostInBase, 100)
	assert.False(t, math.IsNaN(landed[0].LandedCostInBase))
}

func TestComputeLandedCost_NoAllocationCases(t *testing.T) {
	rows := []PartRow{{Quantity: 2, PurchaseCost: 10}}

	cases := map[string]RunParams{
		"manual mode":  {Currency: AUD, ExchangeRate: 1, FreightCost: 50, FreightMode: FreightManual},
		"zero freight": {Currency: AUD, ExchangeRate: 1, FreightCost: 0, FreightMode: FreightAuto},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			landed, err := ComputeLandedCost(rows, params)
			require.NoError(t, err)
			nearlyEqual(t, "landed", landed[0].LandedCostInBase, 10)
		})
	}

	t.Run("zero spend", func(t *testing.T) {
		landed, err := ComputeLandedCost([]PartRow{{Quantity: 4, PurchaseCost: 0}}, RunParams{
			Currency: AUD, ExchangeRate: 1, FreightCost: 50, FreightMode: FreightAuto,
		})
		require.NoError(t, err)
		nearlyEqual(t, "landed", landed[0].LandedCostInBase, 0)
	})

	t.Run("empty batch", func(t *testing.T) {
		landed, err := ComputeLandedCost(nil, RunParams{
			Currency: AUD, ExchangeRate: 1, FreightCost: 50, FreightMode: FreightAuto,
		})
		require.NoError(t, err)
		assert.Empty(t, landed)
	})
}

func TestComputeLandedCost_BaseCurrencyIgnoresRate(t *testing.T) {
	landed, err := ComputeLandedCost([]PartRow{{Quantity: 1, PurchaseCost: 80}}, RunParams{
		Currency: AUD, ExchangeRate: 0.65, FreightMode: FreightAuto,
	})
	require.NoError(t, err)
	nearlyEqual(t, "landed", landed[0].LandedCostInBase, 80)
}

func TestRunParamsValidate_ConfigErrors(t *testing.T) {
	valid := DefaultRunParams()
	require.NoError(t, valid.Validate())

	cases := map[string]func(p *RunParams){
		"zero exchange rate":     func(p *RunParams) { p.ExchangeRate = 0 },
		"negative exchange rate": func(p *RunParams) { p.ExchangeRate = -1 },
		"nan exchange rate":      func(p *RunParams) { p.ExchangeRate = math.NaN() },
		"negative freight":       func(p *RunParams) { p.FreightCost = -5 },
		"unknown currency":       func(p *RunParams) { p.Currency = "GBP" },
		"unknown freight mode":   func(p *RunParams) { p.FreightMode = "Sometimes" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultRunParams()
			mutate(&p)

			_, err := ComputeLandedCost([]PartRow{{Quantity: 1, PurchaseCost: 1}}, p)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %v", err)
		})
	}
}

func TestComputeLandedCost_RejectsInvalidRows(t *testing.T) {
	cases := map[string]PartRow{
		"negative qty":   {Quantity: -1, PurchaseCost: 10},
		"nan cost":       {Quantity: 1, PurchaseCost: math.NaN()},
		"negative cost":  {Quantity: 1, PurchaseCost: -10},
		"infinite qty":   {Quantity: math.Inf(1), PurchaseCost: 10},
		"spend overflow": {Quantity: 1e200, PurchaseCost: 1e200},
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeLandedCost([]PartRow{{Quantity: 1, PurchaseCost: 1}, row}, DefaultRunParams())

			var dataErr *DataError
			require.True(t, errors.As(err, &dataErr), "expected *DataError, got %v", err)
			assert.Equal(t, 1, dataErr.Row)
		})
	}
}

func TestComputeLandedCost_RejectsOverflowingBatches(t *testing.T) {
	params := RunParams{Currency: AUD, ExchangeRate: 1, FreightCost: 50, FreightMode: FreightAuto}
	_, err := ComputeLandedCost([]PartRow{
		{Quantity: 1, PurchaseCost: 1e308},
		{Quantity: 1, PurchaseCost: 1e308},
	}, params)
	var dataErr *DataError
	require.True(t, errors.As(err, &dataErr), "expected *DataError, got %v", err)
	assert.Equal(t, -1, dataErr.Row)

	usd := RunParams{Currency: USD, ExchangeRate: 1e-10, FreightMode: FreightManual}
	_, err = ComputeLandedCost([]PartRow{{Quantity: 1, PurchaseCost: 1e300}}, usd)
	require.True(t, errors.As(err, &dataErr), "expected *DataError, got %v", err)
	assert.Equal(t, 0, dataErr.Row)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, USD, ParseCurrency(" usd "))
	assert.Equal(t, FreightManual, ParseFreightMode("MANUAL"))
	assert.Equal(t, FreightAuto, ParseFreightMode("auto"))
}
