package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound_TiesGoToEven(t *testing.T) {
	cases := map[float64]float64{
		0.5:   0,
		1.5:   2,
		2.5:   2,
		3.5:   4,
		182.7: 183,
		182.3: 182,
		-2.5:  -2,
		-2.6:  -3,
		0:     0,
	}
	for in, want := range cases {
		assert.Equal(t, want, Round(in), "Round(%v)", in)
	}
}

func TestMarkupLookup_InclusiveBounds(t *testing.T) {
	table := DefaultMarkupTable()

	for _, b := range table.Bands() {
		mid := (b.Lower + b.Upper) / 2
		for _, cost := range []float64{b.Lower, mid, b.Upper} {
			assert.Equal(t, b.Factor, table.Lookup(cost), "cost %v in [%v, %v]", cost, b.Lower, b.Upper)
		}
	}
}

func TestMarkupLookup_MissesDefaultToOne(t *testing.T) {
	table := DefaultMarkupTable()

	assert.Equal(t, 1.0, table.Lookup(-0.01), "below lowest band")
	assert.Equal(t, 1.0, table.Lookup(5000.01), "above highest band")
	assert.Equal(t, 1.0, table.Lookup(2.495), "gap between bands")

	var empty MarkupTable
	assert.Equal(t, 1.0, empty.Lookup(100))

	emptyBuilt, err := NewMarkupTable(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, emptyBuilt.Lookup(100))
}

func TestNewMarkupTable_SortsBands(t *testing.T) {
	table, err := NewMarkupTable([]MarkupBand{
		{Lower: 10, Upper: 19.99, Factor: 2},
		{Lower: 0, Upper: 9.99, Factor: 3},
	})
	require.NoError(t, err)

	bands := table.Bands()
	require.Len(t, bands, 2)
	assert.Equal(t, 0.0, bands[0].Lower)
	assert.Equal(t, 3.0, table.Lookup(5))
	assert.Equal(t, 2.0, table.Lookup(15))
}

func TestNewMarkupTable_RejectsMalformedBands(t *testing.T) {
	cases := map[string][]MarkupBand{
		"overlap":         {{Lower: 0, Upper: 10, Factor: 1}, {Lower: 10, Upper: 20, Factor: 2}},
		"nested":          {{Lower: 0, Upper: 100, Factor: 1}, {Lower: 10, Upper: 20, Factor: 2}},
		"inverted":        {{Lower: 20, Upper: 10, Factor: 1}},
		"negative factor": {{Lower: 0, Upper: 10, Factor: -0.5}},
	}

	for name, bands := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMarkupTable(bands)
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T", err)
		})
	}
}

func TestMarkupTable_IncreaseByReturnsNewTable(t *testing.T) {
	table := MustMarkupTable([]MarkupBand{{Lower: 0, Upper: 10, Factor: 2}})

	raised, err := table.IncreaseBy(10)
	require.NoError(t, err)

	assert.InDelta(t, 2.2, raised.Lookup(5), 1e-12)
	assert.Equal(t, 2.0, table.Lookup(5), "original table must not change")

	_, err = table.IncreaseBy(-100)
	assert.Error(t, err)
}

func TestDefaultMarkupTable_IsValid(t *testing.T) {
	table := DefaultMarkupTable()
	assert.Equal(t, 33, table.Len())
	assert.Equal(t, 0.920515342, table.Lookup(100))
	assert.Equal(t, 0.933296661, table.Lookup(99.99))
}
