package pricing

import (
	"sort"
)

// DefaultMarkupFactor is returned when no band covers a cost.
const DefaultMarkupFactor = 1.0

// MarkupBand maps an inclusive cost range to a markup factor.
type MarkupBand struct {
	Lower  float64 `json:"from_price"`
	Upper  float64 `json:"to_price"`
	Factor float64 `json:"rrpp_markup"`
}

// MarkupTable is an immutable, ascending set of non-overlapping cost bands.
type MarkupTable struct {
	bands []MarkupBand
}

// NewMarkupTable validates bands and returns them as a table sorted by lower bound.
// Bands may leave gaps but must not overlap.
func NewMarkupTable(bands []MarkupBand) (MarkupTable, error) {
	sorted := make([]MarkupBand, len(bands))
	copy(sorted, bands)

	for i, b := range sorted {
		if !finite(b.Lower) || !finite(b.Upper) || !finite(b.Factor) {
			return MarkupTable{}, configErrorf("markup band", "%d has a non-numeric value", i+1)
		}
		if b.Lower > b.Upper {
			return MarkupTable{}, configErrorf("markup band", "%d has from %.2f above to %.2f", i+1, b.Lower, b.Upper)
		}
		if b.Factor < 0 {
			return MarkupTable{}, configErrorf("markup band", "%d has a negative markup %v", i+1, b.Factor)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Lower < sorted[j].Lower
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Lower <= prev.Upper {
			return MarkupTable{}, configErrorf("markup band",
				"[%.2f, %.2f] overlaps [%.2f, %.2f]", cur.Lower, cur.Upper, prev.Lower, prev.Upper)
		}
	}

	return MarkupTable{bands: sorted}, nil
}

// MustMarkupTable is NewMarkupTable for tables known to be valid at compile time.
func MustMarkupTable(bands []MarkupBand) MarkupTable {
	t, err := NewMarkupTable(bands)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the factor of the first band containing cost, or
// DefaultMarkupFactor when no band does.
func (t MarkupTable) Lookup(cost float64) float64 {
	for _, b := range t.bands {
		if b.Lower <= cost && cost <= b.Upper {
			return b.Factor
		}
	}
	return DefaultMarkupFactor
}

// Bands returns a copy of the bands in ascending order.
func (t MarkupTable) Bands() []MarkupBand {
	out := make([]MarkupBand, len(t.bands))
	copy(out, t.bands)
	return out
}

func (t MarkupTable) Len() int {
	return len(t.bands)
}

// IncreaseBy returns a new table with every factor scaled by (1 + pct/100).
func (t MarkupTable) IncreaseBy(pct float64) (MarkupTable, error) {
	if !finite(pct) || pct <= -100 {
		return MarkupTable{}, configErrorf("increase percentage", "must be a number above -100, got %v", pct)
	}
	scale := 1 + pct/100
	out := t.Bands()
	for i := range out {
		out[i].Factor *= scale
	}
	return MarkupTable{bands: out}, nil
}

// DefaultMarkupTable returns the standard band set used for resets and first runs.
func DefaultMarkupTable() MarkupTable {
	return MustMarkupTable(defaultBands())
}

func defaultBands() []MarkupBand {
	return []MarkupBand{
		{0.00, 2.49, 2.586508714},
		{2.50, 4.99, 2.330134294},
		{5.00, 7.99, 2.102174088},
		{8.00, 9.99, 1.900946641},
		{10.00, 11.99, 1.7247705},
		{12.00, 14.99, 1.57196421},
		{15.00, 16.99, 1.440846316},
		{17.00, 19.99, 1.329735365},
		{20.00, 21.99, 1.236949903},
		{22.00, 24.99, 1.160808475},
		{25.00, 27.99, 1.099629626},
		{28.00, 29.99, 1.051731904},
		{30.00, 34.99, 1.015433853},
		{35.00, 39.99, 0.989054019},
		{40.00, 44.99, 0.970910948},
		{45.00, 49.99, 1.050687299},
		{50.00, 54.99, 1.052406441},
		{55.00, 59.99, 1.057554945},
		{60.00, 69.99, 1.217670698},
		{70.00, 79.99, 1.214866467},
		{80.00, 89.99, 0.985666114},
		{90.00, 99.99, 0.933296661},
		{100.00, 109.99, 0.920515342},
		{110.00, 119.99, 0.900837698},
		{120.00, 149.99, 0.872582275},
		{150.00, 169.99, 0.834067618},
		{170.00, 199.99, 0.783612273},
		{200.00, 249.99, 0.719534787},
		{250.00, 299.99, 0.701120724},
		{300.00, 499.99, 0.543787571},
		{500.00, 749.99, 0.428754933},
		{750.00, 999.99, 0.293374337},
		{1000.00, 5000.00, 0.135964327},
	}
}
