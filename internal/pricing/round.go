package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds v to the nearest whole currency unit, resolving exact ties to the
// even neighbour (2.5 -> 2, 3.5 -> 4). The tie is decided on the decimal value of v.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, _ := decimal.NewFromFloat(v).RoundBank(0).Float64()
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
