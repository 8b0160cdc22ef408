package pricing

// RRPPResult is the outcome of pricing one landed cost.
type RRPPResult struct {
	Markup     float64
	Multiplier float64
	RRPP       float64
}

// ComputeRRPP looks up the markup band for landed and the multiplier for category
// and returns RRPP = Round(landed * (markup*multiplier + 1)).
func ComputeRRPP(landed float64, category string, markup MarkupTable, multipliers CategoryMultipliers) RRPPResult {
	m := markup.Lookup(landed)
	c := multipliers.Lookup(category)
	return RRPPResult{
		Markup:     m,
		Multiplier: c,
		RRPP:       Round(landed * (m*c + 1)),
	}
}
