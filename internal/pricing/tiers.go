package pricing

// Tiers are the five discount price points derived from an RRPP.
type Tiers struct {
	Tier1 float64 `json:"tier_1"`
	Tier2 float64 `json:"tier_2"`
	Tier3 float64 `json:"tier_3"`
	Tier4 float64 `json:"tier_4"`
	Tier5 float64 `json:"tier_5"`
}

// Slice returns the tiers in ladder order.
func (t Tiers) Slice() []float64 {
	return []float64{t.Tier1, t.Tier2, t.Tier3, t.Tier4, t.Tier5}
}

const (
	tier1Discount        = 0.90
	tier1PreferredFactor = 0.95
)

// preferredTier1 categories take the smaller first-tier discount.
var preferredTier1 = map[string]bool{
	"Speciality Fast": true,
	"Universal":       true,
	"Local":           true,
}

// ladderStep derives tier n+1 from tier n.
type ladderStep struct {
	jump      float64
	floor     float64
	threshold float64
}

var ladder = [4]ladderStep{
	{jump: 1.37, floor: 0.95, threshold: 0.37},
	{jump: 1.35, floor: 0.90, threshold: 0.35},
	{jump: 1.30, floor: 0.85, threshold: 0.30},
	{jump: 1.25, floor: 0.95, threshold: 0.25},
}

// ComputeTiers derives the tier ladder for rrpp. Each step discounts the previous
// tier by its floor factor unless the implied margin (floor-rrpp)/rrpp exceeds the
// step threshold, in which case the tier is re-anchored at rrpp*jump.
func ComputeTiers(rrpp float64, category string) (Tiers, error) {
	if rrpp == 0 || !finite(rrpp) {
		return Tiers{}, ErrZeroRRPP
	}

	first := tier1Discount
	if preferredTier1[category] {
		first = tier1PreferredFactor
	}
	return deriveTiers(rrpp, first, ladder), nil
}

func deriveTiers(rrpp, first float64, steps [4]ladderStep) Tiers {
	var out [5]float64
	out[0] = Round(rrpp * first)
	for i, s := range steps {
		floorVal := out[i] * s.floor
		margin := (floorVal - rrpp) / rrpp
		if margin > s.threshold {
			out[i+1] = Round(rrpp * s.jump)
		} else {
			out[i+1] = Round(floorVal)
		}
	}
	return Tiers{Tier1: out[0], Tier2: out[1], Tier3: out[2], Tier4: out[3], Tier5: out[4]}
}
