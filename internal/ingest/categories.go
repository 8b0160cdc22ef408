package ingest

import (
	"fmt"
	"strings"

	"github.com/Simplici0/partpricing/internal/pricing"
)

// Mismatch is a row whose category has no configured multiplier.
type Mismatch struct {
	Index      int    `json:"index"`
	PartNumber string `json:"part_number"`
	Category   string `json:"category"`
}

// Mismatches lists rows whose category is unknown to multipliers. Such rows
// would still price with the default multiplier, so operators review them first.
func Mismatches(rows []pricing.PartRow, multipliers pricing.CategoryMultipliers) []Mismatch {
	out := make([]Mismatch, 0)
	for i, r := range rows {
		if !multipliers.Has(r.Category) {
			out = append(out, Mismatch{Index: i, PartNumber: r.PartNumber, Category: r.Category})
		}
	}
	return out
}

// ApplyCategoryFixes returns a copy of rows with the categories at the given
// indexes replaced. Every replacement must be a configured category.
func ApplyCategoryFixes(rows []pricing.PartRow, fixes map[int]string, multipliers pricing.CategoryMultipliers) ([]pricing.PartRow, error) {
	out := make([]pricing.PartRow, len(rows))
	copy(out, rows)

	for i, category := range fixes {
		if i < 0 || i >= len(out) {
			return nil, &pricing.DataError{Row: -1, Field: "category fix", Reason: fmt.Sprintf("row %d does not exist", i+1)}
		}
		category = strings.TrimSpace(category)
		if !multipliers.Has(category) {
			return nil, &pricing.DataError{Row: i, Field: ColCategory, Reason: fmt.Sprintf("%q is not a configured category", category)}
		}
		out[i].Category = category
	}
	return out, nil
}
