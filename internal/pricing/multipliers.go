package pricing

import (
	"sort"
	"strings"
)

const (
	// DefaultMultiplier applies to categories missing from the map.
	DefaultMultiplier = 1.0
	// AllCategories targets every category in IncreaseBy.
	AllCategories = ""
	// UnassignedCategory is used for rows uploaded without a category.
	UnassignedCategory = "N/A"
)

// CategoryMultipliers maps a category label to its multiplier. Values are
// immutable; every mutation returns a new map.
type CategoryMultipliers struct {
	m map[string]float64
}

// NewCategoryMultipliers copies and validates the given multipliers.
func NewCategoryMultipliers(values map[string]float64) (CategoryMultipliers, error) {
	m := make(map[string]float64, len(values))
	for category, v := range values {
		if strings.TrimSpace(category) == "" {
			return CategoryMultipliers{}, configErrorf("category", "must not be empty")
		}
		if !finite(v) || v < 0 {
			return CategoryMultipliers{}, configErrorf("multiplier", "for %q must be a number >= 0, got %v", category, v)
		}
		m[category] = v
	}
	return CategoryMultipliers{m: m}, nil
}

// Lookup is an exact-match lookup; unknown categories yield DefaultMultiplier.
func (c CategoryMultipliers) Lookup(category string) float64 {
	if v, ok := c.m[category]; ok {
		return v
	}
	return DefaultMultiplier
}

// Has reports whether category is mapped.
func (c CategoryMultipliers) Has(category string) bool {
	_, ok := c.m[category]
	return ok
}

// Categories returns the mapped labels in lexical order.
func (c CategoryMultipliers) Categories() []string {
	out := make([]string, 0, len(c.m))
	for k := range c.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the underlying values.
func (c CategoryMultipliers) Map() map[string]float64 {
	out := make(map[string]float64, len(c.m))
	for k, v := range c.m {
		out[k] = v
	}
	return out
}

// With returns a copy with category set to multiplier.
func (c CategoryMultipliers) With(category string, multiplier float64) (CategoryMultipliers, error) {
	next := c.Map()
	next[category] = multiplier
	return NewCategoryMultipliers(next)
}

// IncreaseBy scales one category, or all of them when category is AllCategories,
// by (1 + pct/100).
func (c CategoryMultipliers) IncreaseBy(pct float64, category string) (CategoryMultipliers, error) {
	if !finite(pct) || pct <= -100 {
		return CategoryMultipliers{}, configErrorf("increase percentage", "must be a number above -100, got %v", pct)
	}
	if category != AllCategories && !c.Has(category) {
		return CategoryMultipliers{}, configErrorf("category", "%q is not configured", category)
	}

	scale := 1 + pct/100
	next := c.Map()
	for k := range next {
		if category == AllCategories || k == category {
			next[k] *= scale
		}
	}
	return CategoryMultipliers{m: next}, nil
}

// DefaultCategoryMultipliers returns the standard multipliers used for resets.
func DefaultCategoryMultipliers() CategoryMultipliers {
	c, _ := NewCategoryMultipliers(map[string]float64{
		"Speciality":      2.2,
		"Speciality Fast": 1.5,
		"Universal":       0.9,
		"Diagnostic":      1.7,
		"ATS":             1,
		"PICO":            1.2,
		"Local":           1,
		"N/A":             1,
		"Trucks":          3,
		"Autool":          1.45,
	})
	return c
}
