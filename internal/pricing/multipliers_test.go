package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryMultipliers_UnknownIsNeutral(t *testing.T) {
	m := DefaultCategoryMultipliers()

	assert.Equal(t, 2.2, m.Lookup("Speciality"))
	assert.Equal(t, 1.0, m.Lookup("Bicycles"))
	assert.Equal(t, 1.0, m.Lookup("speciality"), "lookup is case sensitive")

	var empty CategoryMultipliers
	assert.Equal(t, 1.0, empty.Lookup("Speciality"))
}

func TestCategoryMultipliers_WithDoesNotMutate(t *testing.T) {
	base := DefaultCategoryMultipliers()

	next, err := base.With("Trucks", 3.5)
	require.NoError(t, err)

	assert.Equal(t, 3.5, next.Lookup("Trucks"))
	assert.Equal(t, 3.0, base.Lookup("Trucks"))

	_, err = base.With("Trucks", -1)
	assert.Error(t, err)
}

func TestCategoryMultipliers_IncreaseSingleCategory(t *testing.T) {
	base := DefaultCategoryMultipliers()

	next, err := base.IncreaseBy(10, "Speciality")
	require.NoError(t, err)

	assert.InDelta(t, 2.42, next.Lookup("Speciality"), 1e-12)
	assert.Equal(t, 1.5, next.Lookup("Speciality Fast"))
}

func TestCategoryMultipliers_IncreaseAllCategories(t *testing.T) {
	base := DefaultCategoryMultipliers()

	next, err := base.IncreaseBy(5, AllCategories)
	require.NoError(t, err)

	for category, v := range base.Map() {
		assert.InDelta(t, v*1.05, next.Lookup(category), 1e-12, category)
	}
}

func TestCategoryMultipliers_IncreaseUnknownCategory(t *testing.T) {
	_, err := DefaultCategoryMultipliers().IncreaseBy(5, "Bicycles")
	assert.Error(t, err)
}

func TestCategoryMultipliers_CategoriesSorted(t *testing.T) {
	got := DefaultCategoryMultipliers().Categories()
	require.Len(t, got, 10)
	assert.Equal(t, "ATS", got[0])
	assert.Equal(t, "Universal", got[len(got)-1])
}
