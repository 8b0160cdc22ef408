package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/partpricing/internal/pricing"
)

func sampleParts(t *testing.T) []pricing.PricedPart {
	t.Helper()
	batch, err := pricing.PriceBatch([]pricing.PartRow{
		{PartNumber: "PN1", Description: "Desc1", InvoiceNumber: "INV001", Quantity: 10, PurchaseCost: 100, Category: "Speciality"},
		{PartNumber: "PN2", Description: "Desc, with comma", Quantity: 1, PurchaseCost: 5, Category: "Universal"},
	}, pricing.DefaultRunParams(), pricing.DefaultSnapshot())
	require.NoError(t, err)
	return batch.Parts
}

func TestWriteCSV(t *testing.T) {
	parts := sampleParts(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, parts))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Columns, records[0])
	assert.NotContains(t, records[0], "RRPP Markup")
	assert.NotContains(t, records[0], "Category Multiplier")

	assert.Equal(t, "PN1", records[1][0])
	assert.Equal(t, "303", records[1][7])
	assert.Equal(t, "273", records[1][8])
	assert.Equal(t, "Desc, with comma", records[2][1])
}

func TestXLSX(t *testing.T) {
	parts := sampleParts(t)

	data, err := XLSX(parts)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "PN1", rows[1][0])

	rrpp, err := f.GetCellValue(sheetName, "H2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "303", rrpp)
}

func TestXLSX_Empty(t *testing.T) {
	data, err := XLSX(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func failedTierParts(t *testing.T) []pricing.PricedPart {
	t.Helper()
	batch, err := pricing.PriceBatch([]pricing.PartRow{
		{PartNumber: "PN1", Quantity: 10, PurchaseCost: 100, Category: "Speciality"},
		{PartNumber: "FREE", Quantity: 1, PurchaseCost: 0, Category: "ATS"},
	}, pricing.DefaultRunParams(), pricing.DefaultSnapshot())
	require.NoError(t, err)
	require.Len(t, batch.RowErrors, 1)
	return batch.Parts
}

func TestWriteCSV_FailedTiersAreBlankAndMarked(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, failedTierParts(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Tier Error", records[0][13])

	assert.Equal(t, "273", records[1][8])
	assert.Empty(t, records[1][13])

	assert.Equal(t, []string{"", "", "", "", ""}, records[2][8:13])
	assert.Equal(t, pricing.ErrZeroRRPP.Error(), records[2][13])
}

func TestXLSX_FailedTiersAreBlankAndMarked(t *testing.T) {
	data, err := XLSX(failedTierParts(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	tier1, err := f.GetCellValue(sheetName, "I3")
	require.NoError(t, err)
	assert.Empty(t, tier1)

	marker, err := f.GetCellValue(sheetName, "N3")
	require.NoError(t, err)
	assert.Equal(t, pricing.ErrZeroRRPP.Error(), marker)
}
