// Package export renders priced parts as CSV or XLSX downloads.
//
// Markup and multiplier columns are internal to the pricing team and are left
// out of every export.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/partpricing/internal/pricing"
)

// Columns is the header row of every export.
var Columns = []string{
	"Part Number", "Description", "Inv #", "Qty", "Purchase Cost", "Landed Cost AUD",
	"Category", "RRPP", "Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5", "Tier Error",
}

// values returns one export row. Tier cells are nil when the tiers could not be
// derived, so a failed row never shows zero prices.
func values(p pricing.PricedPart) []any {
	row := []any{
		p.PartNumber, p.Description, p.InvoiceNumber, p.Quantity, p.PurchaseCost,
		p.LandedCostInBase, p.Category, p.RRPP,
	}
	if p.TierError != "" {
		return append(row, nil, nil, nil, nil, nil, p.TierError)
	}
	return append(row, p.Tier1, p.Tier2, p.Tier3, p.Tier4, p.Tier5, "")
}

func record(p pricing.PricedPart) []string {
	vals := values(p)
	out := make([]string, len(vals))
	for i, v := range vals {
		switch v := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			out[i] = v
		}
	}
	return out
}

// WriteCSV writes parts as CSV with a header row.
func WriteCSV(w io.Writer, parts []pricing.PricedPart) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, p := range parts {
		if err := cw.Write(record(p)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

const sheetName = "Priced Parts"

// XLSX renders parts as a single-sheet workbook and returns the file contents.
func XLSX(parts []pricing.PricedPart) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header row: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "B", 24); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for i, p := range parts {
		row := values(p)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if len(parts) > 0 {
		lastMoneyCol, err := excelize.ColumnNumberToName(len(Columns) - 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "E2", fmt.Sprintf("%s%d", lastMoneyCol, len(parts)+1), moneyStyle); err != nil {
			return nil, fmt.Errorf("style money columns: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
