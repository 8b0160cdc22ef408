// Package ingest reads uploaded purchase files into pricing rows.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/partpricing/internal/pricing"
)

// Canonical column names of a purchase file.
const (
	ColQty          = "Qty"
	ColInvoice      = "Inv #"
	ColPartNumber   = "Part Number"
	ColDescription  = "Description"
	ColPurchaseCost = "Purchase Cost"
	ColCategory     = "Category"
)

var ErrUnsupportedFormat = errors.New("unsupported file format: must be .csv or .xlsx")

// aliases maps a lower-cased header to its canonical column.
var aliases = map[string]string{
	"qty":            ColQty,
	"quantity":       ColQty,
	"inv #":          ColInvoice,
	"inv":            ColInvoice,
	"invoice":        ColInvoice,
	"invoice number": ColInvoice,
	"part number":    ColPartNumber,
	"part no":        ColPartNumber,
	"part #":         ColPartNumber,
	"description":    ColDescription,
	"purchase cost":  ColPurchaseCost,
	"cost":           ColPurchaseCost,
	"unit cost":      ColPurchaseCost,
	"category":       ColCategory,
}

var required = []string{ColQty, ColPurchaseCost}

// Template is the header row offered to operators as a download.
var Template = []string{ColQty, ColInvoice, ColPartNumber, ColDescription, ColPurchaseCost, ColCategory}

// Parse reads a CSV or XLSX file, chosen by the extension of name.
func Parse(r io.Reader, name string) ([]pricing.PartRow, error) {
	var (
		headers []string
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		headers, records, err = readCSV(r)
	case ".xlsx":
		headers, records, err = readExcel(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(headers, records)
}

// ParseCSV reads CSV input.
func ParseCSV(r io.Reader) ([]pricing.PartRow, error) {
	headers, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return toRows(headers, records)
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, &pricing.DataError{Row: -1, Field: "file", Reason: "has no header row"}
	}
	return all[0], all[1:], nil
}

func readExcel(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, &pricing.DataError{Row: -1, Field: "file", Reason: "has no header row"}
	}
	return rows[0], rows[1:], nil
}

// mapHeaders returns the column index of every recognised canonical column.
func mapHeaders(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		col, ok := aliases[strings.ToLower(h)]
		if !ok {
			continue
		}
		if _, seen := idx[col]; !seen {
			idx[col] = i
		}
	}
	return idx
}

func toRows(headers []string, records [][]string) ([]pricing.PartRow, error) {
	idx := mapHeaders(headers)

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &pricing.DataError{Row: -1, Field: "columns", Reason: "missing required " + strings.Join(missing, ", ")}
	}

	cell := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rows := make([]pricing.PartRow, 0, len(records))
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		line := len(rows)

		qty, err := parseQty(cell(rec, ColQty))
		if err != nil {
			return nil, &pricing.DataError{Row: line, Field: ColQty, Reason: err.Error()}
		}
		cost, err := CleanCost(cell(rec, ColPurchaseCost))
		if err != nil {
			return nil, &pricing.DataError{Row: line, Field: ColPurchaseCost, Reason: err.Error()}
		}

		category := cell(rec, ColCategory)
		if category == "" {
			category = pricing.UnassignedCategory
		}

		rows = append(rows, pricing.PartRow{
			PartNumber:    cell(rec, ColPartNumber),
			Description:   cell(rec, ColDescription),
			InvoiceNumber: cell(rec, ColInvoice),
			Quantity:      qty,
			PurchaseCost:  cost,
			Category:      category,
		})
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CleanCost strips currency symbols, thousands separators and any other
// character except digits, '.' and '-' before parsing.
func CleanCost(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

// parseQty accepts thousands separators; blank or non-numeric quantities are rejected.
func parseQty(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("quantity is empty")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}
