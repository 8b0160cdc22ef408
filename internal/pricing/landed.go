package pricing

import (
	"strings"
)

// Currency is the currency purchase costs are quoted in.
type Currency string

const (
	AUD Currency = "AUD"
	USD Currency = "USD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
)

// BaseCurrency is the currency all landed costs and prices are expressed in.
const BaseCurrency = AUD

// ParseCurrency normalises a currency code; unknown codes are returned as-is and
// rejected later by RunParams.Validate.
func ParseCurrency(v string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(v)))
}

func (c Currency) valid() bool {
	switch c {
	case AUD, USD, EUR, JPY:
		return true
	}
	return false
}

// FreightMode selects how freight reaches the landed cost.
type FreightMode string

const (
	// FreightAuto allocates the batch freight across rows pro rata by spend.
	FreightAuto FreightMode = "Auto"
	// FreightManual assumes freight is already embedded in purchase costs.
	FreightManual FreightMode = "Manual"
)

// ParseFreightMode accepts the mode case-insensitively.
func ParseFreightMode(v string) FreightMode {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "auto":
		return FreightAuto
	case "manual":
		return FreightManual
	}
	return FreightMode(v)
}

// RunParams are the per-run inputs chosen by the operator.
type RunParams struct {
	Currency     Currency    `json:"currency"`
	ExchangeRate float64     `json:"exchange_rate"`
	FreightCost  float64     `json:"freight_cost"`
	FreightMode  FreightMode `json:"freight_mode"`
}

// DefaultRunParams mirrors the defaults of the upload form.
func DefaultRunParams() RunParams {
	return RunParams{
		Currency:     BaseCurrency,
		ExchangeRate: 1.0,
		FreightMode:  FreightAuto,
	}
}

// Validate returns a *ConfigError for parameters that would make the run undefined.
func (p RunParams) Validate() error {
	if !p.Currency.valid() {
		return configErrorf("currency", "%q is not supported", p.Currency)
	}
	if !finite(p.ExchangeRate) || p.ExchangeRate <= 0 {
		return configErrorf("exchange rate", "must be greater than 0, got %v", p.ExchangeRate)
	}
	if !finite(p.FreightCost) || p.FreightCost < 0 {
		return configErrorf("freight cost", "must be 0 or more, got %v", p.FreightCost)
	}
	if p.FreightMode != FreightAuto && p.FreightMode != FreightManual {
		return configErrorf("freight mode", "must be Auto or Manual, got %q", p.FreightMode)
	}
	return nil
}

// PartRow is one purchased line as uploaded.
type PartRow struct {
	PartNumber    string  `json:"part_number"`
	Description   string  `json:"description"`
	InvoiceNumber string  `json:"invoice_number"`
	Quantity      float64 `json:"qty"`
	PurchaseCost  float64 `json:"purchase_cost"`
	Category      string  `json:"category"`
}

// LandedRow is a PartRow with its costs expressed in the base currency.
type LandedRow struct {
	PartRow
	PurchaseCostInBase float64
	FreightShare       float64
	LandedCostInBase   float64
}

// ValidateRows enforces the numeric input contract of the pricing core.
func ValidateRows(rows []PartRow) error {
	for i, r := range rows {
		if !finite(r.Quantity) || r.Quantity < 0 {
			return &DataError{Row: i, Field: "Qty", Reason: "must be a number >= 0"}
		}
		if !finite(r.PurchaseCost) || r.PurchaseCost < 0 {
			return &DataError{Row: i, Field: "Purchase Cost", Reason: "must be a number >= 0"}
		}
		if !finite(r.Quantity * r.PurchaseCost) {
			return &DataError{Row: i, Field: "Purchase Cost", Reason: "qty x cost is too large to price"}
		}
	}
	return nil
}

// ComputeLandedCost converts purchase costs to the base currency and, in Auto
// mode, spreads the freight over the rows in proportion to their spend.
// Rows with zero quantity, or batches with zero total spend, receive no freight.
func ComputeLandedCost(rows []PartRow, p RunParams) ([]LandedRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateRows(rows); err != nil {
		return nil, err
	}

	var totalSpend float64
	for _, r := range rows {
		totalSpend += r.Quantity * r.PurchaseCost
	}
	if !finite(totalSpend) {
		return nil, &DataError{Row: -1, Field: "Purchase Cost", Reason: "total spend is too large to price"}
	}
	allocate := p.FreightMode == FreightAuto && p.FreightCost > 0 && totalSpend > 0

	out := make([]LandedRow, len(rows))
	for i, r := range rows {
		inBase := r.PurchaseCost
		if p.Currency != BaseCurrency {
			inBase = r.PurchaseCost / p.ExchangeRate
		}

		lr := LandedRow{PartRow: r, PurchaseCostInBase: inBase, LandedCostInBase: inBase}
		if allocate && r.Quantity > 0 {
			lr.FreightShare = (r.Quantity * r.PurchaseCost / totalSpend) * p.FreightCost
			lr.LandedCostInBase = inBase + lr.FreightShare/r.Quantity
		}
		if !finite(lr.LandedCostInBase) {
			return nil, &DataError{Row: i, Field: "Purchase Cost", Reason: "landed cost is too large to price"}
		}
		out[i] = lr
	}
	return out, nil
}
