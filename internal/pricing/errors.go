package pricing

import (
	"errors"
	"fmt"
)

// ErrZeroRRPP is reported for a row whose RRPP is zero, which leaves the tier
// margin calculation undefined.
var ErrZeroRRPP = errors.New("rrpp is zero, tiers cannot be derived")

// ErrRRPPOutOfRange is reported for a row whose RRPP overflows a float64.
var ErrRRPPOutOfRange = errors.New("rrpp is out of range, part left unpriced")

// ConfigError reports invalid run parameters or configuration tables.
// It aborts the whole run before any row is priced.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// DataError reports an input row that violates the numeric input contract.
// Row is zero-based; -1 means the problem is not tied to a single row.
type DataError struct {
	Row    int
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("data error: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("data error: row %d: %s %s", e.Row+1, e.Field, e.Reason)
}

// RowError is a recovered per-row computation failure.
type RowError struct {
	Index      int    `json:"index"`
	PartNumber string `json:"part_number"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e RowError) Error() string {
	if e.PartNumber != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Index+1, e.PartNumber, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Index+1, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
