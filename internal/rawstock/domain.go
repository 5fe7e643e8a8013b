// Package rawstock persists invoice-level raw material entries together
// with their color line breakdown, keeping the derived totals consistent
// with the line rows at every mutation.
package rawstock

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Entry is the invoice-level aggregate. TotalKgs and TotalAmount are always
// derived from the detail rows, never trusted from the client.
type Entry struct {
	OrderID       int64           `json:"order_id"`
	MaterialGrade string          `json:"material_grade"`
	MaterialCode  *string         `json:"material_code"`
	VendorName    *string         `json:"vendor_name"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	TotalKgs      decimal.Decimal `json:"total_kgs"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Remarks       *string         `json:"remarks"`
	CreatedAt     time.Time       `json:"created_at"`
	Details       []Detail        `json:"details"`
}

// Detail is one color line owned by exactly one Entry. ColorName falls back
// to "Unknown" when the master row has since been removed.
type Detail struct {
	DetailID      int64           `json:"detail_id"`
	OrderID       int64           `json:"order_id"`
	ColorID       *int64          `json:"color_id"`
	ColorName     string          `json:"color"`
	Kgs           decimal.Decimal `json:"kgs"`
	RatePerKg     decimal.Decimal `json:"rate_per_kg"`
	MaterialGrade string          `json:"material_grade"`
}

// GradeColor is a color referenced by at least one entry of a grade.
type GradeColor struct {
	ColorID   int64  `json:"color_id"`
	ColorName string `json:"color_name"`
	IsCustom  bool   `json:"is_custom"`
}

// LineInput is one requested color line. Either ColorID points at an
// existing master row, or ColorName (with the custom flag) asks the
// resolver for one.
type LineInput struct {
	ColorID   *int64
	ColorName string
	IsCustom  bool
	Kgs       decimal.Decimal
	RatePerKg decimal.Decimal
}

// EntryInput carries one create/update request for an aggregate.
type EntryInput struct {
	MaterialGrade string
	MaterialCode  *string
	VendorName    *string
	InvoiceNumber string
	InvoiceDate   time.Time
	Remarks       *string
	Lines         []LineInput
}

// Totals holds the derived aggregate sums.
type Totals struct {
	Kgs    decimal.Decimal
	Amount decimal.Decimal
}

// ComputeTotals derives the aggregate sums from a line set:
// kgs = Σ line.kgs, amount = Σ line.kgs × line.rate_per_kg.
func ComputeTotals(lines []LineInput) Totals {
	totals := Totals{Kgs: decimal.Zero, Amount: decimal.Zero}
	for _, line := range lines {
		totals.Kgs = totals.Kgs.Add(line.Kgs)
		totals.Amount = totals.Amount.Add(line.Kgs.Mul(line.RatePerKg))
	}
	return totals
}

// Validate checks the request shape before any write happens.
func (in EntryInput) Validate() error {
	if strings.TrimSpace(in.MaterialGrade) == "" {
		return httpx.Validation("Material grade is required")
	}
	if strings.TrimSpace(in.InvoiceNumber) == "" {
		return httpx.Validation("Invoice number is required")
	}
	if in.InvoiceDate.IsZero() {
		return httpx.Validation("Invoice date is required")
	}
	if len(in.Lines) == 0 {
		return httpx.Validation("At least one color line is required")
	}
	for _, line := range in.Lines {
		if line.ColorID == nil && strings.TrimSpace(line.ColorName) == "" {
			return httpx.Validation("Each color line needs a color_id or a color_name")
		}
		if line.Kgs.IsNegative() {
			return httpx.Validation("Kgs must not be negative")
		}
		if line.RatePerKg.IsNegative() {
			return httpx.Validation("Rate per kg must not be negative")
		}
	}
	return nil
}
