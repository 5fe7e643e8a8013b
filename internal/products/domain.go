// Package products manages the SAP product master and the finished goods
// entries that reference it by name.
package products

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// SapProduct is one product master row, keyed by its case-insensitive name.
type SapProduct struct {
	ID              int64   `json:"product_id"`
	SapName         string  `json:"sap_name"`
	PartDescription string  `json:"part_description"`
	Unit            string  `json:"unit"`
	Color           *string `json:"color"`
	Remarks         *string `json:"remarks"`
	IsCustom        bool    `json:"is_custom"`
	IsActive        bool    `json:"is_active"`
}

// SapInput carries one create/update request for the product master.
type SapInput struct {
	SapName         string
	PartDescription string
	Unit            string
	Color           *string
	Remarks         *string
}

// EntryProduct is one finished goods entry.
type EntryProduct struct {
	ID           int64           `json:"id"`
	ClientName   string          `json:"client_name"`
	ProductName  string          `json:"product_name"`
	ProductColor string          `json:"product_color"`
	Quantity     decimal.Decimal `json:"quantity"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EntryInput carries one create/update request for a finished goods entry.
type EntryInput struct {
	ClientName   string
	ProductName  string
	ProductColor string
	Quantity     decimal.Decimal
	Date         time.Time
}

// Validate checks the product master request shape.
func (in SapInput) Validate() error {
	if strings.TrimSpace(in.SapName) == "" ||
		strings.TrimSpace(in.PartDescription) == "" ||
		strings.TrimSpace(in.Unit) == "" {
		return httpx.Validation("SAP name, part description and unit are required")
	}
	return nil
}

// Validate checks the entry request shape.
func (in EntryInput) Validate() error {
	if strings.TrimSpace(in.ClientName) == "" ||
		strings.TrimSpace(in.ProductName) == "" ||
		strings.TrimSpace(in.ProductColor) == "" {
		return httpx.Validation("Client name, product name and product color are required")
	}
	if !in.Quantity.IsPositive() {
		return httpx.Validation("Quantity must be positive")
	}
	if in.Date.IsZero() {
		return httpx.Validation("Date is required")
	}
	return nil
}
