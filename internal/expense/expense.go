package expense

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when an expense does not exist
	ErrNotFound = errors.New("expense not found")
	// ErrInvalidInput is returned when an expense fails validation
	ErrInvalidInput = errors.New("invalid expense")
)

// Expense is a saved invoice with its line items
type Expense struct {
	ID           string    `json:"id"`
	CodeReceipt  string    `json:"code_receipt"`
	NameSupplier string    `json:"name_supplier"`
	Note         string    `json:"note"`
	Date         time.Time `json:"date"`
	TotalPrice   float64   `json:"total_price"`
	TaxPrice     float64   `json:"tax_price"`
	Details      []Detail  `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Detail is one line item of an expense
type Detail struct {
	ID           string  `json:"id"`
	NameProduct  string  `json:"name_product"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	TotalPrice   float64 `json:"total_price"`
}

// Input is the editable part of an expense, as sent by clients
type Input struct {
	CodeReceipt  string   `json:"code_receipt"`
	NameSupplier string   `json:"name_supplier"`
	Note         string   `json:"note"`
	Date         string   `json:"date"` // YYYY-MM-DD
	TotalPrice   float64  `json:"total_price"`
	TaxPrice     float64  `json:"tax_price"`
	Details      []Detail `json:"details"`
}
