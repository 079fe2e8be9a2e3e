package scanning

// ExpenseFields is the invoice header extracted from a receipt
type ExpenseFields struct {
	CodeReceipt  string  `json:"code_receipt"`
	NameSupplier string  `json:"name_supplier"`
	Date         string  `json:"date"` // YYYY-MM-DD
	TotalPrice   float64 `json:"total_price"`
	TaxPrice     float64 `json:"tax_price"`
}

// LineItem is one product entry on a receipt
type LineItem struct {
	NameProduct  string   `json:"name_product"`
	Quantity     float64  `json:"quantity"`
	Unit         string   `json:"unit"`
	PricePerUnit float64  `json:"price_per_unit"`
	TotalPrice   float64  `json:"total_price"`
	Category     Category `json:"category"`
}

// Invoice is a validated, normalized extraction. LineItems is never empty
// and keeps the order printed on the receipt.
type Invoice struct {
	Expense   ExpenseFields `json:"expense"`
	LineItems []LineItem    `json:"line_items"`
}

// DraftLineItem is a line item with a local identifier for list keying and
// in-place edits before the first save
type DraftLineItem struct {
	ID string `json:"id"`
	LineItem
}

// Draft is the editable, persistence-ready result of a scan
type Draft struct {
	Expense   ExpenseFields   `json:"expense"`
	LineItems []DraftLineItem `json:"line_items"`
}
