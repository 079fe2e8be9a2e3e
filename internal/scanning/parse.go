package scanning

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	defaultUnit  = "Piece"
	dateLayout   = "2006-01-02"
	detailSyntax = "malformed JSON"
	detailShape  = "incomplete structure"
)

// structural contract only; field values are coerced afterwards, not rejected
const invoiceSchema = `{
  "type": "object",
  "required": ["expense", "line_items"],
  "properties": {
    "expense": {"type": "object"},
    "line_items": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "object"}
    }
  }
}`

var compiledInvoiceSchema = jsonschema.MustCompileString("invoice.schema.json", invoiceSchema)

// keys used by earlier prompt versions
var legacyKeys = map[string]string{
	"expanse":        "expense",
	"expanse_detail": "line_items",
}

var alternateDateLayouts = []string{
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2 January 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

var reFence = regexp.MustCompile("(?i)^```[a-z]*\\s*|\\s*```$")

// Validator turns a raw completion into a normalized Invoice
type Validator struct {
	now func() time.Time
}

// NewValidator creates a Validator; now supplies the default date and may be nil
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate strips code fences, decodes strictly, checks the structure and
// applies every coercion and default in one pass
func (v *Validator) Validate(raw string) (*Invoice, error) {
	text := stripCodeFences(raw)

	doc, err := decodeStrict(text)
	if err != nil {
		return nil, &ScanError{Kind: KindParseFailure, Detail: detailSyntax, Raw: raw, Err: err}
	}

	if obj, ok := doc.(map[string]any); ok {
		for legacy, key := range legacyKeys {
			if val, found := obj[legacy]; found {
				if _, exists := obj[key]; !exists {
					obj[key] = val
				}
				delete(obj, legacy)
			}
		}
	}

	if err := compiledInvoiceSchema.Validate(doc); err != nil {
		return nil, &ScanError{Kind: KindParseFailure, Detail: detailShape, Raw: raw, Err: err}
	}

	obj := doc.(map[string]any)
	return v.normalize(obj["expense"].(map[string]any), obj["line_items"].([]any)), nil
}

func (v *Validator) normalize(expense map[string]any, items []any) *Invoice {
	inv := &Invoice{
		Expense: ExpenseFields{
			CodeReceipt:  toString(expense["code_receipt"]),
			NameSupplier: toString(expense["name_supplier"]),
			Date:         v.normalizeDate(toString(expense["date"])),
			TotalPrice:   toAmount(expense["total_price"]),
			TaxPrice:     toAmount(expense["tax_price"]),
		},
		LineItems: make([]LineItem, 0, len(items)),
	}

	for _, raw := range items {
		item := raw.(map[string]any)
		quantity := toAmount(item["quantity"])
		if quantity <= 0 {
			quantity = 1
		}
		unit := toString(item["unit"])
		if unit == "" {
			unit = defaultUnit
		}
		inv.LineItems = append(inv.LineItems, LineItem{
			NameProduct:  toString(item["name_product"]),
			Quantity:     quantity,
			Unit:         unit,
			PricePerUnit: toAmount(item["price_per_unit"]),
			TotalPrice:   toAmount(item["total_price"]),
			Category:     CanonicalCategory(toString(item["category"])),
		})
	}
	return inv
}

// normalizeDate returns YYYY-MM-DD, defaulting to today when the date is missing or unparseable
func (v *Validator) normalizeDate(s string) string {
	if s != "" {
		if d, err := time.Parse(dateLayout, s); err == nil {
			return d.Format(dateLayout)
		}
		for _, layout := range alternateDateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d.Format(dateLayout)
			}
		}
	}
	return v.now().Format(dateLayout)
}

func stripCodeFences(text string) string {
	return strings.TrimSpace(reFence.ReplaceAllString(strings.TrimSpace(text), ""))
}

// decodeStrict decodes exactly one JSON value; trailing data is an error
func decodeStrict(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return doc, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// toAmount coerces a JSON value to a non-negative number; anything non-numeric is 0
func toAmount(v any) float64 {
	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0
		}
		f = n
	case float64:
		f = t
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
