package scanning

import (
	"fmt"
	"strings"
)

// PromptVersion identifies the extraction prompt; bump it whenever the wording or shape changes
const PromptVersion = "invoice-extract/v2"

// unknownReply is what the model is told to answer for anything that is not an invoice
const unknownReply = "unknown"

const invoicePromptTemplate = `You are an expert invoice parser. Parse the following receipt or invoice text into a structured JSON object.

---
%s
---

Extract the following information:
1. Supplier name (name_supplier): the merchant or business name, usually at the top of the receipt.
2. Receipt code/number (code_receipt).
3. Date (date) in YYYY-MM-DD format.
4. Total price (total_price) as a number.
5. Tax amount (tax_price) as a number. Use 0 if no tax is shown.
6. For each item/product on the receipt, in the order printed:
   - Product name (name_product)
   - Quantity (quantity) as a number
   - Unit (unit), e.g. Piece, kg, pcs
   - Price per unit (price_per_unit) as a number
   - Total price for the item (total_price) as a number
   - Category (category): best guess from %s

If the content is not an invoice or receipt, or cannot be parsed, return exactly the string "unknown".

Return ONLY valid JSON in this exact format:
{
  "expense": {
    "name_supplier": "Supplier Name",
    "code_receipt": "Receipt Number",
    "date": "YYYY-MM-DD",
    "total_price": 0,
    "tax_price": 0
  },
  "line_items": [
    {
      "name_product": "Product Name",
      "quantity": 1,
      "unit": "Piece",
      "price_per_unit": 0,
      "total_price": 0,
      "category": "Other"
    }
  ]
}

Important:
- Numbers must be JSON numbers without currency symbols or thousands separators
- Do not include any text before or after the JSON`

// BuildInvoicePrompt renders the extraction prompt for cleaned OCR text
func BuildInvoicePrompt(cleaned string) string {
	return fmt.Sprintf(invoicePromptTemplate, cleaned, strings.Join(CategoryNames(), ", "))
}

// isUnknownReply reports whether the completion is the not-an-invoice signal
func isUnknownReply(reply string) bool {
	reply = strings.Trim(strings.TrimSpace(reply), `"'.`)
	return reply == "" || strings.EqualFold(reply, unknownReply)
}
