package scanning

import "github.com/google/uuid"

// IDGenerator generates unique identifiers for draft line items
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates UUIDs
type UUIDGenerator struct{}

// Generate generates a new UUID
func (g *UUIDGenerator) Generate() string {
	return uuid.New().String()
}

// Assembler turns a validated Invoice into an editable Draft
type Assembler struct {
	ids IDGenerator
}

// NewAssembler creates an Assembler; ids may be nil to use UUIDs
func NewAssembler(ids IDGenerator) *Assembler {
	if ids == nil {
		ids = &UUIDGenerator{}
	}
	return &Assembler{ids: ids}
}

// Assemble gives every line item a fresh identifier, keeping receipt order
func (a *Assembler) Assemble(inv *Invoice) *Draft {
	draft := &Draft{
		Expense:   inv.Expense,
		LineItems: make([]DraftLineItem, 0, len(inv.LineItems)),
	}
	for _, item := range inv.LineItems {
		draft.LineItems = append(draft.LineItems, DraftLineItem{ID: a.ids.Generate(), LineItem: item})
	}
	return draft
}
