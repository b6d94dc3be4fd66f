package settlement

import (
	"fmt"

	"society/internal/core"
)

// Lookup resolves settlement references against the expense and bill
// collections.
type Lookup struct {
	expenses map[string]core.MemberExpense
	bills    map[string]core.VendorBill
}

func NewLookup(expenses []core.MemberExpense, bills []core.VendorBill) *Lookup {
	l := &Lookup{
		expenses: make(map[string]core.MemberExpense, len(expenses)),
		bills:    make(map[string]core.VendorBill, len(bills)),
	}
	for _, e := range expenses {
		l.expenses[e.ID] = e
	}
	for _, b := range bills {
		l.bills[b.ID] = b
	}
	return l
}

// Resolved is a reference joined with the record it points at. Found is
// false when the record is missing; the description then says so.
type Resolved struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Found       bool       `json:"found"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
}

func (l *Lookup) Resolve(ref core.Reference) Resolved {
	switch r := ref.(type) {
	case core.ExpenseRef:
		out := Resolved{ID: r.ID(), Kind: "expense"}
		e, ok := l.expenses[r.ID()]
		if !ok {
			out.Description = fmt.Sprintf("Expense %s not found", r.ID())
			return out
		}
		out.Found = true
		out.Description = e.Description
		out.Category = e.Category
		out.Amount = e.Amount
		out.Date = e.Date
		return out
	case core.BillRef:
		out := Resolved{ID: r.ID(), Kind: "bill"}
		b, ok := l.bills[r.ID()]
		if !ok {
			out.Description = fmt.Sprintf("Bill %s not found", r.ID())
			return out
		}
		out.Found = true
		out.Description = b.Description
		out.Category = b.Category
		out.Amount = b.Amount
		out.Date = b.Date
		return out
	}
	return Resolved{Description: "unknown reference"}
}

// ResolveAll resolves every reference of s in order.
func (l *Lookup) ResolveAll(s core.Settlement) []Resolved {
	refs := s.References()
	out := make([]Resolved, 0, len(refs))
	for _, r := range refs {
		out = append(out, l.Resolve(r))
	}
	return out
}
