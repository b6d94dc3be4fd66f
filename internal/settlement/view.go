package settlement

import (
	"slices"

	"society/internal/core"
)

// View is the state of the settlement screen: the month under review, the
// status column on display and the rows ticked in it. It is passed in and
// returned by every workflow call instead of living in shared state.
type View struct {
	Month    string                `json:"month"` // YYYY-MM, empty for every month
	Tab      core.SettlementStatus `json:"tab"`
	Selected []string              `json:"selected"`
}

// NewView opens the pending column for month with nothing selected.
func NewView(month string) View {
	return View{Month: month, Tab: core.SettlementPending, Selected: []string{}}
}

// SetTab switches column. The selection never carries over.
func (v View) SetTab(tab core.SettlementStatus) View {
	v.Tab = tab
	v.Selected = []string{}
	return v
}

func (v View) IsSelected(id string) bool {
	return slices.Contains(v.Selected, id)
}

// ToggleSelect adds id to the selection or removes it when already present.
func (v View) ToggleSelect(id string) View {
	next := make([]string, 0, len(v.Selected)+1)
	found := false
	for _, s := range v.Selected {
		if s == id {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, id)
	}
	v.Selected = next
	return v
}

// ToggleSelectAll selects every row of the current column, or clears the
// selection when all of them are already selected.
func (v View) ToggleSelectAll(all []core.Settlement) View {
	rows := v.Rows(all)
	allSelected := len(rows) > 0
	for _, r := range rows {
		if !v.IsSelected(r.ID) {
			allSelected = false
			break
		}
	}
	if allSelected {
		v.Selected = []string{}
		return v
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	v.Selected = ids
	return v
}

// Rows returns the settlements shown in the current column.
func (v View) Rows(all []core.Settlement) []core.Settlement {
	out := make([]core.Settlement, 0)
	for _, s := range all {
		if s.Status != v.Tab {
			continue
		}
		if v.Month != "" && s.Month != v.Month {
			continue
		}
		out = append(out, s)
	}
	return out
}
