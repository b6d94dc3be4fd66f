package settlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"society/internal/core"
)

// BuildBatch bundles the selected approved settlements into a generated batch
// for bank upload. The selected settlements get their generated date stamped;
// the returned Result carries the updated collection and a cleared selection.
func BuildBatch(all []core.Settlement, v View, generatedBy string, now time.Time) (core.SettlementBatch, Result, error) {
	keep := Result{View: v, Settlements: all}
	selected, err := Selection(all, v, core.SettlementApproved)
	if err != nil {
		return core.SettlementBatch{}, keep, err
	}
	if err := Validate(selected); err != nil {
		return core.SettlementBatch{}, keep, err
	}

	stamp := core.Date{Time: now}
	picked := make(map[string]bool, len(selected))
	for _, s := range selected {
		picked[s.ID] = true
	}
	next := make([]core.Settlement, len(all))
	members := make([]core.Settlement, 0, len(selected))
	var total core.Money
	for i, s := range all {
		if picked[s.ID] {
			s.GeneratedDate = stamp
			members = append(members, s)
			total = total.Add(s.Amount)
		}
		next[i] = s
	}

	month := v.Month
	if _, err := core.ParseMonthKey(month); err != nil {
		month = members[0].Month
	}

	batch := core.SettlementBatch{
		ID:          uuid.NewString(),
		Month:       month,
		TotalAmount: total,
		Settlements: members,
		Status:      core.BatchDraft,
		CreatedDate: stamp,
		GeneratedBy: generatedBy,
	}
	batch, err = AdvanceBatch(batch, core.BatchGenerated)
	if err != nil {
		return core.SettlementBatch{}, keep, err
	}

	v.Selected = []string{}
	return batch, Result{View: v, Settlements: next, Changed: members}, nil
}

// AdvanceBatch moves a batch forward through draft, generated, uploaded and
// processed. Moving backwards or staying put is refused.
func AdvanceBatch(b core.SettlementBatch, to core.BatchStatus) (core.SettlementBatch, error) {
	if to.Rank() < 0 {
		return b, fmt.Errorf("%w: unknown batch status %q", ErrInvalidTransition, to)
	}
	if to.Rank() <= b.Status.Rank() {
		return b, fmt.Errorf("%w: batch %s is %s, cannot move to %s", ErrInvalidTransition, b.ID, b.Status, to)
	}
	b.Status = to
	return b, nil
}
