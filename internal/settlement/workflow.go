package settlement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"society/internal/core"
)

var (
	ErrEmptySelection    = errors.New("no settlements selected")
	ErrInvalidTransition = errors.New("invalid settlement transition")
)

// ValidationError lists the selected settlements that cannot move forward
// because their bank details are incomplete.
type ValidationError struct {
	Invalid []core.Settlement
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Invalid))
	for _, s := range e.Invalid {
		names = append(names, s.BeneficiaryName)
	}
	return fmt.Sprintf("%d settlement(s) missing account number or IFSC code: %s",
		len(e.Invalid), strings.Join(names, ", "))
}

// Result is the outcome of a successful transition.
type Result struct {
	View        View
	Settlements []core.Settlement // the full collection after the transition
	Changed     []core.Settlement
}

// Validate checks that every settlement carries both an account number and an
// IFSC code.
func Validate(selected []core.Settlement) error {
	var invalid []core.Settlement
	for _, s := range selected {
		if !s.HasBankDetails() {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Invalid: invalid}
	}
	return nil
}

// Selection resolves the ids selected in v against all. Every id must exist
// and be in state from.
func Selection(all []core.Settlement, v View, from core.SettlementStatus) ([]core.Settlement, error) {
	if len(v.Selected) == 0 {
		return nil, ErrEmptySelection
	}
	byID := make(map[string]core.Settlement, len(all))
	for _, s := range all {
		byID[s.ID] = s
	}
	out := make([]core.Settlement, 0, len(v.Selected))
	seen := make(map[string]bool, len(v.Selected))
	for _, id := range v.Selected {
		if seen[id] {
			continue
		}
		seen[id] = true
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown settlement %q", ErrInvalidTransition, id)
		}
		if s.Status != from {
			return nil, fmt.Errorf("%w: settlement %q is %s, not %s", ErrInvalidTransition, id, s.Status, from)
		}
		out = append(out, s)
	}
	return out, nil
}

// Check runs the transition checks without applying anything.
func Check(all []core.Settlement, v View, to core.SettlementStatus) ([]core.Settlement, error) {
	from, err := source(to)
	if err != nil {
		return nil, err
	}
	selected, err := Selection(all, v, from)
	if err != nil {
		return nil, err
	}
	return selected, Validate(selected)
}

// Transition moves the selected settlements one step forward to state to.
// Either every selected settlement moves or none does: all is never
// modified, the updated collection is returned in the Result.
func Transition(all []core.Settlement, v View, to core.SettlementStatus, now time.Time) (Result, error) {
	selected, err := Check(all, v, to)
	if err != nil {
		return Result{View: v, Settlements: all}, err
	}

	picked := make(map[string]bool, len(selected))
	for _, s := range selected {
		picked[s.ID] = true
	}
	stamp := core.Date{Time: now}
	next := make([]core.Settlement, len(all))
	changed := make([]core.Settlement, 0, len(selected))
	for i, s := range all {
		if picked[s.ID] {
			s.Status = to
			if to == core.SettlementReimbursed {
				s.ProcessedDate = stamp
			}
			changed = append(changed, s)
		}
		next[i] = s
	}

	return Result{View: v.SetTab(to), Settlements: next, Changed: changed}, nil
}

// Approve moves the selection from pending to approved.
func Approve(all []core.Settlement, v View, now time.Time) (Result, error) {
	return Transition(all, v, core.SettlementApproved, now)
}

// Reimburse moves the selection from approved to reimbursed.
func Reimburse(all []core.Settlement, v View, now time.Time) (Result, error) {
	return Transition(all, v, core.SettlementReimbursed, now)
}

func source(to core.SettlementStatus) (core.SettlementStatus, error) {
	switch to {
	case core.SettlementApproved:
		return core.SettlementPending, nil
	case core.SettlementReimbursed:
		return core.SettlementApproved, nil
	}
	return "", fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, to)
}
