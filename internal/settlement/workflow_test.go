package settlement

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"society/internal/core"
)

var now = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

func settlement(id string, amount int64, status core.SettlementStatus) core.Settlement {
	return core.Settlement{
		ID: id, Month: "2026-01", BeneficiaryName: "Beneficiary " + id,
		BeneficiaryType: core.BeneficiaryMember, AccountNumber: "0012345678",
		IFSCCode: "HDFC0001234", Amount: core.Rupees(amount), Status: status,
	}
}

func selectAll(v View, ids ...string) View {
	for _, id := range ids {
		v = v.ToggleSelect(id)
	}
	return v
}

func TestApproveRefusedWhenBankDetailsMissing(t *testing.T) {
	all := []core.Settlement{
		settlement("S1", 1000, core.SettlementPending),
		settlement("S2", 2000, core.SettlementPending),
		settlement("S3", 3000, core.SettlementPending),
	}
	all[1].IFSCCode = ""
	v := selectAll(NewView("2026-01"), "S1", "S2", "S3")

	res, err := Approve(all, v, now)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Invalid) != 1 || verr.Invalid[0].ID != "S2" {
		t.Fatalf("expected exactly S2 invalid, got %+v", verr.Invalid)
	}
	for _, s := range all {
		if s.Status != core.SettlementPending {
			t.Fatalf("input mutated: %s is %s", s.ID, s.Status)
		}
	}
	for _, s := range res.Settlements {
		if s.Status != core.SettlementPending {
			t.Fatalf("refused transition applied to %s", s.ID)
		}
	}
	if len(res.View.Selected) != 3 || res.View.Tab != core.SettlementPending {
		t.Fatalf("view must be kept on refusal, got %+v", res.View)
	}
}

func TestApproveThenReimburse(t *testing.T) {
	all := []core.Settlement{
		settlement("S1", 1000, core.SettlementPending),
		settlement("S2", 2000, core.SettlementPending),
	}
	v := selectAll(NewView("2026-01"), "S1")

	res, err := Approve(all, v, now)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.View.Tab != core.SettlementApproved || len(res.View.Selected) != 0 {
		t.Fatalf("view not advanced: %+v", res.View)
	}
	if res.Settlements[0].Status != core.SettlementApproved || res.Settlements[1].Status != core.SettlementPending {
		t.Fatalf("unexpected statuses %+v", res.Settlements)
	}
	if len(res.Changed) != 1 || res.Changed[0].ID != "S1" {
		t.Fatalf("changed = %+v", res.Changed)
	}

	res, err = Reimburse(res.Settlements, res.View.ToggleSelect("S1"), now)
	if err != nil {
		t.Fatalf("Reimburse: %v", err)
	}
	got := res.Settlements[0]
	if got.Status != core.SettlementReimbursed || got.ProcessedDate.IsEmpty() {
		t.Fatalf("expected reimbursed with processed date, got %+v", got)
	}
	if res.View.Tab != core.SettlementReimbursed {
		t.Fatalf("tab = %s", res.View.Tab)
	}
}

func TestTransitionRefusals(t *testing.T) {
	all := []core.Settlement{
		settlement("P", 100, core.SettlementPending),
		settlement("A", 100, core.SettlementApproved),
		settlement("R", 100, core.SettlementReimbursed),
	}
	tests := []struct {
		name    string
		ids     []string
		to      core.SettlementStatus
		wantErr error
	}{
		{name: "empty selection", to: core.SettlementApproved, wantErr: ErrEmptySelection},
		{name: "unknown id", ids: []string{"X"}, to: core.SettlementApproved, wantErr: ErrInvalidTransition},
		{name: "approve approved", ids: []string{"A"}, to: core.SettlementApproved, wantErr: ErrInvalidTransition},
		{name: "reimburse pending", ids: []string{"P"}, to: core.SettlementReimbursed, wantErr: ErrInvalidTransition},
		{name: "back to pending", ids: []string{"R"}, to: core.SettlementPending, wantErr: ErrInvalidTransition},
		{name: "mixed selection", ids: []string{"P", "A"}, to: core.SettlementApproved, wantErr: ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := selectAll(NewView(""), tt.ids...)
			res, err := Transition(all, v, tt.to, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			for i := range all {
				if res.Settlements[i].Status != all[i].Status {
					t.Fatalf("refused transition changed %s", all[i].ID)
				}
			}
		})
	}
}

func TestCheckDoesNotApply(t *testing.T) {
	all := []core.Settlement{settlement("S1", 100, core.SettlementPending)}
	all[0].AccountNumber = " "
	_, err := Check(all, selectAll(NewView(""), "S1"), core.SettlementApproved)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Invalid) != 1 {
		t.Fatalf("expected one invalid settlement, got %v", err)
	}
	if all[0].Status != core.SettlementPending {
		t.Fatalf("Check must not change state")
	}
}

func TestTransitionsAreMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	all := make([]core.Settlement, 0, 20)
	for i := 0; i < 20; i++ {
		s := settlement(string(rune('a'+i)), int64(100*(i+1)), core.SettlementPending)
		if rng.Intn(4) == 0 {
			s.IFSCCode = ""
		}
		all = append(all, s)
	}
	targets := []core.SettlementStatus{core.SettlementPending, core.SettlementApproved, core.SettlementReimbursed}

	for step := 0; step < 500; step++ {
		v := NewView("")
		for _, s := range all {
			if rng.Intn(3) == 0 {
				v = v.ToggleSelect(s.ID)
			}
		}
		res, err := Transition(all, v, targets[rng.Intn(len(targets))], now)
		for i := range all {
			before, after := all[i].Status.Rank(), res.Settlements[i].Status.Rank()
			if after < before {
				t.Fatalf("step %d: %s regressed from %s to %s", step, all[i].ID, all[i].Status, res.Settlements[i].Status)
			}
			if err != nil && after != before {
				t.Fatalf("step %d: failed transition changed %s", step, all[i].ID)
			}
		}
		all = res.Settlements
	}
}
