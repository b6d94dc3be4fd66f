package settlement

import (
	"errors"
	"testing"

	"society/internal/core"
)

func TestBuildBatch(t *testing.T) {
	all := []core.Settlement{
		settlement("S1", 1000, core.SettlementApproved),
		settlement("S2", 2500, core.SettlementApproved),
		settlement("S3", 700, core.SettlementPending),
	}
	v := selectAll(NewView("2026-01").SetTab(core.SettlementApproved), "S1", "S2")

	batch, res, err := BuildBatch(all, v, "U3", now)
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}
	if batch.ID == "" || batch.Status != core.BatchGenerated || batch.Month != "2026-01" {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if batch.TotalAmount != core.Rupees(3500) || len(batch.Settlements) != 2 {
		t.Fatalf("total %v over %d settlements", batch.TotalAmount, len(batch.Settlements))
	}
	if res.Settlements[0].GeneratedDate.IsEmpty() || !res.Settlements[2].GeneratedDate.IsEmpty() {
		t.Fatalf("generated date stamped on the wrong rows")
	}
	if !all[0].GeneratedDate.IsEmpty() {
		t.Fatalf("input mutated")
	}
	if len(res.View.Selected) != 0 || res.View.Tab != core.SettlementApproved {
		t.Fatalf("view = %+v", res.View)
	}
}

func TestBuildBatchRefusals(t *testing.T) {
	all := []core.Settlement{
		settlement("S1", 1000, core.SettlementApproved),
		settlement("S3", 700, core.SettlementPending),
	}
	if _, _, err := BuildBatch(all, selectAll(NewView(""), "S3"), "U3", now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending settlement must not be batched, got %v", err)
	}
	all[0].AccountNumber = ""
	_, _, err := BuildBatch(all, selectAll(NewView(""), "S1"), "U3", now)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAdvanceBatchForwardOnly(t *testing.T) {
	b := core.SettlementBatch{ID: "B1", Status: core.BatchGenerated}
	b, err := AdvanceBatch(b, core.BatchUploaded)
	if err != nil || b.Status != core.BatchUploaded {
		t.Fatalf("advance: %v %s", err, b.Status)
	}
	for _, to := range []core.BatchStatus{core.BatchDraft, core.BatchGenerated, core.BatchUploaded, "lost"} {
		if _, err := AdvanceBatch(b, to); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s: expected refusal, got %v", to, err)
		}
	}
}
