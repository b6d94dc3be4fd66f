package google

import (
	"context"
	"testing"

	"society/internal/core"
	"society/internal/export"
)

func TestBatchValues(t *testing.T) {
	b := core.SettlementBatch{
		ID: "B1", Month: "2026-01", CreatedDate: core.NewDate(2026, 2, 1), GeneratedBy: "U004",
		Settlements: []core.Settlement{{
			ID: "S1", BeneficiaryName: "Rajesh Kumar", BeneficiaryType: core.BeneficiaryMember,
			AccountNumber: "50100123456789", IFSCCode: "HDFC0001234", Amount: core.Money{Paise: 150050},
		}},
	}
	rows := batchValues(b, export.Options{})
	if len(rows) != 1 || len(rows[0]) != len(Header) {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "B1" || rows[0][2] != "2026-02-01" || rows[0][4] != "Rajesh Kumar" {
		t.Errorf("row = %v", rows[0])
	}
	if amount, ok := rows[0][7].(float64); !ok || amount != 1500.50 {
		t.Errorf("amount cell = %#v", rows[0][7])
	}
	if rows[0][11] != "NEFT" {
		t.Errorf("payment mode = %v", rows[0][11])
	}
}

func TestHasBatch(t *testing.T) {
	col := [][]any{{"Batch ID"}, {"B1"}, {}, {"B2"}}
	if !hasBatch(col, "B2") || hasBatch(col, "B3") {
		t.Fatal("hasBatch mismatch")
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := New(context.Background(), "", "Settlements", "", Credentials{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if _, err := New(context.Background(), "sheet-id", "Settlements", "", Credentials{}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestAppendBatchWithoutService(t *testing.T) {
	if err := (&Client{}).AppendBatch(context.Background(), core.SettlementBatch{ID: "B1"}); err == nil {
		t.Fatal("expected error without a service")
	}
}
