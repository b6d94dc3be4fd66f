package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"society/internal/core"
)

func testBatch() core.SettlementBatch {
	return core.SettlementBatch{
		ID:          "6f1c2a0e-5b7d-4c1e-9a55-0d2e8e1f4b21",
		Month:       "2026-01",
		Status:      core.BatchGenerated,
		TotalAmount: core.Money{Paise: 1250050},
		CreatedDate: core.NewDate(2026, 2, 1),
		GeneratedBy: "U3",
		Settlements: []core.Settlement{
			{
				ID: "SET1", BeneficiaryName: "Rajesh Kumar", BeneficiaryType: core.BeneficiaryMember,
				AccountNumber: "50100123456789", IFSCCode: "hdfc0001234", Amount: core.Money{Paise: 250050},
				ReferenceIDs: []string{"EXP001", "EXP004"},
			},
			{
				ID: "SET2", BeneficiaryName: "SecureGuard Services", BeneficiaryType: core.BeneficiaryVendor,
				AccountNumber: "1234567890", IFSCCode: "ICIC0000456", Amount: core.Rupees(10000),
			},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(testBatch(), Options{})
	want := []string{"Rajesh Kumar", "50100123456789", "HDFC0001234", "2500.50", "Member", "EXP001,EXP004", "Settlement January 2026", "NEFT"}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Errorf("%s = %q, want %q", Columns[i], rows[0][i], want[i])
		}
	}
	if rows[1][5] != "SET2" || rows[1][4] != "Vendor" {
		t.Errorf("vendor row = %v", rows[1])
	}
	if got := Rows(testBatch(), Options{PaymentMode: "IMPS"})[0][7]; got != "IMPS" {
		t.Errorf("payment mode = %q", got)
	}
}

func TestCSV(t *testing.T) {
	b, err := CSV(testBatch(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0][0] != "Beneficiary Name" || records[0][7] != "Payment Mode" {
		t.Fatalf("records = %v", records)
	}
	if records[1][5] != "EXP001,EXP004" {
		t.Fatalf("reference column = %q", records[1][5])
	}
}

func TestXLSX(t *testing.T) {
	b, err := XLSX(testBatch(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i, c := range Columns {
		if rows[0][i] != c {
			t.Errorf("header %d = %q, want %q", i, rows[0][i], c)
		}
	}
	if rows[2][0] != "SecureGuard Services" {
		t.Errorf("second row = %v", rows[2])
	}
}

func TestPDF(t *testing.T) {
	b, err := PDF(testBatch(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("xlsx, CSV,,pdf")
	if err != nil || len(got) != 3 || got[1] != FormatCSV {
		t.Fatalf("got %v %v", got, err)
	}
	if _, err := ParseFormats("xlsx,doc"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if FileName(testBatch(), FormatCSV) != "settlement-2026-01-6f1c2a0e.csv" {
		t.Fatalf("file name = %s", FileName(testBatch(), FormatCSV))
	}
}

func TestRemarksFallback(t *testing.T) {
	if got := Remarks("bogus"); got != "Settlement bogus" {
		t.Fatalf("got %q", got)
	}
}
