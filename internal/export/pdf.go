package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"society/internal/core"
)

// PDF renders a printable statement of the batch for the committee records.
func PDF(b core.SettlementBatch, opts Options) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Settlement Batch")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Batch: %s", b.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, Remarks(b.Month))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", b.Status))
	pdf.Ln(5)
	if !b.CreatedDate.IsEmpty() {
		pdf.Cell(0, 6, fmt.Sprintf("Created: %s by %s", b.CreatedDate, b.GeneratedBy))
		pdf.Ln(5)
	}
	// the core fonts have no rupee glyph
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount (INR): %s", b.TotalAmount.Decimal()))
	pdf.Ln(8)

	widths := []float64{48, 34, 28, 26, 24, 40, 48, 22}
	pdf.SetFont("Arial", "B", 8)
	for i, c := range Columns {
		pdf.CellFormat(widths[i], 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, row := range Rows(b, opts) {
		for i, v := range row {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
