package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"society/internal/core"
)

const sheetName = "Settlements"

// XLSX renders the bulk-upload workbook. Amount is written as a number.
func XLSX(b core.SettlementBatch, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range Rows(b, opts) {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		values[3] = b.Settlements[i].Amount.Float()
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err == nil {
		_ = f.SetColStyle(sheetName, "D", style)
	}
	_ = f.SetColWidth(sheetName, "A", "A", 28)
	_ = f.SetColWidth(sheetName, "F", "G", 24)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
