package export

import (
	"bytes"
	"encoding/csv"

	"society/internal/core"
)

// CSV renders the bulk-upload file as comma separated values.
func CSV(b core.SettlementBatch, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	if err := w.WriteAll(Rows(b, opts)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
