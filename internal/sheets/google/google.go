// Package google appends generated settlement batches to a Google Sheets
// ledger kept by the society committee.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"society/internal/core"
	"society/internal/export"
	"society/internal/ledger"
)

// Header is the first row of the ledger sheet.
var Header = append([]string{"Batch ID", "Month", "Created", "Generated By"}, export.Columns...)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	paymentMode   string
}

var _ ledger.BatchLedgerWriter = (*Client)(nil)

// Credentials locate a service account key: inline JSON wins over a file path.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	if f := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); f != "" {
		return os.ReadFile(f)
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// New creates a Sheets ledger writer for spreadsheetID/sheetName.
func New(ctx context.Context, spreadsheetID, sheetName, paymentMode string, creds Credentials) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Settlements"
	}
	raw, err := creds.load()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets ledger ready", "sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, paymentMode: paymentMode}, nil
}

// AppendBatch writes one row per settlement of b. A batch already present in
// the sheet is skipped, so redelivered events do not duplicate rows.
func (c *Client) AppendBatch(ctx context.Context, b core.SettlementBatch) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ledger ids: %w", err)
	}
	if hasBatch(resp.Values, b.ID) {
		slog.InfoContext(ctx, "Batch already in ledger sheet", "batch_id", b.ID)
		return nil
	}

	values := batchValues(b, export.Options{PaymentMode: c.paymentMode})
	if len(resp.Values) == 0 {
		values = append([][]any{toAny(Header)}, values...)
	}
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.sheetName+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append batch %s: %w", b.ID, err)
	}
	slog.InfoContext(ctx, "Appended batch to ledger sheet", "batch_id", b.ID, "rows", len(b.Settlements))
	return nil
}

func batchValues(b core.SettlementBatch, opts export.Options) [][]any {
	rows := export.Rows(b, opts)
	out := make([][]any, 0, len(rows))
	for i, r := range rows {
		row := []any{b.ID, b.Month, b.CreatedDate.String(), b.GeneratedBy}
		row = append(row, toAny(r)...)
		row[4+3] = b.Settlements[i].Amount.Float() // numeric cell
		out = append(out, row)
	}
	return out
}

func hasBatch(col [][]any, id string) bool {
	for _, row := range col {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			return true
		}
	}
	return false
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
