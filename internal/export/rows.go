// Package export renders settlement batches in the bank bulk-upload layout.
package export

import (
	"errors"
	"fmt"
	"strings"

	"society/internal/core"
)

// Columns is the fixed header of the bulk-upload file.
var Columns = []string{
	"Beneficiary Name",
	"Account Number",
	"IFSC Code",
	"Amount",
	"Beneficiary Type",
	"Reference ID",
	"Remarks",
	"Payment Mode",
}

const DefaultPaymentMode = "NEFT"

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats reads a comma separated list such as "xlsx,csv".
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName is the download name of a batch export.
func FileName(b core.SettlementBatch, f Format) string {
	return fmt.Sprintf("settlement-%s-%s.%s", b.Month, shortID(b.ID), f)
}

type Options struct {
	PaymentMode string
}

func (o Options) paymentMode() string {
	if strings.TrimSpace(o.PaymentMode) == "" {
		return DefaultPaymentMode
	}
	return o.PaymentMode
}

// Rows returns one record per settlement in column order.
func Rows(b core.SettlementBatch, opts Options) [][]string {
	remarks := Remarks(b.Month)
	out := make([][]string, 0, len(b.Settlements))
	for _, s := range b.Settlements {
		out = append(out, []string{
			s.BeneficiaryName,
			s.AccountNumber,
			strings.ToUpper(s.IFSCCode),
			s.Amount.Decimal(),
			beneficiaryLabel(s.BeneficiaryType),
			ReferenceID(s),
			remarks,
			opts.paymentMode(),
		})
	}
	return out
}

// ReferenceID joins the settlement's reference ids, falling back to its own id.
func ReferenceID(s core.Settlement) string {
	if len(s.ReferenceIDs) == 0 {
		return s.ID
	}
	return strings.Join(s.ReferenceIDs, ",")
}

// Remarks renders "Settlement January 2026" for month "2026-01".
func Remarks(month string) string {
	d, err := core.ParseMonthKey(month)
	if err != nil {
		return "Settlement " + month
	}
	return "Settlement " + d.Format("January 2006")
}

func beneficiaryLabel(t core.BeneficiaryType) string {
	switch t {
	case core.BeneficiaryMember:
		return "Member"
	case core.BeneficiaryVendor:
		return "Vendor"
	}
	return string(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Render produces the batch file in format f.
func Render(f Format, b core.SettlementBatch, opts Options) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return XLSX(b, opts)
	case FormatCSV:
		return CSV(b, opts)
	case FormatPDF:
		return PDF(b, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
