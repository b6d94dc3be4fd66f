package memory

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"society/internal/core"
)

//go:embed seed/default.yaml
var defaultSeed []byte

// Seed is the on-disk shape of a record set. Amounts are rupee decimals and
// dates are YYYY-MM-DD strings.
type Seed struct {
	Users          []userRow       `yaml:"users"`
	Maintenance    []maintRow      `yaml:"maintenance"`
	VendorRevenue  []vendorRevRow  `yaml:"vendorRevenue"`
	OtherRevenue   []otherRevRow   `yaml:"otherRevenue"`
	MemberExpenses []expenseRow    `yaml:"memberExpenses"`
	VendorBills    []billRow       `yaml:"vendorBills"`
	Settlements    []settlementRow `yaml:"settlements"`
	MonthlyStats   []statsRow      `yaml:"monthlyStats"`
}

type userRow struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	FlatNo        string `yaml:"flatNo"`
	Role          string `yaml:"role"`
	Email         string `yaml:"email"`
	Phone         string `yaml:"phone"`
	AccountNumber string `yaml:"accountNumber"`
	IFSCCode      string `yaml:"ifscCode"`
}

type breakdownRow struct {
	WaterCharges   string `yaml:"waterCharges"`
	Infrastructure string `yaml:"infrastructure"`
	Electricity    string `yaml:"electricity"`
	CommonExpenses string `yaml:"commonExpenses"`
	Penalty        string `yaml:"penalty"`
}

type maintRow struct {
	ID        string        `yaml:"id"`
	Amount    string        `yaml:"amount"`
	FlatNo    string        `yaml:"flatNo"`
	Date      string        `yaml:"date"`
	DueDate   string        `yaml:"dueDate"`
	Status    string        `yaml:"status"`
	Penalty   string        `yaml:"penalty"`
	Breakdown *breakdownRow `yaml:"breakdown"`
}

type vendorRevRow struct {
	ID          string `yaml:"id"`
	Amount      string `yaml:"amount"`
	VendorName  string `yaml:"vendorName"`
	Date        string `yaml:"date"`
	Status      string `yaml:"status"`
	StallNumber string `yaml:"stallNumber"`
}

type otherRevRow struct {
	ID          string `yaml:"id"`
	Source      string `yaml:"source"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	Date        string `yaml:"date"`
	Status      string `yaml:"status"`
	PayerName   string `yaml:"payerName"`
}

type expenseRow struct {
	ID             string `yaml:"id"`
	MemberID       string `yaml:"memberId"`
	MemberName     string `yaml:"memberName"`
	FlatNo         string `yaml:"flatNo"`
	Amount         string `yaml:"amount"`
	Date           string `yaml:"date"`
	Category       string `yaml:"category"`
	Description    string `yaml:"description"`
	ReceiptURL     string `yaml:"receiptUrl"`
	Status         string `yaml:"status"`
	ApprovalDate   string `yaml:"approvalDate"`
	SettlementDate string `yaml:"settlementDate"`
}

type billRow struct {
	ID            string `yaml:"id"`
	VendorName    string `yaml:"vendorName"`
	Amount        string `yaml:"amount"`
	Date          string `yaml:"date"`
	Category      string `yaml:"category"`
	Description   string `yaml:"description"`
	BillURL       string `yaml:"billUrl"`
	Status        string `yaml:"status"`
	AccountNumber string `yaml:"accountNumber"`
	IFSCCode      string `yaml:"ifscCode"`
}

type settlementRow struct {
	ID              string   `yaml:"id"`
	Month           string   `yaml:"month"`
	BeneficiaryName string   `yaml:"beneficiaryName"`
	BeneficiaryType string   `yaml:"beneficiaryType"`
	AccountNumber   string   `yaml:"accountNumber"`
	IFSCCode        string   `yaml:"ifscCode"`
	Amount          string   `yaml:"amount"`
	Status          string   `yaml:"status"`
	GeneratedDate   string   `yaml:"generatedDate"`
	ProcessedDate   string   `yaml:"processedDate"`
	ReferenceIDs    []string `yaml:"referenceIds"`
}

type statsRow struct {
	Month           string `yaml:"month"`
	TotalCollection string `yaml:"totalCollection"`
	TotalExpenses   string `yaml:"totalExpenses"`
	PendingPayments string `yaml:"pendingPayments"`
	OverdueCount    int    `yaml:"overdueCount"`
	NetBalance      string `yaml:"netBalance"`
}

// Records is a decoded and validated record set.
type Records struct {
	Users          []core.User
	Maintenance    []core.MaintenanceTransaction
	VendorRevenue  []core.VendorRevenueTransaction
	OtherRevenue   []core.OtherRevenueTransaction
	MemberExpenses []core.MemberExpense
	VendorBills    []core.VendorBill
	Settlements    []core.Settlement
	MonthlyStats   []core.MonthlyStats
}

// ParseSeed decodes a YAML record set and validates every record.
func ParseSeed(data []byte) (Records, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Records{}, fmt.Errorf("decode seed: %w", err)
	}
	return s.records()
}

// DefaultRecords returns the built-in demo record set.
func DefaultRecords() (Records, error) {
	return ParseSeed(defaultSeed)
}

// decoder accumulates the first conversion error so rows read linearly.
type decoder struct {
	err error
}

func (d *decoder) money(field, s string) core.Money {
	if d.err != nil || s == "" {
		return core.Money{}
	}
	p, err := core.ParseDecimalToPaise(s)
	if err != nil {
		d.err = fmt.Errorf("%s: %w", field, err)
	}
	return core.Money{Paise: p}
}

func (d *decoder) date(field, s string) core.Date {
	if d.err != nil {
		return core.Date{}
	}
	v, err := core.ParseDate(s)
	if err != nil {
		d.err = fmt.Errorf("%s: %w", field, err)
	}
	return v
}

type validator interface{ Validate() error }

func check(kind, id string, v validator) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%s %q: %w", kind, id, err)
	}
	return nil
}

func (s Seed) records() (Records, error) {
	var r Records
	var d decoder

	for _, u := range s.Users {
		role, err := core.ParseRole(u.Role)
		if err != nil {
			return Records{}, fmt.Errorf("user %q: %w", u.ID, err)
		}
		r.Users = append(r.Users, core.User{
			ID: u.ID, Name: u.Name, FlatNo: u.FlatNo, Role: role, Email: u.Email, Phone: u.Phone,
			AccountNumber: u.AccountNumber, IFSCCode: u.IFSCCode,
		})
	}

	for _, m := range s.Maintenance {
		t := core.MaintenanceTransaction{
			ID: m.ID, Amount: d.money("amount", m.Amount), FlatNo: m.FlatNo,
			Date: d.date("date", m.Date), DueDate: d.date("dueDate", m.DueDate),
			Status: core.MaintenanceStatus(m.Status), Penalty: d.money("penalty", m.Penalty),
		}
		if b := m.Breakdown; b != nil {
			t.Breakdown = &core.Breakdown{
				WaterCharges:   d.money("waterCharges", b.WaterCharges),
				Infrastructure: d.money("infrastructure", b.Infrastructure),
				Electricity:    d.money("electricity", b.Electricity),
				CommonExpenses: d.money("commonExpenses", b.CommonExpenses),
				Penalty:        d.money("penalty", b.Penalty),
			}
		}
		if d.err != nil {
			return Records{}, fmt.Errorf("maintenance %q: %w", m.ID, d.err)
		}
		if err := check("maintenance", m.ID, t); err != nil {
			return Records{}, err
		}
		r.Maintenance = append(r.Maintenance, t)
	}

	for _, v := range s.VendorRevenue {
		t := core.VendorRevenueTransaction{
			ID: v.ID, Amount: d.money("amount", v.Amount), VendorName: v.VendorName,
			Date: d.date("date", v.Date), Status: core.RevenueStatus(v.Status), StallNumber: v.StallNumber,
		}
		if d.err != nil {
			return Records{}, fmt.Errorf("vendor revenue %q: %w", v.ID, d.err)
		}
		if err := check("vendor revenue", v.ID, t); err != nil {
			return Records{}, err
		}
		r.VendorRevenue = append(r.VendorRevenue, t)
	}

	for _, o := range s.OtherRevenue {
		t := core.OtherRevenueTransaction{
			ID: o.ID, Source: core.RevenueSource(o.Source), Description: o.Description,
			Amount: d.money("amount", o.Amount), Date: d.date("date", o.Date),
			Status: core.RevenueStatus(o.Status), PayerName: o.PayerName,
		}
		if d.err != nil {
			return Records{}, fmt.Errorf("other revenue %q: %w", o.ID, d.err)
		}
		if err := check("other revenue", o.ID, t); err != nil {
			return Records{}, err
		}
		r.OtherRevenue = append(r.OtherRevenue, t)
	}

	for _, e := range s.MemberExpenses {
		t := core.MemberExpense{
			ID: e.ID, MemberID: e.MemberID, MemberName: e.MemberName, FlatNo: e.FlatNo,
			Amount: d.money("amount", e.Amount), Date: d.date("date", e.Date),
			Category: e.Category, Description: e.Description, ReceiptURL: e.ReceiptURL,
			Status:         core.ExpenseStatus(e.Status),
			ApprovalDate:   d.date("approvalDate", e.ApprovalDate),
			SettlementDate: d.date("settlementDate", e.SettlementDate),
		}
		if d.err != nil {
			return Records{}, fmt.Errorf("member expense %q: %w", e.ID, d.err)
		}
		if err := check("member expense", e.ID, t); err != nil {
			return Records{}, err
		}
		r.MemberExpenses = append(r.MemberExpenses, t)
	}

	for _, b := range s.VendorBills {
		t := core.VendorBill{
			ID: b.ID, VendorName: b.VendorName, Amount: d.money("amount", b.Amount),
			Date: d.date("date", b.Date), Category: b.Category, Description: b.Description,
			BillURL: b.BillURL, Status: core.BillStatus(b.Status),
			AccountNumber: b.AccountNumber, IFSCCode: b.IFSCCode,
		}
		if d.err != nil {
			return Records{}, fmt.Errorf("vendor bill %q: %w", b.ID, d.err)
		}
		if err := check("vendor bill", b.ID, t); err != nil {
			return Records{}, err
		}
		r.VendorBills = append(r.VendorBills, t)
	}

	for _, st := range s.Settlements {
		status, err := core.NormalizeSettlementStatus(st.Status)
		if err != nil {
			return Records{}, fmt.Errorf("settlement %q: %w", st.ID, err)
		}
		t := core.Settlement{
			ID: st.ID, Month: st.Month, BeneficiaryName: st.BeneficiaryName,
			BeneficiaryType: core.BeneficiaryType(st.BeneficiaryType),
			AccountNumber:   st.AccountNumber, IFSCCode: st.IFSCCode,
			Amount: d.money("amount", st.Amount), Status: status,
			GeneratedDate: d.date("generatedDate", st.GeneratedDate),
			ProcessedDate: d.date("processedDate", st.ProcessedDate),
			ReferenceIDs:  append([]string(nil), st.ReferenceIDs...),
		}
		if d.err != nil {
			return Records{}, fmt.Errorf("settlement %q: %w", st.ID, d.err)
		}
		if err := check("settlement", st.ID, t); err != nil {
			return Records{}, err
		}
		r.Settlements = append(r.Settlements, t)
	}

	for _, m := range s.MonthlyStats {
		t := core.MonthlyStats{
			Month:           m.Month,
			TotalCollection: d.money("totalCollection", m.TotalCollection),
			TotalExpenses:   d.money("totalExpenses", m.TotalExpenses),
			PendingPayments: d.money("pendingPayments", m.PendingPayments),
			OverdueCount:    m.OverdueCount,
			NetBalance:      d.money("netBalance", m.NetBalance),
		}
		if d.err != nil {
			return Records{}, fmt.Errorf("monthly stats %q: %w", m.Month, d.err)
		}
		if err := check("monthly stats", m.Month, t); err != nil {
			return Records{}, err
		}
		r.MonthlyStats = append(r.MonthlyStats, t)
	}

	return r, nil
}
