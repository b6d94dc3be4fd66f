package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	Role string

	MaintenanceStatus string
	RevenueStatus     string
	ExpenseStatus     string
	BillStatus        string
	SettlementStatus  string
	BatchStatus       string
	BeneficiaryType   string
	RevenueSource     string

	Date struct {
		time.Time
	}

	Money struct {
		Paise int64
	}

	User struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		FlatNo        string `json:"flatNo"`
		Role          Role   `json:"role"`
		Email         string `json:"email,omitempty"`
		Phone         string `json:"phone,omitempty"`
		AccountNumber string `json:"accountNumber,omitempty"`
		IFSCCode      string `json:"ifscCode,omitempty"`
	}

	// Breakdown itemizes the sub-charges of a maintenance bill.
	Breakdown struct {
		WaterCharges   Money `json:"waterCharges"`
		Infrastructure Money `json:"infrastructure"`
		Electricity    Money `json:"electricity"`
		CommonExpenses Money `json:"commonExpenses"`
		Penalty        Money `json:"penalty"`
	}

	MaintenanceTransaction struct {
		ID        string            `json:"id"`
		Amount    Money             `json:"amount"`
		FlatNo    string            `json:"flatNo"`
		Date      Date              `json:"date"`
		DueDate   Date              `json:"dueDate"`
		Status    MaintenanceStatus `json:"status"`
		Breakdown *Breakdown        `json:"breakdown,omitempty"`
		Penalty   Money             `json:"penalty"`
	}

	VendorRevenueTransaction struct {
		ID          string        `json:"id"`
		Amount      Money         `json:"amount"`
		VendorName  string        `json:"vendorName"`
		Date        Date          `json:"date"`
		Status      RevenueStatus `json:"status"`
		StallNumber string        `json:"stallNumber,omitempty"`
	}

	OtherRevenueTransaction struct {
		ID          string        `json:"id"`
		Source      RevenueSource `json:"source"`
		Description string        `json:"description"`
		Amount      Money         `json:"amount"`
		Date        Date          `json:"date"`
		Status      RevenueStatus `json:"status"`
		PayerName   string        `json:"payerName,omitempty"`
	}

	MemberExpense struct {
		ID             string        `json:"id"`
		MemberID       string        `json:"memberId"`
		MemberName     string        `json:"memberName"`
		FlatNo         string        `json:"flatNo"`
		Amount         Money         `json:"amount"`
		Date           Date          `json:"date"`
		Category       string        `json:"category"`
		Description    string        `json:"description"`
		ReceiptURL     string        `json:"receiptUrl,omitempty"`
		Status         ExpenseStatus `json:"status"`
		ApprovalDate   Date          `json:"approvalDate"`
		SettlementDate Date          `json:"settlementDate"`
	}

	VendorBill struct {
		ID            string     `json:"id"`
		VendorName    string     `json:"vendorName"`
		Amount        Money      `json:"amount"`
		Date          Date       `json:"date"`
		Category      string     `json:"category"`
		Description   string     `json:"description"`
		BillURL       string     `json:"billUrl,omitempty"`
		Status        BillStatus `json:"status"`
		AccountNumber string     `json:"accountNumber,omitempty"`
		IFSCCode      string     `json:"ifscCode,omitempty"`
	}

	Settlement struct {
		ID              string           `json:"id"`
		Month           string           `json:"month"` // YYYY-MM
		BeneficiaryName string           `json:"beneficiaryName"`
		BeneficiaryType BeneficiaryType  `json:"beneficiaryType"`
		AccountNumber   string           `json:"accountNumber"`
		IFSCCode        string           `json:"ifscCode"`
		Amount          Money            `json:"amount"`
		Status          SettlementStatus `json:"status"`
		GeneratedDate   Date             `json:"generatedDate"`
		ProcessedDate   Date             `json:"processedDate"`
		ReferenceIDs    []string         `json:"referenceIds"`
	}

	SettlementBatch struct {
		ID          string       `json:"id"`
		Month       string       `json:"month"` // YYYY-MM
		TotalAmount Money        `json:"totalAmount"`
		Settlements []Settlement `json:"settlements"`
		Status      BatchStatus  `json:"status"`
		CreatedDate Date         `json:"createdDate"`
		GeneratedBy string       `json:"generatedBy"`
	}

	// MonthlyStats is a precomputed summary for one month.
	MonthlyStats struct {
		Month           string `json:"month"` // YYYY-MM
		TotalCollection Money  `json:"totalCollection"`
		TotalExpenses   Money  `json:"totalExpenses"`
		PendingPayments Money  `json:"pendingPayments"`
		OverdueCount    int    `json:"overdueCount"`
		NetBalance      Money  `json:"netBalance"`
	}
)

const (
	RoleResident   Role = "resident"
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"

	MaintenancePaid    MaintenanceStatus = "paid"
	MaintenancePending MaintenanceStatus = "pending"
	MaintenanceOverdue MaintenanceStatus = "overdue"

	RevenuePaid    RevenueStatus = "paid"
	RevenuePending RevenueStatus = "pending"

	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
	ExpenseSettled  ExpenseStatus = "settled"

	BillPending  BillStatus = "pending"
	BillApproved BillStatus = "approved"
	BillSettled  BillStatus = "settled"

	SettlementPending    SettlementStatus = "pending"
	SettlementApproved   SettlementStatus = "approved"
	SettlementReimbursed SettlementStatus = "reimbursed"

	BatchDraft     BatchStatus = "draft"
	BatchGenerated BatchStatus = "generated"
	BatchUploaded  BatchStatus = "uploaded"
	BatchProcessed BatchStatus = "processed"

	BeneficiaryMember BeneficiaryType = "member"
	BeneficiaryVendor BeneficiaryType = "vendor"

	SourceCultural  RevenueSource = "Cultural"
	SourceMarketing RevenueSource = "Marketing"
	SourceFacility  RevenueSource = "Facility"
	SourceOther     RevenueSource = "Other"
)

var (
	ErrEmptyID          = errors.New("empty id")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidRole      = errors.New("invalid role")
	ErrEmptyBeneficiary = errors.New("empty beneficiary name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts the serializations found in seed files and request
// parameters: plain dates, RFC3339 timestamps and bare YYYY-MM months.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Year returns the calendar year
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// IsEmpty reports whether an optional date was left unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MonthKey formats the date as YYYY-MM.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// String renders the date as YYYY-MM-DD, or an empty string when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ParseMonthKey validates a YYYY-MM key and returns its first day.
func ParseMonthKey(key string) (Date, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(key))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidMonth, key)
	}
	return Date{Time: t}, nil
}

func (m Money) Validate() error {
	if m.Paise < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleAdmin, RoleAccountant:
		return true
	}
	return false
}

// ParseRole normalizes a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

func (s SettlementStatus) Valid() bool {
	switch s {
	case SettlementPending, SettlementApproved, SettlementReimbursed:
		return true
	}
	return false
}

// Rank orders settlement states along the forward-only workflow.
func (s SettlementStatus) Rank() int {
	switch s {
	case SettlementPending:
		return 0
	case SettlementApproved:
		return 1
	case SettlementReimbursed:
		return 2
	}
	return -1
}

// NormalizeSettlementStatus maps legacy batch-era statuses onto the
// three-state workflow.
func NormalizeSettlementStatus(s string) (SettlementStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return SettlementPending, nil
	case "approved", "generated", "uploaded":
		return SettlementApproved, nil
	case "reimbursed", "processed":
		return SettlementReimbursed, nil
	}
	return "", fmt.Errorf("%w: settlement %q", ErrInvalidStatus, s)
}

func (s BatchStatus) Rank() int {
	switch s {
	case BatchDraft:
		return 0
	case BatchGenerated:
		return 1
	case BatchUploaded:
		return 2
	case BatchProcessed:
		return 3
	}
	return -1
}

// Total sums all sub-charges.
func (b Breakdown) Total() Money {
	return Money{Paise: b.WaterCharges.Paise + b.Infrastructure.Paise + b.Electricity.Paise +
		b.CommonExpenses.Paise + b.Penalty.Paise}
}

// HasBankDetails reports whether both account number and IFSC code are present.
func (s Settlement) HasBankDetails() bool {
	return strings.TrimSpace(s.AccountNumber) != "" && strings.TrimSpace(s.IFSCCode) != ""
}

// References returns the typed references of the settlement.
func (s Settlement) References() []Reference {
	refs := make([]Reference, 0, len(s.ReferenceIDs))
	for _, id := range s.ReferenceIDs {
		refs = append(refs, NewReference(s.BeneficiaryType, id))
	}
	return refs
}

func (t MaintenanceTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.DueDate.validate(); err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	switch t.Status {
	case MaintenancePaid, MaintenancePending, MaintenanceOverdue:
	default:
		return fmt.Errorf("%w: maintenance %q", ErrInvalidStatus, t.Status)
	}
	return nil
}

func (t VendorRevenueTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.validate(); err != nil {
		return err
	}
	return validateRevenueStatus(t.Status)
}

func (t OtherRevenueTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.validate(); err != nil {
		return err
	}
	switch t.Source {
	case SourceCultural, SourceMarketing, SourceFacility, SourceOther:
	default:
		return fmt.Errorf("invalid revenue source %q", t.Source)
	}
	return validateRevenueStatus(t.Status)
}

func validateRevenueStatus(s RevenueStatus) error {
	if s != RevenuePaid && s != RevenuePending {
		return fmt.Errorf("%w: revenue %q", ErrInvalidStatus, s)
	}
	return nil
}

func (e MemberExpense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.MemberID) == "" {
		return errors.New("empty member id")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.validate(); err != nil {
		return err
	}
	switch e.Status {
	case ExpensePending, ExpenseApproved, ExpenseRejected, ExpenseSettled:
	default:
		return fmt.Errorf("%w: expense %q", ErrInvalidStatus, e.Status)
	}
	return nil
}

func (b VendorBill) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrEmptyID
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.Date.validate(); err != nil {
		return err
	}
	switch b.Status {
	case BillPending, BillApproved, BillSettled:
	default:
		return fmt.Errorf("%w: bill %q", ErrInvalidStatus, b.Status)
	}
	return nil
}

// Validate checks the record shape only; bank details are checked by the
// workflow at transition time so that incomplete settlements can still be listed.
func (s Settlement) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(s.BeneficiaryName) == "" {
		return ErrEmptyBeneficiary
	}
	if _, err := ParseMonthKey(s.Month); err != nil {
		return err
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if s.BeneficiaryType != BeneficiaryMember && s.BeneficiaryType != BeneficiaryVendor {
		return fmt.Errorf("invalid beneficiary type %q", s.BeneficiaryType)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: settlement %q", ErrInvalidStatus, s.Status)
	}
	return nil
}

func (st MonthlyStats) Validate() error {
	if _, err := ParseMonthKey(st.Month); err != nil {
		return err
	}
	if st.OverdueCount < 0 {
		return errors.New("negative overdue count")
	}
	return nil
}
