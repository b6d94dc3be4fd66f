package core

// Reference points a settlement back at the record it pays out.
// It is either an ExpenseRef (member reimbursements) or a BillRef (vendor payments).
type Reference interface {
	ID() string
	isReference()
}

// ExpenseRef references a MemberExpense by id.
type ExpenseRef string

// BillRef references a VendorBill by id.
type BillRef string

func (r ExpenseRef) ID() string { return string(r) }
func (r BillRef) ID() string    { return string(r) }

func (ExpenseRef) isReference() {}
func (BillRef) isReference()    {}

// NewReference types a raw reference id using the beneficiary kind of the
// owning settlement.
func NewReference(kind BeneficiaryType, id string) Reference {
	if kind == BeneficiaryVendor {
		return BillRef(id)
	}
	return ExpenseRef(id)
}
