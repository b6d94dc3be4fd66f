package core

// Accessors used by the reporting package. Maintenance records are dated by
// their due date (the billing period), settlements by their month.

func (t MaintenanceTransaction) RecordDate() Date     { return t.DueDate }
func (t MaintenanceTransaction) RecordAmount() Money  { return t.Amount }
func (t MaintenanceTransaction) RecordStatus() string { return string(t.Status) }
func (t MaintenanceTransaction) RecordOwner() string  { return t.FlatNo }

func (t VendorRevenueTransaction) RecordDate() Date     { return t.Date }
func (t VendorRevenueTransaction) RecordAmount() Money  { return t.Amount }
func (t VendorRevenueTransaction) RecordStatus() string { return string(t.Status) }
func (t VendorRevenueTransaction) RecordOwner() string  { return t.VendorName }

func (t OtherRevenueTransaction) RecordDate() Date     { return t.Date }
func (t OtherRevenueTransaction) RecordAmount() Money  { return t.Amount }
func (t OtherRevenueTransaction) RecordStatus() string { return string(t.Status) }
func (t OtherRevenueTransaction) RecordOwner() string  { return t.PayerName }

func (e MemberExpense) RecordDate() Date     { return e.Date }
func (e MemberExpense) RecordAmount() Money  { return e.Amount }
func (e MemberExpense) RecordStatus() string { return string(e.Status) }
func (e MemberExpense) RecordOwner() string  { return e.MemberID }

func (b VendorBill) RecordDate() Date     { return b.Date }
func (b VendorBill) RecordAmount() Money  { return b.Amount }
func (b VendorBill) RecordStatus() string { return string(b.Status) }
func (b VendorBill) RecordOwner() string  { return b.VendorName }

func (s Settlement) RecordDate() Date {
	d, _ := ParseMonthKey(s.Month)
	return d
}
func (s Settlement) RecordAmount() Money  { return s.Amount }
func (s Settlement) RecordStatus() string { return string(s.Status) }
func (s Settlement) RecordOwner() string  { return s.BeneficiaryName }
