package report

import (
	"fmt"
	"sort"
	"strings"

	"society/internal/core"
)

// Collection summarizes maintenance collection for one billing month.
type Collection struct {
	Year         int                           `json:"year"`
	Month        int                           `json:"month"`
	Total        int                           `json:"total"`
	Paid         int                           `json:"paid"`
	Pending      int                           `json:"pending"`
	Overdue      int                           `json:"overdue"`
	PaidAmount   core.Money                    `json:"paidAmount"`
	Rate         float64                       `json:"rate"` // paid count / total count * 100
	OverdueFlats []core.MaintenanceTransaction `json:"overdueFlats"`
	PendingFlats []core.MaintenanceTransaction `json:"pendingFlats"`
}

// Empty reports whether no maintenance record falls in the month.
func (c Collection) Empty() bool { return c.Total == 0 }

// CollectionStatus groups the month's maintenance bills (by due date) by status.
func CollectionStatus(maint []core.MaintenanceTransaction, year, month int) Collection {
	rows := Filter(maint, Criteria{Year: year, Month: month})
	c := Collection{Year: year, Month: month, Total: len(rows)}
	c.OverdueFlats = make([]core.MaintenanceTransaction, 0)
	c.PendingFlats = make([]core.MaintenanceTransaction, 0)
	for _, t := range rows {
		switch t.Status {
		case core.MaintenancePaid:
			c.Paid++
			c.PaidAmount = c.PaidAmount.Add(t.Amount)
		case core.MaintenancePending:
			c.Pending++
			c.PendingFlats = append(c.PendingFlats, t)
		case core.MaintenanceOverdue:
			c.Overdue++
			c.OverdueFlats = append(c.OverdueFlats, t)
		}
	}
	if c.Total > 0 {
		c.Rate = float64(c.Paid) / float64(c.Total) * 100
	}
	return c
}

const (
	IncomeMaintenance = "Maintenance"
	IncomeVendor      = "Vendor/Stalls"
	IncomeOther       = "Events/Other"
)

// Income is the paid income of a month split by stream.
type Income struct {
	Total  core.Money `json:"total"`
	Shares []Share    `json:"shares"` // zero streams dropped, largest first
}

// IncomeDistribution sums paid income per stream for a month.
func IncomeDistribution(maint []core.MaintenanceTransaction, vendor []core.VendorRevenueTransaction,
	other []core.OtherRevenueTransaction, year, month int) Income {
	paid := Criteria{Year: year, Month: month, Status: string(core.RevenuePaid)}
	g := Groups{
		IncomeMaintenance: Sum(Filter(maint, paid)),
		IncomeVendor:      Sum(Filter(vendor, paid)),
		IncomeOther:       Sum(Filter(other, paid)),
	}
	return Income{Total: g.Total(), Shares: NonZero(ByAmountDesc(g.Shares()))}
}

// ExpenseEntry unifies member expenses and vendor bills for listing.
type ExpenseEntry struct {
	ID          string               `json:"id"`
	Kind        core.BeneficiaryType `json:"kind"`
	Party       string               `json:"party"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Date        core.Date            `json:"date"`
	Status      string               `json:"status"`
}

func (e ExpenseEntry) RecordDate() core.Date    { return e.Date }
func (e ExpenseEntry) RecordAmount() core.Money { return e.Amount }
func (e ExpenseEntry) RecordStatus() string     { return e.Status }
func (e ExpenseEntry) RecordOwner() string      { return e.Party }

// UnifyExpenses merges both expense kinds, most recent first.
func UnifyExpenses(expenses []core.MemberExpense, bills []core.VendorBill) []ExpenseEntry {
	out := make([]ExpenseEntry, 0, len(expenses)+len(bills))
	for _, e := range expenses {
		out = append(out, ExpenseEntry{
			ID: e.ID, Kind: core.BeneficiaryMember, Party: e.MemberName, Category: e.Category,
			Description: e.Description, Amount: e.Amount, Date: e.Date, Status: string(e.Status),
		})
	}
	for _, b := range bills {
		out = append(out, ExpenseEntry{
			ID: b.ID, Kind: core.BeneficiaryVendor, Party: b.VendorName, Category: b.Category,
			Description: b.Description, Amount: b.Amount, Date: b.Date, Status: string(b.Status),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

// ExpenseDistribution groups unified expenses by category for a year, or a
// single month of it when month is non-zero. Largest category first.
func ExpenseDistribution(entries []ExpenseEntry, year, month int) []Share {
	rows := Filter(entries, Criteria{Year: year, Month: month})
	g := GroupBy(rows, func(e ExpenseEntry) string { return e.Category })
	return ByAmountDesc(g.Shares())
}

// ExpenseOverview counts pending entries and totals the settled ones.
type ExpenseOverview struct {
	PendingCount  int        `json:"pendingCount"`
	SettledCount  int        `json:"settledCount"`
	SettledAmount core.Money `json:"settledAmount"`
}

func OverviewOf(entries []ExpenseEntry) ExpenseOverview {
	var o ExpenseOverview
	for _, e := range entries {
		switch e.Status {
		case "pending":
			o.PendingCount++
		case "settled":
			o.SettledCount++
			o.SettledAmount = o.SettledAmount.Add(e.Amount)
		}
	}
	return o
}

const SourceStall = "Stall/Vendor"

// RevenueEntry unifies stall income and other income.
type RevenueEntry struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Status      string     `json:"status"`
}

func (e RevenueEntry) RecordDate() core.Date    { return e.Date }
func (e RevenueEntry) RecordAmount() core.Money { return e.Amount }
func (e RevenueEntry) RecordStatus() string     { return e.Status }

// CombinedRevenue lists the month's stall and other revenue, most recent first.
func CombinedRevenue(vendor []core.VendorRevenueTransaction, other []core.OtherRevenueTransaction, year, month int) []RevenueEntry {
	c := Criteria{Year: year, Month: month}
	out := make([]RevenueEntry, 0)
	for _, v := range Filter(vendor, c) {
		out = append(out, RevenueEntry{
			ID: v.ID, Source: SourceStall, Description: stallDescription(v),
			Amount: v.Amount, Date: v.Date, Status: string(v.Status),
		})
	}
	for _, o := range Filter(other, c) {
		out = append(out, RevenueEntry{
			ID: o.ID, Source: string(o.Source), Description: o.Description,
			Amount: o.Amount, Date: o.Date, Status: string(o.Status),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

func stallDescription(v core.VendorRevenueTransaction) string {
	if strings.TrimSpace(v.StallNumber) == "" {
		return "Stall: " + v.VendorName
	}
	return fmt.Sprintf("Stall: %s (%s)", v.VendorName, v.StallNumber)
}

// MemberExpenses is a resident's view of their own reimbursable expenses.
type MemberExpenses struct {
	Items      []core.MemberExpense `json:"items"`
	Claimed    core.Money           `json:"claimed"`
	Reimbursed core.Money           `json:"reimbursed"`
	Pending    core.Money           `json:"pending"`
	ByCategory []Share              `json:"byCategory"`
}

func (m MemberExpenses) Empty() bool { return len(m.Items) == 0 }

// MemberExpenseSummary filters expenses (typically by owner, year and month)
// and derives claimed, reimbursed and pending totals.
func MemberExpenseSummary(expenses []core.MemberExpense, c Criteria) MemberExpenses {
	items := Filter(expenses, c)
	return MemberExpenses{
		Items:      items,
		Claimed:    Sum(items),
		Reimbursed: Sum(Filter(items, Criteria{Status: string(core.ExpenseSettled)})),
		Pending:    Sum(Filter(items, Criteria{Status: string(core.ExpensePending)})),
		ByCategory: ByAmountDesc(GroupBy(items, func(e core.MemberExpense) string { return e.Category }).Shares()),
	}
}

const (
	ChargeWater          = "Water Charges"
	ChargeInfrastructure = "Infrastructure"
	ChargeElectricity    = "Electricity"
	ChargeCommon         = "Common Expenses"
	ChargePenalty        = "Penalty"
)

// MaintenanceInsights is a resident's payment history view.
type MaintenanceInsights struct {
	History          []core.MaintenanceTransaction `json:"history"` // most recent first
	Total            core.Money                    `json:"total"`
	Trend            []Bucket                      `json:"trend"`
	Breakdown        []Share                       `json:"breakdown"`        // summed sub-charges over History
	CurrentBreakdown []Share                       `json:"currentBreakdown"` // latest bill overall
	Current          core.Money                    `json:"current"`
	Average          core.Money                    `json:"average"`
	Highest          core.Money                    `json:"highest"`
	OnTime           int                           `json:"onTime"`
	Late             int                           `json:"late"`
}

func (m MaintenanceInsights) Empty() bool { return len(m.History) == 0 }

// InsightsFor builds the history view of one flat's maintenance bills.
// year == 0 keeps every year. The current bill is the latest one regardless
// of the year filter.
func InsightsFor(history []core.MaintenanceTransaction, year int) MaintenanceInsights {
	all := append([]core.MaintenanceTransaction(nil), history...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].DueDate.After(all[j].DueDate.Time) })

	rows := Filter(all, Criteria{Year: year})
	in := MaintenanceInsights{
		History: rows,
		Total:   Sum(rows),
		Trend:   Bucketize(rows, Monthly),
	}
	if len(all) > 0 {
		in.Current = all[0].Amount
		in.CurrentBreakdown = breakdownShares(all[:1])
	}
	if len(rows) > 0 {
		in.Average = core.Money{Paise: in.Total.Paise / int64(len(rows))}
	}
	for _, t := range rows {
		if t.Amount.Paise > in.Highest.Paise {
			in.Highest = t.Amount
		}
		switch t.Status {
		case core.MaintenancePaid:
			in.OnTime++
		case core.MaintenanceOverdue:
			in.Late++
		}
	}
	in.Breakdown = breakdownShares(rows)
	return in
}

func breakdownShares(rows []core.MaintenanceTransaction) []Share {
	g := Groups{}
	for _, t := range rows {
		if t.Breakdown == nil {
			continue
		}
		g[ChargeWater] = g[ChargeWater].Add(t.Breakdown.WaterCharges)
		g[ChargeInfrastructure] = g[ChargeInfrastructure].Add(t.Breakdown.Infrastructure)
		g[ChargeElectricity] = g[ChargeElectricity].Add(t.Breakdown.Electricity)
		g[ChargeCommon] = g[ChargeCommon].Add(t.Breakdown.CommonExpenses)
		g[ChargePenalty] = g[ChargePenalty].Add(t.Breakdown.Penalty)
	}
	return NonZero(ByAmountDesc(g.Shares()))
}

// StatsTrend keeps the monthly stats of a year (0 = all), oldest first.
func StatsTrend(stats []core.MonthlyStats, year int) []core.MonthlyStats {
	prefix := ""
	if year != 0 {
		prefix = fmt.Sprintf("%04d-", year)
	}
	out := Where(stats, func(s core.MonthlyStats) bool { return strings.HasPrefix(s.Month, prefix) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Latest returns the most recent monthly stats entry.
func Latest(stats []core.MonthlyStats) (core.MonthlyStats, bool) {
	if len(stats) == 0 {
		return core.MonthlyStats{}, false
	}
	sorted := StatsTrend(stats, 0)
	return sorted[len(sorted)-1], true
}
