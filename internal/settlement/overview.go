package settlement

import (
	"society/internal/core"
	"society/internal/report"
)

// DefaultReserve is added to the latest net balance to give the account balance.
var DefaultReserve = core.Rupees(500000)

// Overview summarizes the settlements of a month per status.
type Overview struct {
	Month           string                `json:"month"`
	Pending         []core.Settlement     `json:"pending"`
	Approved        []core.Settlement     `json:"approved"`
	Reimbursed      []core.Settlement     `json:"reimbursed"`
	PendingTotal    core.Money            `json:"pendingTotal"`
	ApprovedTotal   core.Money            `json:"approvedTotal"`
	ReimbursedTotal core.Money            `json:"reimbursedTotal"`
	ByBeneficiary   map[string]core.Money `json:"byBeneficiary"`
	AccountBalance  core.Money            `json:"accountBalance"`
}

func (o Overview) Empty() bool {
	return len(o.Pending)+len(o.Approved)+len(o.Reimbursed) == 0
}

// OverviewFor builds the overview of month ("" for every month). The account
// balance is the latest net balance plus reserve.
func OverviewFor(all []core.Settlement, month string, stats []core.MonthlyStats, reserve core.Money) (Overview, error) {
	c := report.Criteria{}
	if month != "" {
		d, err := core.ParseMonthKey(month)
		if err != nil {
			return Overview{}, err
		}
		c.Year, c.Month = d.Year(), d.Month()
	}
	rows := report.Filter(all, c)

	o := Overview{Month: month}
	for _, st := range []core.SettlementStatus{core.SettlementPending, core.SettlementApproved, core.SettlementReimbursed} {
		c.Status = string(st)
		in := report.Filter(rows, c)
		switch st {
		case core.SettlementPending:
			o.Pending, o.PendingTotal = in, report.Sum(in)
		case core.SettlementApproved:
			o.Approved, o.ApprovedTotal = in, report.Sum(in)
		case core.SettlementReimbursed:
			o.Reimbursed, o.ReimbursedTotal = in, report.Sum(in)
		}
	}
	o.ByBeneficiary = report.GroupBy(rows, func(s core.Settlement) string { return string(s.BeneficiaryType) })

	o.AccountBalance = reserve
	if latest, ok := report.Latest(stats); ok {
		o.AccountBalance = latest.NetBalance.Add(reserve)
	}
	return o, nil
}
