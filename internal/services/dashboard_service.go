package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"society/internal/cache"
	"society/internal/core"
	"society/internal/ledger"
	"society/internal/report"
)

// ErrNoOwner is returned by the personal views when the caller has no flat
// or member id. An empty owner would match every record.
var ErrNoOwner = errors.New("identity has no owner for personal records")

// Period selects whether the expense distribution covers a month or the
// whole year.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodYear:
		return PeriodYear, nil
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// AdminOverview is the committee dashboard for one month.
type AdminOverview struct {
	Year       int                    `json:"year"`
	Month      int                    `json:"month"`
	Period     Period                 `json:"period"`
	Collection report.Collection      `json:"collection"`
	Income     report.Income          `json:"income"`
	Expenses   []report.Share         `json:"expenses"`
	Claims     report.ExpenseOverview `json:"claims"`
	Trend      []core.MonthlyStats    `json:"trend"`
}

func (o AdminOverview) Empty() bool {
	return o.Collection.Empty() && len(o.Income.Shares) == 0 && len(o.Expenses) == 0
}

// Revenue lists a month's stall and other income.
type Revenue struct {
	Entries []report.RevenueEntry `json:"entries"`
	Total   core.Money            `json:"total"`
}

func (r Revenue) Empty() bool { return len(r.Entries) == 0 }

// DashboardService computes the read-only dashboard summaries. Results are
// cached per query for the configured TTL since the records never change
// while the process runs.
type DashboardService struct {
	records  ledger.RecordReader
	overview *cache.LRUCache[AdminOverview]
	revenue  *cache.LRUCache[Revenue]
}

func NewDashboardService(records ledger.RecordReader, ttl time.Duration) *DashboardService {
	return &DashboardService{
		records:  records,
		overview: cache.NewLRUCache[AdminOverview](64, ttl),
		revenue:  cache.NewLRUCache[Revenue](64, ttl),
	}
}

// Caches returns the caches for registration with a cleanup manager.
func (d *DashboardService) Caches() []cache.Cleaner {
	return []cache.Cleaner{d.overview, d.revenue}
}

// AdminOverview builds the collection, income and expense summaries of a
// month plus the monthly stats trend of its year.
func (d *DashboardService) AdminOverview(ctx context.Context, year, month int, period Period) (AdminOverview, error) {
	key := fmt.Sprintf("%04d-%02d-%s", year, month, period)
	return cache.GetOrLoad[AdminOverview](d.overview, key, func() (AdminOverview, error) {
		maint, err := d.records.Maintenance(ctx)
		if err != nil {
			return AdminOverview{}, fmt.Errorf("load maintenance: %w", err)
		}
		vendor, other, err := d.revenueRecords(ctx)
		if err != nil {
			return AdminOverview{}, err
		}
		entries, err := d.expenseEntries(ctx)
		if err != nil {
			return AdminOverview{}, err
		}
		stats, err := d.records.MonthlyStats(ctx)
		if err != nil {
			return AdminOverview{}, fmt.Errorf("load monthly stats: %w", err)
		}

		distMonth := month
		if period == PeriodYear {
			distMonth = 0
		}
		return AdminOverview{
			Year:       year,
			Month:      month,
			Period:     period,
			Collection: report.CollectionStatus(maint, year, month),
			Income:     report.IncomeDistribution(maint, vendor, other, year, month),
			Expenses:   report.ExpenseDistribution(entries, year, distMonth),
			Claims:     report.OverviewOf(entries),
			Trend:      report.StatsTrend(stats, year),
		}, nil
	})
}

// Revenue combines the month's stall and other revenue.
func (d *DashboardService) Revenue(ctx context.Context, year, month int) (Revenue, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	return cache.GetOrLoad[Revenue](d.revenue, key, func() (Revenue, error) {
		vendor, other, err := d.revenueRecords(ctx)
		if err != nil {
			return Revenue{}, err
		}
		entries := report.CombinedRevenue(vendor, other, year, month)
		return Revenue{Entries: entries, Total: report.Sum(entries)}, nil
	})
}

// MemberExpenses summarizes memberID's expense claims under c.
func (d *DashboardService) MemberExpenses(ctx context.Context, memberID string, c report.Criteria) (report.MemberExpenses, error) {
	if strings.TrimSpace(memberID) == "" {
		return report.MemberExpenses{}, ErrNoOwner
	}
	expenses, err := d.records.MemberExpenses(ctx)
	if err != nil {
		return report.MemberExpenses{}, fmt.Errorf("load member expenses: %w", err)
	}
	c.OwnerID = memberID
	return report.MemberExpenseSummary(expenses, c), nil
}

// MaintenanceInsights builds the payment history of one flat.
func (d *DashboardService) MaintenanceInsights(ctx context.Context, flatNo string, year int) (report.MaintenanceInsights, error) {
	if strings.TrimSpace(flatNo) == "" {
		return report.MaintenanceInsights{}, ErrNoOwner
	}
	maint, err := d.records.Maintenance(ctx)
	if err != nil {
		return report.MaintenanceInsights{}, fmt.Errorf("load maintenance: %w", err)
	}
	return report.InsightsFor(report.Filter(maint, report.Criteria{OwnerID: flatNo}), year), nil
}

func (d *DashboardService) revenueRecords(ctx context.Context) ([]core.VendorRevenueTransaction, []core.OtherRevenueTransaction, error) {
	vendor, err := d.records.VendorRevenue(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load vendor revenue: %w", err)
	}
	other, err := d.records.OtherRevenue(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load other revenue: %w", err)
	}
	return vendor, other, nil
}

func (d *DashboardService) expenseEntries(ctx context.Context) ([]report.ExpenseEntry, error) {
	expenses, err := d.records.MemberExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load member expenses: %w", err)
	}
	bills, err := d.records.VendorBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vendor bills: %w", err)
	}
	return report.UnifyExpenses(expenses, bills), nil
}
