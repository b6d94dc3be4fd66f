// Package report holds the stateless reporting core: record filtering,
// grouped aggregation and time-series bucketing over flat record collections.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"society/internal/core"
)

// Record is a dated, amount-bearing entry.
type Record interface {
	RecordDate() core.Date
	RecordAmount() core.Money
}

// Statused records expose a workflow status.
type Statused interface {
	RecordStatus() string
}

// Owned records expose the id of the resident, vendor or payer they belong to.
type Owned interface {
	RecordOwner() string
}

// Criteria selects records. Zero values impose no constraint.
type Criteria struct {
	Year    int // 0 = all years
	Month   int // 1-12, 0 = all months
	Status  string
	OwnerID string
	From    core.Date // inclusive
	To      core.Date // inclusive
}

// ParseCriteria builds Criteria from request-style strings where "" and
// "all" mean unconstrained. Month accepts "1" and "01".
func ParseCriteria(year, month, status, owner string) (Criteria, error) {
	var c Criteria
	if v := strings.TrimSpace(year); v != "" && !strings.EqualFold(v, "all") {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return Criteria{}, fmt.Errorf("invalid year %q", year)
		}
		c.Year = y
	}
	if v := strings.TrimSpace(month); v != "" && !strings.EqualFold(v, "all") {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return Criteria{}, fmt.Errorf("invalid month %q", month)
		}
		c.Month = m
	}
	if v := strings.TrimSpace(status); !strings.EqualFold(v, "all") {
		c.Status = v
	}
	if v := strings.TrimSpace(owner); !strings.EqualFold(v, "all") {
		c.OwnerID = v
	}
	return c, nil
}

// Match reports whether r satisfies every specified criterion. Year and
// month are compared on the calendar fields of the record date. A status or
// owner criterion excludes records that carry no such field.
func (c Criteria) Match(r Record) bool {
	d := r.RecordDate()
	if c.Year != 0 || c.Month != 0 || !c.From.IsZero() || !c.To.IsZero() {
		if d.IsZero() {
			return false
		}
	}
	if c.Year != 0 && d.Year() != c.Year {
		return false
	}
	if c.Month != 0 && d.Month() != c.Month {
		return false
	}
	if !c.From.IsZero() && d.Before(startOfDay(c.From).Time) {
		return false
	}
	if !c.To.IsZero() && !d.Before(startOfDay(c.To).AddDate(0, 0, 1)) {
		return false
	}
	if c.Status != "" {
		s, ok := r.(Statused)
		if !ok || !strings.EqualFold(s.RecordStatus(), c.Status) {
			return false
		}
	}
	if c.OwnerID != "" {
		o, ok := r.(Owned)
		if !ok || o.RecordOwner() != c.OwnerID {
			return false
		}
	}
	return true
}

// Filter returns, in input order, the records satisfying all criteria.
// The result is never nil so callers can render an explicit empty state.
func Filter[T Record](records []T, c Criteria) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Where filters with an arbitrary predicate.
func Where[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func startOfDay(d core.Date) core.Date {
	y, m, day := d.Date()
	return core.NewDate(y, int(m), day)
}
