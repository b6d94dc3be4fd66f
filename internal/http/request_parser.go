// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating query parameters
// and the JSON view bodies of the settlement actions.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"society/internal/core"
	"society/internal/report"
	"society/internal/services"
	"society/internal/settlement"
)

const maxBodyBytes = 1 << 20

// MonthParams holds parsed year/month values from request parameters.
// Zero means "all" where a filter allows it.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// current month as default. Both must name a real month.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Year: now.Year(), Month: int(now.Month())}
	var err error
	if p.Year, err = intParam(query, "year", p.Year); err != nil {
		return p, err
	}
	if p.Month, err = intParam(query, "month", p.Month); err != nil {
		return p, err
	}
	return p, checkMonthParams(p)
}

// ParseMonthFilter reads the year, month and status filters of a record
// listing. An absent year or month defaults to the current one, "all"
// widens it to every value.
func ParseMonthFilter(query url.Values, now time.Time) (report.Criteria, error) {
	c, err := report.ParseCriteria(
		withDefault(query, "year", strconv.Itoa(now.Year())),
		withDefault(query, "month", strconv.Itoa(int(now.Month()))),
		query.Get("status"),
		"",
	)
	if err != nil {
		return report.Criteria{}, err
	}
	return c, checkMonthParams(MonthParams{Year: c.Year, Month: c.Month})
}

// ParseYearParam reads the optional year filter; "all" keeps every year.
func ParseYearParam(query url.Values, now time.Time) (int, error) {
	c, err := report.ParseCriteria(withDefault(query, "year", strconv.Itoa(now.Year())), "", "", "")
	if err != nil {
		return 0, err
	}
	return c.Year, checkMonthParams(MonthParams{Year: c.Year})
}

func withDefault(query url.Values, key, def string) string {
	if v := strings.TrimSpace(query.Get(key)); v != "" {
		return v
	}
	return def
}

func checkMonthParams(p MonthParams) error {
	if p.Year != 0 && (p.Year < 1900 || p.Year > 9999) {
		return fmt.Errorf("year %d out of range", p.Year)
	}
	if p.Month < 0 || p.Month > 12 {
		return fmt.Errorf("month %d out of range", p.Month)
	}
	return nil
}

func intParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// ParsePeriod reads the expense distribution period, month by default.
func ParsePeriod(query url.Values) (services.Period, error) {
	return services.ParsePeriod(strings.TrimSpace(query.Get("period")))
}

// ParseSettlementQuery builds the view of the settlement screen from
// ?month=YYYY-MM&tab=status. An empty month covers every month.
func ParseSettlementQuery(query url.Values) (settlement.View, error) {
	month := strings.TrimSpace(query.Get("month"))
	if month != "" {
		if _, err := core.ParseMonthKey(month); err != nil {
			return settlement.View{}, err
		}
	}
	v := settlement.NewView(month)
	if tab := strings.TrimSpace(query.Get("tab")); tab != "" {
		st := core.SettlementStatus(strings.ToLower(tab))
		if !st.Valid() {
			return settlement.View{}, fmt.Errorf("%w: tab %q", core.ErrInvalidStatus, tab)
		}
		v = v.SetTab(st)
	}
	return v, nil
}

// ParseViewBody decodes the JSON view sent with a settlement action.
func ParseViewBody(w http.ResponseWriter, r *http.Request) (settlement.View, error) {
	var v settlement.View
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body must be a JSON view")
		}
		return v, fmt.Errorf("invalid view: %w", err)
	}
	if v.Month != "" {
		if _, err := core.ParseMonthKey(v.Month); err != nil {
			return v, err
		}
	}
	if v.Tab != "" && !v.Tab.Valid() {
		return v, fmt.Errorf("%w: tab %q", core.ErrInvalidStatus, v.Tab)
	}
	if v.Selected == nil {
		v.Selected = []string{}
	}
	return v, nil
}
