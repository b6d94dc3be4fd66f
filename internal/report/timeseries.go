package report

import (
	"sort"
	"strconv"
	"time"

	"society/internal/core"
)

type Granularity int

const (
	Monthly Granularity = iota
	Yearly
)

// Bucket is one calendar period of a series.
type Bucket struct {
	Year  int        `json:"year"`
	Month int        `json:"month"` // 0 for yearly buckets
	Label string     `json:"label"`
	Sum   core.Money `json:"sum"`
	Count int        `json:"count"`
}

// Key renders the period as YYYY-MM (or YYYY).
func (b Bucket) Key() string {
	if b.Month == 0 {
		return strconv.Itoa(b.Year)
	}
	return time.Date(b.Year, time.Month(b.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Bucketize groups records per calendar period, oldest first. Only periods
// with at least one record appear; gaps are not filled with zero buckets.
// Undated records are skipped.
func Bucketize[T Record](records []T, g Granularity) []Bucket {
	idx := map[[2]int]*Bucket{}
	for _, r := range records {
		d := r.RecordDate()
		if d.IsZero() {
			continue
		}
		k := [2]int{d.Year(), d.Month()}
		if g == Yearly {
			k[1] = 0
		}
		b, ok := idx[k]
		if !ok {
			b = &Bucket{Year: k[0], Month: k[1], Label: periodLabel(k[0], k[1])}
			idx[k] = b
		}
		b.Sum = b.Sum.Add(r.RecordAmount())
		b.Count++
	}
	out := make([]Bucket, 0, len(idx))
	for _, b := range idx {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func periodLabel(year, month int) string {
	if month == 0 {
		return strconv.Itoa(year)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 06")
}
