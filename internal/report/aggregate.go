package report

import (
	"sort"

	"society/internal/core"
)

// Groups maps a grouping key to the summed amount of its records.
type Groups map[string]core.Money

// Share is one group with its percentage of the aggregation total.
type Share struct {
	Key     string     `json:"key"`
	Amount  core.Money `json:"amount"`
	Percent float64    `json:"percent"`
}

// GroupBy sums record amounts per key.
func GroupBy[T Record](records []T, key func(T) string) Groups {
	g := make(Groups)
	for _, r := range records {
		k := key(r)
		g[k] = g[k].Add(r.RecordAmount())
	}
	return g
}

// Sum totals the amounts of records.
func Sum[T Record](records []T) core.Money {
	var total core.Money
	for _, r := range records {
		total = total.Add(r.RecordAmount())
	}
	return total
}

// Total is the sum over all groups.
func (g Groups) Total() core.Money {
	var total core.Money
	for _, m := range g {
		total = total.Add(m)
	}
	return total
}

// Shares returns every group with its percentage, ordered by key.
func (g Groups) Shares() []Share {
	total := g.Total()
	out := make([]Share, 0, len(g))
	for k, m := range g {
		out = append(out, Share{Key: k, Amount: m, Percent: Percent(m, total)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Percent is part/total*100, or 0 when total is zero.
func Percent(part, total core.Money) float64 {
	if total.Paise == 0 {
		return 0
	}
	return float64(part.Paise) / float64(total.Paise) * 100
}

// ByAmountDesc orders shares by descending amount, ties by key.
func ByAmountDesc(shares []Share) []Share {
	out := append([]Share(nil), shares...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount.Paise != out[j].Amount.Paise {
			return out[i].Amount.Paise > out[j].Amount.Paise
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// NonZero drops groups with a zero amount.
func NonZero(shares []Share) []Share {
	return Where(shares, func(s Share) bool { return s.Amount.Paise != 0 })
}
