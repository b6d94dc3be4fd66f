package report

import (
	"math"
	"math/rand"
	"testing"

	"society/internal/core"
)

func TestAggregateCategoryScenario(t *testing.T) {
	records := []core.MemberExpense{
		expense("1", "M1", 2026, 1, 1, 100, core.ExpensePending, "A"),
		expense("2", "M1", 2026, 1, 2, 100, core.ExpensePending, "B"),
		expense("3", "M1", 2026, 1, 3, 200, core.ExpensePending, "B"),
	}
	g := GroupBy(records, func(e core.MemberExpense) string { return e.Category })
	if g.Total() != core.Rupees(400) {
		t.Fatalf("total = %v", g.Total())
	}
	shares := g.Shares()
	if len(shares) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(shares))
	}
	want := map[string]float64{"A": 25, "B": 75}
	for _, s := range shares {
		if math.Abs(s.Percent-want[s.Key]) > 1e-9 {
			t.Fatalf("%s = %.4f%%, want %.0f%%", s.Key, s.Percent, want[s.Key])
		}
	}
	desc := ByAmountDesc(shares)
	if desc[0].Key != "B" {
		t.Fatalf("expected B first when sorted by amount, got %s", desc[0].Key)
	}
}

func TestPercentZeroTotal(t *testing.T) {
	g := Groups{"A": {}, "B": {}}
	for _, s := range g.Shares() {
		if s.Percent != 0 {
			t.Fatalf("expected 0%% for zero total, got %f", s.Percent)
		}
	}
	if Percent(core.Rupees(5), core.Money{}) != 0 {
		t.Fatalf("Percent must guard division by zero")
	}
}

func TestAggregateConservesAmounts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cats := []string{"Repairs", "Security", "Gardening", "Events", "Utilities"}
	for round := 0; round < 100; round++ {
		n := rng.Intn(30)
		records := make([]core.MemberExpense, 0, n)
		for i := 0; i < n; i++ {
			records = append(records, expense("x", "M1", 2026, 1, 1, int64(rng.Intn(100000)), core.ExpensePending, cats[rng.Intn(len(cats))]))
		}
		g := GroupBy(records, func(e core.MemberExpense) string { return e.Category })
		if g.Total() != Sum(records) {
			t.Fatalf("group sum %v != record sum %v", g.Total(), Sum(records))
		}
		var pct float64
		for _, s := range g.Shares() {
			pct += s.Percent
		}
		if g.Total().Paise > 0 && math.Abs(pct-100) > 1e-6 {
			t.Fatalf("percentages sum to %f", pct)
		}
		if g.Total().Paise == 0 && pct != 0 {
			t.Fatalf("percentages must be zero when total is zero, got %f", pct)
		}
	}
}

func TestNonZero(t *testing.T) {
	got := NonZero([]Share{{Key: "a", Amount: core.Rupees(1)}, {Key: "b"}})
	if len(got) != 1 || got[0].Key != "a" {
		t.Fatalf("unexpected %+v", got)
	}
}
