package fundbook

import "testing"

func TestRecalculateSnapshots(t *testing.T) {
	// Buys snapshot the average after the buy lands; sells snapshot the
	// average they were priced against, before the position shrinks.
	trades := []*Trade{
		tr(1, Buy, "XAU", 2000, 1.5, 50, "2024-01-10"),
		tr(2, Buy, "XAU", 2050, 1.0, 30, "2024-02-15"),
		tr(3, Sell, "XAU", 2100, 0.5, 10, "2024-03-01"),
	}
	out := Recalculate("USD", trades)

	if len(out) != 3 {
		t.Fatalf("got %d trades, want 3", len(out))
	}
	// After buy 1: 3050 over 1.5.
	assertMoney(t, "buy1 AverageCost", out[0].AverageCost, usd(3050).DivSafe(Q(1.5)))
	assertMoney(t, "buy1 TotalCost", out[0].TotalCost, usd(3050))
	// After buy 2: 5130 over 2.5 = 2052.
	assertMoney(t, "buy2 AverageCost", out[1].AverageCost, usd(2052))
	assertMoney(t, "buy2 TotalCost", out[1].TotalCost, usd(2080))
	// The sell records the pre-sell average and its net proceeds.
	assertMoney(t, "sell AverageCost", out[2].AverageCost, usd(2052))
	assertMoney(t, "sell TotalCost", out[2].TotalCost, usd(1040))
}

func TestRecalculateIdempotent(t *testing.T) {
	trades := []*Trade{
		tr(1, Buy, "AAPL", 10, 10, 0.5, "2024-03-01"),
		tr(2, Sell, "AAPL", 15, 5, 0.25, "2024-03-10"),
		tr(3, Buy, "AAPL", 12, 10, 0.5, "2024-03-02"),
	}
	once := Recalculate("USD", trades)
	first := make([]Trade, len(once))
	for i, in := range once {
		first[i] = *in
	}

	twice := Recalculate("USD", once)
	for i := range twice {
		if !first[i].AverageCost.Equal(twice[i].AverageCost) ||
			!first[i].TotalCost.Equal(twice[i].TotalCost) {
			t.Errorf("trade %d drifted on recomputation: %s/%s then %s/%s",
				first[i].ID, first[i].AverageCost, first[i].TotalCost,
				twice[i].AverageCost, twice[i].TotalCost)
		}
	}
}

func TestRecalculateMatchesSummary(t *testing.T) {
	// The last buy snapshot agrees with the summary pass over the same
	// trades: two views of the same running averages.
	trades := []*Trade{
		tr(1, Buy, "ETHA", 10, 10, 0, "2024-05-01"),
		tr(2, Sell, "ETHA", 11, 10, 1, "2024-05-10"),
		tr(3, Buy, "ETHA", 10, 10, 0, "2024-05-20"),
	}
	out := Recalculate("USD", trades)
	s := Summarize("USD", "ETHA", trades)

	assertMoney(t, "final buy AverageCost", out[2].AverageCost, s.AverageCost)
	assertMoney(t, "summary AverageCost", s.AverageCost, usd(10))
}
