package fundbook

import (
	"testing"
	"time"

	"github.com/etnz/fundbook/date"
)

// usd and tr are the shared test fixtures: every scenario in this package
// builds its ledger from them.
func usd(v float64) Money { return M(v, "USD") }

func tr(id int64, side Side, symbol string, price, qty, fees float64, day string) *Trade {
	d := date.MustParse(day)
	at := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
	t := NewTrade(1, side, symbol, usd(price), Q(qty), usd(fees), "", at)
	t.ID = id
	return t
}

func assertMoney(t *testing.T, name string, got, want Money) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func assertQty(t *testing.T, name string, got, want Quantity) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestSummarizeAverageCost(t *testing.T) {
	// Two buys: 1.5 @ 2000 (fee 50) and 1.0 @ 2050 (fee 30).
	// Cost basis 3000+50+2050+30 = 5130 over 2.5 units: average 2052.
	trades := []*Trade{
		tr(1, Buy, "XAU", 2000, 1.5, 50, "2024-01-10"),
		tr(2, Buy, "XAU", 2050, 1.0, 30, "2024-02-15"),
	}
	s := Summarize("USD", "XAU", trades)

	assertMoney(t, "TotalBuyCost", s.TotalBuyCost, usd(5130))
	assertQty(t, "QuantityHeld", s.QuantityHeld, Q(2.5))
	assertMoney(t, "AverageCost", s.AverageCost, usd(2052))
	assertMoney(t, "CurrentInvested", s.CurrentInvested, usd(5130))
	assertMoney(t, "RealizedPnL", s.RealizedPnL, usd(0))
	if s.TransactionCount != 2 {
		t.Errorf("TransactionCount = %d, want 2", s.TransactionCount)
	}
}

func TestSummarizeSellAtAverageCost(t *testing.T) {
	// Buy 10 @ 10 (fee 0.5), buy 10 @ 12 (fee 0.5): basis 221 over 20, avg 11.05.
	// Sell 5 @ 15 (fee 0.25): pnl = (15-11.05)*5 - 0.25 = 19.50.
	trades := []*Trade{
		tr(1, Buy, "AAPL", 10, 10, 0.5, "2024-03-01"),
		tr(2, Buy, "AAPL", 12, 10, 0.5, "2024-03-02"),
		tr(3, Sell, "AAPL", 15, 5, 0.25, "2024-03-10"),
	}
	s := Summarize("USD", "AAPL", trades)

	assertMoney(t, "RealizedPnL", s.RealizedPnL, usd(19.50))
	assertMoney(t, "RealizedCostBasis", s.RealizedCostBasis, usd(55.25))
	assertMoney(t, "RealizedProceeds", s.RealizedProceeds, usd(74.75))
	assertQty(t, "QuantityHeld", s.QuantityHeld, Q(15))
	// Selling at average cost leaves the average unchanged.
	assertMoney(t, "AverageCost", s.AverageCost, usd(11.05))
	assertMoney(t, "CurrentInvested", s.CurrentInvested, usd(165.75))
}

func TestSummarizeSellThenBuySameDay(t *testing.T) {
	// Same-day buy and sell: the buy is in the book before the sell
	// consumes the average, whatever order the records arrive in.
	//   buy 5 @ 10 fee 0, buy 10 @ 10 fee 1 (same day as the sell),
	//   sell 5 @ 12 fee 1.
	// Basis before the sell: 151 over 15, avg 151/15.
	// pnl = (12 - 151/15)*5 - 1 = 8.666...
	// After the sell: qty 10, cost 151 - (151/15)*5 = 100.666..., avg 10.0666...
	base := []*Trade{
		tr(1, Buy, "ETHA", 10, 5, 0, "2024-05-01"),
		tr(2, Sell, "ETHA", 12, 5, 1, "2024-05-03"),
		tr(3, Buy, "ETHA", 10, 10, 1, "2024-05-03"),
	}
	shuffled := []*Trade{base[1], base[2], base[0]}

	want := Summarize("USD", "ETHA", base)
	got := Summarize("USD", "ETHA", shuffled)

	assertQty(t, "QuantityHeld", want.QuantityHeld, Q(10))
	if !want.RealizedPnL.GreaterThan(usd(8)) || !want.RealizedPnL.LessThan(usd(9)) {
		t.Errorf("RealizedPnL = %s, want between 8 and 9", want.RealizedPnL)
	}
	if !got.RealizedPnL.Equal(want.RealizedPnL) || !got.AverageCost.Equal(want.AverageCost) {
		t.Errorf("input order changed the result: %+v vs %+v", got, want)
	}
}

func TestSummarizeSellThenLaterBuy(t *testing.T) {
	// Open 10 @ 10, close it all at 11 (fee 1), then reopen 10 @ 10.
	// Realized pnl = (11-10)*10 - 1 = 9; the reopened position carries a
	// fresh 10.0 average, untouched by the closed round trip.
	trades := []*Trade{
		tr(1, Buy, "ETHA", 10, 10, 0, "2024-05-01"),
		tr(2, Sell, "ETHA", 11, 10, 1, "2024-05-10"),
		tr(3, Buy, "ETHA", 10, 10, 0, "2024-05-20"),
	}
	s := Summarize("USD", "ETHA", trades)

	assertMoney(t, "RealizedPnL", s.RealizedPnL, usd(9))
	assertQty(t, "QuantityHeld", s.QuantityHeld, Q(10))
	assertMoney(t, "AverageCost", s.AverageCost, usd(10))
	assertMoney(t, "CurrentInvested", s.CurrentInvested, usd(100))
}

func TestSummarizeSellWithNoPosition(t *testing.T) {
	// No position: the average divides by zero quantity and yields 0
	// instead of failing, so the sell realizes its full net proceeds.
	trades := []*Trade{tr(1, Sell, "GME", 20, 3, 1, "2024-06-01")}
	s := Summarize("USD", "GME", trades)

	assertMoney(t, "RealizedPnL", s.RealizedPnL, usd(59))
	assertQty(t, "QuantityHeld", s.QuantityHeld, Q(-3))
	assertMoney(t, "AverageCost", s.AverageCost, usd(0))
}

func TestSummarizeOversell(t *testing.T) {
	// Selling past the position is not an error at this layer: quantity
	// goes negative and the books stay recomputable.
	trades := []*Trade{
		tr(1, Buy, "TSLA", 100, 2, 0, "2024-01-01"),
		tr(2, Sell, "TSLA", 110, 5, 0, "2024-01-05"),
	}
	s := Summarize("USD", "TSLA", trades)

	assertQty(t, "QuantityHeld", s.QuantityHeld, Q(-3))
	// avg was 100; pnl = (110-100)*5 = 50, basis reduced by 500.
	assertMoney(t, "RealizedPnL", s.RealizedPnL, usd(50))
	assertMoney(t, "CurrentInvested", s.CurrentInvested, usd(-300))
}

func TestSortTrades(t *testing.T) {
	a := tr(3, Sell, "X", 1, 1, 0, "2024-01-02")
	b := tr(1, Buy, "X", 1, 1, 0, "2024-01-02")
	c := tr(2, Buy, "X", 1, 1, 0, "2024-01-01")
	d := tr(4, Buy, "X", 1, 1, 0, "2024-01-02")
	// Time of day must not matter.
	b.Date = b.Date.Add(10 * time.Hour)

	trades := []*Trade{a, b, c, d}
	SortTrades(trades)

	want := []int64{2, 1, 4, 3}
	for i, id := range want {
		if trades[i].ID != id {
			t.Fatalf("order[%d] = trade %d, want %d", i, trades[i].ID, id)
		}
	}
}

func TestQuantityHeld(t *testing.T) {
	trades := []*Trade{
		tr(1, Buy, "BTC", 100, 3, 0, "2024-01-01"),
		tr(2, Sell, "BTC", 120, 1, 0, "2024-01-02"),
		tr(3, Buy, "ETH", 10, 50, 0, "2024-01-03"),
	}
	assertQty(t, "held BTC", QuantityHeld("btc", trades, 0), Q(2))
	assertQty(t, "held BTC excl sell", QuantityHeld("BTC", trades, 2), Q(3))
	assertQty(t, "held ETH", QuantityHeld("ETH", trades, 0), Q(50))
}
