package fundbook

import (
	"maps"
	"slices"
	"sort"
)

// Canonical trade order. P&L correctness depends on it: it decides which
// buys are in the book before a same-day sell consumes the average cost.
//
//  1. civil date ascending (time of day is ignored),
//  2. within a day, buys before sells,
//  3. within (day, side), stable record id ascending.
//
// The persistence layer serves trades in this exact order; SortTrades
// re-establishes it for in-memory slices.
func SortTrades(trades []*Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if c := a.Day().Compare(b.Day()); c != 0 {
			return c < 0
		}
		if a.Side != b.Side {
			return a.Side == Buy
		}
		return a.ID < b.ID
	})
}

// SymbolSummary is the running position and realized performance of one
// (category, symbol) pair, computed by a single pass over its trades.
type SymbolSummary struct {
	Symbol string

	TotalBuyCost     Money // Σ (price*qty + fees) over buys
	TotalBuyFees     Money
	TotalBuyQuantity Quantity

	TotalSellCost     Money // Σ net proceeds (price*qty - fees) over sells
	TotalSellFees     Money
	TotalSellQuantity Quantity

	QuantityHeld Quantity // final running quantity (may be negative on oversell)
	AverageCost  Money    // safe-divide(final running cost, final running quantity)

	TransactionCount int

	RealizedPnL       Money // Σ (price - avg_cost)*qty - fees over sells
	RealizedCostBasis Money // Σ avg_cost*qty over sells
	RealizedProceeds  Money // Σ net proceeds over sells

	CurrentInvested Money // final running cost: carrying cost of the open position
}

// Summarize runs the average-cost inventory pass over the trades of one
// (category, symbol) pair and returns the aggregate. The trades are sorted
// into canonical order first, so the result is independent of input order.
//
// A sell larger than the current position is not rejected here: quantity
// and cost basis go negative. The service entry points optionally enforce
// a stricter contract before the trade ever reaches this pass.
func Summarize(currency, symbol string, trades []*Trade) SymbolSummary {
	sorted := slices.Clone(trades)
	SortTrades(sorted)

	zero := M(0, currency)
	s := SymbolSummary{
		Symbol:        NormalizeSymbol(symbol),
		TotalBuyCost:  zero,
		TotalBuyFees:  zero,
		TotalSellCost: zero,
		TotalSellFees: zero,

		AverageCost:       zero,
		RealizedPnL:       zero,
		RealizedCostBasis: zero,
		RealizedProceeds:  zero,
		CurrentInvested:   zero,
	}

	runningQty := Q(0)
	runningCost := zero

	for _, t := range sorted {
		switch t.Side {
		case Buy:
			cost := t.Gross().Add(t.Fees)
			s.TotalBuyCost = s.TotalBuyCost.Add(cost)
			s.TotalBuyFees = s.TotalBuyFees.Add(t.Fees)
			s.TotalBuyQuantity = s.TotalBuyQuantity.Add(t.Quantity)

			runningCost = runningCost.Add(cost)
			runningQty = runningQty.Add(t.Quantity)

		case Sell:
			proceeds := t.Gross().Sub(t.Fees)
			s.TotalSellCost = s.TotalSellCost.Add(proceeds)
			s.TotalSellFees = s.TotalSellFees.Add(t.Fees)
			s.TotalSellQuantity = s.TotalSellQuantity.Add(t.Quantity)

			s.RealizedProceeds = s.RealizedProceeds.Add(proceeds)

			avgCost := runningCost.DivSafe(runningQty)
			s.RealizedPnL = s.RealizedPnL.Add(t.Price.Sub(avgCost).Mul(t.Quantity).Sub(t.Fees))
			s.RealizedCostBasis = s.RealizedCostBasis.Add(avgCost.Mul(t.Quantity))

			// Reduce the position at average-cost basis.
			runningQty = runningQty.Sub(t.Quantity)
			runningCost = runningCost.Sub(avgCost.Mul(t.Quantity))

		default:
			panic("unreachable: unknown trade side")
		}
	}

	s.QuantityHeld = runningQty
	s.AverageCost = runningCost.DivSafe(runningQty)
	s.TransactionCount = len(sorted)
	s.CurrentInvested = runningCost
	return s
}

// QuantityHeld computes the net quantity held for one symbol from a set of
// trades, excluding the trade with id 'exclude' (0 to exclude none). The
// service uses it to validate oversells when the strict policy is on.
func QuantityHeld(symbol string, trades []*Trade, exclude int64) Quantity {
	symbol = NormalizeSymbol(symbol)
	held := Q(0)
	for _, t := range trades {
		if t.Symbol != symbol || (exclude != 0 && t.ID == exclude) {
			continue
		}
		switch t.Side {
		case Buy:
			held = held.Add(t.Quantity)
		case Sell:
			held = held.Sub(t.Quantity)
		default:
			panic("unreachable: unknown trade side")
		}
	}
	return held
}

// groupBySymbol splits trades by normalized symbol, excluding blanks, and
// returns the symbols sorted for deterministic iteration.
func groupBySymbol(trades []*Trade) (symbols []string, bySymbol map[string][]*Trade) {
	bySymbol = make(map[string][]*Trade)
	for _, t := range trades {
		sym := NormalizeSymbol(t.Symbol)
		if sym == "" {
			continue
		}
		bySymbol[sym] = append(bySymbol[sym], t)
	}
	symbols = slices.Collect(maps.Keys(bySymbol))
	slices.Sort(symbols)
	return symbols, bySymbol
}
