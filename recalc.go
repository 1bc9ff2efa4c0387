package fundbook

// Recalculate re-derives the persisted snapshot fields of every trade of
// one (category, symbol) pair: TotalCost, and AverageCost as the running
// average at the time of the trade. For a buy that is the post-buy average;
// for a sell it is the pre-sell average the realized P&L was computed
// against.
//
// It mutates the trades in place and returns them in canonical order. The
// pass is idempotent: running it twice on unchanged trades yields identical
// snapshots. The service calls it synchronously inside the same unit of
// work as every trade mutation, so the stored snapshots are never stale.
func Recalculate(currency string, trades []*Trade) []*Trade {
	SortTrades(trades)

	runningQty := Q(0)
	runningCost := M(0, currency)

	for _, t := range trades {
		t.ComputeTotalCost()

		switch t.Side {
		case Buy:
			runningCost = runningCost.Add(t.Gross().Add(t.Fees))
			runningQty = runningQty.Add(t.Quantity)
			t.AverageCost = runningCost.DivSafe(runningQty)

		case Sell:
			avgCost := runningCost.DivSafe(runningQty)
			t.AverageCost = avgCost
			runningQty = runningQty.Sub(t.Quantity)
			runningCost = runningCost.Sub(avgCost.Mul(t.Quantity))

		default:
			panic("unreachable: unknown trade side")
		}
	}
	return trades
}
