package fundbook

// CategorySummary combines the per-symbol aggregates of one category with
// the capital figures derived from its allocated amount.
type CategorySummary struct {
	CategoryID int64
	Name       string
	Allocated  Money

	Symbols []SymbolSummary // per-symbol aggregates, sorted by symbol

	TotalBuyCost      Money
	TotalBuyFees      Money
	TotalBuyQuantity  Quantity
	TotalSellCost     Money
	TotalSellFees     Money
	TotalSellQuantity Quantity

	QuantityHeld Quantity

	// AverageCost is a quantity-weighted average across symbols. It spans
	// incommensurable instruments and is a display approximation only;
	// it never feeds back into realized P&L math.
	AverageCost Money

	TransactionCount int

	RealizedPnL       Money
	RealizedCostBasis Money
	RealizedProceeds  Money
	CurrentInvested   Money

	Cash       Money // allocated - buy outflows + sell inflows
	Value      Money // current invested + cash
	TotalValue Money // allocated + realized P&L

	ROI        Percent // realized ROI against allocated (or realized cost basis)
	Allocation Percent // share of portfolio value, set by SummarizePortfolio
}

// CashBalance derives a category's cash from its allocated amount and the
// raw cash effect of every trade, blank symbols included. It is a direct
// ledger over trade cash flows, independent of the average-cost bookkeeping.
func CashBalance(c *Category, trades []*Trade) Money {
	cash := c.Allocated
	for _, t := range trades {
		cash = cash.Add(t.CashEffect())
	}
	return cash
}

// realizedROI computes realized P&L against a base: the allocated amount
// when nonzero, otherwise the realized cost basis, so a category whose
// allocation was fully withdrawn still reports an ROI over its trading
// history. A zero base yields the "—" percent.
func realizedROI(pnl, allocated, realizedCostBasis Money) Percent {
	base := allocated
	if base.IsZero() {
		base = realizedCostBasis
	}
	if base.IsZero() {
		return NoPercent()
	}
	return NewPercent(pnl.Decimal().Div(base.Decimal()).Mul(newDecimal(100)))
}

// SummarizeCategory aggregates all trades of a category. Each distinct
// normalized symbol gets its own average-cost pass; the numeric fields are
// summed across symbols so no symbol ever contaminates another's cost.
func SummarizeCategory(currency string, c *Category, trades []*Trade) *CategorySummary {
	zero := M(0, currency)
	s := &CategorySummary{
		CategoryID: c.ID,
		Name:       c.Name,
		Allocated:  c.Allocated,

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

	symbols, bySymbol := groupBySymbol(trades)
	weightedCost := zero
	for _, sym := range symbols {
		sum := Summarize(currency, sym, bySymbol[sym])
		s.Symbols = append(s.Symbols, sum)

		s.TotalBuyCost = s.TotalBuyCost.Add(sum.TotalBuyCost)
		s.TotalBuyFees = s.TotalBuyFees.Add(sum.TotalBuyFees)
		s.TotalBuyQuantity = s.TotalBuyQuantity.Add(sum.TotalBuyQuantity)
		s.TotalSellCost = s.TotalSellCost.Add(sum.TotalSellCost)
		s.TotalSellFees = s.TotalSellFees.Add(sum.TotalSellFees)
		s.TotalSellQuantity = s.TotalSellQuantity.Add(sum.TotalSellQuantity)
		s.QuantityHeld = s.QuantityHeld.Add(sum.QuantityHeld)
		s.TransactionCount += sum.TransactionCount
		s.RealizedPnL = s.RealizedPnL.Add(sum.RealizedPnL)
		s.RealizedCostBasis = s.RealizedCostBasis.Add(sum.RealizedCostBasis)
		s.RealizedProceeds = s.RealizedProceeds.Add(sum.RealizedProceeds)
		s.CurrentInvested = s.CurrentInvested.Add(sum.CurrentInvested)

		weightedCost = weightedCost.Add(sum.AverageCost.Mul(sum.QuantityHeld))
	}
	s.AverageCost = weightedCost.DivSafe(s.QuantityHeld)

	s.Cash = CashBalance(c, trades)
	s.Value = s.CurrentInvested.Add(s.Cash)
	s.TotalValue = s.Allocated.Add(s.RealizedPnL)
	s.ROI = realizedROI(s.RealizedPnL, s.Allocated, s.RealizedCostBasis)
	return s
}

// PortfolioSummary combines all categories into portfolio-wide totals.
type PortfolioSummary struct {
	Categories []*CategorySummary // sorted by category name

	Value     Money // Σ category value (invested + cash)
	Allocated Money // Σ allocated amounts (the fixed investment reference)
	Cash      Money
	Invested  Money

	RealizedPnL       Money
	RealizedCostBasis Money

	ROI Percent
}

// SummarizePortfolio aggregates every category and fills each category's
// allocation share of the portfolio value.
func SummarizePortfolio(currency string, summaries []*CategorySummary) *PortfolioSummary {
	zero := M(0, currency)
	p := &PortfolioSummary{
		Categories:        summaries,
		Value:             zero,
		Allocated:         zero,
		Cash:              zero,
		Invested:          zero,
		RealizedPnL:       zero,
		RealizedCostBasis: zero,
	}

	for _, c := range summaries {
		p.Value = p.Value.Add(c.Value)
		p.Allocated = p.Allocated.Add(c.Allocated)
		p.Cash = p.Cash.Add(c.Cash)
		p.Invested = p.Invested.Add(c.CurrentInvested)
		p.RealizedPnL = p.RealizedPnL.Add(c.RealizedPnL)
		p.RealizedCostBasis = p.RealizedCostBasis.Add(c.RealizedCostBasis)
	}

	for _, c := range summaries {
		if p.Value.IsZero() {
			c.Allocation = NewPercent(newDecimal(0))
			continue
		}
		share := c.Value.Decimal().Div(p.Value.Decimal().Abs()).Mul(newDecimal(100))
		c.Allocation = NewPercent(share)
	}

	p.ROI = realizedROI(p.RealizedPnL, p.Allocated, p.RealizedCostBasis)
	return p
}
