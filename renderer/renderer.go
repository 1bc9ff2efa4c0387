// Package renderer turns the engine's aggregates into markdown reports for
// the CLI.
package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/etnz/fundbook"
)

// FundMarkdown renders one fund's summary: its capital, cash, open
// positions and realized performance.
func FundMarkdown(s *fundbook.CategorySummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Fund %s", s.Name))

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Allocated"), md.Bold(s.Allocated.String())},
		Rows: [][]string{
			{"Cash", s.Cash.String()},
			{"Invested", s.CurrentInvested.String()},
			{"Value", s.Value.String()},
			{"Realized P&L", s.RealizedPnL.SignedString()},
			{"ROI", s.ROI.SignedString()},
		},
	})

	if len(s.Symbols) > 0 {
		doc.H2("Holdings")
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
			},
			Header: []string{"Symbol", "Quantity", "Avg Cost", "Invested", "Realized P&L"},
		}
		for _, sym := range s.Symbols {
			table.Rows = append(table.Rows, []string{
				sym.Symbol,
				sym.QuantityHeld.String(),
				sym.AverageCost.String(),
				sym.CurrentInvested.String(),
				sym.RealizedPnL.SignedString(),
			})
		}
		doc.Table(table)
	}

	_ = doc.Build()
	return buf.String()
}

// PortfolioMarkdown renders the dashboard: portfolio totals and one row per
// fund with its share of the whole.
func PortfolioMarkdown(p *fundbook.PortfolioSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Value"), md.Bold(p.Value.String())},
		Rows: [][]string{
			{"Allocated", p.Allocated.String()},
			{"Cash", p.Cash.String()},
			{"Invested", p.Invested.String()},
			{"Realized P&L", p.RealizedPnL.SignedString()},
			{"ROI", p.ROI.SignedString()},
		},
	})

	if len(p.Categories) > 0 {
		doc.H2("Funds")
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
			},
			Header: []string{"Fund", "Allocated", "Cash", "Value", "Realized P&L", "Share"},
		}
		for _, c := range p.Categories {
			table.Rows = append(table.Rows, []string{
				c.Name,
				c.Allocated.String(),
				c.Cash.String(),
				c.Value.String(),
				c.RealizedPnL.SignedString(),
				c.Allocation.String(),
			})
		}
		doc.Table(table)
	}

	_ = doc.Build()
	return buf.String()
}

// TransactionsMarkdown renders a fund's trades in canonical order, with the
// snapshot columns maintained by the recomputation.
func TransactionsMarkdown(name string, trades []*fundbook.Trade) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Transactions of %s", name))
	if len(trades) == 0 {
		doc.PlainText("No transactions.")
		_ = doc.Build()
		return buf.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft, md.AlignLeft,
			md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
		},
		Header: []string{"Date", "Side", "Symbol", "Price", "Quantity", "Fees", "Total", "Avg Cost"},
	}
	for _, t := range trades {
		table.Rows = append(table.Rows, []string{
			t.Day().String(),
			t.Side.String(),
			t.Symbol,
			t.Price.String(),
			t.Quantity.String(),
			t.Fees.String(),
			t.TotalCost.String(),
			t.AverageCost.String(),
		})
	}
	doc.Table(table)

	_ = doc.Build()
	return buf.String()
}

// EventsMarkdown renders a fund's funding history.
func EventsMarkdown(name string, events []*fundbook.FundingEvent) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Funding of %s", name))
	if len(events) == 0 {
		doc.PlainText("No funding events.")
		_ = doc.Build()
		return buf.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignLeft},
		Header:    []string{"Date", "Kind", "Amount", "Notes"},
	}
	for _, e := range events {
		table.Rows = append(table.Rows, []string{
			e.Date.Format("2006-01-02"),
			e.Kind.String(),
			e.Delta.SignedString(),
			e.Notes,
		})
	}
	doc.Table(table)

	_ = doc.Build()
	return buf.String()
}
