package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/fundbook"
)

func usd(v float64) fundbook.Money { return fundbook.M(v, "USD") }

func summaryFixture() *fundbook.CategorySummary {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &fundbook.Category{ID: 1, Name: "Metals", Allocated: usd(25000), CreatedAt: now, UpdatedAt: now}
	trades := []*fundbook.Trade{
		fundbook.NewTrade(1, fundbook.Buy, "XAU", usd(2000), fundbook.Q(1.5), usd(50), "", now),
		fundbook.NewTrade(1, fundbook.Buy, "XAU", usd(2050), fundbook.Q(1), usd(30), "", now.AddDate(0, 1, 0)),
	}
	return fundbook.SummarizeCategory("USD", c, trades)
}

func TestFundMarkdown(t *testing.T) {
	out := FundMarkdown(summaryFixture())

	for _, want := range []string{"# Fund Metals", "## Holdings", "XAU", "Cash", "Realized P&L"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPortfolioMarkdown(t *testing.T) {
	s := summaryFixture()
	p := fundbook.SummarizePortfolio("USD", []*fundbook.CategorySummary{s})
	out := PortfolioMarkdown(p)

	for _, want := range []string{"# Portfolio", "## Funds", "Metals", "Share", "100.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestTransactionsMarkdown(t *testing.T) {
	at := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	trades := []*fundbook.Trade{
		fundbook.NewTrade(1, fundbook.Buy, "XAU", usd(2000), fundbook.Q(1.5), usd(50), "", at),
	}
	out := TransactionsMarkdown("Metals", trades)

	for _, want := range []string{"# Transactions of Metals", "2024-01-10", "Buy", "XAU"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	if out := TransactionsMarkdown("Empty", nil); !strings.Contains(out, "No transactions.") {
		t.Errorf("empty case:\n%s", out)
	}
}

func TestEventsMarkdown(t *testing.T) {
	at := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	events := []*fundbook.FundingEvent{
		fundbook.NewFundingEvent(1, fundbook.Initial, usd(25000), "Initial funding", at),
		fundbook.NewFundingEvent(1, fundbook.Withdrawal, usd(-500), "", at.AddDate(0, 2, 0)),
	}
	out := EventsMarkdown("Metals", events)

	for _, want := range []string{"# Funding of Metals", "Initial", "Withdrawal", "2024-03-10"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
