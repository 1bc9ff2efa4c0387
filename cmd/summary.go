package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/fundbook/renderer"
)

type summaryCmd struct {
	fund string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show a fund's holdings, cash and realized P&L" }
func (*summaryCmd) Usage() string {
	return `fundbook summary -f <fund>

  Shows the per-symbol holdings of a fund (quantity, average cost,
  invested), the derived cash balance, and the realized figures.

Usage Examples:
$ fundbook summary -f Metals

`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	fund, err := resolveFund(ctx, svc, c.fund)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	report, err := svc.CategorySummary(ctx, fund.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.FundMarkdown(report))
	return subcommands.ExitSuccess
}

type dashboardCmd struct{}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "show portfolio-wide totals across all funds" }
func (*dashboardCmd) Usage() string {
	return `fundbook dashboard

  Shows portfolio totals (investment, cash, invested, realized P&L,
  value, ROI) and one row per fund with its allocation share.

`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {}

func (c *dashboardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	report, err := svc.PortfolioSummary(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PortfolioMarkdown(report))
	return subcommands.ExitSuccess
}
