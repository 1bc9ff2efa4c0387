package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type trackCmd struct {
	fund string
}

func (*trackCmd) Name() string     { return "track" }
func (*trackCmd) Synopsis() string { return "track a symbol in a fund" }
func (*trackCmd) Usage() string {
	return `fundbook track -f <fund> <symbol>

  Marks a symbol as tracked in a fund so it shows up in summaries even
  before the first trade.

`
}

func (c *trackCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
}

func (c *trackCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one symbol.")
		return subcommands.ExitUsageError
	}
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
	asset, err := svc.TrackAsset(ctx, fund.ID, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Tracking %s in fund %q.\n", asset.Symbol, fund.Name)
	return subcommands.ExitSuccess
}

type untrackCmd struct {
	fund string
}

func (*untrackCmd) Name() string     { return "untrack" }
func (*untrackCmd) Synopsis() string { return "stop tracking a symbol" }
func (*untrackCmd) Usage() string {
	return `fundbook untrack -f <fund> <symbol>

  Removes a tracked symbol from a fund. Refused while the fund still has
  trades for the symbol.

`
}

func (c *untrackCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
}

func (c *untrackCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one symbol.")
		return subcommands.ExitUsageError
	}
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
	if err := svc.UntrackAsset(ctx, fund.ID, f.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Stopped tracking %s in fund %q.\n", f.Arg(0), fund.Name)
	return subcommands.ExitSuccess
}
