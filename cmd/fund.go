package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/fundbook"
)

type newCmd struct {
	amount string
	notes  string
}

func (*newCmd) Name() string     { return "new" }
func (*newCmd) Synopsis() string { return "create a fund with its initial allocation" }
func (*newCmd) Usage() string {
	return `fundbook new -a <amount> [-note <text>] <name>

  Creates a fund and records its Initial funding event.

Usage Examples:
# Create a Metals fund seeded with 5000.
$ fundbook new -a 5000 Metals

`
}

func (c *newCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Initial allocated amount.")
	f.StringVar(&c.notes, "note", "", "Optional note on the initial event.")
}

func (c *newCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one fund name.")
		return subcommands.ExitUsageError
	}
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	amount, err := fundbook.ParseMoney(c.amount, svc.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad amount %q: %v\n", c.amount, err)
		return subcommands.ExitUsageError
	}
	fund, err := svc.CreateCategory(ctx, f.Arg(0), amount, c.notes)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created fund %q with %s allocated.\n", fund.Name, fund.Allocated)
	return subcommands.ExitSuccess
}

type deleteFundCmd struct {
	force bool
}

func (*deleteFundCmd) Name() string     { return "delete" }
func (*deleteFundCmd) Synopsis() string { return "delete a fund and everything it contains" }
func (*deleteFundCmd) Usage() string {
	return `fundbook delete [-y] <name>

  Deletes a fund. All of its trades, funding events and tracked assets go
  with it.

`
}

func (c *deleteFundCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "y", false, "Skip the confirmation prompt.")
}

func (c *deleteFundCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one fund name.")
		return subcommands.ExitUsageError
	}
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	fund, err := svc.CategoryByName(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if !c.force {
		fmt.Printf("Delete fund %q and all its records? [y/N] ", fund.Name)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return subcommands.ExitSuccess
		}
	}
	name, err := svc.DeleteCategory(ctx, fund.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted fund %q.\n", name)
	return subcommands.ExitSuccess
}

type fundsCmd struct{}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "list all funds" }
func (*fundsCmd) Usage() string {
	return `fundbook funds

  Lists every fund with its allocated amount.

`
}

func (c *fundsCmd) SetFlags(f *flag.FlagSet) {}

func (c *fundsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	funds, err := svc.Categories(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if len(funds) == 0 {
		fmt.Println("No funds yet. Create one with: fundbook new -a <amount> <name>")
		return subcommands.ExitSuccess
	}
	for _, fund := range funds {
		fmt.Printf("%-20s allocated %s\n", fund.Name, fund.Allocated)
	}
	return subcommands.ExitSuccess
}

type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "write a starter config file" }
func (*initCmd) Usage() string {
	return `fundbook init [path]

  Writes a commented fundbook.toml (default path) to edit from.

`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {}

func (c *initCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := "fundbook.toml"
	if f.NArg() > 0 {
		path = f.Arg(0)
	}
	if err := WriteConfigExample(path); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %s\n", path)
	return subcommands.ExitSuccess
}
