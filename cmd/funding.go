package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/etnz/fundbook"
	"github.com/etnz/fundbook/renderer"
)

type depositCmd struct {
	fund   string
	amount string
	notes  string
	date   string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "add capital to a fund" }
func (*depositCmd) Usage() string {
	return `fundbook deposit -f <fund> -a <amount> [-d <date>] [-note <text>]

  Adds capital to a fund's allocation and records a Deposit event.

Usage Examples:
# Add 1000 to the Metals fund, dated last Monday.
$ fundbook deposit -f Metals -a 1000 -d 2026-08-24

`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
	f.StringVar(&c.amount, "a", "", "Amount to deposit.")
	f.StringVar(&c.date, "d", "", "Event date (2006-01-02 or RFC3339, default now).")
	f.StringVar(&c.notes, "note", "", "Optional note.")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runFunding(ctx, c.fund, c.amount, c.notes, c.date, false)
}

type withdrawCmd struct {
	fund   string
	amount string
	notes  string
	date   string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "remove capital from a fund" }
func (*withdrawCmd) Usage() string {
	return `fundbook withdraw -f <fund> -a <amount> [-d <date>] [-note <text>]

  Removes capital from a fund's allocation and records a Withdrawal event.
  The allocation may go negative.

`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
	f.StringVar(&c.amount, "a", "", "Amount to withdraw (positive).")
	f.StringVar(&c.date, "d", "", "Event date (2006-01-02 or RFC3339, default now).")
	f.StringVar(&c.notes, "note", "", "Optional note.")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runFunding(ctx, c.fund, c.amount, c.notes, c.date, true)
}

// runFunding is the shared body of deposit and withdraw.
func runFunding(ctx context.Context, fund, amount, notes, dateStr string, withdraw bool) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	c, err := resolveFund(ctx, svc, fund)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	m, err := fundbook.ParseMoney(amount, svc.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad amount %q: %v\n", amount, err)
		return subcommands.ExitUsageError
	}
	at, err := parseWhen(dateStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	if withdraw {
		c, err = svc.Withdraw(ctx, c.ID, m, notes, at)
	} else {
		c, err = svc.Deposit(ctx, c.ID, m, notes, at)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Fund %q now has %s allocated.\n", c.Name, c.Allocated)
	return subcommands.ExitSuccess
}

type eventsCmd struct {
	fund string
}

func (*eventsCmd) Name() string     { return "events" }
func (*eventsCmd) Synopsis() string { return "list a fund's funding events" }
func (*eventsCmd) Usage() string {
	return `fundbook events -f <fund>

  Lists the funding events of a fund in date order, with their ids so
  they can be edited or deleted.

`
}

func (c *eventsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
}

func (c *eventsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	events, err := svc.Events(ctx, fund.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.EventsMarkdown(fund.Name, events))
	return subcommands.ExitSuccess
}

type editEventCmd struct {
	amount string
	notes  string
	date   string
}

func (*editEventCmd) Name() string     { return "edit-event" }
func (*editEventCmd) Synopsis() string { return "edit a funding event" }
func (*editEventCmd) Usage() string {
	return `fundbook edit-event [-a <amount>] [-d <date>] [-note <text>] <event-id>

  Rewrites a funding event. Changing the amount re-applies the difference
  to the fund's allocation. Deposit amounts are entered positive,
  withdrawal amounts negative.

`
}

func (c *editEventCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "New signed delta.")
	f.StringVar(&c.date, "d", "", "New event date.")
	f.StringVar(&c.notes, "note", "", "New note.")
}

func (c *editEventCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := argID(f)
	if !ok {
		return subcommands.ExitUsageError
	}
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if c.amount == "" {
		fmt.Fprintln(os.Stderr, "Error: -a <amount> is required.")
		return subcommands.ExitUsageError
	}
	delta, err := fundbook.ParseMoney(c.amount, svc.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad amount %q: %v\n", c.amount, err)
		return subcommands.ExitUsageError
	}
	var notes *string
	if c.notes != "" {
		notes = &c.notes
	}
	var at *time.Time
	if c.date != "" {
		when, err := parseWhen(c.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		at = &when
	}
	e, err := svc.UpdateEvent(ctx, id, delta, notes, at)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Event %d is now a %s of %s.\n", e.ID, e.Kind, e.Delta.Abs())
	return subcommands.ExitSuccess
}

type rmEventCmd struct{}

func (*rmEventCmd) Name() string     { return "rm-event" }
func (*rmEventCmd) Synopsis() string { return "delete a funding event" }
func (*rmEventCmd) Usage() string {
	return `fundbook rm-event <event-id>

  Deletes a funding event and reverses its delta on the fund's
  allocation. The Initial event cannot be deleted.

`
}

func (c *rmEventCmd) SetFlags(f *flag.FlagSet) {}

func (c *rmEventCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := argID(f)
	if !ok {
		return subcommands.ExitUsageError
	}
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	fundID, err := svc.DeleteEvent(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fund, err := svc.Category(ctx, fundID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted event %d; fund %q now has %s allocated.\n", id, fund.Name, fund.Allocated)
	return subcommands.ExitSuccess
}
