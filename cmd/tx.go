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

// tradeFlags are the flags shared by buy and sell.
type tradeFlags struct {
	fund     string
	symbol   string
	price    string
	quantity string
	fees     string
	notes    string
	date     string
}

func (t *tradeFlags) set(f *flag.FlagSet) {
	f.StringVar(&t.fund, "f", "", "Fund name.")
	f.StringVar(&t.symbol, "s", "", "Asset symbol (blank records a pure cash movement).")
	f.StringVar(&t.price, "p", "", "Unit price.")
	f.StringVar(&t.quantity, "q", "", "Quantity.")
	f.StringVar(&t.fees, "fees", "0", "Transaction fees.")
	f.StringVar(&t.date, "d", "", "Trade date (2006-01-02 or RFC3339, default now).")
	f.StringVar(&t.notes, "note", "", "Optional note.")
}

func (t *tradeFlags) run(ctx context.Context, side fundbook.Side) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	fund, err := resolveFund(ctx, svc, t.fund)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	price, err := fundbook.ParseMoney(t.price, svc.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad price %q: %v\n", t.price, err)
		return subcommands.ExitUsageError
	}
	qty, err := fundbook.ParseQuantity(t.quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad quantity %q: %v\n", t.quantity, err)
		return subcommands.ExitUsageError
	}
	fees, err := fundbook.ParseMoney(t.fees, svc.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad fees %q: %v\n", t.fees, err)
		return subcommands.ExitUsageError
	}
	at, err := parseWhen(t.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	trade, err := svc.AddTrade(ctx, fund.ID, side, t.symbol, price, qty, fees, t.notes, at)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s #%d: %s x %s @ %s, total %s.\n",
		trade.Side, trade.ID, trade.Symbol, trade.Quantity, trade.Price, trade.TotalCost)
	return subcommands.ExitSuccess
}

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a buy" }
func (*buyCmd) Usage() string {
	return `fundbook buy -f <fund> -s <symbol> -p <price> -q <quantity> [-fees <fees>] [-d <date>] [-note <text>]

  Records a buy in a fund. The running average cost of the symbol is
  recomputed in the same transaction.

Usage Examples:
# Buy 1.5 oz of gold at 3050 with 15 of fees.
$ fundbook buy -f Metals -s XAU -p 3050 -q 1.5 -fees 15

`
}
func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.set(f) }
func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, fundbook.Buy)
}

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sell" }
func (*sellCmd) Usage() string {
	return `fundbook sell -f <fund> -s <symbol> -p <price> -q <quantity> [-fees <fees>] [-d <date>] [-note <text>]

  Records a sell in a fund. Realized P&L against the running average cost
  is computed when the fund is summarized; the sell never moves the
  remaining average.

`
}
func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.set(f) }
func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, fundbook.Sell)
}

type txCmd struct {
	fund string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list a fund's trades" }
func (*txCmd) Usage() string {
	return `fundbook tx -f <fund>

  Lists the trades of a fund in canonical order (date ascending, buys
  before sells within a day), with their ids.

`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	trades, err := svc.Trades(ctx, fund.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.TransactionsMarkdown(fund.Name, trades))
	return subcommands.ExitSuccess
}

type editCmd struct {
	symbol   string
	price    string
	quantity string
	fees     string
	notes    string
	date     string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a trade" }
func (*editCmd) Usage() string {
	return `fundbook edit [-s <symbol>] [-p <price>] [-q <quantity>] [-fees <fees>] [-d <date>] [-note <text>] <trade-id>

  Rewrites the given fields of a trade and recomputes the affected
  symbols. An edit that changes nothing is a no-op.

`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "New symbol.")
	f.StringVar(&c.price, "p", "", "New unit price.")
	f.StringVar(&c.quantity, "q", "", "New quantity.")
	f.StringVar(&c.fees, "fees", "", "New fees.")
	f.StringVar(&c.date, "d", "", "New trade date.")
	f.StringVar(&c.notes, "note", "", "New note.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var u fundbook.TradeUpdate
	if c.symbol != "" {
		u.Symbol = &c.symbol
	}
	if c.price != "" {
		p, err := fundbook.ParseMoney(c.price, svc.Currency())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad price %q: %v\n", c.price, err)
			return subcommands.ExitUsageError
		}
		u.Price = &p
	}
	if c.quantity != "" {
		q, err := fundbook.ParseQuantity(c.quantity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad quantity %q: %v\n", c.quantity, err)
			return subcommands.ExitUsageError
		}
		u.Quantity = &q
	}
	if c.fees != "" {
		fees, err := fundbook.ParseMoney(c.fees, svc.Currency())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad fees %q: %v\n", c.fees, err)
			return subcommands.ExitUsageError
		}
		u.Fees = &fees
	}
	if c.date != "" {
		at, err := parseWhen(c.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		u.Date = &at
	}
	if c.notes != "" {
		u.Notes = &c.notes
	}

	trade, err := svc.UpdateTrade(ctx, id, u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Trade #%d is now %s %s x %s @ %s on %s.\n",
		trade.ID, trade.Side, trade.Symbol, trade.Quantity, trade.Price,
		trade.Date.Format(time.DateOnly))
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a trade" }
func (*rmCmd) Usage() string {
	return `fundbook rm <trade-id>

  Deletes a trade and recomputes the remaining trades of its symbol.

`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if _, err := svc.DeleteTrade(ctx, id); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted trade #%d.\n", id)
	return subcommands.ExitSuccess
}
