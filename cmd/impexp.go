package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/etnz/fundbook"
)

type exportCmd struct {
	fund   string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a fund's trades as JSONL" }
func (*exportCmd) Usage() string {
	return `fundbook export -f <fund> [-o <file>]

  Writes the trades of a fund in canonical order, one JSON object per
  line, to stdout or a file. The output reimports as-is.

`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
	f.StringVar(&c.output, "o", "", "Output file (default stdout).")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var w io.Writer = os.Stdout
	if c.output != "" {
		out, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		defer out.Close()
		w = out
	}
	if err := fundbook.ExportTrades(w, trades); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	fund    string
	input   string
	mapping string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import trades into a fund" }
func (*importCmd) Usage() string {
	return `fundbook import -f <fund> [-i <file>] [-map <mapping.toml>]

  Imports trades from stdin or a file. Without -map the input is the
  JSONL export format. With -map the input is an arbitrary JSON broker
  export and the mapping file selects the trade fields with jsonpath
  expressions:

    records  = "$.trades[*]"
    side     = "$.type"
    symbol   = "$.ticker"
    price    = "$.price"
    quantity = "$.qty"
    fees     = "$.fee"      # optional
    date     = "$.date"
    notes    = "$.memo"     # optional

`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "f", "", "Fund name.")
	f.StringVar(&c.input, "i", "", "Input file (default stdin).")
	f.StringVar(&c.mapping, "map", "", "Mapping file for foreign broker exports.")
}

// mappingFile is the TOML layout of a -map file.
type mappingFile struct {
	Records  string `toml:"records"`
	Side     string `toml:"side"`
	Symbol   string `toml:"symbol"`
	Price    string `toml:"price"`
	Quantity string `toml:"quantity"`
	Fees     string `toml:"fees"`
	Date     string `toml:"date"`
	Notes    string `toml:"notes"`
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var r io.Reader = os.Stdin
	if c.input != "" {
		in, err := os.Open(c.input)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		defer in.Close()
		r = in
	}

	var trades []*fundbook.Trade
	if c.mapping != "" {
		raw, err := os.ReadFile(c.mapping)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		var mf mappingFile
		if err := toml.Unmarshal(raw, &mf); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot parse mapping file %q: %v\n", c.mapping, err)
			return subcommands.ExitFailure
		}
		m := fundbook.ImportMapping{
			Records:  mf.Records,
			Side:     mf.Side,
			Symbol:   mf.Symbol,
			Price:    mf.Price,
			Quantity: mf.Quantity,
			Fees:     mf.Fees,
			Date:     mf.Date,
			Notes:    mf.Notes,
		}
		trades, err = fundbook.ImportMappedTrades(r, m, fund.ID, svc.Currency())
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
	} else {
		trades, err = fundbook.ImportTrades(r, fund.ID, svc.Currency())
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
	}

	for _, t := range trades {
		if _, err := svc.AddTrade(ctx, fund.ID, t.Side, t.Symbol, t.Price, t.Quantity, t.Fees, t.Notes, t.Date); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %s %s on %s: %v\n",
				t.Side, t.Symbol, t.Day(), err)
			return subcommands.ExitFailure
		}
	}
	fmt.Printf("Imported %d trades into fund %q.\n", len(trades), fund.Name)
	return subcommands.ExitSuccess
}
