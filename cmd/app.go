// Package cmd implements the CLI application to manage a fund ledger.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/etnz/fundbook"
	"github.com/etnz/fundbook/date"
	"github.com/etnz/fundbook/sqlstore"
)

// As a CLI application it has a very short lived lifecycle, so global flags
// are fine. They override the config file, which overrides the defaults.
var (
	configFile = flag.String("config", "", "Path to the config file (default fundbook.toml if it exists)")
	dbPath     = flag.String("db", "", "Path to the ledger database file")
	currency   = flag.String("currency", "", "Currency of every amount in the ledger")
)

// AppConfig is the TOML file layout (fundbook.toml).
type AppConfig struct {
	DB             string `toml:"db"`
	Currency       string `toml:"currency"`
	Listen         string `toml:"listen"`
	RejectOversell bool   `toml:"reject_oversell"`
}

// LoadConfig resolves the effective configuration: defaults, then the
// config file, then command line flags.
func LoadConfig() (AppConfig, error) {
	cfg := AppConfig{
		DB:       "fundbook.db",
		Currency: "USD",
		Listen:   ":8080",
	}

	path := *configFile
	explicit := path != ""
	if !explicit {
		path = "fundbook.toml"
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file is fine; the defaults and flags carry it.
	default:
		return cfg, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	if *dbPath != "" {
		cfg.DB = *dbPath
	}
	if *currency != "" {
		cfg.Currency = *currency
	}
	return cfg, nil
}

// OpenService opens the ledger database and wires the service over it.
// The caller owns the returned store and must Close it.
func OpenService() (*fundbook.Service, *sqlstore.Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlstore.Open(sqlstore.Config{
		Path:     cfg.DB,
		Currency: cfg.Currency,
		Log:      zerolog.Nop(),
	})
	if err != nil {
		return nil, nil, err
	}
	svc := fundbook.NewService(store, fundbook.Config{
		Currency:       cfg.Currency,
		RejectOversell: cfg.RejectOversell,
	})
	return svc, store, nil
}

// printMarkdown renders markdown for the terminal. If the renderer cannot
// be built (dumb terminals, broken TERM) the raw markdown is still useful.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

// parseWhen parses an occurrence date flag: empty means now, a civil date
// means noon that day local time, otherwise RFC3339.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if d, err := date.Parse(s); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.Local), nil
	}
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q: want 2006-01-02 or RFC3339", s)
	}
	return at, nil
}

// argID reads the single positional integer id argument of a command.
func argID(f *flag.FlagSet) (int64, bool) {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one id argument.")
		return 0, false
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad id %q.\n", f.Arg(0))
		return 0, false
	}
	return id, true
}

// resolveFund resolves the -f flag value to a category, by name.
func resolveFund(ctx context.Context, svc *fundbook.Service, name string) (*fundbook.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("missing -f <fund> flag")
	}
	return svc.CategoryByName(ctx, name)
}

// ConfigExample returns a commented fundbook.toml for the init command.
func ConfigExample() string {
	return `# fundbook configuration
db = "fundbook.db"
currency = "USD"
listen = ":8080"

# Reject sells of more units than currently held. Off by default so that
# out-of-order manual entry stays possible.
reject_oversell = false
`
}

// WriteConfigExample writes a starter config file, refusing to overwrite.
func WriteConfigExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %q already exists", path)
	}
	return os.WriteFile(path, []byte(ConfigExample()), 0o644)
}
