package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/etnz/fundbook"
	"github.com/etnz/fundbook/server"
	"github.com/etnz/fundbook/sqlstore"
)

type serveCmd struct {
	addr    string
	verbose bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the JSON REST API" }
func (*serveCmd) Usage() string {
	return `fundbook serve [-addr <host:port>] [-v]

  Serves the ledger over HTTP until interrupted. The API covers funds,
  funding events, trades, tracked assets and summaries; see
  "fundbook topic server" for the routes.

`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address (default from config, else :8080).")
	f.BoolVar(&c.verbose, "v", false, "Debug-level logging.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if c.addr != "" {
		cfg.Listen = c.addr
	}

	level := zerolog.InfoLevel
	if c.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	store, err := sqlstore.Open(sqlstore.Config{
		Path:     cfg.DB,
		Currency: cfg.Currency,
		Log:      log,
	})
	if err != nil {
		log.Error().Err(err).Msg("cannot open ledger database")
		return subcommands.ExitFailure
	}
	defer store.Close()

	svc := fundbook.NewService(store, fundbook.Config{
		Currency:       cfg.Currency,
		RejectOversell: cfg.RejectOversell,
	})
	srv := server.New(server.Config{
		Addr:    cfg.Listen,
		Service: svc,
		Log:     log,
	})

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	log.Info().Str("addr", cfg.Listen).Str("db", cfg.DB).Msg("serving")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		log.Error().Err(err).Msg("server failed")
		return subcommands.ExitFailure
	case <-quit:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
