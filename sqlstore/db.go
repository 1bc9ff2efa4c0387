// Package sqlstore persists the ledger in a local SQLite database through
// the pure Go driver, and implements the engine's Store contract on top of
// it. The canonical trade order is part of that contract and is enforced in
// SQL, so the engine never re-sorts what it reads.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed schema.sql
var schema string

// Config holds the store configuration.
type Config struct {
	// Path of the database file; file: URIs pass through untouched so
	// tests can run on in-memory databases.
	Path string
	// Currency of every stored amount (default "USD").
	Currency string
	Log      zerolog.Logger
}

func (c Config) currency() string {
	if c.Currency == "" {
		return "USD"
	}
	return c.Currency
}

// Open opens (and if needed creates) the ledger database, applies the
// journal and durability PRAGMAs, and brings the schema up to date.
func Open(cfg Config) (*Store, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		abs, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("cannot create database directory: %w", err)
		}
		cfg.Path = abs
	}

	conn, err := sql.Open("sqlite", connString(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// The ledger is a low-traffic single-writer file: a small pool is
	// enough, and long lifetimes avoid churning the WAL.
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(24 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot apply schema: %w", err)
	}

	cfg.Log.Debug().Str("path", cfg.Path).Msg("ledger database open")
	return &Store{
		queries: queries{q: conn, cur: cfg.currency()},
		db:      conn,
		log:     cfg.Log,
	}, nil
}

// connString builds the connection string. Money lives in this file, so the
// journal runs in WAL mode with full synchronous writes, and foreign keys
// are on for the category cascades.
func connString(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path +
		sep + "_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(FULL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
}
