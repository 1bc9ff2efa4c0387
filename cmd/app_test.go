package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// setFlag sets a global flag for the duration of one test.
func setFlag(t *testing.T, target *string, value string) {
	t.Helper()
	old := *target
	*target = value
	t.Cleanup(func() { *target = old })
}

func TestLoadConfigDefaults(t *testing.T) {
	// Run from an empty directory so no stray fundbook.toml is found.
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB != "fundbook.db" || cfg.Currency != "USD" || cfg.Listen != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RejectOversell {
		t.Error("oversell rejection should be off by default")
	}
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundbook.toml")
	file := `db = "/data/ledger.db"
currency = "EUR"
listen = ":9090"
reject_oversell = true
`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}
	setFlag(t, configFile, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB != "/data/ledger.db" || cfg.Currency != "EUR" || cfg.Listen != ":9090" {
		t.Errorf("config file not applied: %+v", cfg)
	}
	if !cfg.RejectOversell {
		t.Error("reject_oversell = true not applied")
	}

	// Flags win over the file.
	setFlag(t, dbPath, "override.db")
	setFlag(t, currency, "CHF")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB != "override.db" || cfg.Currency != "CHF" {
		t.Errorf("flags should override the file: %+v", cfg)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	setFlag(t, configFile, filepath.Join(t.TempDir(), "nope.toml"))
	if _, err := LoadConfig(); err == nil {
		t.Error("an explicitly named missing config file should be an error")
	}
}

func TestConfigExampleParses(t *testing.T) {
	var cfg AppConfig
	if err := toml.Unmarshal([]byte(ConfigExample()), &cfg); err != nil {
		t.Fatalf("the example config must parse: %v", err)
	}
	if cfg.DB != "fundbook.db" || cfg.Currency != "USD" {
		t.Errorf("unexpected example values: %+v", cfg)
	}
}

func TestParseWhen(t *testing.T) {
	at, err := parseWhen("2026-03-10")
	if err != nil {
		t.Fatalf("civil date: %v", err)
	}
	if at.Year() != 2026 || at.Month() != time.March || at.Day() != 10 || at.Hour() != 12 {
		t.Errorf("civil date should land at noon that day, got %v", at)
	}

	at, err = parseWhen("2026-03-10T09:30:00Z")
	if err != nil {
		t.Fatalf("RFC3339: %v", err)
	}
	if at.Hour() != 9 || at.Minute() != 30 {
		t.Errorf("RFC3339 time of day lost: %v", at)
	}

	if _, err := parseWhen("yesterday"); err == nil {
		t.Error("want an error for an unparseable date")
	}

	before := time.Now()
	at, err = parseWhen("")
	if err != nil {
		t.Fatalf("empty date: %v", err)
	}
	if at.Before(before) {
		t.Errorf("empty date should default to now, got %v", at)
	}
}

func TestMappingFileParses(t *testing.T) {
	raw := `records  = "$.trades[*]"
side     = "$.type"
symbol   = "$.ticker"
price    = "$.price"
quantity = "$.qty"
date     = "$.date"
`
	var mf mappingFile
	if err := toml.Unmarshal([]byte(raw), &mf); err != nil {
		t.Fatalf("mapping file: %v", err)
	}
	if mf.Records != "$.trades[*]" || mf.Side != "$.type" || mf.Quantity != "$.qty" {
		t.Errorf("mapping fields not read: %+v", mf)
	}
	if mf.Fees != "" || mf.Notes != "" {
		t.Errorf("optional fields should stay empty: %+v", mf)
	}
}
