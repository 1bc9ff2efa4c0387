package fundbook

// this file contains functions to handle the import/export format.
// It should remain human readable, single file and easy to merge back.

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// ExportTrades writes trades to 'w' in the export format: a JSONL stream,
// one trade object per line, in canonical order.
func ExportTrades(w io.Writer, trades []*Trade) error {
	sorted := make([]*Trade, len(trades))
	copy(sorted, trades)
	SortTrades(sorted)

	enc := json.NewEncoder(w)
	for _, t := range sorted {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("cannot encode trade %d: %w", t.ID, err)
		}
	}
	return nil
}

// jtrade is the readable version of the JSONL export format.
type jtrade struct {
	Side     Side            `json:"side"`
	Date     string          `json:"date"`
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Quantity Quantity        `json:"quantity"`
	Fees     decimal.Decimal `json:"fees"`
	Notes    string          `json:"notes"`
}

// ImportTrades reads trades for one category from 'r' in the JSONL export
// format. The trades are returned unsaved, with fresh total costs; feeding
// them through the service recomputes every snapshot.
func ImportTrades(r io.Reader, categoryID int64, currency string) ([]*Trade, error) {
	var trades []*Trade
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var jt jtrade
		if err := json.Unmarshal(line, &jt); err != nil {
			return nil, fmt.Errorf("cannot parse line for trade import format: %q: %w", string(line), err)
		}
		at, err := time.Parse(time.RFC3339, jt.Date)
		if err != nil {
			return nil, fmt.Errorf("cannot parse trade date %q: %w", jt.Date, err)
		}
		trades = append(trades, NewTrade(categoryID, jt.Side, jt.Symbol,
			M(jt.Price, currency), jt.Quantity, M(jt.Fees, currency), jt.Notes, at))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return trades, nil
}

// ImportMapping selects trade fields out of a foreign broker export with
// jsonpath expressions. Records selects the list of record objects; the
// field paths are evaluated against each record.
type ImportMapping struct {
	Records  string // e.g. "$.trades[*]"
	Side     string // e.g. "$.type"; values must parse as "Buy"/"Sell"
	Symbol   string
	Price    string
	Quantity string
	Fees     string // optional; missing means zero
	Date     string // RFC3339 or "2006-01-02"
	Notes    string // optional
}

// ImportMappedTrades reads an arbitrary JSON document from 'r' and extracts
// trades for one category through the mapping.
func ImportMappedTrades(r io.Reader, m ImportMapping, categoryID int64, currency string) ([]*Trade, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber() // keep amounts exact while they cross the generic tree
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse import document: %w", err)
	}

	recs, err := jsonpath.Get(m.Records, doc)
	if err != nil {
		return nil, fmt.Errorf("records path %q: %w", m.Records, err)
	}
	list, ok := recs.([]any)
	if !ok {
		// jsonpath is never clear about whether it returns a list or a
		// single answer: accept a single record too.
		list = []any{recs}
	}

	var trades []*Trade
	for i, rec := range list {
		side, err := pathSide(rec, m.Side)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		symbol, err := pathString(rec, m.Symbol)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		price, err := pathDecimal(rec, m.Price)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		qty, err := pathDecimal(rec, m.Quantity)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		fees := decimal.Zero
		if m.Fees != "" {
			if fees, err = pathDecimal(rec, m.Fees); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
		dateStr, err := pathString(rec, m.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		at, err := parseImportDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		var notes string
		if m.Notes != "" {
			// notes are best effort, a missing path is not an error
			notes, _ = pathString(rec, m.Notes)
		}

		trades = append(trades, NewTrade(categoryID, side, symbol,
			M(price, currency), Q(qty), M(fees, currency), notes, at))
	}
	return trades, nil
}

func parseImportDate(s string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, s); err == nil {
		return at, nil
	}
	at, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q", s)
	}
	return at, nil
}

func pathValue(rec any, path string) (any, error) {
	v, err := jsonpath.Get(path, rec)
	if err != nil {
		return nil, fmt.Errorf("path %q: %w", path, err)
	}
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}
	return v, nil
}

func pathString(rec any, path string) (string, error) {
	v, err := pathValue(rec, path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("path %q: expected string, got %T", path, v)
	}
	return s, nil
}

// pathSide accepts any casing: broker exports rarely agree on one.
func pathSide(rec any, path string) (Side, error) {
	s, err := pathString(rec, path)
	if err != nil {
		return 0, err
	}
	switch {
	case strings.EqualFold(s, "Buy"):
		return Buy, nil
	case strings.EqualFold(s, "Sell"):
		return Sell, nil
	}
	return ParseSide(s)
}

func pathDecimal(rec any, path string) (decimal.Decimal, error) {
	v, err := pathValue(rec, path)
	if err != nil {
		return decimal.Decimal{}, err
	}
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("path %q: expected number, got %T", path, v)
	}
}
