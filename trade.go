package fundbook

import (
	"fmt"
	"time"

	"github.com/etnz/fundbook/date"
)

// Side is the direction of a trade. It is a closed enum: every switch over
// it in this package is exhaustive, so an unrecognized value can never fall
// through a default branch silently.
type Side int

const (
	// Buy acquires units and adds their cost to the position.
	Buy Side = iota
	// Sell disposes units at the position's current average cost.
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide parses a trade direction from its canonical string form.
func ParseSide(s string) (Side, error) {
	switch s {
	case "Buy":
		return Buy, nil
	case "Sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown trade side: %q", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Side) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid trade side: %s", b)
	}
	v, err := ParseSide(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Trade is a single buy or sell record inside one (category, symbol) pair.
//
// TotalCost and AverageCost are derived snapshots maintained by the
// recalculation driver. They exist for point-in-time display only and are
// never read back as inputs to aggregation.
type Trade struct {
	ID         int64
	CategoryID int64
	Side       Side
	Symbol     string // normalized; may be empty
	Price      Money  // unit price, positive
	Quantity   Quantity
	Fees       Money // non-negative
	Date       time.Time
	Notes      string

	// Derived, persisted snapshots (display only).
	TotalCost   Money // price*qty + fees for Buy, price*qty - fees for Sell
	AverageCost Money // running average at the time of this trade
}

// NewTrade builds a trade with a normalized symbol and a freshly computed
// total cost. A zero date defaults to the current time.
func NewTrade(categoryID int64, side Side, symbol string, price Money, quantity Quantity, fees Money, notes string, at time.Time) *Trade {
	if at.IsZero() {
		at = time.Now()
	}
	t := &Trade{
		CategoryID: categoryID,
		Side:       side,
		Symbol:     NormalizeSymbol(symbol),
		Price:      price,
		Quantity:   quantity,
		Fees:       fees,
		Date:       at,
		Notes:      notes,
	}
	t.ComputeTotalCost()
	return t
}

// Day returns the civil date of the trade, the component the canonical
// ordering is defined on.
func (t *Trade) Day() date.Date { return date.FromTime(t.Date) }

// Gross returns price * quantity, before fees.
func (t *Trade) Gross() Money { return t.Price.Mul(t.Quantity) }

// CashEffect returns the signed effect of the trade on its category's cash:
// negative for a buy (gross + fees out), positive for a sell (gross - fees in).
func (t *Trade) CashEffect() Money {
	switch t.Side {
	case Buy:
		return t.Gross().Add(t.Fees).Neg()
	case Sell:
		return t.Gross().Sub(t.Fees)
	default:
		panic("unreachable: unknown trade side")
	}
}

// ComputeTotalCost refreshes the TotalCost snapshot from price, quantity
// and fees.
func (t *Trade) ComputeTotalCost() {
	switch t.Side {
	case Buy:
		t.TotalCost = t.Gross().Add(t.Fees)
	case Sell:
		t.TotalCost = t.Gross().Sub(t.Fees)
	default:
		panic("unreachable: unknown trade side")
	}
}

// Validate checks the trade's own invariants: price > 0, quantity > 0,
// fees >= 0, and for a sell, fees not exceeding gross proceeds.
func (t *Trade) Validate() error {
	if !t.Price.IsPositive() {
		return invalidf("price must be positive, got %s", t.Price.Decimal())
	}
	if !t.Quantity.IsPositive() {
		return invalidf("quantity must be positive, got %s", t.Quantity)
	}
	if t.Fees.IsNegative() {
		return invalidf("fees must not be negative, got %s", t.Fees.Decimal())
	}
	if t.Side == Sell && t.Fees.GreaterThan(t.Gross()) {
		return invalidf("fees exceed proceeds")
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Trade, in the
// field order of the export format.
func (t *Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("side", t.Side)
	w.Append("date", t.Date.Format(time.RFC3339))
	w.Optional("symbol", t.Symbol)
	w.Append("price", t.Price.Decimal())
	w.Append("quantity", t.Quantity)
	w.Append("fees", t.Fees.Decimal())
	w.Optional("notes", t.Notes)
	return w.MarshalJSON()
}
