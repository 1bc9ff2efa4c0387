package fundbook

import (
	"fmt"
	"time"
)

// EventKind is the kind of a funding event. Like Side it is a closed enum
// matched exhaustively.
type EventKind int

const (
	// Initial anchors a category's starting capital. It is created exactly
	// once, at category creation, and can be edited but never deleted.
	Initial EventKind = iota
	// Deposit adds capital to a category (positive delta).
	Deposit
	// Withdrawal removes capital from a category (stored as negative delta).
	Withdrawal
)

func (k EventKind) String() string {
	switch k {
	case Initial:
		return "Initial"
	case Deposit:
		return "Deposit"
	case Withdrawal:
		return "Withdrawal"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ParseEventKind parses an event kind from its canonical string form.
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "Initial":
		return Initial, nil
	case "Deposit":
		return Deposit, nil
	case "Withdrawal":
		return Withdrawal, nil
	default:
		return 0, fmt.Errorf("unknown event kind: %q", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (k EventKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// FundingEvent is a signed capital-allocation change applied to a
// category's allocated amount, distinct from trading activity.
type FundingEvent struct {
	ID         int64
	CategoryID int64
	Kind       EventKind
	Delta      Money // signed: deposits positive, withdrawals negative
	Date       time.Time
	Notes      string
}

// NewFundingEvent builds an event. A zero date defaults to the current time.
func NewFundingEvent(categoryID int64, kind EventKind, delta Money, notes string, at time.Time) *FundingEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return &FundingEvent{
		CategoryID: categoryID,
		Kind:       kind,
		Delta:      delta,
		Date:       at,
		Notes:      notes,
	}
}

// MarshalJSON implements the json.Marshaler interface for FundingEvent.
func (e *FundingEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", e.Kind)
	w.Append("date", e.Date.Format(time.RFC3339))
	w.Append("delta", e.Delta.Decimal())
	w.Optional("notes", e.Notes)
	return w.MarshalJSON()
}
