package fundbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a display ratio (e.g. 12.5 for 12.5%). It is computed from
// exact decimals and kept exact; only String rounds, for display.
type Percent struct {
	value decimal.Decimal
	valid bool // false renders as "—" (no meaningful base)
}

// NewPercent builds a valid Percent from an exact decimal.
func NewPercent(v decimal.Decimal) Percent { return Percent{value: v, valid: true} }

// NoPercent is the "not displayable" percentage: a ratio whose base was zero.
func NoPercent() Percent { return Percent{} }

func (p Percent) Valid() bool              { return p.valid }
func (p Percent) Decimal() decimal.Decimal { return p.value }

func (p Percent) Equal(q Percent) bool {
	if p.valid != q.valid {
		return false
	}
	return !p.valid || p.value.Equal(q.value)
}

func (p Percent) String() string {
	if !p.valid {
		return "—"
	}
	return fmt.Sprintf("%s%%", p.value.StringFixed(2))
}

// SignedString renders with an explicit sign, keeping "—" for no-base.
func (p Percent) SignedString() string {
	if !p.valid {
		return "—"
	}
	if p.value.IsPositive() {
		return "+" + p.String()
	}
	return p.String()
}

// MarshalJSON renders a valid percent as a number and an invalid one as null.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return p.value.MarshalJSON()
}
