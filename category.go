package fundbook

import "time"

// Category is a named bucket of capital and trades (e.g. "Stocks").
// Its allocated amount is a fixed reference adjusted only by funding
// events; cash and every other figure are derived from it and the trades.
type Category struct {
	ID        int64
	Name      string // unique
	Allocated Money  // may be any sign after withdrawals
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackedAsset marks that a (category, symbol) pair exists even with zero
// trades, so an empty row can be shown. Unique per (category, symbol);
// cannot be removed while trades exist for the pair.
type TrackedAsset struct {
	ID         int64
	CategoryID int64
	Symbol     string // normalized
	CreatedAt  time.Time
}
