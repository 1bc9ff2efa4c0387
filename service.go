package fundbook

import (
	"context"
	"fmt"
	"time"
)

// Repository is the persistence contract the engine computes against.
//
// The ordering contracts are part of the interface: Trades and SymbolTrades
// return trades in canonical order (civil date ascending, buys before sells
// within a day, id ascending within day and side); Events returns events in
// date-ascending order.
type Repository interface {
	Category(ctx context.Context, id int64) (*Category, error)
	CategoryByName(ctx context.Context, name string) (*Category, error)
	Categories(ctx context.Context) ([]*Category, error)
	AddCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error // cascades to trades, events, assets

	Event(ctx context.Context, id int64) (*FundingEvent, error)
	Events(ctx context.Context, categoryID int64) ([]*FundingEvent, error)
	AddEvent(ctx context.Context, e *FundingEvent) error
	UpdateEvent(ctx context.Context, e *FundingEvent) error
	DeleteEvent(ctx context.Context, id int64) error

	Trade(ctx context.Context, id int64) (*Trade, error)
	Trades(ctx context.Context, categoryID int64) ([]*Trade, error)
	SymbolTrades(ctx context.Context, categoryID int64, symbol string) ([]*Trade, error)
	AddTrade(ctx context.Context, t *Trade) error
	UpdateTrade(ctx context.Context, t *Trade) error
	DeleteTrade(ctx context.Context, id int64) error

	Asset(ctx context.Context, categoryID int64, symbol string) (*TrackedAsset, error)
	Assets(ctx context.Context, categoryID int64) ([]*TrackedAsset, error)
	AddAsset(ctx context.Context, a *TrackedAsset) error
	DeleteAsset(ctx context.Context, id int64) error
}

// Store is a Repository that can also run a function inside a single
// transaction: either everything the function did commits, or nothing does.
type Store interface {
	Repository
	Transact(ctx context.Context, fn func(Repository) error) error
}

// Config tunes the engine's policies.
type Config struct {
	// Currency of every amount in the ledger (default "USD").
	Currency string
	// RejectOversell makes selling more units than currently held a
	// validation error. Off by default: the permissive numerics keep
	// manual-entry corrections possible.
	RejectOversell bool
}

func (c Config) currency() string {
	if c.Currency == "" {
		return "USD"
	}
	return c.Currency
}

// Service exposes the engine's entry points. Every mutating operation runs
// in one store transaction, recomputes the affected ledgers through the
// single recompute choke point, and commits atomically. It is constructed
// once per incoming operation or shared; it holds no mutable state.
type Service struct {
	store Store
	cfg   Config
}

// NewService wires a service over a store.
func NewService(store Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// Currency returns the ledger currency.
func (s *Service) Currency() string { return s.cfg.currency() }

// recompute is the single choke point every trade mutation must pass
// through before its transaction commits: it re-runs the snapshot pass
// over all trades of the (category, symbol) pair, re-fetched in canonical
// order, and writes the refreshed snapshots back.
func (s *Service) recompute(ctx context.Context, r Repository, categoryID int64, symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil
	}
	trades, err := r.SymbolTrades(ctx, categoryID, symbol)
	if err != nil {
		return fmt.Errorf("recompute %q: %w", symbol, err)
	}
	for _, t := range Recalculate(s.cfg.currency(), trades) {
		if err := r.UpdateTrade(ctx, t); err != nil {
			return fmt.Errorf("recompute %q: %w", symbol, err)
		}
	}
	return nil
}

// --- category capital lifecycle ---

// CreateCategory creates a named category with its allocated amount and the
// Initial funding event that anchors it.
func (s *Service) CreateCategory(ctx context.Context, name string, amount Money, notes string) (*Category, error) {
	if name == "" {
		return nil, invalidf("category name is required")
	}
	var created *Category
	err := s.store.Transact(ctx, func(r Repository) error {
		if existing, err := r.CategoryByName(ctx, name); err == nil && existing != nil {
			return invalidf("category %q already exists", name)
		}
		now := time.Now()
		c := &Category{Name: name, Allocated: amount, CreatedAt: now, UpdatedAt: now}
		if err := r.AddCategory(ctx, c); err != nil {
			return err
		}
		if notes == "" {
			notes = "Initial funding"
		}
		if err := r.AddEvent(ctx, NewFundingEvent(c.ID, Initial, amount, notes, now)); err != nil {
			return err
		}
		created = c
		return nil
	})
	return created, err
}

// DeleteCategory removes a category and, by cascade, its trades, funding
// events and tracked assets.
func (s *Service) DeleteCategory(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.store.Transact(ctx, func(r Repository) error {
		c, err := r.Category(ctx, id)
		if err != nil {
			return err
		}
		name = c.Name
		return r.DeleteCategory(ctx, id)
	})
	return name, err
}

// Deposit adds capital to a category and records the Deposit event.
func (s *Service) Deposit(ctx context.Context, categoryID int64, amount Money, notes string, at time.Time) (*Category, error) {
	if !amount.IsPositive() {
		return nil, invalidf("deposit amount must be positive")
	}
	return s.applyFunding(ctx, categoryID, Deposit, amount, notes, at)
}

// Withdraw removes capital from a category and records the Withdrawal
// event with a negative delta. The allocated amount may go negative.
func (s *Service) Withdraw(ctx context.Context, categoryID int64, amount Money, notes string, at time.Time) (*Category, error) {
	if !amount.IsPositive() {
		return nil, invalidf("withdrawal amount must be positive")
	}
	return s.applyFunding(ctx, categoryID, Withdrawal, amount.Neg(), notes, at)
}

func (s *Service) applyFunding(ctx context.Context, categoryID int64, kind EventKind, delta Money, notes string, at time.Time) (*Category, error) {
	var updated *Category
	err := s.store.Transact(ctx, func(r Repository) error {
		c, err := r.Category(ctx, categoryID)
		if err != nil {
			return err
		}
		c.Allocated = c.Allocated.Add(delta)
		c.UpdatedAt = time.Now()
		if err := r.UpdateCategory(ctx, c); err != nil {
			return err
		}
		if err := r.AddEvent(ctx, NewFundingEvent(categoryID, kind, delta, notes, at)); err != nil {
			return err
		}
		updated = c
		return nil
	})
	return updated, err
}

// UpdateEvent edits a funding event. The category's allocated amount is
// adjusted by the difference between the old and new delta, keeping it
// consistent with the full event history.
func (s *Service) UpdateEvent(ctx context.Context, eventID int64, delta Money, notes *string, at *time.Time) (*FundingEvent, error) {
	var updated *FundingEvent
	err := s.store.Transact(ctx, func(r Repository) error {
		e, err := r.Event(ctx, eventID)
		if err != nil {
			return err
		}
		c, err := r.Category(ctx, e.CategoryID)
		if err != nil {
			return err
		}

		change := delta.Sub(e.Delta)
		if !change.IsZero() {
			c.Allocated = c.Allocated.Add(change)
			c.UpdatedAt = time.Now()
			if err := r.UpdateCategory(ctx, c); err != nil {
				return err
			}
		}

		e.Delta = delta
		if notes != nil {
			e.Notes = *notes
		}
		if at != nil {
			e.Date = *at
		}
		if err := r.UpdateEvent(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	return updated, err
}

// DeleteEvent removes a non-Initial funding event and subtracts its delta
// back out of the category's allocated amount. If only zero-delta events
// remain beside the Initial one afterwards, they are cleaned up in the same
// transaction: they carry no information.
func (s *Service) DeleteEvent(ctx context.Context, eventID int64) (int64, error) {
	var categoryID int64
	err := s.store.Transact(ctx, func(r Repository) error {
		e, err := r.Event(ctx, eventID)
		if err != nil {
			return err
		}
		if e.Kind == Initial {
			return invalidf("cannot delete initial event")
		}
		c, err := r.Category(ctx, e.CategoryID)
		if err != nil {
			return err
		}
		c.Allocated = c.Allocated.Sub(e.Delta)
		c.UpdatedAt = time.Now()
		if err := r.UpdateCategory(ctx, c); err != nil {
			return err
		}
		categoryID = e.CategoryID
		if err := r.DeleteEvent(ctx, eventID); err != nil {
			return err
		}

		remaining, err := r.Events(ctx, e.CategoryID)
		if err != nil {
			return err
		}
		onlyZero := true
		for _, re := range remaining {
			if re.Kind != Initial && !re.Delta.IsZero() {
				onlyZero = false
				break
			}
		}
		if onlyZero {
			for _, re := range remaining {
				if re.Kind != Initial && re.Delta.IsZero() {
					if err := r.DeleteEvent(ctx, re.ID); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	return categoryID, err
}

// --- trades ---

// AddTrade records a buy or sell and recomputes the affected symbol ledger
// before the transaction commits.
func (s *Service) AddTrade(ctx context.Context, categoryID int64, side Side, symbol string, price Money, quantity Quantity, fees Money, notes string, at time.Time) (*Trade, error) {
	t := NewTrade(categoryID, side, symbol, price, quantity, fees, notes, at)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	err := s.store.Transact(ctx, func(r Repository) error {
		if _, err := r.Category(ctx, categoryID); err != nil {
			return err
		}
		if s.cfg.RejectOversell && side == Sell {
			trades, err := r.SymbolTrades(ctx, categoryID, t.Symbol)
			if err != nil {
				return err
			}
			if quantity.GreaterThan(QuantityHeld(t.Symbol, trades, 0)) {
				return invalidf("cannot sell more than currently held")
			}
		}
		if err := r.AddTrade(ctx, t); err != nil {
			return err
		}
		return s.recompute(ctx, r, categoryID, t.Symbol)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// TradeUpdate carries the optional fields of a trade edit; nil means keep.
type TradeUpdate struct {
	Price    *Money
	Quantity *Quantity
	Fees     *Money
	Notes    *string
	Symbol   *string
	Date     *time.Time
}

// noChanges reports whether applying u to t would change nothing.
func (u TradeUpdate) noChanges(t *Trade) bool {
	if u.Price != nil && !u.Price.Equal(t.Price) {
		return false
	}
	if u.Quantity != nil && !u.Quantity.Equal(t.Quantity) {
		return false
	}
	if u.Fees != nil && !u.Fees.Equal(t.Fees) {
		return false
	}
	if u.Notes != nil && *u.Notes != t.Notes {
		return false
	}
	if u.Symbol != nil && NormalizeSymbol(*u.Symbol) != t.Symbol {
		return false
	}
	if u.Date != nil && !u.Date.Equal(t.Date) {
		return false
	}
	return true
}

// UpdateTrade edits a trade. A no-op edit skips the write and the
// recomputation. A symbol rename recomputes both the old and the new
// symbol's ledger, two independent runs in the same transaction.
func (s *Service) UpdateTrade(ctx context.Context, id int64, u TradeUpdate) (*Trade, error) {
	var updated *Trade
	err := s.store.Transact(ctx, func(r Repository) error {
		t, err := r.Trade(ctx, id)
		if err != nil {
			return err
		}
		if u.noChanges(t) {
			updated = t
			return nil
		}

		oldSymbol := t.Symbol
		if u.Price != nil {
			t.Price = *u.Price
		}
		if u.Quantity != nil {
			t.Quantity = *u.Quantity
		}
		if u.Fees != nil {
			t.Fees = *u.Fees
		}
		if u.Notes != nil {
			t.Notes = *u.Notes
		}
		if u.Symbol != nil {
			t.Symbol = NormalizeSymbol(*u.Symbol)
		}
		if u.Date != nil {
			t.Date = *u.Date
		}
		t.ComputeTotalCost()
		if err := t.Validate(); err != nil {
			return err
		}
		if s.cfg.RejectOversell && t.Side == Sell {
			trades, err := r.SymbolTrades(ctx, t.CategoryID, t.Symbol)
			if err != nil {
				return err
			}
			if t.Quantity.GreaterThan(QuantityHeld(t.Symbol, trades, t.ID)) {
				return invalidf("cannot sell more than currently held")
			}
		}
		if err := r.UpdateTrade(ctx, t); err != nil {
			return err
		}

		if oldSymbol != t.Symbol {
			if err := s.recompute(ctx, r, t.CategoryID, oldSymbol); err != nil {
				return err
			}
		}
		if err := s.recompute(ctx, r, t.CategoryID, t.Symbol); err != nil {
			return err
		}
		updated = t
		return nil
	})
	return updated, err
}

// DeleteTrade removes a trade and recomputes the symbol ledger it belonged
// to; afterwards the aggregates are identical to a history in which the
// trade never existed.
func (s *Service) DeleteTrade(ctx context.Context, id int64) (int64, error) {
	var categoryID int64
	err := s.store.Transact(ctx, func(r Repository) error {
		t, err := r.Trade(ctx, id)
		if err != nil {
			return err
		}
		categoryID = t.CategoryID
		if err := r.DeleteTrade(ctx, id); err != nil {
			return err
		}
		return s.recompute(ctx, r, t.CategoryID, t.Symbol)
	})
	return categoryID, err
}

// --- tracked assets ---

// TrackAsset marks a (category, symbol) pair so it shows up with zero trades.
func (s *Service) TrackAsset(ctx context.Context, categoryID int64, symbol string) (*TrackedAsset, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, invalidf("symbol is required")
	}
	var created *TrackedAsset
	err := s.store.Transact(ctx, func(r Repository) error {
		if _, err := r.Category(ctx, categoryID); err != nil {
			return err
		}
		if existing, err := r.Asset(ctx, categoryID, symbol); err == nil && existing != nil {
			return invalidf("asset %s already tracked for this category", symbol)
		}
		a := &TrackedAsset{CategoryID: categoryID, Symbol: symbol, CreatedAt: time.Now()}
		if err := r.AddAsset(ctx, a); err != nil {
			return err
		}
		created = a
		return nil
	})
	return created, err
}

// UntrackAsset removes the marker. It refuses while trades exist for the pair.
func (s *Service) UntrackAsset(ctx context.Context, categoryID int64, symbol string) error {
	symbol = NormalizeSymbol(symbol)
	return s.store.Transact(ctx, func(r Repository) error {
		a, err := r.Asset(ctx, categoryID, symbol)
		if err != nil {
			return err
		}
		trades, err := r.SymbolTrades(ctx, categoryID, symbol)
		if err != nil {
			return err
		}
		if len(trades) > 0 {
			return invalidf("cannot delete asset with existing trades")
		}
		return r.DeleteAsset(ctx, a.ID)
	})
}

// --- read side ---
//
// Aggregation always recomputes from the full ordered trade history; the
// cached per-trade snapshots are never inputs here.

// SymbolSummary aggregates one (category, symbol) ledger.
func (s *Service) SymbolSummary(ctx context.Context, categoryID int64, symbol string) (SymbolSummary, error) {
	symbol = NormalizeSymbol(symbol)
	trades, err := s.store.SymbolTrades(ctx, categoryID, symbol)
	if err != nil {
		return SymbolSummary{}, err
	}
	return Summarize(s.cfg.currency(), symbol, trades), nil
}

// CategorySummary aggregates one category across all its symbols.
func (s *Service) CategorySummary(ctx context.Context, categoryID int64) (*CategorySummary, error) {
	c, err := s.store.Category(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	trades, err := s.store.Trades(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return SummarizeCategory(s.cfg.currency(), c, trades), nil
}

// PortfolioSummary aggregates every category into the portfolio view.
func (s *Service) PortfolioSummary(ctx context.Context) (*PortfolioSummary, error) {
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*CategorySummary, 0, len(cats))
	for _, c := range cats {
		trades, err := s.store.Trades(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, SummarizeCategory(s.cfg.currency(), c, trades))
	}
	return SummarizePortfolio(s.cfg.currency(), summaries), nil
}

// Events lists a category's funding events in date-ascending order.
func (s *Service) Events(ctx context.Context, categoryID int64) ([]*FundingEvent, error) {
	if _, err := s.store.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.Events(ctx, categoryID)
}

// Trades lists a category's trades in canonical order.
func (s *Service) Trades(ctx context.Context, categoryID int64) ([]*Trade, error) {
	if _, err := s.store.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.Trades(ctx, categoryID)
}

// Categories lists all categories.
func (s *Service) Categories(ctx context.Context) ([]*Category, error) {
	return s.store.Categories(ctx)
}

// Category returns one category by id.
func (s *Service) Category(ctx context.Context, id int64) (*Category, error) {
	return s.store.Category(ctx, id)
}

// CategoryByName returns one category by its unique name.
func (s *Service) CategoryByName(ctx context.Context, name string) (*Category, error) {
	return s.store.CategoryByName(ctx, name)
}

// Assets lists the tracked assets of a category.
func (s *Service) Assets(ctx context.Context, categoryID int64) ([]*TrackedAsset, error) {
	if _, err := s.store.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.Assets(ctx, categoryID)
}
