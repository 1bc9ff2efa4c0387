package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/etnz/fundbook"
)

// dbtx is the common surface of *sql.DB and *sql.Tx the queries run on.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements fundbook.Store over SQLite. The zero value is not
// usable; construct it with Open.
type Store struct {
	queries
	db  *sql.DB
	log zerolog.Logger
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Transact runs fn inside one transaction: either every write fn performed
// commits, or the rollback leaves the ledger untouched. A panic in fn rolls
// back too and resurfaces as an error.
func (s *Store) Transact(ctx context.Context, fn func(fundbook.Repository) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(queries{q: tx, cur: s.cur})
}

// tradeOrder is the canonical trade order expressed in SQL: civil date
// ascending, buys before sells within a day, id ascending within (day,
// side). The day column is written by Go from the trade's own time zone,
// not derived in SQL, which would shift it to UTC. Every trade query ends
// with this clause.
const tradeOrder = ` ORDER BY day ASC,
	CASE side WHEN 'Buy' THEN 0 ELSE 1 END ASC, id ASC`

// queries holds every statement of the Repository contract; it runs against
// the connection directly or against a transaction.
type queries struct {
	q   dbtx
	cur string
}

// --- categories ---

const categoryColumns = `id, name, allocated, created_at, updated_at`

func (r queries) scanCategory(row interface{ Scan(...any) error }) (*fundbook.Category, error) {
	var c fundbook.Category
	var allocated, created, updated string
	if err := row.Scan(&c.ID, &c.Name, &allocated, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fundbook.ErrNotFound
		}
		return nil, err
	}
	var err error
	if c.Allocated, err = fundbook.ParseMoney(allocated, r.cur); err != nil {
		return nil, fmt.Errorf("category %d: %w", c.ID, err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("category %d: %w", c.ID, err)
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("category %d: %w", c.ID, err)
	}
	return &c, nil
}

func (r queries) Category(ctx context.Context, id int64) (*fundbook.Category, error) {
	return r.scanCategory(r.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
}

func (r queries) CategoryByName(ctx context.Context, name string) (*fundbook.Category, error) {
	return r.scanCategory(r.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name))
}

func (r queries) Categories(ctx context.Context) ([]*fundbook.Category, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*fundbook.Category
	for rows.Next() {
		c, err := r.scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r queries) AddCategory(ctx context.Context, c *fundbook.Category) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO categories (name, allocated, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.Allocated.Decimal().String(), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("cannot insert category %q: %w", c.Name, err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r queries) UpdateCategory(ctx context.Context, c *fundbook.Category) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE categories SET name = ?, allocated = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Allocated.Decimal().String(), formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("cannot update category %d: %w", c.ID, err)
	}
	return oneRow(res)
}

func (r queries) DeleteCategory(ctx context.Context, id int64) error {
	// Trades, events and assets go with it through the foreign keys.
	res, err := r.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cannot delete category %d: %w", id, err)
	}
	return oneRow(res)
}

// --- funding events ---

const eventColumns = `id, category_id, kind, delta, occurred_at, notes`

func (r queries) scanEvent(row interface{ Scan(...any) error }) (*fundbook.FundingEvent, error) {
	var e fundbook.FundingEvent
	var kind, delta, occurred string
	if err := row.Scan(&e.ID, &e.CategoryID, &kind, &delta, &occurred, &e.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fundbook.ErrNotFound
		}
		return nil, err
	}
	var err error
	if e.Kind, err = fundbook.ParseEventKind(kind); err != nil {
		return nil, fmt.Errorf("event %d: %w", e.ID, err)
	}
	if e.Delta, err = fundbook.ParseMoney(delta, r.cur); err != nil {
		return nil, fmt.Errorf("event %d: %w", e.ID, err)
	}
	if e.Date, err = parseTime(occurred); err != nil {
		return nil, fmt.Errorf("event %d: %w", e.ID, err)
	}
	return &e, nil
}

func (r queries) Event(ctx context.Context, id int64) (*fundbook.FundingEvent, error) {
	return r.scanEvent(r.q.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM funding_events WHERE id = ?`, id))
}

func (r queries) Events(ctx context.Context, categoryID int64) ([]*fundbook.FundingEvent, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM funding_events WHERE category_id = ?
		 ORDER BY occurred_at ASC, id ASC`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*fundbook.FundingEvent
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r queries) AddEvent(ctx context.Context, e *fundbook.FundingEvent) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO funding_events (category_id, kind, delta, occurred_at, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		e.CategoryID, e.Kind.String(), e.Delta.Decimal().String(), formatTime(e.Date), e.Notes)
	if err != nil {
		return fmt.Errorf("cannot insert funding event: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (r queries) UpdateEvent(ctx context.Context, e *fundbook.FundingEvent) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE funding_events SET delta = ?, occurred_at = ?, notes = ? WHERE id = ?`,
		e.Delta.Decimal().String(), formatTime(e.Date), e.Notes, e.ID)
	if err != nil {
		return fmt.Errorf("cannot update funding event %d: %w", e.ID, err)
	}
	return oneRow(res)
}

func (r queries) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM funding_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cannot delete funding event %d: %w", id, err)
	}
	return oneRow(res)
}

// --- trades ---

const tradeColumns = `id, category_id, side, symbol, price, quantity, fees,
	occurred_at, notes, total_cost, average_cost`

func (r queries) scanTrade(row interface{ Scan(...any) error }) (*fundbook.Trade, error) {
	var t fundbook.Trade
	var side, price, quantity, fees, occurred, totalCost, averageCost string
	if err := row.Scan(&t.ID, &t.CategoryID, &side, &t.Symbol, &price, &quantity,
		&fees, &occurred, &t.Notes, &totalCost, &averageCost); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fundbook.ErrNotFound
		}
		return nil, err
	}
	var err error
	if t.Side, err = fundbook.ParseSide(side); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	if t.Price, err = fundbook.ParseMoney(price, r.cur); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	if t.Quantity, err = fundbook.ParseQuantity(quantity); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	if t.Fees, err = fundbook.ParseMoney(fees, r.cur); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	if t.Date, err = parseTime(occurred); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	if t.TotalCost, err = fundbook.ParseMoney(totalCost, r.cur); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	if t.AverageCost, err = fundbook.ParseMoney(averageCost, r.cur); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	return &t, nil
}

func (r queries) Trade(ctx context.Context, id int64) (*fundbook.Trade, error) {
	return r.scanTrade(r.q.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id))
}

func (r queries) Trades(ctx context.Context, categoryID int64) ([]*fundbook.Trade, error) {
	return r.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE category_id = ?`+tradeOrder, categoryID)
}

func (r queries) SymbolTrades(ctx context.Context, categoryID int64, symbol string) ([]*fundbook.Trade, error) {
	return r.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE category_id = ? AND symbol = ?`+tradeOrder,
		categoryID, fundbook.NormalizeSymbol(symbol))
}

func (r queries) queryTrades(ctx context.Context, query string, args ...any) ([]*fundbook.Trade, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*fundbook.Trade
	for rows.Next() {
		t, err := r.scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r queries) AddTrade(ctx context.Context, t *fundbook.Trade) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO trades (category_id, side, symbol, price, quantity, fees,
		 occurred_at, day, notes, total_cost, average_cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.CategoryID, t.Side.String(), t.Symbol,
		t.Price.Decimal().String(), t.Quantity.Decimal().String(), t.Fees.Decimal().String(),
		formatTime(t.Date), t.Day().String(), t.Notes,
		t.TotalCost.Decimal().String(), t.AverageCost.Decimal().String())
	if err != nil {
		return fmt.Errorf("cannot insert trade: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (r queries) UpdateTrade(ctx context.Context, t *fundbook.Trade) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE trades SET side = ?, symbol = ?, price = ?, quantity = ?, fees = ?,
		 occurred_at = ?, day = ?, notes = ?, total_cost = ?, average_cost = ? WHERE id = ?`,
		t.Side.String(), t.Symbol,
		t.Price.Decimal().String(), t.Quantity.Decimal().String(), t.Fees.Decimal().String(),
		formatTime(t.Date), t.Day().String(), t.Notes,
		t.TotalCost.Decimal().String(), t.AverageCost.Decimal().String(), t.ID)
	if err != nil {
		return fmt.Errorf("cannot update trade %d: %w", t.ID, err)
	}
	return oneRow(res)
}

func (r queries) DeleteTrade(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cannot delete trade %d: %w", id, err)
	}
	return oneRow(res)
}

// --- tracked assets ---

const assetColumns = `id, category_id, symbol, created_at`

func (r queries) scanAsset(row interface{ Scan(...any) error }) (*fundbook.TrackedAsset, error) {
	var a fundbook.TrackedAsset
	var created string
	if err := row.Scan(&a.ID, &a.CategoryID, &a.Symbol, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fundbook.ErrNotFound
		}
		return nil, err
	}
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("asset %d: %w", a.ID, err)
	}
	return &a, nil
}

func (r queries) Asset(ctx context.Context, categoryID int64, symbol string) (*fundbook.TrackedAsset, error) {
	return r.scanAsset(r.q.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM tracked_assets WHERE category_id = ? AND symbol = ?`,
		categoryID, fundbook.NormalizeSymbol(symbol)))
}

func (r queries) Assets(ctx context.Context, categoryID int64) ([]*fundbook.TrackedAsset, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM tracked_assets WHERE category_id = ? ORDER BY symbol ASC`,
		categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*fundbook.TrackedAsset
	for rows.Next() {
		a, err := r.scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r queries) AddAsset(ctx context.Context, a *fundbook.TrackedAsset) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO tracked_assets (category_id, symbol, created_at) VALUES (?, ?, ?)`,
		a.CategoryID, a.Symbol, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("cannot insert tracked asset %s: %w", a.Symbol, err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (r queries) DeleteAsset(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tracked_assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cannot delete tracked asset %d: %w", id, err)
	}
	return oneRow(res)
}

// --- helpers ---

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fundbook.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}

var _ fundbook.Store = (*Store)(nil)
