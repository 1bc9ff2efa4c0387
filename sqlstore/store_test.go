package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/fundbook"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func usd(v float64) fundbook.Money { return fundbook.M(v, "USD") }

func addCategory(t *testing.T, s *Store, name string, allocated float64) *fundbook.Category {
	t.Helper()
	now := time.Now()
	c := &fundbook.Category{Name: name, Allocated: usd(allocated), CreatedAt: now, UpdatedAt: now}
	if err := s.AddCategory(context.Background(), c); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	return c
}

func TestCategoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := addCategory(t, s, "Metals", 25000)

	got, err := s.Category(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Metals" || !got.Allocated.Equal(usd(25000)) {
		t.Errorf("got %+v", got)
	}

	byName, err := s.CategoryByName(ctx, "Metals")
	if err != nil || byName.ID != c.ID {
		t.Errorf("CategoryByName: %v, %+v", err, byName)
	}

	if _, err := s.Category(ctx, 999); !errors.Is(err, fundbook.ErrNotFound) {
		t.Errorf("missing category: got %v", err)
	}
}

func TestTradeRoundTripKeepsDecimalsExact(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := addCategory(t, s, "Metals", 25000)

	at := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	in := fundbook.NewTrade(c.ID, fundbook.Buy, "XAU",
		usd(2052.123456789), fundbook.Q(1.5), usd(0.001), "fractional", at)
	if err := s.AddTrade(ctx, in); err != nil {
		t.Fatal(err)
	}

	got, err := s.Trade(ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Price.Equal(in.Price) || !got.Quantity.Equal(in.Quantity) || !got.Fees.Equal(in.Fees) {
		t.Errorf("decimals drifted: %+v", got)
	}
	if !got.TotalCost.Equal(in.TotalCost) {
		t.Errorf("TotalCost = %s, want %s", got.TotalCost.Decimal(), in.TotalCost.Decimal())
	}
	if !got.Date.Equal(at) {
		t.Errorf("Date = %s, want %s", got.Date, at)
	}
	if got.Notes != "fractional" || got.Side != fundbook.Buy {
		t.Errorf("got %+v", got)
	}
}

func TestTradesCanonicalOrder(t *testing.T) {
	// Insertion order is adversarial: a sell first, then same-day and
	// earlier buys. The query must serve date asc, buys before sells,
	// id asc.
	ctx := context.Background()
	s := newTestStore(t)
	c := addCategory(t, s, "Stocks", 1000)

	day := func(d int) time.Time { return time.Date(2024, 1, d, 15, 0, 0, 0, time.UTC) }
	add := func(side fundbook.Side, at time.Time) int64 {
		t.Helper()
		tr := fundbook.NewTrade(c.ID, side, "AAPL", usd(10), fundbook.Q(1), usd(0), "", at)
		if err := s.AddTrade(ctx, tr); err != nil {
			t.Fatal(err)
		}
		return tr.ID
	}

	sell2 := add(fundbook.Sell, day(2))
	buy2a := add(fundbook.Buy, day(2))
	buy1 := add(fundbook.Buy, day(1))
	buy2b := add(fundbook.Buy, day(2))

	got, err := s.Trades(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{buy1, buy2a, buy2b, sell2}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order[%d] = trade %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestSymbolTradesNormalizes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := addCategory(t, s, "Stocks", 1000)

	tr := fundbook.NewTrade(c.ID, fundbook.Buy, "AAPL", usd(10), fundbook.Q(1), usd(0), "", time.Now())
	if err := s.AddTrade(ctx, tr); err != nil {
		t.Fatal(err)
	}

	got, err := s.SymbolTrades(ctx, c.ID, " aapl ")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d trades, want 1", len(got))
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := addCategory(t, s, "Stocks", 1000)

	tr := fundbook.NewTrade(c.ID, fundbook.Buy, "AAPL", usd(10), fundbook.Q(1), usd(0), "", time.Now())
	if err := s.AddTrade(ctx, tr); err != nil {
		t.Fatal(err)
	}
	e := fundbook.NewFundingEvent(c.ID, fundbook.Deposit, usd(100), "", time.Now())
	if err := s.AddEvent(ctx, e); err != nil {
		t.Fatal(err)
	}
	a := &fundbook.TrackedAsset{CategoryID: c.ID, Symbol: "NVDA", CreatedAt: time.Now()}
	if err := s.AddAsset(ctx, a); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Trade(ctx, tr.ID); !errors.Is(err, fundbook.ErrNotFound) {
		t.Errorf("trade survived the cascade: %v", err)
	}
	if _, err := s.Event(ctx, e.ID); !errors.Is(err, fundbook.ErrNotFound) {
		t.Errorf("event survived the cascade: %v", err)
	}
	if _, err := s.Asset(ctx, c.ID, "NVDA"); !errors.Is(err, fundbook.ErrNotFound) {
		t.Errorf("asset survived the cascade: %v", err)
	}
}

func TestTransactRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := addCategory(t, s, "Stocks", 1000)

	boom := errors.New("boom")
	err := s.Transact(ctx, func(r fundbook.Repository) error {
		tr := fundbook.NewTrade(c.ID, fundbook.Buy, "AAPL", usd(10), fundbook.Q(1), usd(0), "", time.Now())
		if err := r.AddTrade(ctx, tr); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}

	trades, err := s.Trades(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 0 {
		t.Errorf("rollback left %d trades", len(trades))
	}
}

func TestServiceOverSQLite(t *testing.T) {
	// The full engine against the real store: create, fund, trade, and
	// check the persisted snapshots survive a fresh read.
	ctx := context.Background()
	s := newTestStore(t)
	svc := fundbook.NewService(s, fundbook.Config{})

	c, err := svc.CreateCategory(ctx, "Metals", usd(25000), "")
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if _, err := svc.AddTrade(ctx, c.ID, fundbook.Buy, "XAU", usd(2000), fundbook.Q(1.5), usd(50), "", day); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddTrade(ctx, c.ID, fundbook.Buy, "XAU", usd(2050), fundbook.Q(1), usd(30), "", day.AddDate(0, 1, 0)); err != nil {
		t.Fatal(err)
	}

	sum, err := svc.CategorySummary(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.AverageCost.Equal(usd(2052)) {
		t.Errorf("AverageCost = %s", sum.AverageCost.Decimal())
	}
	if !sum.Cash.Equal(usd(19870)) {
		t.Errorf("Cash = %s", sum.Cash.Decimal())
	}

	trades, err := svc.Trades(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !trades[1].AverageCost.Equal(usd(2052)) {
		t.Errorf("stored snapshot = %s", trades[1].AverageCost.Decimal())
	}
}
