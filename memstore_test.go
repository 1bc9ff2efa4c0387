package fundbook

import (
	"context"
	"sort"
)

// memStore is an in-memory Store for tests. It hands out copies of its
// records (like a real database would) and rolls a transaction back by
// restoring a snapshot of its state when the function fails.
type memStore struct {
	categories map[int64]Category
	events     map[int64]FundingEvent
	trades     map[int64]Trade
	assets     map[int64]TrackedAsset
	nextID     int64

	tradeWrites int // UpdateTrade calls, to observe recomputation
}

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[int64]Category),
		events:     make(map[int64]FundingEvent),
		trades:     make(map[int64]Trade),
		assets:     make(map[int64]TrackedAsset),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range m.categories {
		c.categories[k] = v
	}
	for k, v := range m.events {
		c.events[k] = v
	}
	for k, v := range m.trades {
		c.trades[k] = v
	}
	for k, v := range m.assets {
		c.assets[k] = v
	}
	c.nextID = m.nextID
	c.tradeWrites = m.tradeWrites
	return c
}

func (m *memStore) restore(s *memStore) {
	m.categories, m.events, m.trades, m.assets = s.categories, s.events, s.trades, s.assets
	m.nextID, m.tradeWrites = s.nextID, s.tradeWrites
}

func (m *memStore) Transact(_ context.Context, fn func(Repository) error) error {
	saved := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

func (m *memStore) Category(_ context.Context, id int64) (*Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memStore) CategoryByName(_ context.Context, name string) (*Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Categories(_ context.Context) ([]*Category, error) {
	out := make([]*Category, 0, len(m.categories))
	for _, c := range m.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) AddCategory(_ context.Context, c *Category) error {
	c.ID = m.id()
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, c *Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return ErrNotFound
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	delete(m.categories, id)
	for k, e := range m.events {
		if e.CategoryID == id {
			delete(m.events, k)
		}
	}
	for k, t := range m.trades {
		if t.CategoryID == id {
			delete(m.trades, k)
		}
	}
	for k, a := range m.assets {
		if a.CategoryID == id {
			delete(m.assets, k)
		}
	}
	return nil
}

func (m *memStore) Event(_ context.Context, id int64) (*FundingEvent, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *memStore) Events(_ context.Context, categoryID int64) ([]*FundingEvent, error) {
	var out []*FundingEvent
	for _, e := range m.events {
		if e.CategoryID == categoryID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) AddEvent(_ context.Context, e *FundingEvent) error {
	e.ID = m.id()
	m.events[e.ID] = *e
	return nil
}

func (m *memStore) UpdateEvent(_ context.Context, e *FundingEvent) error {
	if _, ok := m.events[e.ID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = *e
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, id int64) error {
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) Trade(_ context.Context, id int64) (*Trade, error) {
	t, ok := m.trades[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *memStore) Trades(_ context.Context, categoryID int64) ([]*Trade, error) {
	var out []*Trade
	for _, t := range m.trades {
		if t.CategoryID == categoryID {
			t := t
			out = append(out, &t)
		}
	}
	SortTrades(out)
	return out, nil
}

func (m *memStore) SymbolTrades(_ context.Context, categoryID int64, symbol string) ([]*Trade, error) {
	symbol = NormalizeSymbol(symbol)
	var out []*Trade
	for _, t := range m.trades {
		if t.CategoryID == categoryID && t.Symbol == symbol {
			t := t
			out = append(out, &t)
		}
	}
	SortTrades(out)
	return out, nil
}

func (m *memStore) AddTrade(_ context.Context, t *Trade) error {
	t.ID = m.id()
	m.trades[t.ID] = *t
	return nil
}

func (m *memStore) UpdateTrade(_ context.Context, t *Trade) error {
	if _, ok := m.trades[t.ID]; !ok {
		return ErrNotFound
	}
	m.trades[t.ID] = *t
	m.tradeWrites++
	return nil
}

func (m *memStore) DeleteTrade(_ context.Context, id int64) error {
	if _, ok := m.trades[id]; !ok {
		return ErrNotFound
	}
	delete(m.trades, id)
	return nil
}

func (m *memStore) Asset(_ context.Context, categoryID int64, symbol string) (*TrackedAsset, error) {
	symbol = NormalizeSymbol(symbol)
	for _, a := range m.assets {
		if a.CategoryID == categoryID && a.Symbol == symbol {
			a := a
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Assets(_ context.Context, categoryID int64) ([]*TrackedAsset, error) {
	var out []*TrackedAsset
	for _, a := range m.assets {
		if a.CategoryID == categoryID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *memStore) AddAsset(_ context.Context, a *TrackedAsset) error {
	a.ID = m.id()
	m.assets[a.ID] = *a
	return nil
}

func (m *memStore) DeleteAsset(_ context.Context, id int64) error {
	if _, ok := m.assets[id]; !ok {
		return ErrNotFound
	}
	delete(m.assets, id)
	return nil
}

var _ Store = (*memStore)(nil)
