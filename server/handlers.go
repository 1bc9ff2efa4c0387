package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/etnz/fundbook"
)

// errorBody is the uniform error payload.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Str("request_id", reqID(r.Context())).Msg("cannot encode response")
	}
}

// fail maps engine errors onto status codes: validation failures are the
// client's fault, missing records are 404, the rest is ours.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case fundbook.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, fundbook.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", reqID(r.Context())).Msg("request failed")
	}
	s.respond(w, r, status, errorBody{Error: err.Error(), RequestID: reqID(r.Context())})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.respond(w, r, http.StatusBadRequest, errorBody{
			Error:     fmt.Sprintf("invalid request body: %v", err),
			RequestID: reqID(r.Context()),
		})
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseStamp accepts RFC3339 or a bare civil date; empty means now.
func parseStamp(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if at, err := time.Parse(time.RFC3339, s); err == nil {
		return at, nil
	}
	at, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return at, nil
}

func (s *Server) money(n json.Number) (fundbook.Money, error) {
	return fundbook.ParseMoney(n.String(), s.service.Currency())
}

// --- wire DTOs ---
//
// The API speaks plain decimals; the engine's display formatting stays out
// of the wire format.

type fundDTO struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Allocated decimal.Decimal `json:"allocated"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toFundDTO(c *fundbook.Category) fundDTO {
	return fundDTO{
		ID:        c.ID,
		Name:      c.Name,
		Allocated: c.Allocated.Decimal(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type eventDTO struct {
	ID     int64           `json:"id"`
	FundID int64           `json:"fund_id"`
	Kind   string          `json:"kind"`
	Delta  decimal.Decimal `json:"delta"`
	Date   time.Time       `json:"date"`
	Notes  string          `json:"notes,omitempty"`
}

func toEventDTO(e *fundbook.FundingEvent) eventDTO {
	return eventDTO{
		ID:     e.ID,
		FundID: e.CategoryID,
		Kind:   e.Kind.String(),
		Delta:  e.Delta.Decimal(),
		Date:   e.Date,
		Notes:  e.Notes,
	}
}

type tradeDTO struct {
	ID          int64           `json:"id"`
	FundID      int64           `json:"fund_id"`
	Side        string          `json:"side"`
	Symbol      string          `json:"symbol,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Fees        decimal.Decimal `json:"fees"`
	Date        time.Time       `json:"date"`
	Notes       string          `json:"notes,omitempty"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

func toTradeDTO(t *fundbook.Trade) tradeDTO {
	return tradeDTO{
		ID:          t.ID,
		FundID:      t.CategoryID,
		Side:        t.Side.String(),
		Symbol:      t.Symbol,
		Price:       t.Price.Decimal(),
		Quantity:    t.Quantity.Decimal(),
		Fees:        t.Fees.Decimal(),
		Date:        t.Date,
		Notes:       t.Notes,
		TotalCost:   t.TotalCost.Decimal(),
		AverageCost: t.AverageCost.Decimal(),
	}
}

type symbolSummaryDTO struct {
	Symbol            string          `json:"symbol"`
	QuantityHeld      decimal.Decimal `json:"quantity_held"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	CurrentInvested   decimal.Decimal `json:"current_invested"`
	RealizedPnL       decimal.Decimal `json:"realized_pnl"`
	RealizedCostBasis decimal.Decimal `json:"realized_cost_basis"`
	RealizedProceeds  decimal.Decimal `json:"realized_proceeds"`
	TotalBuyCost      decimal.Decimal `json:"total_buy_cost"`
	TotalSellCost     decimal.Decimal `json:"total_sell_cost"`
	TransactionCount  int             `json:"transaction_count"`
}

func toSymbolSummaryDTO(sum fundbook.SymbolSummary) symbolSummaryDTO {
	return symbolSummaryDTO{
		Symbol:            sum.Symbol,
		QuantityHeld:      sum.QuantityHeld.Decimal(),
		AverageCost:       sum.AverageCost.Decimal(),
		CurrentInvested:   sum.CurrentInvested.Decimal(),
		RealizedPnL:       sum.RealizedPnL.Decimal(),
		RealizedCostBasis: sum.RealizedCostBasis.Decimal(),
		RealizedProceeds:  sum.RealizedProceeds.Decimal(),
		TotalBuyCost:      sum.TotalBuyCost.Decimal(),
		TotalSellCost:     sum.TotalSellCost.Decimal(),
		TransactionCount:  sum.TransactionCount,
	}
}

type fundSummaryDTO struct {
	FundID      int64              `json:"fund_id"`
	Name        string             `json:"name"`
	Allocated   decimal.Decimal    `json:"allocated"`
	Cash        decimal.Decimal    `json:"cash"`
	Invested    decimal.Decimal    `json:"invested"`
	Value       decimal.Decimal    `json:"value"`
	TotalValue  decimal.Decimal    `json:"total_value"`
	RealizedPnL decimal.Decimal    `json:"realized_pnl"`
	ROI         fundbook.Percent   `json:"roi"`
	Allocation  fundbook.Percent   `json:"allocation"`
	Symbols     []symbolSummaryDTO `json:"symbols"`
}

func toFundSummaryDTO(sum *fundbook.CategorySummary) fundSummaryDTO {
	d := fundSummaryDTO{
		FundID:      sum.CategoryID,
		Name:        sum.Name,
		Allocated:   sum.Allocated.Decimal(),
		Cash:        sum.Cash.Decimal(),
		Invested:    sum.CurrentInvested.Decimal(),
		Value:       sum.Value.Decimal(),
		TotalValue:  sum.TotalValue.Decimal(),
		RealizedPnL: sum.RealizedPnL.Decimal(),
		ROI:         sum.ROI,
		Allocation:  sum.Allocation,
		Symbols:     []symbolSummaryDTO{},
	}
	for _, sym := range sum.Symbols {
		d.Symbols = append(d.Symbols, toSymbolSummaryDTO(sym))
	}
	return d
}

type portfolioDTO struct {
	Value       decimal.Decimal  `json:"value"`
	Allocated   decimal.Decimal  `json:"allocated"`
	Cash        decimal.Decimal  `json:"cash"`
	Invested    decimal.Decimal  `json:"invested"`
	RealizedPnL decimal.Decimal  `json:"realized_pnl"`
	ROI         fundbook.Percent `json:"roi"`
	Funds       []fundSummaryDTO `json:"funds"`
}

// --- funds ---

func (s *Server) handleListFunds(w http.ResponseWriter, r *http.Request) {
	cats, err := s.service.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]fundDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, toFundDTO(c))
	}
	s.respond(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateFund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string      `json:"name"`
		Amount json.Number `json:"amount"`
		Notes  string      `json:"notes"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := s.money(req.Amount)
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	c, err := s.service.CreateCategory(r.Context(), req.Name, amount, req.Notes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, toFundDTO(c))
}

func (s *Server) handleGetFund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	c, err := s.service.Category(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, toFundDTO(c))
}

func (s *Server) handleDeleteFund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	name, err := s.service.DeleteCategory(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"deleted": name})
}

func (s *Server) handleFundSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	sum, err := s.service.CategorySummary(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, toFundSummaryDTO(sum))
}

func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.PortfolioSummary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := portfolioDTO{
		Value:       p.Value.Decimal(),
		Allocated:   p.Allocated.Decimal(),
		Cash:        p.Cash.Decimal(),
		Invested:    p.Invested.Decimal(),
		RealizedPnL: p.RealizedPnL.Decimal(),
		ROI:         p.ROI,
		Funds:       []fundSummaryDTO{},
	}
	for _, c := range p.Categories {
		out.Funds = append(out.Funds, toFundSummaryDTO(c))
	}
	s.respond(w, r, http.StatusOK, out)
}

// --- funding ---

type fundingRequest struct {
	Amount json.Number `json:"amount"`
	Notes  string      `json:"notes"`
	Date   string      `json:"date"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleFunding(w, r, s.service.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleFunding(w, r, s.service.Withdraw)
}

func (s *Server) handleFunding(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, id int64, amount fundbook.Money, notes string, at time.Time) (*fundbook.Category, error)) {

	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	var req fundingRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := s.money(req.Amount)
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	at, err := parseStamp(req.Date)
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	c, err := apply(r.Context(), id, amount, req.Notes, at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, toFundDTO(c))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	events, err := s.service.Events(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	s.respond(w, r, http.StatusOK, out)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	var req struct {
		Delta json.Number `json:"delta"`
		Notes *string     `json:"notes"`
		Date  *string     `json:"date"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	delta, err := s.money(req.Delta)
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	var at *time.Time
	if req.Date != nil {
		stamp, err := parseStamp(*req.Date)
		if err != nil {
			s.fail(w, r, fundbook.Invalidf("%s", err))
			return
		}
		at = &stamp
	}
	e, err := s.service.UpdateEvent(r.Context(), id, delta, req.Notes, at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, toEventDTO(e))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	fundID, err := s.service.DeleteEvent(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]int64{"fund_id": fundID})
}

// --- transactions ---

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	trades, err := s.service.Trades(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]tradeDTO, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeDTO(t))
	}
	s.respond(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	var req struct {
		Side     string      `json:"side"`
		Symbol   string      `json:"symbol"`
		Price    json.Number `json:"price"`
		Quantity json.Number `json:"quantity"`
		Fees     json.Number `json:"fees"`
		Notes    string      `json:"notes"`
		Date     string      `json:"date"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	side, err := fundbook.ParseSide(req.Side)
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	price, err := s.money(req.Price)
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	qty, err := fundbook.ParseQuantity(req.Quantity.String())
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	fees := fundbook.M(0, s.service.Currency())
	if req.Fees != "" {
		if fees, err = s.money(req.Fees); err != nil {
			s.fail(w, r, fundbook.Invalidf("%s", err))
			return
		}
	}
	at, err := parseStamp(req.Date)
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	t, err := s.service.AddTrade(r.Context(), id, side, req.Symbol, price, qty, fees, req.Notes, at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, toTradeDTO(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "txID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	var req struct {
		Price    *json.Number `json:"price"`
		Quantity *json.Number `json:"quantity"`
		Fees     *json.Number `json:"fees"`
		Notes    *string      `json:"notes"`
		Symbol   *string      `json:"symbol"`
		Date     *string      `json:"date"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	var u fundbook.TradeUpdate
	if req.Price != nil {
		m, err := s.money(*req.Price)
		if err != nil {
			s.fail(w, r, fundbook.Invalidf("%s", err))
			return
		}
		u.Price = &m
	}
	if req.Quantity != nil {
		q, err := fundbook.ParseQuantity(req.Quantity.String())
		if err != nil {
			s.fail(w, r, fundbook.Invalidf("%s", err))
			return
		}
		u.Quantity = &q
	}
	if req.Fees != nil {
		m, err := s.money(*req.Fees)
		if err != nil {
			s.fail(w, r, fundbook.Invalidf("%s", err))
			return
		}
		u.Fees = &m
	}
	u.Notes = req.Notes
	u.Symbol = req.Symbol
	if req.Date != nil {
		at, err := parseStamp(*req.Date)
		if err != nil {
			s.fail(w, r, fundbook.Invalidf("%s", err))
			return
		}
		u.Date = &at
	}

	t, err := s.service.UpdateTrade(r.Context(), id, u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, toTradeDTO(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "txID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	fundID, err := s.service.DeleteTrade(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]int64{"fund_id": fundID})
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	trades, err := s.service.Trades(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	if err := fundbook.ExportTrades(w, trades); err != nil {
		s.log.Error().Err(err).Str("request_id", reqID(r.Context())).Msg("export failed")
	}
}

// --- tracked assets ---

type assetDTO struct {
	ID        int64     `json:"id"`
	FundID    int64     `json:"fund_id"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	assets, err := s.service.Assets(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]assetDTO, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetDTO{ID: a.ID, FundID: a.CategoryID, Symbol: a.Symbol, CreatedAt: a.CreatedAt})
	}
	s.respond(w, r, http.StatusOK, out)
}

func (s *Server) handleTrackAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	var req struct {
		Symbol string `json:"symbol"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	a, err := s.service.TrackAsset(r.Context(), id, req.Symbol)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, assetDTO{ID: a.ID, FundID: a.CategoryID, Symbol: a.Symbol, CreatedAt: a.CreatedAt})
}

func (s *Server) handleUntrackAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		s.fail(w, r, fundbook.Invalidf("%s", err))
		return
	}
	if err := s.service.UntrackAsset(r.Context(), id, chi.URLParam(r, "symbol")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"deleted": fundbook.NormalizeSymbol(chi.URLParam(r, "symbol"))})
}
