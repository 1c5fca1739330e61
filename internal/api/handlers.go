package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"coinledger/internal/ledger"
	"coinledger/internal/refresher"
	"coinledger/internal/storage"
)

// Handler bundles the HTTP endpoints over the ledger and the refresher.
type Handler struct {
	recorder   *ledger.Recorder
	calculator *ledger.Calculator
	runner     *refresher.Runner
	logger     *logrus.Logger
}

// NewHandler creates an HTTP handler. runner may be nil when the price
// refresher is not running.
func NewHandler(recorder *ledger.Recorder, calculator *ledger.Calculator, runner *refresher.Runner, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		recorder:   recorder,
		calculator: calculator,
		runner:     runner,
		logger:     logger,
	}
}

// Routes builds the router for all endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/trades", h.RecordTrade)
		r.Get("/positions/{coin}", h.GetPosition)
		r.Get("/positions/{coin}/avg-cost", h.GetAverageCost)
		r.Get("/refresher/status", h.RefresherStatus)
	})
	return r
}

type recordTradeRequest struct {
	Person   string          `json:"person"`
	Coin     string          `json:"coin"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Venue    string          `json:"venue"`
	Side     string          `json:"side"`
}

type tradeResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Person    string          `json:"person"`
	Coin      string          `json:"coin"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Venue     string          `json:"venue"`
	Notional  decimal.Decimal `json:"notional"`
	Side      string          `json:"side"`
}

func (h *Handler) RecordTrade(w http.ResponseWriter, r *http.Request) {
	var req recordTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	trade, err := h.recorder.Record(r.Context(), req.Person, req.Coin, req.Price, req.Quantity, req.Venue, req.Side)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, tradeResponse{
		Timestamp: trade.Timestamp,
		Person:    trade.Person,
		Coin:      trade.Coin,
		Price:     trade.Price,
		Quantity:  trade.Quantity,
		Venue:     trade.Venue,
		Notional:  trade.Notional,
		Side:      trade.Side,
	})
}

type positionResponse struct {
	Coin           string           `json:"coin"`
	Person         string           `json:"person,omitempty"`
	SignedQuantity decimal.Decimal  `json:"signed_quantity"`
	AverageCost    *decimal.Decimal `json:"average_cost,omitempty"`
	Valuation      *decimal.Decimal `json:"valuation,omitempty"`
	ValuationNote  string           `json:"valuation_note,omitempty"`
	TradeCount     int              `json:"trade_count"`
}

func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	coin := chi.URLParam(r, "coin")
	person := r.URL.Query().Get("person")

	pos, err := h.calculator.Holdings(r.Context(), coin, person)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := positionResponse{
		Coin:           pos.Coin,
		Person:         pos.Person,
		SignedQuantity: pos.SignedQuantity,
		ValuationNote:  pos.ValuationNote,
		TradeCount:     pos.TradeCount,
	}
	if pos.HasBuys {
		avg := pos.AverageCost
		val := pos.Valuation
		resp.AverageCost = &avg
		resp.Valuation = &val
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type averageCostResponse struct {
	Coin        string          `json:"coin"`
	Person      string          `json:"person,omitempty"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

func (h *Handler) GetAverageCost(w http.ResponseWriter, r *http.Request) {
	coin := chi.URLParam(r, "coin")
	person := r.URL.Query().Get("person")

	avg, err := h.calculator.AverageCost(r.Context(), coin, person)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, averageCostResponse{
		Coin:        coin,
		Person:      person,
		AverageCost: avg,
	})
}

type refresherStatusResponse struct {
	Running        bool              `json:"running"`
	CyclesRun      int               `json:"cycles_run"`
	LastCycleStart int64             `json:"last_cycle_start,omitempty"`
	LastCycleEnd   int64             `json:"last_cycle_end,omitempty"`
	TrackedCoins   int               `json:"tracked_coins"`
	CoinErrors     map[string]string `json:"coin_errors,omitempty"`
}

func (h *Handler) RefresherStatus(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		h.writeError(w, http.StatusServiceUnavailable, "price refresher is not running")
		return
	}

	st := h.runner.Status()
	resp := refresherStatusResponse{
		Running:      st.Running,
		CyclesRun:    st.CyclesRun,
		TrackedCoins: st.TrackedCoins,
		CoinErrors:   st.CoinErrors,
	}
	if !st.LastCycleStart.IsZero() {
		resp.LastCycleStart = st.LastCycleStart.UnixMilli()
	}
	if !st.LastCycleEnd.IsZero() {
		resp.LastCycleEnd = st.LastCycleEnd.UnixMilli()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeDomainError maps ledger and storage errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *ledger.ValidationError
		noBuysErr     *ledger.NoBuysError
		storeErr      *ledger.StoreError
	)

	switch {
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &noBuysErr):
		h.writeError(w, http.StatusUnprocessableEntity, noBuysErr.Error())
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &storeErr):
		h.logger.WithError(err).Error("store operation failed")
		h.writeError(w, http.StatusBadGateway, storeErr.Error())
	default:
		h.logger.WithError(err).Error("unexpected error")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("failed to encode response")
	}
}
