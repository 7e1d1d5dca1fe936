package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/service"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/validation"
)

// PriceHandler handles price lookup HTTP requests
type PriceHandler struct {
	priceService *service.PriceService
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(priceService *service.PriceService) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// PricesResponse represents the price lookup response.
// Every requested key is present in Prices; unresolved keys map to 0
// (or a stale cached price) and are listed in Failures.
type PricesResponse struct {
	Class    model.InstrumentClass      `json:"class"`
	Prices   map[string]decimal.Decimal `json:"prices"`
	Failures []model.FetchFailure       `json:"failures"`
}

// Prices resolves current prices for one instrument class.
//
// Endpoint: GET /api/prices?class=stock&key=AAPL&key=MSFT[&currency=USD]
// Response: 200 OK with PricesResponse
// Error: 400 Bad Request for an unknown class or no keys
func (h *PriceHandler) Prices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := validation.ValidatePriceQuery(q.Get("class"), q["key"], q.Get("currency"))
	if err != nil {
		respondServiceError(w, "invalid price query", err)
		return
	}

	instruments := make([]model.Instrument, len(query.Keys))
	for i, key := range query.Keys {
		instruments[i] = model.Instrument{Key: key, Class: query.Class, Currency: query.Currency}
	}

	resolution := h.priceService.Resolve(r.Context(), instruments)
	failures := resolution.Failures
	if failures == nil {
		failures = []model.FetchFailure{}
	}

	respondJSON(w, http.StatusOK, PricesResponse{
		Class:    query.Class,
		Prices:   service.RoundPrices(resolution.Prices),
		Failures: failures,
	})
}

// MatchFund resolves a fund display name against the mutual-fund catalog.
// A name that matches nothing above the threshold still returns 200 with matched=false.
//
// Endpoint: GET /api/prices/match?name=HDFC+Top+100
// Response: 200 OK with model.FundMatch
// Error: 400 Bad Request without a name, 502 Bad Gateway if the catalog cannot be loaded
func (h *PriceHandler) MatchFund(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateFundName(r.URL.Query().Get("name"))
	if err != nil {
		respondServiceError(w, "invalid fund name", err)
		return
	}

	match, err := h.priceService.MatchFund(r.Context(), name)
	if err != nil {
		respondServiceError(w, "failed to match fund", err)
		return
	}

	respondJSON(w, http.StatusOK, match)
}
