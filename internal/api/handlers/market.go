package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wonny/sectorwatch/internal/api/response"
	"github.com/wonny/sectorwatch/internal/service/watchlist"
)

// MarketHandler serves sectors, prices, search and company lookups
type MarketHandler struct {
	svc *watchlist.Service
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(svc *watchlist.Service) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// PricesRequest is the body of POST /api/prices/
type PricesRequest struct {
	Symbols []string `json:"symbols"`
}

// Sectors handles GET /api/sectors/
func (h *MarketHandler) Sectors(w http.ResponseWriter, r *http.Request) {
	sectors := h.svc.Sectors()
	if sectors == nil {
		sectors = []string{}
	}
	response.SuccessList(w, r, sectors, len(sectors))
}

// CompaniesInSector handles GET /api/sectors/{sector}/companies-fast/
func (h *MarketHandler) CompaniesInSector(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.CompaniesInSector(mux.Vars(r)["sector"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessList(w, r, rows, len(rows))
}

// Prices handles POST /api/prices/.
// The response maps each requested symbol, with surrounding whitespace
// trimmed, to its snapshot. Blank entries are dropped; a request with no
// non-blank symbol is a validation error.
func (h *MarketHandler) Prices(w http.ResponseWriter, r *http.Request) {
	var req PricesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	prices, err := h.svc.Prices(r.Context(), req.Symbols)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, r, prices)
}

// Search handles GET /api/search-stock/?q=
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessList(w, r, results, len(results))
}

// Company handles GET /api/company/{symbol}/
func (h *MarketHandler) Company(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.CompanyDetails(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, r, details)
}
