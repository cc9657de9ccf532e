package handlers

import (
	"fmt"
	"net/http"

	"github.com/wonny/sectorwatch/internal/api/response"
	domain "github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/service/watchlist"
)

// WatchlistHandler handles watchlist endpoints
type WatchlistHandler struct {
	svc *watchlist.Service
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(svc *watchlist.Service) *WatchlistHandler {
	return &WatchlistHandler{svc: svc}
}

// CreateWatchlistRequest is the body of POST /api/watchlists/create/
type CreateWatchlistRequest struct {
	Name string `json:"name"`
}

// CreateWithRandomRequest is the body of POST /api/watchlists/create-with-random/
type CreateWithRandomRequest struct {
	Name         string      `json:"name"`
	Sector       string      `json:"sector"`
	NumCompanies interface{} `json:"num_companies"`
}

// AddItemRequest is the body of POST /api/watchlists/{id}/add/
type AddItemRequest struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// AddRandomRequest is the body of POST /api/watchlists/{id}/add-random/
type AddRandomRequest struct {
	Sector       string      `json:"sector"`
	NumCompanies interface{} `json:"num_companies"`
}

// AddRandomResult is returned by add-random
type AddRandomResult struct {
	Watchlist *watchlist.WatchlistView `json:"watchlist"`
	Added     int                      `json:"added"`
}

// List handles GET /api/watchlists/
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	views, err := h.svc.List(r.Context(), userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessList(w, r, views, len(views))
}

// Create handles POST /api/watchlists/create/
func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req CreateWatchlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.svc.Create(r.Context(), userID, req.Name)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, r, view, "Watchlist created")
}

// CreateWithRandom handles POST /api/watchlists/create-with-random/
func (h *WatchlistHandler) CreateWithRandom(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req CreateWithRandomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	count, err := watchlist.ParseCount(req.NumCompanies, watchlist.DefaultCreateRandomCount)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	view, err := h.svc.CreateWithRandom(r.Context(), userID, req.Name, req.Sector, count)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, r, view, fmt.Sprintf("Watchlist created with %d companies", len(view.Items)))
}

// AddItem handles POST /api/watchlists/{id}/add/.
// 201 when the symbol was added, 200 when it was already present.
func (h *WatchlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	watchlistID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, created, err := h.svc.AddItem(r.Context(), userID, watchlistID, domain.NewItem{
		Symbol:   req.Symbol,
		Name:     req.Name,
		Exchange: req.Exchange,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if created {
		response.Created(w, r, item, "Item added")
		return
	}
	response.SuccessWithMessage(w, r, item, "Item already in watchlist")
}

// AddRandom handles POST /api/watchlists/{id}/add-random/
func (h *WatchlistHandler) AddRandom(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	watchlistID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req AddRandomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	count, err := watchlist.ParseCount(req.NumCompanies, watchlist.DefaultAddRandomCount)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	view, added, err := h.svc.AddRandom(r.Context(), userID, watchlistID, req.Sector, count)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, r, AddRandomResult{Watchlist: view, Added: added},
		fmt.Sprintf("Added %d companies", added))
}

// RemoveItem handles DELETE /api/watchlists/{id}/remove/{item_id}/
func (h *WatchlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	watchlistID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}

	if err := h.svc.RemoveItem(r.Context(), userID, watchlistID, itemID); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, r, nil, "Item removed")
}

// Delete handles DELETE /api/watchlists/{id}/delete/
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	watchlistID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, watchlistID); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, r, nil, "Watchlist deleted")
}
