package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/wonny/sectorwatch/internal/api/handlers"
	apimw "github.com/wonny/sectorwatch/internal/api/middleware"
	"github.com/wonny/sectorwatch/internal/api/response"
)

// Config holds router configuration
type Config struct {
	WatchlistHandler *handlers.WatchlistHandler
	MarketHandler    *handlers.MarketHandler
	HealthHandler    *handlers.HealthHandler

	Auth           apimw.AuthConfig
	AllowedOrigins []string
	RequestTimeout time.Duration
	AccessLogger   *zerolog.Logger
}

// NewRouter creates the HTTP handler with every route and middleware
func NewRouter(cfg *Config) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Use(apimw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.Logging(apimw.LoggingConfig{
		AccessLogger: cfg.AccessLogger,
		SkipPaths:    []string{"/health", "/health/ready"},
	}))
	r.Use(apimw.Recovery)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	// Health check
	r.HandleFunc("/health", cfg.HealthHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", cfg.HealthHandler.Ready).Methods(http.MethodGet)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(apimw.Auth(cfg.Auth))

	// Watchlists
	wl := cfg.WatchlistHandler
	api.HandleFunc("/watchlists/", wl.List).Methods(http.MethodGet)
	api.HandleFunc("/watchlists/create/", wl.Create).Methods(http.MethodPost)
	api.HandleFunc("/watchlists/create-with-random/", wl.CreateWithRandom).Methods(http.MethodPost)
	api.HandleFunc("/watchlists/{id}/add/", wl.AddItem).Methods(http.MethodPost)
	api.HandleFunc("/watchlists/{id}/add-random/", wl.AddRandom).Methods(http.MethodPost)
	api.HandleFunc("/watchlists/{id}/remove/{item_id}/", wl.RemoveItem).Methods(http.MethodDelete)
	api.HandleFunc("/watchlists/{id}/delete/", wl.Delete).Methods(http.MethodDelete)

	// Reference data and quotes
	mk := cfg.MarketHandler
	api.HandleFunc("/sectors/", mk.Sectors).Methods(http.MethodGet)
	api.HandleFunc("/sectors/{sector}/companies-fast/", mk.CompaniesInSector).Methods(http.MethodGet)
	api.HandleFunc("/prices/", mk.Prices).Methods(http.MethodPost)
	api.HandleFunc("/search-stock/", mk.Search).Methods(http.MethodGet)
	api.HandleFunc("/company/{symbol}/", mk.Company).Methods(http.MethodGet)

	return apimw.CORS(apimw.DefaultCORSConfig(cfg.AllowedOrigins))(r)
}
