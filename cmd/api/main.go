package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wonny/sectorwatch/internal/api/handlers"
	apimw "github.com/wonny/sectorwatch/internal/api/middleware"
	"github.com/wonny/sectorwatch/internal/api/router"
	"github.com/wonny/sectorwatch/internal/domain/quote"
	"github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/infra/database/postgres"
	"github.com/wonny/sectorwatch/internal/infra/database/sqlite"
	"github.com/wonny/sectorwatch/internal/infra/external/yahoo"
	"github.com/wonny/sectorwatch/internal/infra/external/yfinance"
	"github.com/wonny/sectorwatch/internal/pkg/config"
	"github.com/wonny/sectorwatch/internal/pkg/logger"
	"github.com/wonny/sectorwatch/internal/service/quotes"
	"github.com/wonny/sectorwatch/internal/service/reference"
	watchlistservice "github.com/wonny/sectorwatch/internal/service/watchlist"
)

const (
	serviceName    = "sectorwatch-api"
	serviceVersion = "1.0.0"
)

// store is the selected persistence backend
type store struct {
	repo   watchlist.Repository
	health handlers.HealthChecker
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logger.Init(logger.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FileEnabled:    cfg.Logging.FileEnabled,
		FilePath:       cfg.Logging.FilePath,
		RotationSize:   cfg.Logging.RotationSize,
		RetentionDays:  cfg.Logging.RetentionDays,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("version", serviceVersion).
		Str("db_driver", cfg.Database.Driver).
		Str("quotes_provider", cfg.Quotes.Provider).
		Msg("🚀 Starting sectorwatch API Server...")

	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.close()

	// Reference table, loaded lazily on first use
	table := reference.NewTable(reference.Config{
		Path:      cfg.Reference.Path,
		Delimiter: cfg.Reference.Delimiter,
		TTL:       cfg.Reference.TTL,
	})

	yahooClient := yahoo.NewClient(yahoo.Config{
		BaseURL:   cfg.Quotes.BaseURL,
		SearchURL: cfg.Quotes.SearchURL,
		UserAgent: cfg.Quotes.UserAgent,
		Timeout:   cfg.Quotes.Timeout,
	}, log.Logger)

	gateway := quotes.NewGateway(newProvider(cfg, yahooClient), quotes.Config{
		Timeout:     cfg.Quotes.Timeout,
		Concurrency: cfg.Quotes.Concurrency,
	})

	svc := watchlistservice.NewService(
		st.repo,
		table,
		watchlistservice.NewSampler(table),
		gateway,
		yahooClient,
	)

	var accessLogger *zerolog.Logger
	if cfg.Logging.FileEnabled {
		l := logger.NewAccessLogger(cfg.Logging.FilePath, cfg.Logging.RotationSize, cfg.Logging.RetentionDays)
		accessLogger = &l
	}

	handler := router.NewRouter(&router.Config{
		WatchlistHandler: handlers.NewWatchlistHandler(svc),
		MarketHandler:    handlers.NewMarketHandler(svc),
		HealthHandler:    handlers.NewHealthHandler(st.health, serviceVersion),
		Auth: apimw.AuthConfig{
			Secret:      []byte(cfg.Auth.JWTSecret),
			UserIDClaim: cfg.Auth.UserIDClaim,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		AccessLogger:   accessLogger,
	})

	log.Info().Msg("✅ All routes registered (Watchlists, Sectors, Prices, Search, Company, Health)")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("address", addr).
			Msg("🎯 API Server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("🛑 Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("👋 sectorwatch API Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{
			repo:   sqlite.NewWatchlistRepository(db),
			health: db,
			close:  func() { _ = db.Close() },
		}, nil

	default:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := pool.Migrate(ctx); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return &store{
			repo:   postgres.NewWatchlistRepository(pool),
			health: pool,
			close:  pool.Close,
		}, nil
	}
}

func newProvider(cfg *config.Config, yahooClient *yahoo.Client) quote.Provider {
	if cfg.Quotes.Provider == config.ProviderYFinance {
		return yfinance.NewClient(log.Logger)
	}
	return yahooClient
}
