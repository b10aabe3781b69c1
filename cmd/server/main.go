package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cryptofolio/portfolio-engine/internal/config"
	"github.com/cryptofolio/portfolio-engine/internal/metrics"
	"github.com/cryptofolio/portfolio-engine/internal/portfolio"
	"github.com/cryptofolio/portfolio-engine/internal/prices"
	"github.com/cryptofolio/portfolio-engine/internal/scheduler"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

func main() {
	cfg := config.MustLoad()
	setupLogger(cfg.LogLevel)

	var cleanup []func()

	// --- Redis client (optional, shared by ledger and quote caches) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
	}

	// --- Transaction ledger ---
	var ledger store.Ledger
	if cfg.DatabaseURL != "" {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			slog.Error("database migration failed", "err", err)
			os.Exit(1)
		}

		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		ledger = store.NewPostgresLedger(pool)
		slog.Info("connected to PostgreSQL")

		if rdb != nil {
			ledger = store.NewCachedLedger(ledger, rdb, cfg.Quotes.CacheTTL)
			slog.Info("Redis ledger cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory ledger (data will not persist)")
		ledger = store.NewMemoryLedger()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Quote source ---
	coingecko := prices.NewCoinGecko(cfg.Quotes.BaseURL, cfg.Quotes.Timeout)
	var quoteSource prices.Source = coingecko
	var quoteCache *prices.CachedSource
	if rdb != nil {
		quoteCache = prices.NewCachedSource(coingecko, rdb, cfg.Quotes.CacheTTL)
		quoteSource = quoteCache
		slog.Info("Redis quote cache enabled")
	}

	// --- WebSocket hub ---
	hub := portfolio.NewHub()
	go hub.Run()

	// --- Portfolio service ---
	svc := portfolio.NewService(ledger, quoteSource, hub)

	// --- Background quote refresh ---
	refresher := portfolio.NewQuoteRefresher(ledger, coingecko, quoteCache, hub)
	sched := scheduler.New()
	sched.NewIntervalJob("refresh-quotes", refresher.Refresh, cfg.Quotes.RefreshInterval, true)
	sched.Start()
	defer sched.Stop()

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"portfolio-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time updates.
		r.Get("/ws", hub.HandleWS)

		// Quote passthrough for watchlist displays.
		r.Get("/prices", svc.GetQuotes)

		// Ledger and derived views, always per explicit user.
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/transactions", svc.CreateTransaction)
			r.Get("/transactions", svc.ListTransactions)
			r.Get("/positions/{asset}", svc.GetPosition)
			r.Get("/portfolio", svc.GetPortfolio)
		})
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("portfolio-engine listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down portfolio-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("portfolio-engine stopped")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
