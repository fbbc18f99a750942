package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryaduta/workhub-realtime/internal/auth"
	"github.com/aryaduta/workhub-realtime/internal/config"
	httpHandler "github.com/aryaduta/workhub-realtime/internal/delivery/http"
	"github.com/aryaduta/workhub-realtime/internal/delivery/ws"
	"github.com/aryaduta/workhub-realtime/internal/metrics"
	"github.com/aryaduta/workhub-realtime/internal/middleware"
	"github.com/aryaduta/workhub-realtime/internal/usecase"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()

	logger := newLogger(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// Account lookup for the identity verifier. Seeded from a JSON file
	// when configured; otherwise empty until accounts are pushed in.
	var store auth.AccountStore
	if cfg.AccountsFile != "" {
		memStore, err := auth.LoadAccountsFile(cfg.AccountsFile)
		if err != nil {
			logger.Error("failed to load accounts file", slog.String("path", cfg.AccountsFile), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("accounts loaded", slog.Int("count", memStore.Count()))
		store = memStore
	} else {
		logger.Warn("ACCOUNTS_FILE not set, starting with an empty account store")
		store = auth.NewMemoryAccountStore()
	}

	// Initialize dependencies
	m := metrics.New(prometheus.DefaultRegisterer)
	verifier := auth.NewVerifier(cfg.JWTSecret, store, logger)
	hub := ws.NewHub(m, cfg.TopicGrace, cfg.MaxMessageSize, logger)
	recent := ws.NewRecentEvents(cfg.RecentEventsSize)
	dispatcher := ws.NewDispatcher(hub, recent, m, logger)
	gateway := ws.NewGateway(hub, verifier, m, logger)
	notifier := usecase.NewNotifier(dispatcher, logger)
	handler := httpHandler.NewHandler(cfg, gateway, hub, notifier, recent, logger)

	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, 10)
	apiLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAPI, 20)

	// Setup routes
	mux := http.NewServeMux()

	// WebSocket route with rate limiting
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, handler.HandleWebSocket))

	// Internal trigger API for the marketplace backend
	mux.HandleFunc("/internal/events/kyc-status", middleware.RateLimitFunc(apiLimiter, handler.HandleKYCStatusChanged))
	mux.HandleFunc("/internal/events/job-approved", middleware.RateLimitFunc(apiLimiter, handler.HandleJobApproved))
	mux.HandleFunc("/internal/events/job-rejected", middleware.RateLimitFunc(apiLimiter, handler.HandleJobRejected))
	mux.HandleFunc("/internal/events/application-new", middleware.RateLimitFunc(apiLimiter, handler.HandleNewApplication))
	mux.HandleFunc("/internal/events/application-status", middleware.RateLimitFunc(apiLimiter, handler.HandleApplicationStatusUpdated))
	mux.HandleFunc("/internal/events/recent", middleware.RateLimitFunc(apiLimiter, handler.HandleRecentEvents))
	mux.HandleFunc("/internal/presence", middleware.RateLimitFunc(apiLimiter, handler.HandlePresence))

	// Observability
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handler.HandleHealth)

	// Apply security headers middleware to all requests
	securedHandler := middleware.SecurityHeaders(mux)

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      securedHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("workhub realtime listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	hub.Close()
	wsLimiter.Close()
	apiLimiter.Close()

	logger.Info("server exited gracefully")
}

// newLogger builds the process logger from the configured level
func newLogger(level string) *slog.Logger {
	if level == "silent" || level == "off" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
