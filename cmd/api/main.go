package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/empirecuts-booking/internal/api/router"
	"github.com/wolfman30/empirecuts-booking/internal/app/bootstrap"
	appconfig "github.com/wolfman30/empirecuts-booking/internal/config"
	"github.com/wolfman30/empirecuts-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/empirecuts-booking/internal/http/middleware"
	"github.com/wolfman30/empirecuts-booking/internal/session"
	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting empirecuts booking API",
		"env", cfg.Env,
		"port", cfg.Port,
		"payments_enabled", cfg.PaymentsEnabled,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, reg := setupMetrics()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	store := bootstrap.BuildSessionStore(cfg, redisClient, logger)
	if mem, ok := store.(*session.MemoryStore); ok {
		go mem.Run(ctx)
	}

	opts, err := bootstrap.BuildBookingOptions(cfg, reg, logger)
	if err != nil {
		logger.Error("failed to wire booking", "error", err)
		os.Exit(1)
	}
	sessions := session.NewManager(store, opts)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	r := router.New(&router.Config{
		Logger:             logger,
		Bookings:           handlers.NewBookingHandler(sessions, cfg.StripePublishableKey, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Confirm waits on the tokenizer and the webhook.
		WriteTimeout: cfg.WebhookTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics returns the /metrics handler and the registry booking metrics
// register with.
func setupMetrics() (http.Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), reg
}
