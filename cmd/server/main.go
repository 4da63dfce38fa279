package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"car-cost-estimator/internal/archive"
	"car-cost-estimator/internal/client"
	"car-cost-estimator/internal/config"
	"car-cost-estimator/internal/handler"
	"car-cost-estimator/internal/metrics"
	"car-cost-estimator/internal/submission"
)

func main() {
	// Carregar config
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Logger estruturado
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	slog.Info("starting car-cost-estimator", "pricing_url", cfg.Pricing.URL, "archive", cfg.Archive.Backend)

	// Metricas
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Arquivo de estudos
	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := archive.OpenStore(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		slog.Error("failed to open study archive", "error", err)
		os.Exit(1)
	}
	studies := archive.New(store,
		archive.WithCapacity(cfg.Archive.Capacity),
		archive.WithMetrics(m),
		archive.WithLogger(logger),
	)
	defer studies.Close()

	// Cliente do servico de precos
	pricing := client.NewPricingClient(cfg.Pricing.URL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Pricing.Timeout}),
		client.WithRateLimit(cfg.Pricing.LookupRateLimit),
		client.WithMetrics(m),
		client.WithLogger(logger),
	)
	defer pricing.Close()

	machine := submission.NewMachine(pricing,
		submission.WithMetrics(m),
		submission.WithLogger(logger),
	)
	machine.Observe(func(s submission.State) {
		slog.Debug("estimate state changed", "state", s.Kind, "manual_price", s.ManualPriceAvailable)
	})
	comparison := submission.NewComparison(pricing, m, logger)

	// Router
	r := handler.NewRouter(handler.Handlers{
		Health:   handler.NewHealthHandler(studies),
		Catalog:  handler.NewCatalogHandler(pricing),
		Estimate: handler.NewEstimateHandler(machine, comparison),
		Studies:  handler.NewStudiesHandler(studies, machine),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// Server
	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Pricing.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		slog.Info("server started", "port", cfg.APIPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
