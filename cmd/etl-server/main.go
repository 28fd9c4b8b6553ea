package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/goforsam/toast-api/api/routes"
	"github.com/goforsam/toast-api/internal/etl/loader"
	"github.com/goforsam/toast-api/internal/etl/orchestrator"
	"github.com/goforsam/toast-api/internal/toast"
	"github.com/goforsam/toast-api/pkg/bigquery"
	"github.com/goforsam/toast-api/pkg/config"
	"github.com/goforsam/toast-api/pkg/logger"
	"github.com/goforsam/toast-api/pkg/metrics"
	"github.com/goforsam/toast-api/pkg/secrets"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "etl-server"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "etl-server",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	secretProvider, err := secrets.New(ctx, cfg, logg, os.LookupEnv)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap secret provider", err)
		os.Exit(1)
	}
	defer func() {
		if err := secretProvider.Close(); err != nil {
			logg.Error(ctx, "error closing secret provider", err)
		}
	}()

	creds, err := loadCredentials(ctx, secretProvider, cfg.Tenant)
	if err != nil {
		logg.Error(ctx, "failed to load vendor credentials", err)
		os.Exit(1)
	}

	warehouse, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := warehouse.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	runMetrics := metrics.NewRunMetrics(registry)

	vendorClient := toast.NewClient(cfg.Toast, creds, logg)
	warehouseLoader := loader.New(warehouse, cfg.BigQuery, logg)
	runner := orchestrator.New(vendorClient, warehouseLoader, cfg.BigQuery, logg, runMetrics, newLoadID)

	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, warehouse, runner, registry),
	}

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"tenant":      cfg.Tenant.Name,
		"restaurants": len(cfg.Tenant.RestaurantGUIDs),
	})
	logg.Info(startCtx, "starting etl server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "etl server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func loadCredentials(ctx context.Context, provider secrets.Provider, tenant config.TenantConfig) (toast.Credentials, error) {
	clientID, err := provider.GetSecret(ctx, tenant.ClientIDSecret())
	if err != nil {
		return toast.Credentials{}, err
	}
	clientSecret, err := provider.GetSecret(ctx, tenant.ClientSecretSecret())
	if err != nil {
		return toast.Credentials{}, err
	}
	return toast.Credentials{
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
	}, nil
}

func newLoadID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
