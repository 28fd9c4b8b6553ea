package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goforsam/toast-api/api/controllers"
	"github.com/goforsam/toast-api/api/middleware"
	"github.com/goforsam/toast-api/pkg/bigquery"
	"github.com/goforsam/toast-api/pkg/config"
	"github.com/goforsam/toast-api/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	warehouse bigquery.Pinger,
	runner controllers.Runner,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, warehouse))
	})
	r.Get("/healthz", controllers.HealthLive(cfg))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/runs", func(r chi.Router) {
		r.Post("/{stream}", controllers.TriggerRun(runner, cfg.Tenant, logg))
	})

	return r
}
