package controllers

import (
	"net/http"

	"github.com/goforsam/toast-api/api/responses"
	"github.com/goforsam/toast-api/pkg/bigquery"
	"github.com/goforsam/toast-api/pkg/config"
	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
	"github.com/goforsam/toast-api/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ToastETL-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, warehouse bigquery.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ToastETL-Env", cfg.App.Env)
		if warehouse != nil {
			if err := warehouse.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "warehouse not reachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
