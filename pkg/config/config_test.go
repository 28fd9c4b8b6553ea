package config

import (
	"os"
	"testing"
	"time"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TOASTETL_APP_ENV", "development")
	t.Setenv("TOASTETL_GCP_PROJECT_ID", "proj")
	t.Setenv("TOASTETL_BIGQUERY_DATASET", "warehouse")
	t.Setenv("TOASTETL_TENANT_NAME", "taqueria")
	t.Setenv("TOASTETL_TENANT_RESTAURANT_GUIDS", "r1,r2")
}

func TestLoadDefaults(t *testing.T) {
	setTestEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !cfg.App.IsDev() || cfg.App.IsProd() {
		t.Fatalf("expected development env, got %q", cfg.App.Env)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Server.Port)
	}
	if cfg.BigQuery.OrderItemsTable != "fact_order_items" {
		t.Fatalf("expected default table name, got %q", cfg.BigQuery.OrderItemsTable)
	}
	if cfg.Toast.RateOrders != 12*time.Second || cfg.Toast.RateMenus != 60*time.Second {
		t.Fatalf("unexpected rate defaults: %+v", cfg.Toast)
	}
	if cfg.Toast.MaxPages != 100 || cfg.Toast.PageSize != 100 {
		t.Fatalf("unexpected pagination defaults: %+v", cfg.Toast)
	}
	if len(cfg.Tenant.RestaurantGUIDs) != 2 {
		t.Fatalf("expected guid list parsed, got %v", cfg.Tenant.RestaurantGUIDs)
	}
}

func TestLoadRequiresRestaurants(t *testing.T) {
	setTestEnv(t)
	os.Unsetenv("TOASTETL_TENANT_RESTAURANT_GUIDS")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without restaurant guids")
	}
}

func TestTenantSecretNames(t *testing.T) {
	tenant := TenantConfig{SecretSuffix: "_TAQUERIA"}
	if got := tenant.ClientIDSecret(); got != "TOAST_CLIENT_ID_TAQUERIA" {
		t.Fatalf("unexpected client id secret name: %q", got)
	}
	if got := tenant.ClientSecretSecret(); got != "TOAST_CLIENT_SECRET_TAQUERIA" {
		t.Fatalf("unexpected client secret name: %q", got)
	}
}
