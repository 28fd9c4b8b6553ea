package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "toastetl"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	GCP      GCPConfig
	BigQuery BigQueryConfig
	Toast    ToastConfig
	Tenant   TenantConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Tenant.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TOASTETL_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"TOASTETL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TOASTETL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServerConfig struct {
	Port            string        `envconfig:"TOASTETL_SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"TOASTETL_SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TOASTETL_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TOASTETL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TOASTETL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset           string        `envconfig:"TOASTETL_BIGQUERY_DATASET" required:"true"`
	OrderItemsTable   string        `envconfig:"TOASTETL_BIGQUERY_ORDER_ITEMS_TABLE" default:"fact_order_items"`
	PaymentsTable     string        `envconfig:"TOASTETL_BIGQUERY_PAYMENTS_TABLE" default:"fact_payments"`
	CashEntriesTable  string        `envconfig:"TOASTETL_BIGQUERY_CASH_ENTRIES_TABLE" default:"fact_cash_entries"`
	CashDepositsTable string        `envconfig:"TOASTETL_BIGQUERY_CASH_DEPOSITS_TABLE" default:"fact_cash_deposits"`
	LaborShiftsTable  string        `envconfig:"TOASTETL_BIGQUERY_LABOR_SHIFTS_TABLE" default:"fact_labor_shifts"`
	DimRestaurants    string        `envconfig:"TOASTETL_BIGQUERY_DIM_RESTAURANTS_TABLE" default:"dim_restaurants"`
	DimEmployees      string        `envconfig:"TOASTETL_BIGQUERY_DIM_EMPLOYEES_TABLE" default:"dim_employees"`
	DimJobs           string        `envconfig:"TOASTETL_BIGQUERY_DIM_JOBS_TABLE" default:"dim_jobs"`
	DimMenuItems      string        `envconfig:"TOASTETL_BIGQUERY_DIM_MENU_ITEMS_TABLE" default:"dim_menu_items"`
	InsertBatchSize   int           `envconfig:"TOASTETL_BIGQUERY_INSERT_BATCH_SIZE" default:"500"`
	StagingExpiry     time.Duration `envconfig:"TOASTETL_BIGQUERY_STAGING_EXPIRY" default:"1h"`
}

type ToastConfig struct {
	BaseURL            string        `envconfig:"TOASTETL_TOAST_BASE_URL" default:"https://ws-api.toasttab.com"`
	AuthTimeout        time.Duration `envconfig:"TOASTETL_TOAST_AUTH_TIMEOUT" default:"10s"`
	FetchTimeout       time.Duration `envconfig:"TOASTETL_TOAST_FETCH_TIMEOUT" default:"90s"`
	PageSize           int           `envconfig:"TOASTETL_TOAST_PAGE_SIZE" default:"100"`
	MaxPages           int           `envconfig:"TOASTETL_TOAST_MAX_PAGES" default:"100"`
	MaxAttempts        int           `envconfig:"TOASTETL_TOAST_MAX_ATTEMPTS" default:"3"`
	InitialBackoff     time.Duration `envconfig:"TOASTETL_TOAST_INITIAL_BACKOFF" default:"2s"`
	TokenLifetime      time.Duration `envconfig:"TOASTETL_TOAST_TOKEN_LIFETIME" default:"1h"`
	TokenRefreshMargin time.Duration `envconfig:"TOASTETL_TOAST_TOKEN_REFRESH_MARGIN" default:"5m"`

	// Minimum spacing between requests per restaurant, by endpoint class.
	// Orders is the bulk endpoint (5 req/min); menus is the strictest.
	RateOrders time.Duration `envconfig:"TOASTETL_TOAST_RATE_ORDERS" default:"12s"`
	RateCash   time.Duration `envconfig:"TOASTETL_TOAST_RATE_CASH" default:"3s"`
	RateLabor  time.Duration `envconfig:"TOASTETL_TOAST_RATE_LABOR" default:"3s"`
	RateMenus  time.Duration `envconfig:"TOASTETL_TOAST_RATE_MENUS" default:"60s"`
	RateConfig time.Duration `envconfig:"TOASTETL_TOAST_RATE_CONFIG" default:"3s"`
}

type TenantConfig struct {
	Name            string   `envconfig:"TOASTETL_TENANT_NAME" required:"true"`
	SecretSuffix    string   `envconfig:"TOASTETL_TENANT_SECRET_SUFFIX"`
	RestaurantGUIDs []string `envconfig:"TOASTETL_TENANT_RESTAURANT_GUIDS" required:"true"`
}

// ClientIDSecret returns the secret name holding the Toast client id for this tenant.
func (t TenantConfig) ClientIDSecret() string {
	return "TOAST_CLIENT_ID" + t.SecretSuffix
}

// ClientSecretSecret returns the secret name holding the Toast client secret for this tenant.
func (t TenantConfig) ClientSecretSecret() string {
	return "TOAST_CLIENT_SECRET" + t.SecretSuffix
}

func (t TenantConfig) validate() error {
	if len(t.RestaurantGUIDs) == 0 {
		return fmt.Errorf("at least one restaurant guid is required for tenant %q", t.Name)
	}
	for _, guid := range t.RestaurantGUIDs {
		if strings.TrimSpace(guid) == "" {
			return fmt.Errorf("empty restaurant guid configured for tenant %q", t.Name)
		}
	}
	return nil
}
