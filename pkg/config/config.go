package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App         AppConfig
	Marketplace MarketplaceConfig
	Sheets      SheetsConfig
	GCP         GCPConfig
	Redis       RedisConfig
	Sync        SyncConfig
	Metrics     MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.GCP.ensureCredentials(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WBS_APP_ENV" default:"local"`
	LogLevel     string `envconfig:"WBS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"WBS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"WBS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// MarketplaceConfig describes the vendor reporting and advertising APIs.
type MarketplaceConfig struct {
	ReportsURL     string        `envconfig:"WBS_API_URL" required:"true"`
	CampaignsURL   string        `envconfig:"WBS_API_URL_COMPANIES" required:"true"`
	Token          string        `envconfig:"WBS_API_TOKEN" required:"true"`
	HTTPTimeout    time.Duration `envconfig:"WBS_HTTP_TIMEOUT" default:"30s"`
	RateLimitDelay time.Duration `envconfig:"WBS_RATE_LIMIT_DELAY" default:"70s"`
	MaxRetries     int           `envconfig:"WBS_MAX_RETRIES" default:"3"`
	Concurrency    int           `envconfig:"WBS_FETCH_CONCURRENCY" default:"4"`
	ActiveStatus   int           `envconfig:"WBS_ACTIVE_STATUS" default:"9"`
}

type SheetsConfig struct {
	SpreadsheetID    string `envconfig:"WBS_GOOGLE_SHEET_ID" required:"true"`
	Tab              string `envconfig:"WBS_SHEET_TAB" default:"Лист2"`
	HeaderRow        int    `envconfig:"WBS_SHEET_HEADER_ROW" default:"6"`
	CampaignIDColumn string `envconfig:"WBS_COLUMN_CAMPAIGN_ID" default:"ID кампании"`
	ViewsColumn      string `envconfig:"WBS_COLUMN_VIEWS" default:"Показы"`
	ClicksColumn     string `envconfig:"WBS_COLUMN_CLICKS" default:"Клики"`
	// Conversion columns are written only when the header has them.
	ClicksCartColumn string `envconfig:"WBS_COLUMN_CLICKS_CART" default:"Конверсия в корзину"`
	CartOrderColumn  string `envconfig:"WBS_COLUMN_CART_ORDER" default:"Конверсия в заказ"`
	DateLayout       string `envconfig:"WBS_SHEET_DATE_LAYOUT" default:"02.01.06"`
	Currency         string `envconfig:"WBS_CURRENCY_SYMBOL" default:"₽"`
}

type GCPConfig struct {
	CredentialsJSON        string `envconfig:"WBS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WBS_GOOGLE_APPLICATION_CREDENTIALS" default:"credentials.json"`
}

// RedisConfig is optional; an empty URL and address disables the run lock.
type RedisConfig struct {
	URL          string        `envconfig:"WBS_REDIS_URL"`
	Address      string        `envconfig:"WBS_REDIS_ADDR"`
	Password     string        `envconfig:"WBS_REDIS_PASSWORD"`
	DB           int           `envconfig:"WBS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WBS_REDIS_POOL_SIZE" default:"4"`
	DialTimeout  time.Duration `envconfig:"WBS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WBS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WBS_REDIS_WRITE_TIMEOUT" default:"5s"`
	LockTTL      time.Duration `envconfig:"WBS_REDIS_LOCK_TTL" default:"30m"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SyncConfig struct {
	Interval   time.Duration `envconfig:"WBS_SYNC_INTERVAL" default:"1m"`
	Jobs       []string      `envconfig:"WBS_SYNC_JOBS" default:"campaign-stats-sync"`
	ReportsDir string        `envconfig:"WBS_REPORTS_DIR" default:"."`
	DayOffset  int           `envconfig:"WBS_STATS_DAY_OFFSET" default:"1"`
}

// JobEnabled reports whether the named job is listed in WBS_SYNC_JOBS.
func (s SyncConfig) JobEnabled(name string) bool {
	for _, job := range s.Jobs {
		if strings.EqualFold(strings.TrimSpace(job), name) {
			return true
		}
	}
	return false
}

type MetricsConfig struct {
	Port string `envconfig:"WBS_METRICS_PORT" default:"9090"`
}

func (g *GCPConfig) ensureCredentials() error {
	if strings.TrimSpace(g.CredentialsJSON) != "" || strings.TrimSpace(g.ApplicationCredentials) != "" {
		return nil
	}
	return fmt.Errorf("either %s or %s is required", EnvGCPCredentialsJSON, EnvGoogleApplicationCredentials)
}
