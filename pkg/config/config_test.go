package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Marketplace.RateLimitDelay != 70*time.Second {
		t.Fatalf("expected default rate limit delay 70s, got %v", cfg.Marketplace.RateLimitDelay)
	}
	if cfg.Marketplace.MaxRetries != 3 {
		t.Fatalf("expected default max retries 3, got %d", cfg.Marketplace.MaxRetries)
	}
	if cfg.Sheets.HeaderRow != 6 {
		t.Fatalf("expected header row 6, got %d", cfg.Sheets.HeaderRow)
	}
	if cfg.Sheets.CampaignIDColumn != "ID кампании" {
		t.Fatalf("unexpected campaign id column %q", cfg.Sheets.CampaignIDColumn)
	}
	if cfg.Sync.Interval != time.Minute {
		t.Fatalf("expected sync interval 1m, got %v", cfg.Sync.Interval)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or address")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAPIToken); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAPIToken, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RequiresSomeCredentials(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvGoogleApplicationCredentials, "")
	t.Setenv(EnvGCPCredentialsJSON, "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing credentials to return an error")
	}
}

func TestLoad_ParsesJobList(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSyncJobs, "campaign-stats-sync, reports-export")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Sync.JobEnabled("reports-export") {
		t.Fatalf("expected reports-export enabled, jobs=%v", cfg.Sync.Jobs)
	}
	if !cfg.Sync.JobEnabled("CAMPAIGN-STATS-SYNC") {
		t.Fatalf("job lookup should be case-insensitive")
	}
	if cfg.Sync.JobEnabled("unknown") {
		t.Fatalf("unexpected job enabled")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAPIURL, "https://seller-analytics-api.example.com/")
	t.Setenv(EnvAPIURLCompanies, "https://advert-api.example.com/")
	t.Setenv(EnvAPIToken, "token")
	t.Setenv(EnvGoogleSheetID, "sheet-123")
	t.Setenv(EnvGoogleApplicationCredentials, "/tmp/credentials.json")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
