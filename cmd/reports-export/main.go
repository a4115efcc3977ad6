package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/wb-sheets-sync/internal/cron"
	"github.com/angelmondragon/wb-sheets-sync/internal/reports"
	"github.com/angelmondragon/wb-sheets-sync/pkg/config"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/marketplace"
	"github.com/angelmondragon/wb-sheets-sync/pkg/metrics"
)

const serviceName = "reports-export"

// exportConfig is the subset of settings the one-shot export needs; it does
// not require spreadsheet or credential variables.
type exportConfig struct {
	App         config.AppConfig
	Marketplace config.MarketplaceConfig
	Sync        config.SyncConfig
}

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	var cfg exportConfig
	if err := envconfig.Process(config.EnvPrefix, &cfg); err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	api, err := marketplace.NewClient(
		cfg.Marketplace.ReportsURL,
		cfg.Marketplace.CampaignsURL,
		cfg.Marketplace.Token,
		marketplace.WithTimeout(cfg.Marketplace.HTTPTimeout),
	)
	if err != nil {
		logg.Error(ctx, "failed to create marketplace client", err)
		os.Exit(1)
	}

	job, err := cron.NewReportsExportJob(cron.ReportsExportJobParams{
		Logger: logg,
		Source: reports.NewFetcher(
			api,
			reports.Policy(cfg.Marketplace.MaxRetries, cfg.Marketplace.RateLimitDelay),
			cfg.Marketplace.Concurrency,
			logg,
			nil,
		),
		Writer:  reports.NewWriter(cfg.Sync.ReportsDir),
		Metrics: nil,
	})
	if err != nil {
		logg.Error(ctx, "failed to create export job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     cron.NewLocalLock(),
		Metrics:  metrics.NewCronJobMetrics(nil),
	})
	if err != nil {
		logg.Error(ctx, "failed to create export service", err)
		os.Exit(1)
	}

	if err := service.RunOnce(ctx); err != nil {
		logg.Error(ctx, "reports export failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "reports export complete")
}
