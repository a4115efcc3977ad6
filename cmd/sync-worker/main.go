package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/wb-sheets-sync/api/controllers"
	"github.com/angelmondragon/wb-sheets-sync/api/routes"
	"github.com/angelmondragon/wb-sheets-sync/internal/campaigns"
	"github.com/angelmondragon/wb-sheets-sync/internal/cron"
	"github.com/angelmondragon/wb-sheets-sync/internal/reports"
	"github.com/angelmondragon/wb-sheets-sync/internal/sheetsync"
	"github.com/angelmondragon/wb-sheets-sync/pkg/config"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/marketplace"
	"github.com/angelmondragon/wb-sheets-sync/pkg/metrics"
	"github.com/angelmondragon/wb-sheets-sync/pkg/redis"
	"github.com/angelmondragon/wb-sheets-sync/pkg/sheets"
)

const serviceName = "sync-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
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
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Sync.Interval.String(),
		"jobs":     cfg.Sync.Jobs,
	})

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

	sheetsClient, err := sheets.NewClient(ctx, cfg.Sheets.SpreadsheetID, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap sheets client", err)
		os.Exit(1)
	}

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	deps := map[string]controllers.Pinger{}
	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName+":"+cfg.App.Env), cfg.Redis.LockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create sync lock", err)
			os.Exit(1)
		}
		deps["redis"] = redisClient
	}

	registry, err := buildRegistry(cfg, logg, api, sheetsClient, syncMetrics)
	if err != nil {
		logg.Error(ctx, "failed to register jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sync service", err)
		os.Exit(1)
	}

	opsServer := &http.Server{
		Addr: net.JoinHostPort("", cfg.Metrics.Port),
		Handler: routes.NewOpsRouter(routes.OpsParams{
			Env:    cfg.App.Env,
			Logger: logg,
			Runs:   service,
			Deps:   deps,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logg.Info(logg.WithField(ctx, "addr", opsServer.Addr), "ops server listening")
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops server failed", err)
		}
	}()

	logg.Info(ctx, "starting sync worker")
	runErr := service.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "ops server shutdown failed", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "sync worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, api *marketplace.Client, gw sheetsync.Gateway, syncMetrics *metrics.SyncMetrics) (*cron.Registry, error) {
	campaignFetcher, err := campaigns.NewFetcher(campaigns.FetcherParams{
		API:          api,
		Policy:       campaigns.Policy(cfg.Marketplace.MaxRetries, cfg.Marketplace.RateLimitDelay),
		ActiveStatus: cfg.Marketplace.ActiveStatus,
		Currency:     cfg.Sheets.Currency,
		Logger:       logg,
		Metrics:      syncMetrics,
	})
	if err != nil {
		return nil, err
	}

	statsJob, err := cron.NewCampaignStatsJob(cron.CampaignStatsJobParams{
		Logger:     logg,
		Campaigns:  campaignFetcher,
		Resolver:   sheetsync.NewResolver(gw, cfg.Sheets.Tab, cfg.Sheets.HeaderRow, logg),
		Reconciler: sheetsync.NewReconciler(gw, cfg.Sheets.Tab, cfg.Sheets.HeaderRow, logg, syncMetrics),
		Layout: sheetsync.Layout{
			CampaignID: cfg.Sheets.CampaignIDColumn,
			Views:      cfg.Sheets.ViewsColumn,
			Clicks:     cfg.Sheets.ClicksColumn,
			ClicksCart: cfg.Sheets.ClicksCartColumn,
			CartOrder:  cfg.Sheets.CartOrderColumn,
			DateLayout: cfg.Sheets.DateLayout,
		},
		DayOffset: cfg.Sync.DayOffset,
	})
	if err != nil {
		return nil, err
	}

	exportJob, err := cron.NewReportsExportJob(cron.ReportsExportJobParams{
		Logger: logg,
		Source: reports.NewFetcher(
			api,
			reports.Policy(cfg.Marketplace.MaxRetries, cfg.Marketplace.RateLimitDelay),
			cfg.Marketplace.Concurrency,
			logg,
			syncMetrics,
		),
		Writer:  reports.NewWriter(cfg.Sync.ReportsDir),
		Metrics: syncMetrics,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(statsJob, exportJob).Select(cfg.Sync.JobEnabled), nil
}
