package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/wb-sheets-sync/internal/campaigns"
	"github.com/angelmondragon/wb-sheets-sync/internal/sheetsync"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
)

const CampaignStatsJobName = "campaign-stats-sync"

// CampaignStatsJobParams configures the campaign statistics sync.
type CampaignStatsJobParams struct {
	Logger     *logger.Logger
	Campaigns  campaignStatsSource
	Resolver   columnResolver
	Reconciler sheetReconciler
	Layout     sheetsync.Layout
	DayOffset  int
}

type campaignStatsSource interface {
	ListActive(ctx context.Context) ([]campaigns.ID, error)
	FetchStatistics(ctx context.Context, ids []campaigns.ID, date time.Time) ([]campaigns.Record, error)
}

type columnResolver interface {
	Resolve(ctx context.Context, required []string, dateColumn string) (sheetsync.ColumnMap, error)
}

type sheetReconciler interface {
	Sync(ctx context.Context, records []campaigns.Record, t sheetsync.Targets) (sheetsync.Result, error)
}

// NewCampaignStatsJob constructs the job that pulls yesterday's (by default)
// campaign statistics and merges them into the sheet.
func NewCampaignStatsJob(params CampaignStatsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Campaigns == nil {
		return nil, fmt.Errorf("campaign fetcher required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("column resolver required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("sheet reconciler required")
	}
	if params.DayOffset < 0 {
		return nil, fmt.Errorf("day offset must not be negative")
	}
	return &campaignStatsJob{
		logg:       params.Logger,
		campaigns:  params.Campaigns,
		resolver:   params.Resolver,
		reconciler: params.Reconciler,
		layout:     params.Layout,
		dayOffset:  params.DayOffset,
		now:        time.Now,
	}, nil
}

type campaignStatsJob struct {
	logg       *logger.Logger
	campaigns  campaignStatsSource
	resolver   columnResolver
	reconciler sheetReconciler
	layout     sheetsync.Layout
	dayOffset  int
	now        func() time.Time
}

func (j *campaignStatsJob) Name() string { return CampaignStatsJobName }

func (j *campaignStatsJob) Run(ctx context.Context) error {
	day := j.now().AddDate(0, 0, -j.dayOffset)
	dateColumn := j.layout.DateColumn(day)
	ctx = j.logg.WithField(ctx, "stats_date", day.Format(campaigns.DateLayout))

	ids, err := j.campaigns.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		j.logg.Info(ctx, "no active campaigns")
		return nil
	}

	records, err := j.campaigns.FetchStatistics(ctx, ids, day)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		j.logg.Info(j.logg.WithField(ctx, "campaigns", len(ids)), "no statistics for active campaigns")
		return nil
	}

	cols, err := j.resolver.Resolve(ctx, j.layout.Required(), dateColumn)
	if err != nil {
		return fmt.Errorf("resolve columns: %w", err)
	}
	targets, err := j.layout.Targets(cols, dateColumn)
	if err != nil {
		return fmt.Errorf("resolve columns: %w", err)
	}
	for _, name := range j.layout.Optional() {
		if _, ok := cols.Index(name); !ok {
			j.logg.Warn(j.logg.WithField(ctx, "column", name), "optional column not in header, skipping")
		}
	}

	res, err := j.reconciler.Sync(ctx, records, targets)
	if err != nil {
		return err
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"campaigns": len(ids),
		"records":   len(records),
		"matched":   res.Matched,
		"unmatched": res.Unmatched,
	})
	j.logg.Info(logCtx, "campaign statistics synced")
	return nil
}
