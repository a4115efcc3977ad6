package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/wb-sheets-sync/internal/reports"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/metrics"
)

const ReportsExportJobName = "reports-export"

type ReportsExportJobParams struct {
	Logger  *logger.Logger
	Source  reportSource
	Writer  reportWriter
	Metrics *metrics.SyncMetrics
}

type reportSource interface {
	ListReportIDs(ctx context.Context) ([]string, error)
	FetchAll(ctx context.Context, ids []string) ([]reports.Descriptor, error)
}

type reportWriter interface {
	Write(d reports.Descriptor) (string, error)
}

// NewReportsExportJob constructs the job that downloads every generated
// report and stores it as CSV.
func NewReportsExportJob(params ReportsExportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("report fetcher required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("report writer required")
	}
	return &reportsExportJob{
		logg:    params.Logger,
		source:  params.Source,
		writer:  params.Writer,
		metrics: params.Metrics,
	}, nil
}

type reportsExportJob struct {
	logg    *logger.Logger
	source  reportSource
	writer  reportWriter
	metrics *metrics.SyncMetrics
}

func (j *reportsExportJob) Name() string { return ReportsExportJobName }

// Run writes every report that downloaded successfully, even when others
// failed; the returned error combines all failures.
func (j *reportsExportJob) Run(ctx context.Context) error {
	ids, err := j.source.ListReportIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		j.logg.Info(ctx, "no reports available")
		return nil
	}

	fetched, fetchErr := j.source.FetchAll(ctx, ids)

	var (
		writeErr error
		written  int
	)
	for _, d := range fetched {
		path, err := j.writer.Write(d)
		if err != nil {
			writeErr = multierr.Append(writeErr, err)
			continue
		}
		written++
		j.metrics.IncReportWritten()
		logCtx := j.logg.WithReportID(ctx, d.ID)
		j.logg.Info(j.logg.WithField(logCtx, "path", path), "report csv written")
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"reports": len(ids),
		"written": written,
	})
	j.logg.Info(logCtx, "reports export finished")
	return multierr.Combine(fetchErr, writeErr)
}
