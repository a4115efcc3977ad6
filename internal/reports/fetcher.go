package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/marketplace"
	"github.com/angelmondragon/wb-sheets-sync/pkg/metrics"
	"github.com/angelmondragon/wb-sheets-sync/pkg/retry"
)

const defaultConcurrency = 4

// Descriptor is one downloaded report: its id and the decoded CSV text.
type Descriptor struct {
	ID      string
	Payload string
}

// API is the slice of the marketplace client used for reports.
type API interface {
	ListReportDownloads(ctx context.Context) ([]marketplace.ReportDownload, error)
	DownloadReport(ctx context.Context, id string) ([]byte, error)
}

// Fetcher downloads reports under a rate-limit retry policy. At most
// concurrency downloads are in flight at once; retry waits do not hold a slot.
type Fetcher struct {
	api      API
	policy   retry.Policy
	inflight *semaphore.Weighted
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
}

// Policy retries only rate-limited downloads, waiting delay between attempts.
func Policy(maxRetries int, delay time.Duration) retry.Policy {
	p := retry.Fixed(maxRetries, delay)
	p.Retryable = retry.OnlyCodes(pkgerrors.CodeRateLimited)
	return p
}

func NewFetcher(api API, policy retry.Policy, concurrency int, logg *logger.Logger, m *metrics.SyncMetrics) *Fetcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if policy.Retryable == nil {
		policy.Retryable = retry.OnlyCodes(pkgerrors.CodeRateLimited)
	}
	return &Fetcher{
		api:      api,
		policy:   policy,
		inflight: semaphore.NewWeighted(int64(concurrency)),
		logg:     logg,
		metrics:  m,
	}
}

// ListReportIDs returns the ids of every generated report.
func (f *Fetcher) ListReportIDs(ctx context.Context) ([]string, error) {
	downloads, err := retry.Do(ctx, f.policyFor(ctx, "report_list"), func(ctx context.Context) ([]marketplace.ReportDownload, error) {
		return f.api.ListReportDownloads(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list report downloads: %w", err)
	}
	ids := make([]string, 0, len(downloads))
	for _, d := range downloads {
		id := strings.TrimSpace(d.ID.String())
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FetchReport downloads one report and extracts its CSV entry.
func (f *Fetcher) FetchReport(ctx context.Context, id string) (Descriptor, error) {
	if f.logg != nil {
		ctx = f.logg.WithReportID(ctx, id)
	}
	archive, err := retry.Do(ctx, f.policyFor(ctx, "report_download"), func(ctx context.Context) ([]byte, error) {
		if err := f.inflight.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer f.inflight.Release(1)
		return f.api.DownloadReport(ctx, id)
	})
	if err != nil {
		return Descriptor{}, err
	}

	payload, found, err := ExtractCSV(archive)
	if err != nil {
		return Descriptor{}, err
	}
	if !found && f.logg != nil {
		f.logg.Warn(ctx, "report archive has no csv entry")
	}
	return Descriptor{ID: id, Payload: payload}, nil
}

// FetchAll downloads every report concurrently. A failing download does not
// cancel the others; the returned error combines every failure and the
// descriptors hold the successful reports in input order. A report waiting
// out a rate limit does not delay the others.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string) ([]Descriptor, error) {
	results := make([]Descriptor, len(ids))
	errs := make([]error, len(ids))
	ok := make([]bool, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			d, err := f.FetchReport(ctx, id)
			if err != nil {
				errs[i] = fmt.Errorf("report %s: %w", id, err)
				f.metrics.IncReportFailure()
				return nil
			}
			results[i] = d
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	fetched := make([]Descriptor, 0, len(ids))
	for i := range results {
		if ok[i] {
			fetched = append(fetched, results[i])
		}
	}
	return fetched, multierr.Combine(errs...)
}

func (f *Fetcher) policyFor(ctx context.Context, operation string) retry.Policy {
	p := f.policy
	next := p.OnRetry
	p.OnRetry = func(attempt int, wait time.Duration, err error) {
		f.metrics.IncRetryWait(operation)
		if f.logg != nil {
			logCtx := f.logg.WithFields(ctx, map[string]any{
				"operation": operation,
				"retry":     attempt,
				"wait":      wait.String(),
			})
			f.logg.Warn(logCtx, "upstream rate limited, waiting before retry")
		}
		if next != nil {
			next(attempt, wait, err)
		}
	}
	return p
}
