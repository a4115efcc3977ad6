package campaigns

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/marketplace"
	"github.com/angelmondragon/wb-sheets-sync/pkg/metrics"
	"github.com/angelmondragon/wb-sheets-sync/pkg/retry"
)

// DateLayout is the day format the statistics API expects.
const DateLayout = "2006-01-02"

// API is the slice of the marketplace client used for campaigns.
type API interface {
	ListAdverts(ctx context.Context, status int) ([]marketplace.Advert, error)
	FullStats(ctx context.Context, req []marketplace.FullStatsRequest) ([]marketplace.FullStats, error)
}

type FetcherParams struct {
	API          API
	Policy       retry.Policy
	ActiveStatus int
	Currency     string
	Logger       *logger.Logger
	Metrics      *metrics.SyncMetrics
}

// Fetcher lists active campaigns and pulls their daily statistics.
type Fetcher struct {
	api          API
	policy       retry.Policy
	activeStatus int
	currency     string
	validate     *validator.Validate
	logg         *logger.Logger
	metrics      *metrics.SyncMetrics
}

// Policy retries rate-limited and network failures with a fixed delay.
func Policy(maxRetries int, delay time.Duration) retry.Policy {
	p := retry.Fixed(maxRetries, delay)
	p.Retryable = retry.OnlyCodes(pkgerrors.CodeRateLimited, pkgerrors.CodeNetwork)
	return p
}

func NewFetcher(params FetcherParams) (*Fetcher, error) {
	if params.API == nil {
		return nil, fmt.Errorf("marketplace api required")
	}
	if params.Policy.Retryable == nil {
		params.Policy.Retryable = retry.OnlyCodes(pkgerrors.CodeRateLimited, pkgerrors.CodeNetwork)
	}
	return &Fetcher{
		api:          params.API,
		policy:       params.Policy,
		activeStatus: params.ActiveStatus,
		currency:     params.Currency,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logg:         params.Logger,
		metrics:      params.Metrics,
	}, nil
}

// ListActive returns the ids of campaigns in the active status. An empty
// listing (including 204) is not an error.
func (f *Fetcher) ListActive(ctx context.Context) ([]ID, error) {
	adverts, err := retry.Do(ctx, f.policyFor(ctx, "adverts"), func(ctx context.Context) ([]marketplace.Advert, error) {
		return f.api.ListAdverts(ctx, f.activeStatus)
	})
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	ids := make([]ID, 0, len(adverts))
	seen := make(map[ID]struct{}, len(adverts))
	for i, advert := range adverts {
		if err := f.validate.Struct(advert); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("advert at index %d", i))
		}
		if _, dup := seen[advert.AdvertID]; dup {
			continue
		}
		seen[advert.AdvertID] = struct{}{}
		ids = append(ids, advert.AdvertID)
	}
	return ids, nil
}

// FetchStatistics requests statistics for all ids on date in one batched
// call and derives the sheet values.
func (f *Fetcher) FetchStatistics(ctx context.Context, ids []ID, date time.Time) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}
	day := date.Format(DateLayout)
	req := make([]marketplace.FullStatsRequest, 0, len(ids))
	for _, id := range ids {
		req = append(req, marketplace.FullStatsRequest{ID: id, Dates: []string{day}})
	}

	stats, err := retry.Do(ctx, f.policyFor(ctx, "fullstats"), func(ctx context.Context) ([]marketplace.FullStats, error) {
		return f.api.FullStats(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch campaign statistics: %w", err)
	}

	records := make([]Record, 0, len(stats))
	for i, s := range stats {
		if err := f.validate.Struct(s); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("statistics at index %d", i))
		}
		records = append(records, Derive(s, day, f.currency))
	}
	return records, nil
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
				"reason":    errorCode(err),
			})
			f.logg.Warn(logCtx, "campaign api call failed, waiting before retry")
		}
		if next != nil {
			next(attempt, wait, err)
		}
	}
	return p
}

func errorCode(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return ""
}
