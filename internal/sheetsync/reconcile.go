package sheetsync

import (
	"context"
	"fmt"

	"github.com/angelmondragon/wb-sheets-sync/internal/campaigns"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/metrics"
	"github.com/angelmondragon/wb-sheets-sync/pkg/sheets"
)

// Result summarizes one reconcile pass.
type Result struct {
	Matched      int
	Unmatched    int
	UnmatchedIDs []string
}

// Reconcile merges records into a copy of grid. Data rows are the rows below
// headerRow (1-based). Each record updates the first row whose id cell equals
// its campaign id; records without a row are skipped and reported in Result.
func Reconcile(records []campaigns.Record, grid Grid, t Targets, headerRow int) (Grid, Result) {
	out := grid.clone()
	var res Result
	if t.CampaignID < 1 {
		res.Unmatched = len(records)
		for _, rec := range records {
			res.UnmatchedIDs = append(res.UnmatchedIDs, rec.CampaignID.String())
		}
		return out, res
	}

	rowsByID := make(map[string]int, len(out))
	for i := max(headerRow, 0); i < len(out); i++ {
		row := out[i]
		if len(row) < t.CampaignID {
			continue
		}
		id := CellString(row[t.CampaignID-1])
		if id == "" {
			continue
		}
		if _, seen := rowsByID[id]; !seen {
			rowsByID[id] = i
		}
	}

	for _, rec := range records {
		id := CellString(rec.CampaignID.String())
		i, ok := rowsByID[id]
		if !ok {
			res.Unmatched++
			res.UnmatchedIDs = append(res.UnmatchedIDs, id)
			continue
		}
		out[i] = apply(out[i], t, rec)
		res.Matched++
	}
	return out, res
}

func apply(row []any, t Targets, rec campaigns.Record) []any {
	writes := []struct {
		col   int
		value any
	}{
		{t.Views, rec.Views},
		{t.Clicks, rec.Clicks},
		{t.ClicksCart, rec.ClicksCart},
		{t.CartOrder, rec.CartOrder},
		{t.Date, rec.Revenue},
	}
	for _, w := range writes {
		if w.col < 1 {
			continue
		}
		row = set(row, w.col, w.value)
	}
	return row
}

// Reconciler reads a tab, merges records and writes the tab back in one update.
type Reconciler struct {
	gw        Gateway
	tab       string
	headerRow int
	logg      *logger.Logger
	metrics   *metrics.SyncMetrics
}

func NewReconciler(gw Gateway, tab string, headerRow int, logg *logger.Logger, m *metrics.SyncMetrics) *Reconciler {
	if headerRow < 1 {
		headerRow = 1
	}
	return &Reconciler{gw: gw, tab: tab, headerRow: headerRow, logg: logg, metrics: m}
}

// Sync applies records to the sheet. Nothing is written when no record
// matched a row.
func (r *Reconciler) Sync(ctx context.Context, records []campaigns.Record, t Targets) (Result, error) {
	values, err := r.gw.Read(ctx, sheets.QuoteTab(r.tab))
	if err != nil {
		return Result{}, fmt.Errorf("read sheet: %w", err)
	}

	updated, res := Reconcile(records, Grid(values), t, r.headerRow)
	r.metrics.AddReconciled(res.Matched, res.Unmatched)
	if r.logg != nil && res.Unmatched > 0 {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"unmatched":     res.Unmatched,
			"unmatched_ids": res.UnmatchedIDs,
		})
		r.logg.Warn(logCtx, "statistics without a matching sheet row were skipped")
	}
	if res.Matched == 0 {
		return res, nil
	}

	rng := sheets.BlockRange(r.tab, updated.width(), len(updated))
	if err := r.gw.Write(ctx, rng, updated); err != nil {
		return Result{}, fmt.Errorf("write sheet: %w", err)
	}
	return res, nil
}
