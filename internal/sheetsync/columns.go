package sheetsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/sheets"
)

// ColumnMap maps header names to 1-based column indices.
type ColumnMap map[string]int

// Index returns the 1-based index of name.
func (m ColumnMap) Index(name string) (int, bool) {
	idx, ok := m[name]
	return idx, ok
}

// Offset returns the 0-based offset of name into a row, or -1.
func (m ColumnMap) Offset(name string) int {
	if idx, ok := m[name]; ok {
		return idx - 1
	}
	return -1
}

// Layout names the header cells the sync writes to. ClicksCart and CartOrder
// are optional: they are written when the header has them and skipped
// otherwise. An empty name disables the column.
type Layout struct {
	CampaignID string
	Views      string
	Clicks     string
	ClicksCart string
	CartOrder  string
	DateLayout string
}

// Required lists the non-date columns that must exist in the header.
func (l Layout) Required() []string {
	return []string{l.CampaignID, l.Views, l.Clicks}
}

// Optional lists the configured columns that are written only when present.
func (l Layout) Optional() []string {
	var names []string
	for _, name := range []string{l.ClicksCart, l.CartOrder} {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DateColumn returns the header name of the column holding day's revenue.
func (l Layout) DateColumn(day time.Time) string {
	layout := l.DateLayout
	if layout == "" {
		layout = "02.01.06"
	}
	return day.Format(layout)
}

// Targets are the resolved 1-based columns of one run. Zero means "not written".
type Targets struct {
	CampaignID int
	Views      int
	Clicks     int
	ClicksCart int
	CartOrder  int
	Date       int
}

// Targets resolves the layout against cols. Absent optional columns resolve
// to zero; absent required ones fail with MISSING_COLUMNS.
func (l Layout) Targets(cols ColumnMap, dateColumn string) (Targets, error) {
	var missing []string
	optional := func(name string) int {
		if name == "" {
			return 0
		}
		idx, _ := cols.Index(name)
		return idx
	}
	lookup := func(name string) int {
		if name == "" {
			return 0
		}
		idx, ok := cols.Index(name)
		if !ok {
			missing = append(missing, name)
		}
		return idx
	}
	t := Targets{
		CampaignID: lookup(l.CampaignID),
		Views:      lookup(l.Views),
		Clicks:     lookup(l.Clicks),
		ClicksCart: optional(l.ClicksCart),
		CartOrder:  optional(l.CartOrder),
		Date:       lookup(dateColumn),
	}
	if len(missing) > 0 {
		return Targets{}, missingColumns(missing)
	}
	return t, nil
}

// ResolveHeader looks up required and dateColumn in header by exact,
// case-sensitive match. A missing date column is appended and reported via
// appended; any other missing column fails with MISSING_COLUMNS. The returned
// map also holds every other named header cell, first occurrence winning.
func ResolveHeader(header []string, required []string, dateColumn string) (cols ColumnMap, updated []string, appended bool, err error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := positions[name]; !seen {
			positions[name] = i + 1
		}
	}

	cols = make(ColumnMap, len(positions)+1)
	for name, idx := range positions {
		if name != "" {
			cols[name] = idx
		}
	}
	var missing []string
	for _, name := range required {
		idx, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		return nil, nil, false, missingColumns(missing)
	}

	updated = append([]string(nil), header...)
	if dateColumn != "" {
		if idx, ok := positions[dateColumn]; ok {
			cols[dateColumn] = idx
		} else {
			updated = append(updated, dateColumn)
			cols[dateColumn] = len(updated)
			appended = true
		}
	}
	return cols, updated, appended, nil
}

func missingColumns(names []string) error {
	return pkgerrors.New(pkgerrors.CodeMissingColumns,
		fmt.Sprintf("header is missing columns: %s", strings.Join(names, ", "))).
		WithDetails(names)
}

// Gateway reads and writes A1 ranges of the destination spreadsheet.
type Gateway interface {
	Read(ctx context.Context, rng string) ([][]any, error)
	Write(ctx context.Context, rng string, values [][]any) error
}

// Resolver reads the header row of a tab and creates the date column when needed.
type Resolver struct {
	gw        Gateway
	tab       string
	headerRow int
	logg      *logger.Logger
}

func NewResolver(gw Gateway, tab string, headerRow int, logg *logger.Logger) *Resolver {
	if headerRow < 1 {
		headerRow = 1
	}
	return &Resolver{gw: gw, tab: tab, headerRow: headerRow, logg: logg}
}

// Resolve returns the column map for required plus dateColumn, writing the
// header row back when the date column had to be appended.
func (r *Resolver) Resolve(ctx context.Context, required []string, dateColumn string) (ColumnMap, error) {
	rows, err := r.gw.Read(ctx, sheets.WholeRow(r.tab, r.headerRow))
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	var header []string
	if len(rows) > 0 {
		header = make([]string, len(rows[0]))
		for i, cell := range rows[0] {
			header[i] = HeaderCell(cell)
		}
	}

	cols, updated, appended, err := ResolveHeader(header, required, dateColumn)
	if err != nil {
		return nil, err
	}
	if !appended {
		return cols, nil
	}

	row := make([]any, len(updated))
	for i, name := range updated {
		row[i] = name
	}
	if err := r.gw.Write(ctx, sheets.RowRange(r.tab, r.headerRow, len(updated)), [][]any{row}); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	if r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"column": dateColumn,
			"index":  cols[dateColumn],
		})
		r.logg.Info(logCtx, "date column appended to header")
	}
	return cols, nil
}
