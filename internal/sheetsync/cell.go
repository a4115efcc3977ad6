package sheetsync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/wb-sheets-sync/pkg/marketplace"
)

// Grid is the sheet content as returned by the API: rows of cell values,
// grid[0] being sheet row 1. Rows may be shorter than the widest row.
type Grid [][]any

// CellString renders a cell in canonical form so that numeric ids compare
// equal whether the sheet stores them as text or as numbers.
func CellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return marketplace.CanonicalNumber(value)
	case float64:
		return marketplace.CanonicalNumber(strconv.FormatFloat(value, 'f', -1, 64))
	case float32:
		return marketplace.CanonicalNumber(strconv.FormatFloat(float64(value), 'f', -1, 32))
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case json.Number:
		return marketplace.CanonicalNumber(value.String())
	case bool:
		return strconv.FormatBool(value)
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

// HeaderCell renders a header cell without numeric normalization so lookups
// stay exact.
func HeaderCell(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (g Grid) clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]any(nil), row...)
	}
	return out
}

func (g Grid) width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// set writes value at 1-based column col of row, padding with "" as needed.
func set(row []any, col int, value any) []any {
	for len(row) < col {
		row = append(row, "")
	}
	row[col-1] = value
	return row
}
