package sheets

import (
	"fmt"
	"strings"
	"unicode"
)

// ColumnLetter converts a 1-based column index to its A1 letters (1 → A, 27 → AA).
func ColumnLetter(index int) string {
	if index < 1 {
		return ""
	}
	var b []byte
	for index > 0 {
		index--
		b = append([]byte{byte('A' + index%26)}, b...)
		index /= 26
	}
	return string(b)
}

// QuoteTab quotes a tab name for A1 notation when it contains anything other
// than letters, digits or underscores.
func QuoteTab(tab string) string {
	plain := tab != ""
	for _, r := range tab {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			plain = false
			break
		}
	}
	if plain {
		return tab
	}
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// RowRange addresses columns A..lastColumn of a single 1-based row.
func RowRange(tab string, row, lastColumn int) string {
	return fmt.Sprintf("%s!A%d:%s%d", QuoteTab(tab), row, ColumnLetter(lastColumn), row)
}

// BlockRange addresses A1 through lastColumn/lastRow.
func BlockRange(tab string, lastColumn, lastRow int) string {
	return fmt.Sprintf("%s!A1:%s%d", QuoteTab(tab), ColumnLetter(lastColumn), lastRow)
}

// WholeRow addresses every column of a single 1-based row.
func WholeRow(tab string, row int) string {
	return fmt.Sprintf("%s!%d:%d", QuoteTab(tab), row, row)
}
