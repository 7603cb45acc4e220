package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hgye/litescan/internal/sqlite"
)

// formatRows renders the projected columns of each row, values joined by
// "|" and rows by newlines, with no trailing separator. An empty row set
// renders as the empty string (zero output lines).
func formatRows(rows []sqlite.TableRow, projection []int) (string, error) {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, col := range projection {
			if j > 0 {
				b.WriteByte('|')
			}
			if col >= len(row.Rec.Values) {
				return "", fmt.Errorf("%w: row %d has %d values, want column %d",
					sqlite.ErrInvalidRecord, row.RowID, len(row.Rec.Values), col)
			}
			s, err := row.Rec.Values[col].Render()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
	}
	return b.String(), nil
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}
