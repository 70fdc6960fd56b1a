package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/seating-plan/internal/model"
)

// RowLabel converts a zero-based index to an alphabetical row label like A, B, AA.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// RowIndex converts a row label like A or AA into its zero-based index.
func RowIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// ParseSeatLabel splits a ceremony seat label like "C12" into its zero-based
// row and column.
func ParseSeatLabel(label string) (row, col int, ok bool) {
	s := strings.TrimSpace(label)
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return -1, -1, false
	}
	row, ok = RowIndex(s[:i])
	if !ok {
		return -1, -1, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil || n < 1 {
		return -1, -1, false
	}
	return row, n - 1, true
}

// SeatLabel names a ceremony seat, e.g. "C12".
func SeatLabel(row, col int) string { return RowLabel(row) + strconv.Itoa(col+1) }

// TableSeatLabel names the n-th (zero-based) seat of a table, e.g. "T4-2".
func TableSeatLabel(table model.ID, n int) string {
	return "T" + table.String() + "-" + strconv.Itoa(n+1)
}

// round2 keeps generated coordinates stable across platforms.
func round2(v float64) float64 { return math.Round(v*100) / 100 }
