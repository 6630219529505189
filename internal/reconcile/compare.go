package reconcile

import (
	"strconv"
	"strings"

	"wxdata/internal/dataprocessing"
)

// compareValues orders two cells: as dates when both parse as dates, as
// numbers when both parse as numbers, otherwise as text.
func compareValues(a, b string) int {
	if ta, ok := dataprocessing.ParseDate(a); ok {
		if tb, ok := dataprocessing.ParseDate(b); ok {
			return ta.Compare(tb)
		}
	}

	if fa, ok := parseNumber(a); ok {
		if fb, ok := parseNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(a, b)
}

// parseNumber accepts thousands separators as the exports print them.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
