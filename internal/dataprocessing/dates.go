package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the canonical date format of every persisted dataset.
const DateLayout = "2006-01-02"

// dateLayouts are the textual date forms seen in exports, tried in order.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-1-2",
	"2006年01月02日",
	"2006年1月2日",
	"20060102",
	"01-02-06", // excelize default for number format 14
	time.RFC3339,
}

// ParseDate parses the textual date forms found in exports. Bare numbers
// are not treated as dates here; see NormalizeDate.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate renders a date cell as YYYY-MM-DD. Besides the textual
// forms it accepts Excel serial day numbers.
func NormalizeDate(s string) (string, error) {
	if t, ok := ParseDate(s); ok {
		return t.Format(DateLayout), nil
	}

	if serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Format(DateLayout), nil
		}
	}

	return "", fmt.Errorf("unrecognized date %q", s)
}
