package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "wxdata/internal/errors"
)

// DateRange is an inclusive day range selectable in the analytics date
// picker.
type DateRange struct {
	Begin time.Time `validate:"required,ltefield=End"`
	End   time.Time `validate:"required"`
}

func (r DateRange) String() string {
	return r.Begin.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

var rangeValidator = validator.New()

// ValidateRange checks that r can be picked: begin not after end, end
// strictly before today and a span under two months.
func ValidateRange(r DateRange, today time.Time) error {
	if err := rangeValidator.Struct(r); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid date range %s", r), err)
	}
	if !day(r.End).Before(day(today)) {
		return apperrors.NewValidationError(
			fmt.Sprintf("end date %s must be before today", r.End.Format(time.DateOnly)), nil)
	}
	if !day(r.End).Before(day(r.Begin).AddDate(0, 2, 0)) {
		return apperrors.NewValidationError(
			fmt.Sprintf("date range %s spans two months or more", r), nil)
	}
	return nil
}

// ClampBegin moves begin forward so the range to end stays selectable.
func ClampBegin(begin, end time.Time) time.Time {
	earliest := day(end).AddDate(0, -2, 1)
	if day(begin).Before(earliest) {
		return earliest
	}
	return day(begin)
}

// monthsBetween counts calendar months from the month of a to the month
// of b; negative when b is earlier.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

var panelHeadPattern = regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月`)

// parsePanelHead reads the month shown by a calendar panel header such as
// "2024年 3月".
func parsePanelHead(text string) (time.Time, error) {
	m := panelHeadPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("unrecognized calendar header %q", text)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("unrecognized calendar header %q", text)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local), nil
}

// pageTurns is how the two-panel picker has to move so that target shows
// in one of its panels. left is the month of the left panel; the right
// panel always shows the following month. A negative result means
// pressing "previous" that many times, a positive one "next".
func pageTurns(left, target time.Time) int {
	d := monthsBetween(left, target)
	switch {
	case d < 0:
		return d
	case d <= 1:
		return 0
	default:
		return d - 1
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
