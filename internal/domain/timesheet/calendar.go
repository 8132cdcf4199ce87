package timesheet

import (
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	sheetLayout     = "January 2006"
	dateLabelLayout = "01/02/2006"
	totalsSuffix    = " Totals"
)

// ParseDate parses YYYY-MM-DD at midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, invalidInput("date must be YYYY-MM-DD")
	}
	return parsed, nil
}

// SheetTitle names the monthly sheet holding date, e.g. "January 2026".
func SheetTitle(date time.Time) string {
	return date.Format(sheetLayout)
}

func TotalsTitle(date time.Time) string {
	return SheetTitle(date) + totalsSuffix
}

// DateLabel is the header label used for a date's column-group.
func DateLabel(date time.Time) string {
	return date.Format(dateLabelLayout)
}

// Cutoff is the instant the month containing date stops accepting
// submissions: midnight starting the 2nd of the following month.
func Cutoff(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month()+1, 2, 0, 0, 0, 0, date.Location())
}

// MonthClosed reports whether date's month is finalized as of now.
func MonthClosed(date, now time.Time) bool {
	return !now.Before(Cutoff(date))
}
