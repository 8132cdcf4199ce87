package timesheet

import (
	"errors"
	"testing"
	"time"
)

func TestSheetNaming(t *testing.T) {
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := SheetTitle(date); got != "January 2026" {
		t.Fatalf("unexpected sheet title %q", got)
	}
	if got := TotalsTitle(date); got != "January 2026 Totals" {
		t.Fatalf("unexpected totals title %q", got)
	}
	if got := DateLabel(date); got != "01/15/2026" {
		t.Fatalf("unexpected date label %q", got)
	}
}

func TestMonthClosed(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	date := time.Date(2025, 12, 31, 0, 0, 0, 0, loc)

	if got := Cutoff(date); !got.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected cutoff %v", got)
	}
	cases := []struct {
		now    time.Time
		closed bool
	}{
		{time.Date(2025, 12, 31, 23, 0, 0, 0, loc), false},
		{time.Date(2026, 1, 1, 23, 59, 59, 0, loc), false},
		{time.Date(2026, 1, 2, 0, 0, 0, 0, loc), true},
		{time.Date(2026, 3, 1, 0, 0, 0, 0, loc), true},
	}
	for _, tc := range cases {
		if got := MonthClosed(date, tc.now); got != tc.closed {
			t.Fatalf("now %v: expected closed=%v", tc.now, tc.closed)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" 2026-02-28 ", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Day() != 28 || got.Month() != time.February {
		t.Fatalf("unexpected date %v", got)
	}
	for _, bad := range []string{"", "2026-13-01", "2026-02-30", "02/28/2026"} {
		if _, err := ParseDate(bad, time.UTC); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", bad, err)
		}
	}
}
