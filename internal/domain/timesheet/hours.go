package timesheet

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

// ParseClock parses a strict HH:MM 24-hour time into minutes since midnight.
func ParseClock(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	digits := [4]byte{value[0], value[1], value[3], value[4]}
	for _, d := range digits {
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
		}
	}
	hour := int(digits[0]-'0')*10 + int(digits[1]-'0')
	minute := int(digits[2]-'0')*10 + int(digits[3]-'0')
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	return hour*60 + minute, nil
}

// ComputeHours returns the elapsed hours between two clock times, rounded to
// two places half away from zero. An end at or before the start is taken to
// be on the following day, so equal times yield 24 hours.
func ComputeHours(start, end string) (decimal.Decimal, error) {
	startMinutes, err := ParseClock(start)
	if err != nil {
		return decimal.Zero, err
	}
	endMinutes, err := ParseClock(end)
	if err != nil {
		return decimal.Zero, err
	}
	if endMinutes <= startMinutes {
		endMinutes += minutesPerDay
	}
	return decimal.NewFromInt(int64(endMinutes - startMinutes)).DivRound(sixty, 2), nil
}
