package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateColumns holds the 1-based column numbers of one date's column-group.
type DateColumns struct {
	ClockIn  int
	ClockOut int
	Hours    int
}

type TimeEntry struct {
	Employee string
	Date     time.Time
	ClockIn  string
	ClockOut string
	Hours    decimal.Decimal
}

// DailyTips is a date's tip total together with the split it produces.
type DailyTips struct {
	Date    time.Time
	Sheet   string
	Payouts Payouts
}

type MonthStatus struct {
	Sheet  string    `json:"sheet"`
	Cutoff time.Time `json:"cutoff"`
	Closed bool      `json:"closed"`
}
