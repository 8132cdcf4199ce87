package timesheet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	EnsureMonthSheet(ctx context.Context, date time.Time) (string, error)
	DateColumns(ctx context.Context, date time.Time) (DateColumns, error)
	WriteTimeEntry(ctx context.Context, entry TimeEntry) error
	HoursForDate(ctx context.Context, date time.Time) (map[string]decimal.Decimal, error)
	ReadTips(ctx context.Context, date time.Time) (decimal.Decimal, bool, error)
	WriteTotals(ctx context.Context, date time.Time, payouts Payouts) error
}

var _ StoreAPI = (*Store)(nil)
