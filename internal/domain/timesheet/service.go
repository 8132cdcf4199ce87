package timesheet

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tipsheet/internal/requestctx"
)

// Service is the operation surface consumed by the HTTP handlers and the
// admin CLI. Input validation happens here, before any store access.
type Service struct {
	store   StoreAPI
	loc     *time.Location
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for month closure and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store StoreAPI, loc *time.Location, timeout time.Duration, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{store: store, loc: loc, timeout: timeout, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns midnight of the current day in the service location.
func (s *Service) Today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) ParseDate(value string) (time.Time, error) {
	return ParseDate(value, s.loc)
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) MonthStatus(date time.Time) MonthStatus {
	return MonthStatus{
		Sheet:  SheetTitle(date),
		Cutoff: Cutoff(date),
		Closed: MonthClosed(date, s.now().In(s.loc)),
	}
}

// SubmitHours records one shift. employee must already be the canonical
// roster name.
func (s *Service) SubmitHours(ctx context.Context, employee string, date time.Time, clockIn, clockOut string) (TimeEntry, error) {
	employee = strings.TrimSpace(employee)
	if employee == "" {
		return TimeEntry{}, invalidInput("employee name is required")
	}
	if _, err := ParseClock(clockIn); err != nil {
		return TimeEntry{}, err
	}
	if _, err := ParseClock(clockOut); err != nil {
		return TimeEntry{}, err
	}
	if clockIn == clockOut {
		return TimeEntry{}, invalidInput("clock in and clock out must differ")
	}
	hours, err := ComputeHours(clockIn, clockOut)
	if err != nil {
		return TimeEntry{}, err
	}
	if date.After(s.Today()) {
		return TimeEntry{}, invalidInput("date must not be in the future")
	}
	if MonthClosed(date, s.now().In(s.loc)) {
		return TimeEntry{}, ErrMonthClosed
	}

	entry := TimeEntry{Employee: employee, Date: date, ClockIn: clockIn, ClockOut: clockOut, Hours: hours}
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.store.WriteTimeEntry(ctx, entry); err != nil {
		return TimeEntry{}, storeFailure("submit hours", err)
	}
	requestctx.Logger(ctx).Info("time entry recorded", "employee", employee, "date", DateLabel(date), "hours", hours.StringFixed(2))
	return entry, nil
}

func (s *Service) HoursForDate(ctx context.Context, date time.Time) (map[string]decimal.Decimal, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	hours, err := s.store.HoursForDate(ctx, date)
	if err != nil {
		return nil, storeFailure("hours for date", err)
	}
	return hours, nil
}

// SubmitDailyTips splits totalTips across the hours recorded for date and
// persists the result. Resubmitting recomputes and overwrites the totals.
func (s *Service) SubmitDailyTips(ctx context.Context, date time.Time, totalTips decimal.Decimal) (DailyTips, error) {
	if totalTips.IsNegative() {
		return DailyTips{}, invalidInput("total tips must not be negative")
	}
	if totalTips.GreaterThan(MaxTotalTips) {
		return DailyTips{}, invalidInput("total tips must not exceed " + MaxTotalTips.String())
	}
	if MonthClosed(date, s.now().In(s.loc)) {
		return DailyTips{}, ErrMonthClosed
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()
	hours, err := s.store.HoursForDate(ctx, date)
	if err != nil {
		return DailyTips{}, storeFailure("hours for date", err)
	}
	payouts, err := ComputePayouts(totalTips, hours)
	if err != nil {
		return DailyTips{}, err
	}
	if err := s.store.WriteTotals(ctx, date, payouts); err != nil {
		return DailyTips{}, storeFailure("write totals", err)
	}
	requestctx.Logger(ctx).Info("daily tips recorded",
		"date", DateLabel(date),
		"totalTips", totalTips.StringFixed(2),
		"tipRate", payouts.TipRate.StringFixed(4),
		"employees", len(payouts.ByEmployee),
	)
	return DailyTips{Date: date, Sheet: TotalsTitle(date), Payouts: payouts}, nil
}

// DailyTotals recomputes the split for date from the stored tip total and
// the hours currently on the sheet.
func (s *Service) DailyTotals(ctx context.Context, date time.Time) (DailyTips, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	tips, ok, err := s.store.ReadTips(ctx, date)
	if err != nil {
		return DailyTips{}, storeFailure("read tips", err)
	}
	if !ok {
		return DailyTips{}, ErrTipsNotFound
	}
	hours, err := s.store.HoursForDate(ctx, date)
	if err != nil {
		return DailyTips{}, storeFailure("hours for date", err)
	}
	payouts, err := ComputePayouts(tips, hours)
	if err != nil {
		return DailyTips{}, err
	}
	return DailyTips{Date: date, Sheet: TotalsTitle(date), Payouts: payouts}, nil
}

// EnsureCurrentMonth creates this month's sheet ahead of the first
// submission.
func (s *Service) EnsureCurrentMonth(ctx context.Context) (string, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	title, err := s.store.EnsureMonthSheet(ctx, s.Today())
	if err != nil {
		return "", storeFailure("ensure month sheet", err)
	}
	return title, nil
}
