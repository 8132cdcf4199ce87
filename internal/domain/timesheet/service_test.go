package timesheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"tipsheet/internal/platform/lock"
	"tipsheet/internal/platform/sheets"
)

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func newTestService(t *testing.T, now time.Time) (*Service, *sheets.Workbook) {
	t.Helper()
	store, wb := newTestStore(t)
	return NewService(store, time.UTC, time.Second, fixedClock(now)), wb
}

func TestSubmitHours(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC))

	entry, err := svc.SubmitHours(ctx, " Ana ", jan15, "09:00", "17:00")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if entry.Employee != "Ana" || !entry.Hours.Equal(dec("8")) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if _, err := svc.SubmitHours(ctx, "Ana", jan15, "10:00", "11:00"); !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}

	hours, err := svc.HoursForDate(ctx, jan15)
	if err != nil || !hours["Ana"].Equal(dec("8")) {
		t.Fatalf("unexpected hours %v %v", hours, err)
	}
}

func TestSubmitHoursValidatesBeforeStoreAccess(t *testing.T) {
	wb := sheets.NewMemoryWorkbook()
	defer wb.Close()
	faulty := &faultyBackend{Backend: wb, failing: true}
	svc := NewService(NewStore(faulty, lock.NewLocal()), time.UTC, time.Second,
		fixedClock(time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)))

	cases := []struct {
		name     string
		employee string
		date     time.Time
		in, out  string
		want     error
	}{
		{"bad clock in", "Ana", jan15, "9:00", "17:00", ErrInvalidTimeFormat},
		{"bad clock out", "Ana", jan15, "09:00", "25:00", ErrInvalidTimeFormat},
		{"equal times", "Ana", jan15, "09:00", "09:00", ErrInvalidInput},
		{"missing name", "  ", jan15, "09:00", "17:00", ErrInvalidInput},
		{"future date", "Ana", jan15.AddDate(0, 0, 10), "09:00", "17:00", ErrInvalidInput},
		{"closed month", "Ana", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), "09:00", "17:00", ErrMonthClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitHours(context.Background(), tc.employee, tc.date, tc.in, tc.out)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if faulty.calls != 0 {
		t.Fatalf("expected no store access, got %d calls", faulty.calls)
	}
}

func TestSubmitHoursPreviousMonthGrace(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC))
	date := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	if _, err := svc.SubmitHours(context.Background(), "Ana", date, "18:00", "02:00"); err != nil {
		t.Fatalf("expected December still open on Jan 1, got %v", err)
	}
	if status := svc.MonthStatus(date); status.Closed || status.Sheet != "December 2025" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestSubmitDailyTips(t *testing.T) {
	ctx := context.Background()
	svc, wb := newTestService(t, time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC))

	if _, err := svc.SubmitDailyTips(ctx, jan15, dec("500")); !errors.Is(err, ErrNoHoursRecorded) {
		t.Fatalf("expected ErrNoHoursRecorded, got %v", err)
	}
	if _, err := svc.DailyTotals(ctx, jan15); !errors.Is(err, ErrTipsNotFound) {
		t.Fatalf("expected ErrTipsNotFound, got %v", err)
	}

	_, _ = svc.SubmitHours(ctx, "Ana", jan15, "09:00", "14:00")
	_, _ = svc.SubmitHours(ctx, "Ben", jan15, "09:00", "12:00")

	first, err := svc.SubmitDailyTips(ctx, jan15, dec("500"))
	if err != nil {
		t.Fatalf("submit tips: %v", err)
	}
	if !first.Payouts.TipRate.Equal(dec("62.5")) || !first.Payouts.ByEmployee["Ben"].Equal(dec("187.5")) {
		t.Fatalf("unexpected payouts %+v", first.Payouts)
	}
	before, _ := wb.ReadRows(ctx, "January 2026 Totals")

	if _, err := svc.SubmitDailyTips(ctx, jan15, dec("500")); err != nil {
		t.Fatalf("resubmit tips: %v", err)
	}
	after, _ := wb.ReadRows(ctx, "January 2026 Totals")
	if len(before) != len(after) {
		t.Fatalf("resubmission changed the region: %v vs %v", before, after)
	}
	for i := range before {
		for j := range before[i] {
			if before[i][j] != after[i][j] {
				t.Fatalf("resubmission changed cell %d,%d", i+1, j+1)
			}
		}
	}

	totals, err := svc.DailyTotals(ctx, jan15)
	if err != nil {
		t.Fatalf("daily totals: %v", err)
	}
	if !totals.Payouts.TotalTips.Equal(dec("500")) || !totals.Payouts.ByEmployee["Ana"].Equal(dec("312.5")) {
		t.Fatalf("unexpected readback %+v", totals.Payouts)
	}
}

func TestSubmitDailyTipsRejections(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC))
	if _, err := svc.SubmitDailyTips(context.Background(), jan15, dec("-5")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	december := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	if _, err := svc.SubmitDailyTips(context.Background(), december, dec("5")); !errors.Is(err, ErrMonthClosed) {
		t.Fatalf("expected ErrMonthClosed, got %v", err)
	}
}

func TestSubmitDailyTipsRejectsHugeAmountBeforeStoreAccess(t *testing.T) {
	wb := sheets.NewMemoryWorkbook()
	defer wb.Close()
	faulty := &faultyBackend{Backend: wb, failing: true}
	svc := NewService(NewStore(faulty, lock.NewLocal()), time.UTC, time.Second,
		fixedClock(time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)))

	for _, raw := range []string{"1e400", "1000000000.01"} {
		if _, err := svc.SubmitDailyTips(context.Background(), jan15, dec(raw)); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", raw, err)
		}
	}
	if faulty.calls != 0 {
		t.Fatalf("expected no store access, got %d calls", faulty.calls)
	}
}

func TestEnsureCurrentMonth(t *testing.T) {
	svc, wb := newTestService(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	title, err := svc.EnsureCurrentMonth(context.Background())
	if err != nil || title != "March 2026" {
		t.Fatalf("unexpected result %q %v", title, err)
	}
	rows, err := wb.ReadRows(context.Background(), "March 2026")
	if err != nil || sheets.Value(rows, 1, 1) != "Employee" {
		t.Fatalf("expected header row, got %v %v", rows, err)
	}
}

func TestServiceStoreUnavailable(t *testing.T) {
	wb := sheets.NewMemoryWorkbook()
	defer wb.Close()
	faulty := &faultyBackend{Backend: wb, failing: true}
	svc := NewService(NewStore(faulty, lock.NewLocal()), time.UTC, time.Second,
		fixedClock(time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)))

	_, err := svc.SubmitHours(context.Background(), "Ana", jan15, "09:00", "17:00")
	if !Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if _, err := svc.SubmitDailyTips(context.Background(), jan15, dec("10")); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
