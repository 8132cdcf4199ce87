package timesheet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tipsheet/internal/domain/roster"
	"tipsheet/internal/platform/lock"
	"tipsheet/internal/platform/sheets"
)

const (
	labelEmployee = "Employee"
	labelClockIn  = "Clock In"
	labelClockOut = "Clock Out"
	labelHours    = "Hours Worked"

	labelTotals     = "Totals"
	labelTips       = "Tips Collected"
	labelTotalHours = "Total Hours"
	labelTipRate    = "Tip Rate (per hour)"

	firstEmployeeRow = 2

	totalsTipsRow        = 2
	totalsHoursRow       = 3
	totalsRateRow        = 4
	totalsFirstPayoutRow = 6
)

// Store is the spreadsheet-backed record engine. Every mutating method takes
// the keyed locks it needs; callers never write cells directly.
type Store struct {
	backend        sheets.Backend
	locks          lock.Locker
	injectFormulas bool
}

type StoreOption func(*Store)

// WithFormulas makes WriteTotals store live formulas for total hours, tip
// rate and payouts instead of computed values.
func WithFormulas(enabled bool) StoreOption {
	return func(s *Store) {
		s.injectFormulas = enabled
	}
}

func NewStore(backend sheets.Backend, locks lock.Locker, opts ...StoreOption) *Store {
	s := &Store{backend: backend, locks: locks}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sheetKey(title string) string {
	return "sheet:" + title
}

func totalsKey(title string) string {
	return "totals:" + title
}

func entryKey(title, employee string, date time.Time) string {
	return "entry:" + title + ":" + roster.Key(employee) + ":" + DateLabel(date)
}

// lock returns the context to use while the lock is held; locks taken under
// it nest inside this one.
func (s *Store) lock(ctx context.Context, key string) (context.Context, func(), error) {
	held, release, err := s.locks.Lock(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return held, release, nil
}

// EnsureMonthSheet returns the title of date's monthly sheet, creating it with
// the Employee header when absent.
func (s *Store) EnsureMonthSheet(ctx context.Context, date time.Time) (string, error) {
	title := SheetTitle(date)
	ctx, release, err := s.lock(ctx, sheetKey(title))
	if err != nil {
		return "", err
	}
	defer release()

	if _, err := s.backend.EnsureSheet(ctx, title, []string{labelEmployee}); err != nil {
		return "", storeFailure("ensure month sheet", err)
	}
	return title, nil
}

// DateColumns finds or appends the column-group for date on the monthly
// sheet, which must already exist.
func (s *Store) DateColumns(ctx context.Context, date time.Time) (DateColumns, error) {
	title := SheetTitle(date)
	ctx, release, err := s.lock(ctx, sheetKey(title))
	if err != nil {
		return DateColumns{}, err
	}
	defer release()

	rows, err := s.backend.ReadRows(ctx, title)
	if err != nil {
		return DateColumns{}, storeFailure("read month sheet", err)
	}
	cols, _, err := s.dateColumnsLocked(ctx, title, rows, date)
	return cols, err
}

func (s *Store) dateColumnsLocked(ctx context.Context, title string, rows [][]string, date time.Time) (DateColumns, bool, error) {
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	if cols, ok := findDateColumns(header, date); ok {
		return cols, false, nil
	}

	next := len(header) + 1
	if next < 2 {
		next = 2
	}
	cols := DateColumns{ClockIn: next, ClockOut: next + 1, Hours: next + 2}
	label := DateLabel(date)
	cells := []sheets.Cell{
		{Row: 1, Col: cols.ClockIn, Value: label + " " + labelClockIn},
		{Row: 1, Col: cols.ClockOut, Value: label + " " + labelClockOut},
		{Row: 1, Col: cols.Hours, Value: label + " " + labelHours},
	}
	if len(header) == 0 {
		cells = append(cells, sheets.Cell{Row: 1, Col: 1, Value: labelEmployee})
	}
	if err := s.backend.WriteCells(ctx, title, cells); err != nil {
		return DateColumns{}, false, storeFailure("append date columns", err)
	}
	return cols, true, nil
}

func findDateColumns(header []string, date time.Time) (DateColumns, bool) {
	want := DateLabel(date) + " " + labelClockIn
	for i, h := range header {
		if strings.TrimSpace(h) == want {
			col := i + 1
			return DateColumns{ClockIn: col, ClockOut: col + 1, Hours: col + 2}, true
		}
	}
	return DateColumns{}, false
}

// findRow returns the 1-based row whose column A matches name, searching from
// first.
func findRow(rows [][]string, name string, first int) int {
	key := roster.Key(name)
	for i := first - 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && rows[i][0] != "" && roster.Key(rows[i][0]) == key {
			return i + 1
		}
	}
	return 0
}

func nextRow(rows [][]string, first int) int {
	if len(rows)+1 > first {
		return len(rows) + 1
	}
	return first
}

// EntryExists reports whether the Hours Worked cell for row is filled.
func EntryExists(rows [][]string, row int, cols DateColumns) bool {
	return strings.TrimSpace(sheets.Value(rows, row, cols.Hours)) != ""
}

// resolveSlot creates whatever is missing for (employee, date) under the
// sheet lock and returns the sheet contents as of the end of that section.
func (s *Store) resolveSlot(ctx context.Context, title, employee string, date time.Time) ([][]string, int, DateColumns, error) {
	ctx, release, err := s.lock(ctx, sheetKey(title))
	if err != nil {
		return nil, 0, DateColumns{}, err
	}
	defer release()

	if _, err := s.backend.EnsureSheet(ctx, title, []string{labelEmployee}); err != nil {
		return nil, 0, DateColumns{}, storeFailure("ensure month sheet", err)
	}
	rows, err := s.backend.ReadRows(ctx, title)
	if err != nil {
		return nil, 0, DateColumns{}, storeFailure("read month sheet", err)
	}
	cols, _, err := s.dateColumnsLocked(ctx, title, rows, date)
	if err != nil {
		return nil, 0, DateColumns{}, err
	}

	row := findRow(rows, employee, firstEmployeeRow)
	if row == 0 {
		row = nextRow(rows, firstEmployeeRow)
		if err := s.backend.WriteCells(ctx, title, []sheets.Cell{{Row: row, Col: 1, Value: employee}}); err != nil {
			return nil, 0, DateColumns{}, storeFailure("append employee row", err)
		}
	}
	return rows, row, cols, nil
}

// WriteTimeEntry records clock-in, clock-out and hours for one employee and
// date. The entry lock is held from before the existence check until the
// write lands, so two submissions for the same key cannot both succeed.
func (s *Store) WriteTimeEntry(ctx context.Context, entry TimeEntry) error {
	title := SheetTitle(entry.Date)
	ctx, release, err := s.lock(ctx, entryKey(title, entry.Employee, entry.Date))
	if err != nil {
		return err
	}
	defer release()

	rows, row, cols, err := s.resolveSlot(ctx, title, entry.Employee, entry.Date)
	if err != nil {
		return err
	}
	if EntryExists(rows, row, cols) {
		return ErrDuplicateEntry
	}

	cells := []sheets.Cell{
		{Row: row, Col: cols.ClockIn, Value: entry.ClockIn},
		{Row: row, Col: cols.ClockOut, Value: entry.ClockOut},
		{Row: row, Col: cols.Hours, Value: entry.Hours.InexactFloat64()},
	}
	if err := s.backend.WriteCells(ctx, title, cells); err != nil {
		return storeFailure("write time entry", err)
	}
	return nil
}

// HoursForDate returns recorded hours keyed by the employee name as stored on
// the sheet. Employees without an entry are absent, not zero.
func (s *Store) HoursForDate(ctx context.Context, date time.Time) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	rows, err := s.backend.ReadRows(ctx, SheetTitle(date))
	if errors.Is(err, sheets.ErrSheetNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, storeFailure("read month sheet", err)
	}
	if len(rows) == 0 {
		return out, nil
	}
	cols, ok := findDateColumns(rows[0], date)
	if !ok {
		return out, nil
	}

	for i := firstEmployeeRow; i <= len(rows); i++ {
		name := strings.TrimSpace(sheets.Value(rows, i, 1))
		raw := strings.TrimSpace(sheets.Value(rows, i, cols.Hours))
		if name == "" || raw == "" {
			continue
		}
		hours, err := decimal.NewFromString(raw)
		if err != nil || hours.IsNegative() {
			return nil, fmt.Errorf("%w: hours %q in row %d", ErrMalformedRecord, raw, i)
		}
		out[name] = hours
	}
	return out, nil
}

// ReadTips returns the Tips Collected figure stored for date, if any.
func (s *Store) ReadTips(ctx context.Context, date time.Time) (decimal.Decimal, bool, error) {
	rows, err := s.backend.ReadRows(ctx, TotalsTitle(date))
	if errors.Is(err, sheets.ErrSheetNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, storeFailure("read totals", err)
	}
	col := findTotalsColumn(rows, date)
	if col == 0 {
		return decimal.Zero, false, nil
	}
	raw := strings.TrimSpace(sheets.Value(rows, totalsTipsRow, col))
	if raw == "" {
		return decimal.Zero, false, nil
	}
	tips, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: tips %q", ErrMalformedRecord, raw)
	}
	return tips, true, nil
}

// checkFinite rejects payouts that cannot be stored as sheet numbers.
func checkFinite(p Payouts) error {
	values := []decimal.Decimal{p.TotalTips, p.TotalHours, p.TipRate}
	for _, name := range p.Employees() {
		values = append(values, p.ByEmployee[name])
	}
	for _, v := range values {
		f := v.InexactFloat64()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return invalidInput("totals amount is out of range")
		}
	}
	return nil
}

func findTotalsColumn(rows [][]string, date time.Time) int {
	if len(rows) == 0 {
		return 0
	}
	label := DateLabel(date)
	for i, h := range rows[0] {
		if i > 0 && strings.TrimSpace(h) == label {
			return i + 1
		}
	}
	return 0
}

// WriteTotals overwrites the date's column in the Totals region with the
// given payouts. Repeating the call with the same input leaves the sheet
// unchanged.
func (s *Store) WriteTotals(ctx context.Context, date time.Time, payouts Payouts) error {
	if err := checkFinite(payouts); err != nil {
		return err
	}
	title := TotalsTitle(date)
	ctx, release, err := s.lock(ctx, totalsKey(title))
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.backend.EnsureSheet(ctx, title, []string{labelTotals}); err != nil {
		return storeFailure("ensure totals sheet", err)
	}

	rows, err := s.backend.ReadRows(ctx, title)
	if err != nil {
		return storeFailure("read totals", err)
	}
	// Labels are filled in whenever missing, so a sheet left half-created
	// by an earlier failed write is repaired here.
	var cells []sheets.Cell
	for _, l := range []sheets.Cell{
		{Row: totalsTipsRow, Col: 1, Value: labelTips},
		{Row: totalsHoursRow, Col: 1, Value: labelTotalHours},
		{Row: totalsRateRow, Col: 1, Value: labelTipRate},
	} {
		if strings.TrimSpace(sheets.Value(rows, l.Row, 1)) == "" {
			cells = append(cells, l)
		}
	}
	col := findTotalsColumn(rows, date)
	if col == 0 {
		col = 2
		if len(rows) > 0 && len(rows[0])+1 > col {
			col = len(rows[0]) + 1
		}
		cells = append(cells, sheets.Cell{Row: 1, Col: col, Value: DateLabel(date)})
	}

	var month *monthRefs
	if s.injectFormulas {
		month, err = s.monthRefs(ctx, date)
		if err != nil {
			return err
		}
	}

	rateRef := sheets.CellName(col, totalsRateRow)
	cells = append(cells, sheets.Cell{Row: totalsTipsRow, Col: col, Value: payouts.TotalTips.Round(2).InexactFloat64()})
	if month != nil {
		cells = append(cells,
			sheets.Cell{Row: totalsHoursRow, Col: col, Formula: month.sumFormula()},
			sheets.Cell{Row: totalsRateRow, Col: col, Formula: fmt.Sprintf("=IF(%s=0,0,%s/%s)",
				sheets.CellName(col, totalsHoursRow), sheets.CellName(col, totalsTipsRow), sheets.CellName(col, totalsHoursRow))},
		)
	} else {
		cells = append(cells,
			sheets.Cell{Row: totalsHoursRow, Col: col, Value: payouts.TotalHours.Round(2).InexactFloat64()},
			sheets.Cell{Row: totalsRateRow, Col: col, Value: payouts.TipRate.Round(4).InexactFloat64()},
		)
	}

	appended := 0
	for _, name := range payouts.Employees() {
		row := findRow(rows, name, totalsFirstPayoutRow)
		if row == 0 {
			row = nextRow(rows, totalsFirstPayoutRow) + appended
			appended++
			cells = append(cells, sheets.Cell{Row: row, Col: 1, Value: name})
		}
		if month != nil {
			if ref, ok := month.hoursRef(name); ok {
				cells = append(cells, sheets.Cell{Row: row, Col: col, Formula: "=ROUND(" + ref + "*" + rateRef + ",2)"})
				continue
			}
		}
		cells = append(cells, sheets.Cell{Row: row, Col: col, Value: payouts.ByEmployee[name].Round(2).InexactFloat64()})
	}

	if err := s.backend.WriteCells(ctx, title, cells); err != nil {
		return storeFailure("write totals", err)
	}
	return nil
}

type monthRefs struct {
	title string
	cols  DateColumns
	rows  [][]string
}

func (s *Store) monthRefs(ctx context.Context, date time.Time) (*monthRefs, error) {
	title := SheetTitle(date)
	rows, err := s.backend.ReadRows(ctx, title)
	if err != nil {
		return nil, storeFailure("read month sheet", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHoursRecorded
	}
	cols, ok := findDateColumns(rows[0], date)
	if !ok {
		return nil, ErrNoHoursRecorded
	}
	return &monthRefs{title: title, cols: cols, rows: rows}, nil
}

func (m *monthRefs) sumFormula() string {
	column := sheets.ColumnName(m.cols.Hours)
	return fmt.Sprintf("=SUM(%s!%s%d:%s)", sheets.QuoteTitle(m.title), column, firstEmployeeRow, column)
}

func (m *monthRefs) hoursRef(name string) (string, bool) {
	row := findRow(m.rows, name, firstEmployeeRow)
	if row == 0 {
		return "", false
	}
	return sheets.Ref(m.title, m.cols.Hours, row), true
}
