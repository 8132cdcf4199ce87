package timesheet

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MaxTotalTips is the largest daily tip total accepted. Amounts are written
// to the sheet as floats, so the bound keeps every stored cell finite.
var MaxTotalTips = decimal.NewFromInt(1_000_000_000)

type Payouts struct {
	TotalTips  decimal.Decimal
	TotalHours decimal.Decimal
	TipRate    decimal.Decimal
	ByEmployee map[string]decimal.Decimal
	Hours      map[string]decimal.Decimal
}

// Employees returns the employees with payouts in name order.
func (p Payouts) Employees() []string {
	names := make([]string, 0, len(p.ByEmployee))
	for name := range p.ByEmployee {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComputePayouts splits totalTips across employees in proportion to hours.
// It has no side effects.
func ComputePayouts(totalTips decimal.Decimal, hoursByEmployee map[string]decimal.Decimal) (Payouts, error) {
	if totalTips.IsNegative() {
		return Payouts{}, invalidInput("total tips must not be negative")
	}
	if totalTips.GreaterThan(MaxTotalTips) {
		return Payouts{}, invalidInput("total tips must not exceed " + MaxTotalTips.String())
	}
	totalHours := decimal.Zero
	for _, hours := range hoursByEmployee {
		if hours.IsNegative() {
			return Payouts{}, invalidInput("hours must not be negative")
		}
		totalHours = totalHours.Add(hours)
	}
	if totalHours.IsZero() {
		return Payouts{}, ErrNoHoursRecorded
	}

	rate := totalTips.Div(totalHours)
	byEmployee := make(map[string]decimal.Decimal, len(hoursByEmployee))
	hours := make(map[string]decimal.Decimal, len(hoursByEmployee))
	for name, h := range hoursByEmployee {
		byEmployee[name] = h.Mul(rate)
		hours[name] = h
	}
	return Payouts{
		TotalTips:  totalTips,
		TotalHours: totalHours,
		TipRate:    rate,
		ByEmployee: byEmployee,
		Hours:      hours,
	}, nil
}
