package timesheet

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestComputePayouts(t *testing.T) {
	payouts, err := ComputePayouts(dec("500"), map[string]decimal.Decimal{
		"Ana": dec("5"),
		"Ben": dec("3"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payouts.TotalHours.Equal(dec("8")) {
		t.Fatalf("expected 8 total hours, got %s", payouts.TotalHours)
	}
	if !payouts.TipRate.Equal(dec("62.5")) {
		t.Fatalf("expected rate 62.5, got %s", payouts.TipRate)
	}
	if !payouts.ByEmployee["Ana"].Equal(dec("312.5")) || !payouts.ByEmployee["Ben"].Equal(dec("187.5")) {
		t.Fatalf("unexpected payouts %v", payouts.ByEmployee)
	}
	names := payouts.Employees()
	if len(names) != 2 || names[0] != "Ana" || names[1] != "Ben" {
		t.Fatalf("unexpected employee order %v", names)
	}
}

func TestComputePayoutsSumsToTotal(t *testing.T) {
	payouts, err := ComputePayouts(dec("100"), map[string]decimal.Decimal{
		"Ana": dec("3"),
		"Ben": dec("3"),
		"Cal": dec("3"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := decimal.Zero
	for _, amount := range payouts.ByEmployee {
		sum = sum.Add(amount.Round(2))
	}
	if sum.Sub(dec("100")).Abs().GreaterThan(dec("0.01")) {
		t.Fatalf("expected payouts to add up to the tips, got %s", sum)
	}
}

func TestComputePayoutsNoHours(t *testing.T) {
	if _, err := ComputePayouts(dec("500"), nil); !errors.Is(err, ErrNoHoursRecorded) {
		t.Fatalf("expected ErrNoHoursRecorded, got %v", err)
	}
	if _, err := ComputePayouts(dec("500"), map[string]decimal.Decimal{"Ana": decimal.Zero}); !errors.Is(err, ErrNoHoursRecorded) {
		t.Fatalf("expected ErrNoHoursRecorded for zero hours, got %v", err)
	}
}

func TestComputePayoutsRejectsNegatives(t *testing.T) {
	if _, err := ComputePayouts(dec("-1"), map[string]decimal.Decimal{"Ana": dec("4")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := ComputePayouts(dec("10"), map[string]decimal.Decimal{"Ana": dec("-4")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestComputePayoutsBoundsTotal(t *testing.T) {
	hours := map[string]decimal.Decimal{"Ana": dec("4")}
	if _, err := ComputePayouts(MaxTotalTips, hours); err != nil {
		t.Fatalf("expected the maximum to be accepted, got %v", err)
	}
	if _, err := ComputePayouts(dec("1e400"), hours); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestComputePayoutsZeroTips(t *testing.T) {
	payouts, err := ComputePayouts(decimal.Zero, map[string]decimal.Decimal{"Ana": dec("4")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payouts.TipRate.IsZero() || !payouts.ByEmployee["Ana"].IsZero() {
		t.Fatalf("expected zero payouts, got %+v", payouts)
	}
}
