package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tipsheet/internal/domain/timesheet"
)

func TestDailyPayouts(t *testing.T) {
	payouts, err := timesheet.ComputePayouts(decimal.NewFromInt(500), map[string]decimal.Decimal{
		"Ana":   decimal.NewFromInt(5),
		"Björn": decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("payouts: %v", err)
	}

	var buf bytes.Buffer
	daily := timesheet.DailyTips{Date: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), Payouts: payouts}
	if err := DailyPayouts(&buf, daily); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected a PDF document, got %q", buf.Bytes()[:min(16, buf.Len())])
	}
	if buf.Len() < 500 {
		t.Fatalf("suspiciously small report: %d bytes", buf.Len())
	}
}
