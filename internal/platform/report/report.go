// Package report renders a day's tip split as a printable PDF.
package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"tipsheet/internal/domain/timesheet"
)

// DailyPayouts writes a one-page summary of daily to w.
func DailyPayouts(w io.Writer, daily timesheet.DailyTips) error {
	p := daily.Payouts

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Tip payouts "+timesheet.DateLabel(daily.Date), true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Tip Payouts")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", timesheet.DateLabel(daily.Date)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Tips collected: %s", p.TotalTips.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total hours: %s", p.TotalHours.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Tip rate: %s per hour", p.TipRate.StringFixed(4)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(90, 8, "Employee", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Hours", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, "Payout", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, name := range p.Employees() {
		pdf.CellFormat(90, 8, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, p.Hours[name].StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 8, p.ByEmployee[name].StringFixed(2), "1", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payout report: %w", err)
	}
	return nil
}
