// Package sheets adapts tabular spreadsheet stores to the small capability
// set the record engine needs: named sheets, rectangular reads and cell writes.
// None of the backends offer transactions; callers serialize writes.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrUnavailable   = errors.New("backing store unavailable")
)

// Cell is a single write. Row and Col are 1-based. When Formula is set it
// wins over Value.
type Cell struct {
	Row     int
	Col     int
	Value   any
	Formula string
}

type Backend interface {
	Title(ctx context.Context) (string, error)
	EnsureSheet(ctx context.Context, title string, header []string) (bool, error)
	ReadRows(ctx context.Context, title string) ([][]string, error)
	WriteCells(ctx context.Context, title string, cells []Cell) error
}

// CellName converts 1-based coordinates to A1 notation.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}

// ColumnName converts a 1-based column number to its letters.
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}

// QuoteTitle quotes a sheet title for use in ranges and formulas.
func QuoteTitle(title string) string {
	escaped := make([]rune, 0, len(title)+2)
	escaped = append(escaped, '\'')
	for _, r := range title {
		if r == '\'' {
			escaped = append(escaped, '\'')
		}
		escaped = append(escaped, r)
	}
	escaped = append(escaped, '\'')
	return string(escaped)
}

// Ref builds a cross-sheet reference such as 'January 2026'!D7.
func Ref(title string, col, row int) string {
	return QuoteTitle(title) + "!" + CellName(col, row)
}

// Value returns the cell at 1-based coordinates of a ragged row set, or "".
func Value(rows [][]string, row, col int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	cells := rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrSheetNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
