package roster

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"tipsheet/internal/platform/sheets"
)

const maxImportRows = 10000

// ReadFile loads roster entries from a .csv file or the first sheet of an
// .xlsx or legacy .xls export. The first row must carry Name and PIN headers.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		rows, err = reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows = workbook.ReadAllCells(maxImportRows)
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err = file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	return Parse(rows)
}

// Import replaces the Settings tab with entries. Rows left over from a longer
// previous roster are blanked.
func Import(ctx context.Context, backend sheets.Backend, entries []Entry) error {
	header := []string{"Name", "PIN"}
	if _, err := backend.EnsureSheet(ctx, SettingsTab, header); err != nil {
		return err
	}
	existing, err := backend.ReadRows(ctx, SettingsTab)
	if err != nil {
		return err
	}

	cells := []sheets.Cell{{Row: 1, Col: 1, Value: header[0]}, {Row: 1, Col: 2, Value: header[1]}}
	for i, entry := range entries {
		row := i + 2
		cells = append(cells,
			sheets.Cell{Row: row, Col: 1, Value: entry.Name},
			sheets.Cell{Row: row, Col: 2, Value: entry.PIN},
		)
	}
	for row := len(entries) + 2; row <= len(existing); row++ {
		cells = append(cells,
			sheets.Cell{Row: row, Col: 1, Value: ""},
			sheets.Cell{Row: row, Col: 2, Value: ""},
		)
	}
	return backend.WriteCells(ctx, SettingsTab, cells)
}
