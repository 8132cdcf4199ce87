package sheets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Workbook stores sheets in a local .xlsx file. With an empty path the
// workbook lives in memory only.
type Workbook struct {
	mu   sync.Mutex
	path string
	file *excelize.File
	bold int
}

func OpenWorkbook(path string) (*Workbook, error) {
	var file *excelize.File
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			opened, err := excelize.OpenFile(path)
			if err != nil {
				return nil, fmt.Errorf("open workbook %s: %w", path, err)
			}
			file = opened
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if file == nil {
		file = excelize.NewFile()
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Workbook{path: path, file: file, bold: bold}, nil
}

func NewMemoryWorkbook() *Workbook {
	wb, err := OpenWorkbook("")
	if err != nil {
		panic(err)
	}
	return wb
}

func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Workbook) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("title", err)
	}
	if w.path == "" {
		return "in-memory workbook", nil
	}
	return filepath.Base(w.path), nil
}

func (w *Workbook) EnsureSheet(ctx context.Context, title string, header []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("ensure sheet", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(title)
	if err != nil {
		return false, err
	}
	if idx != -1 {
		return false, nil
	}
	if _, err := w.file.NewSheet(title); err != nil {
		return false, err
	}
	if len(header) > 0 {
		row := make([]any, len(header))
		for i, h := range header {
			row[i] = h
		}
		if err := w.file.SetSheetRow(title, "A1", &row); err != nil {
			return false, err
		}
		if err := w.file.SetCellStyle(title, "A1", CellName(len(header), 1), w.bold); err != nil {
			return false, err
		}
	}
	return true, w.save()
}

func (w *Workbook) ReadRows(ctx context.Context, title string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("read rows", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(title)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		return nil, fmt.Errorf("%s: %w", title, ErrSheetNotFound)
	}
	return w.file.GetRows(title)
}

func (w *Workbook) WriteCells(ctx context.Context, title string, cells []Cell) error {
	if err := ctx.Err(); err != nil {
		return unavailable("write cells", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(title)
	if err != nil {
		return err
	}
	if idx == -1 {
		return fmt.Errorf("%s: %w", title, ErrSheetNotFound)
	}
	for _, c := range cells {
		name, err := excelize.CoordinatesToCellName(c.Col, c.Row)
		if err != nil {
			return err
		}
		if c.Formula != "" {
			err = w.file.SetCellFormula(title, name, c.Formula)
		} else {
			err = w.file.SetCellValue(title, name, c.Value)
		}
		if err != nil {
			return err
		}
	}
	return w.save()
}

func (w *Workbook) save() error {
	if w.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return unavailable("save workbook", err)
	}
	return unavailable("save workbook", w.file.SaveAs(w.path))
}
