package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"tipsheet/internal/platform/sheets"
)

func TestValidPIN(t *testing.T) {
	cases := map[string]bool{"1234": true, "0000": true, "123": false, "12345": false, "12a4": false, "١٢٣٤": false, "": false}
	for pin, want := range cases {
		if got := ValidPIN(pin); got != want {
			t.Fatalf("ValidPIN(%q) = %v, want %v", pin, got, want)
		}
	}
}

func TestKeyFoldsCase(t *testing.T) {
	if Key("  John Doe ") != Key("JOHN DOE") {
		t.Fatal("expected case-insensitive keys to match")
	}
	if Key("John") == Key("Jon") {
		t.Fatal("expected different names to differ")
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	rows := [][]string{
		{"pin", "Name"},
		{"1234", "John Doe"},
		{"12345", "Long Pin"},
		{"12a", "Letter Pin"},
		{"5678", ""},
		{},
		{"9999", "JOHN DOE"},
		{"4321", "Jane Smith"},
	}
	entries, err := Parse(rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0] != (Entry{Name: "John Doe", PIN: "1234"}) || entries[1] != (Entry{Name: "Jane Smith", PIN: "4321"}) {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestSourceKeepsLeadingZeroPIN(t *testing.T) {
	ctx := context.Background()
	wb := sheets.NewMemoryWorkbook()
	defer wb.Close()

	// A PIN typed as 0123 comes back from the sheet as the number 123.
	if _, err := wb.EnsureSheet(ctx, SettingsTab, []string{"Name", "PIN"}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := wb.WriteCells(ctx, SettingsTab, []sheets.Cell{
		{Row: 2, Col: 1, Value: "Zoe"}, {Row: 2, Col: 2, Value: 123},
		{Row: 3, Col: 1, Value: "Max"}, {Row: 3, Col: 2, Value: 7},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	entry, ok, err := NewSource(wb).Find(ctx, "zoe")
	if err != nil || !ok {
		t.Fatalf("expected Zoe found, got %v %v", ok, err)
	}
	if entry.PIN != "0123" {
		t.Fatalf("expected PIN 0123, got %q", entry.PIN)
	}
	if entry, ok, _ := NewSource(wb).Find(ctx, "Max"); !ok || entry.PIN != "0007" {
		t.Fatalf("expected PIN 0007, got %+v %v", entry, ok)
	}
}

func TestNormalizePIN(t *testing.T) {
	cases := map[string]string{"123": "0123", "7": "0007", "0123": "0123", "12345": "12345", "12a": "12a", "": ""}
	for in, want := range cases {
		if got := NormalizePIN(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestParseRequiresHeader(t *testing.T) {
	if _, err := Parse([][]string{{"Employee", "Code"}}); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
	if _, err := Parse(nil); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestSourceFind(t *testing.T) {
	ctx := context.Background()
	wb := sheets.NewMemoryWorkbook()
	defer wb.Close()

	src := NewSource(wb)
	if _, _, err := src.Find(ctx, "John"); !errors.Is(err, sheets.ErrUnavailable) {
		t.Fatalf("expected missing settings to be unavailable, got %v", err)
	}

	if err := Import(ctx, wb, []Entry{{Name: "John Doe", PIN: "1234"}, {Name: "Jane Smith", PIN: "5678"}}); err != nil {
		t.Fatalf("import: %v", err)
	}
	entry, ok, err := src.Find(ctx, "jane smith")
	if err != nil || !ok {
		t.Fatalf("expected Jane found, got %v %v", ok, err)
	}
	if entry.Name != "Jane Smith" {
		t.Fatalf("expected canonical name, got %q", entry.Name)
	}

	if err := Import(ctx, wb, []Entry{{Name: "Solo", PIN: "0001"}}); err != nil {
		t.Fatalf("reimport: %v", err)
	}
	entries, err := src.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Solo" {
		t.Fatalf("expected shorter roster to replace old rows, got %+v", entries)
	}
}

func TestReadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "PIN"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"Ana Lopez", "0420"})
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	entries, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(entries) != 1 || entries[0].PIN != "0420" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestReadFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "pin, name\n0007, Ben Ortiz\n12, Too Short\n1234, Ana Lopez\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "Ben Ortiz" || entries[0].PIN != "0007" || entries[1].Name != "Ana Lopez" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
