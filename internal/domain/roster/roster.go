// Package roster reads the employee name/PIN list kept on the Settings tab.
// The application never edits the roster except through the admin import.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"tipsheet/internal/platform/sheets"
)

const SettingsTab = "Settings"

var (
	ErrSettingsMissing = errors.New("settings tab not found")
	ErrNoHeader        = errors.New("settings tab needs Name and PIN header columns")
)

type Entry struct {
	Name string
	PIN  string
}

// Key folds a name for case-insensitive comparison.
func Key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	return len(pin) == 4 && allDigits(pin)
}

// NormalizePIN restores leading zeros on an all-digit PIN shorter than four
// characters. Spreadsheets store a typed 0123 as the number 123.
func NormalizePIN(pin string) string {
	if pin == "" || len(pin) >= 4 || !allDigits(pin) {
		return pin
	}
	return strings.Repeat("0", 4-len(pin)) + pin
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Parse turns Settings rows into entries. The header row must contain Name
// and PIN columns in any case and order. Numeric PIN cells are zero-padded
// to four digits; rows with an empty name or any other PIN are skipped.
func Parse(rows [][]string) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	nameCol, pinCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			nameCol = i
		case "pin":
			pinCol = i
		}
	}
	if nameCol == -1 || pinCol == -1 {
		return nil, ErrNoHeader
	}

	entries := make([]Entry, 0, len(rows)-1)
	seen := map[string]bool{}
	for i, row := range rows[1:] {
		name := cell(row, nameCol)
		pin := NormalizePIN(cell(row, pinCol))
		if name == "" && pin == "" {
			continue
		}
		if name == "" || !ValidPIN(pin) {
			slog.Warn("skipping malformed roster row", "row", i+2)
			continue
		}
		key := Key(name)
		if seen[key] {
			slog.Warn("skipping duplicate roster name", "row", i+2)
			continue
		}
		seen[key] = true
		entries = append(entries, Entry{Name: name, PIN: pin})
	}
	return entries, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Source reads the roster from the backing store on every call.
type Source struct {
	backend sheets.Backend
}

func NewSource(backend sheets.Backend) *Source {
	return &Source{backend: backend}
}

func (s *Source) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.backend.ReadRows(ctx, SettingsTab)
	if errors.Is(err, sheets.ErrSheetNotFound) {
		return nil, fmt.Errorf("%w: %v", sheets.ErrUnavailable, ErrSettingsMissing)
	}
	if err != nil {
		return nil, err
	}
	return Parse(rows)
}

// Find looks an employee up by case-insensitive name.
func (s *Source) Find(ctx context.Context, name string) (Entry, bool, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	key := Key(name)
	for _, entry := range entries {
		if Key(entry.Name) == key {
			return entry, true, nil
		}
	}
	return Entry{}, false, nil
}
