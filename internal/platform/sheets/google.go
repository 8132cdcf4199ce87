package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	inputRaw          = "RAW"
	inputUserEntered  = "USER_ENTERED"
	renderUnformatted = "UNFORMATTED_VALUE"
)

// Google talks to a single spreadsheet through the Sheets v4 API using a
// service account.
type Google struct {
	svc           *gsheets.Service
	spreadsheetID string
}

func NewGoogle(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Google, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Google{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (g *Google) Title(ctx context.Context) (string, error) {
	resp, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", classify("title", err)
	}
	if resp.Properties == nil {
		return "", nil
	}
	return resp.Properties.Title, nil
}

func (g *Google) EnsureSheet(ctx context.Context, title string, header []string) (bool, error) {
	resp, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return false, classify("list sheets", err)
	}
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return false, nil
		}
	}

	add := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	added, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, add).Context(ctx).Do()
	if err != nil {
		// Another instance created the sheet between our list and add.
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "already exists") {
			return false, nil
		}
		return false, classify("add sheet", err)
	}
	if len(header) == 0 {
		return true, nil
	}

	cells := make([]Cell, len(header))
	for i, h := range header {
		cells[i] = Cell{Row: 1, Col: i + 1, Value: h}
	}
	if err := g.WriteCells(ctx, title, cells); err != nil {
		return true, err
	}

	if len(added.Replies) > 0 && added.Replies[0].AddSheet != nil && added.Replies[0].AddSheet.Properties != nil {
		g.boldHeader(ctx, added.Replies[0].AddSheet.Properties.SheetId)
	}
	return true, nil
}

// boldHeader is cosmetic; failures are ignored.
func (g *Google) boldHeader(ctx context.Context, sheetID int64) {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			RepeatCell: &gsheets.RepeatCellRequest{
				Range: &gsheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
				Cell: &gsheets.CellData{
					UserEnteredFormat: &gsheets.CellFormat{
						TextFormat: &gsheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		}},
	}
	_, _ = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
}

func (g *Google) ReadRows(ctx context.Context, title string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, QuoteTitle(title)).
		ValueRenderOption(renderUnformatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("read "+title, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = stringify(v)
		}
		rows[i] = row
	}
	return rows, nil
}

func (g *Google) WriteCells(ctx context.Context, title string, cells []Cell) error {
	var raw, entered []*gsheets.ValueRange
	for _, c := range cells {
		rng := QuoteTitle(title) + "!" + CellName(c.Col, c.Row)
		if c.Formula != "" {
			entered = append(entered, &gsheets.ValueRange{Range: rng, Values: [][]any{{c.Formula}}})
			continue
		}
		raw = append(raw, &gsheets.ValueRange{Range: rng, Values: [][]any{{c.Value}}})
	}
	if err := g.batchUpdate(ctx, inputRaw, raw); err != nil {
		return err
	}
	return g.batchUpdate(ctx, inputUserEntered, entered)
}

func (g *Google) batchUpdate(ctx context.Context, inputOption string, data []*gsheets.ValueRange) error {
	if len(data) == 0 {
		return nil
	}
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: inputOption, Data: data}
	if _, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify("write cells", err)
	}
	return nil
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}

// classify maps API failures onto the package sentinels. A range that cannot
// be parsed means the sheet does not exist; everything else, including auth
// failures and timeouts, is reported as unavailable.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range") {
		return fmt.Errorf("%s: %w", op, ErrSheetNotFound)
	}
	return unavailable(op, err)
}
