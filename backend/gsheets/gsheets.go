/*
Package gsheets provides a Google Sheets registry.Backend.

PURPOSE:
  Stores each shard as one tab of a single spreadsheet. This is the
  deployment the row layout was designed around: the tab's physical row
  1 is the header, so logical data offset n lives at physical row n+2
  in A1 notation and at index n+1 for batchUpdate dimension ranges.

API CALLS (sheets/v4):
  ListShards    spreadsheets.get + values.batchGet
  ReadShard     values.get
  AppendToShard values.append   (USER_ENTERED, INSERT_ROWS)
  WriteRange    values.update
  DeleteRange   batchUpdate deleteDimension
  CreateShard   batchUpdate addSheet, then header via values.update
  ClearShard    values.clear of A2:F (header stays)

AUTH:
  Service-account credentials file with the spreadsheets scope. The
  spreadsheet id and credentials path come from configuration.

SEE ALSO:
  - registry/backend.go: Interface definition
  - config/config.go: Where the spreadsheet id is wired in
*/
package gsheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/datacheck/company-registry/registry"
)

// Backend implements registry.Backend on one Google spreadsheet.
type Backend struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New builds the Sheets client from a service-account credentials file.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Backend, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &Backend{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (b *Backend) ListShards(ctx context.Context) ([]registry.ShardInfo, error) {
	titles, _, err := b.tabs(ctx)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, nil
	}

	resp, err := b.svc.Spreadsheets.Values.BatchGet(b.spreadsheetID).
		Ranges(titles...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("batch read values: %w", err)
	}

	infos := make([]registry.ShardInfo, len(titles))
	for i, title := range titles {
		count := 0
		if i < len(resp.ValueRanges) && len(resp.ValueRanges[i].Values) > 1 {
			count = len(resp.ValueRanges[i].Values) - 1 // minus header
		}
		infos[i] = registry.ShardInfo{ID: title, RowCount: count}
	}
	return infos, nil
}

func (b *Backend) ReadShard(ctx context.Context, id string) ([]registry.Tuple, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", id, err)
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}

	tuples := make([]registry.Tuple, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		t := make(registry.Tuple, len(raw))
		for i, v := range raw {
			t[i] = fmt.Sprint(v)
		}
		tuples = append(tuples, t)
	}
	return tuples, nil
}

func (b *Backend) AppendToShard(ctx context.Context, id string, rows []registry.Tuple) error {
	_, err := b.svc.Spreadsheets.Values.Append(b.spreadsheetID, id, valueRange(rows)).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %q: %w", id, err)
	}
	return nil
}

func (b *Backend) WriteRange(ctx context.Context, id string, offset int, row registry.Tuple) error {
	// +2: 1-based A1 notation plus the header row.
	rng := fmt.Sprintf("%s!A%d:F%d", id, offset+2, offset+2)
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, rng, valueRange([]registry.Tuple{row})).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d of sheet %q: %w", offset, id, err)
	}
	return nil
}

func (b *Backend) DeleteRange(ctx context.Context, id string, offset int) error {
	_, sheetIDs, err := b.tabs(ctx)
	if err != nil {
		return err
	}
	sheetID, ok := sheetIDs[id]
	if !ok {
		return fmt.Errorf("unknown sheet %q", id)
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(offset + 1), // 0-based physical, past the header
					EndIndex:   int64(offset + 2),
				},
			},
		}},
	}
	if _, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of sheet %q: %w", offset, id, err)
	}
	return nil
}

func (b *Backend) CreateShard(ctx context.Context, title string) (string, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("add sheet %q: %w", title, err)
	}

	// Seed the header row so data offsets start at physical row 2.
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, title+"!A1:F1", valueRange([]registry.Tuple{registry.Header})).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write header of sheet %q: %w", title, err)
	}
	return title, nil
}

func (b *Backend) ClearShard(ctx context.Context, id string) error {
	// Data rows only; the header stays in place.
	rng := id + "!A2:F"
	_, err := b.svc.Spreadsheets.Values.Clear(b.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %q: %w", id, err)
	}
	return nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// tabs returns the spreadsheet's tab titles in order plus a title ->
// numeric sheet id map.
func (b *Backend) tabs(ctx context.Context) ([]string, map[string]int64, error) {
	meta, err := b.svc.Spreadsheets.Get(b.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("get spreadsheet: %w", err)
	}

	titles := make([]string, 0, len(meta.Sheets))
	ids := make(map[string]int64, len(meta.Sheets))
	for _, s := range meta.Sheets {
		if s.Properties == nil {
			continue
		}
		titles = append(titles, s.Properties.Title)
		ids[s.Properties.Title] = s.Properties.SheetId
	}
	return titles, ids, nil
}

func valueRange(rows []registry.Tuple) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	return &sheets.ValueRange{Values: values}
}
