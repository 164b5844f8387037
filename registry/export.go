/*
export.go - Export Engine

PURPOSE:
  Serializes a filtered Record set into a multi-sheet XLSX workbook,
  re-partitioning the virtual table under a per-sheet row ceiling. The
  ceiling mirrors the Row Store's shard-splitting discipline but is
  independent of it: export splitting never touches storage, and the
  two ceilings are configured separately.

MODES:
  all       no date restriction beyond the caller's filter
  today     restrict to the current calendar date in the export zone
  range     restrict to [dateFrom, dateTo], both bounds required
  datewise  one sheet group per distinct date key, plus a NoDate bucket

SHEET NAMING:
  Every group is chunked into <group>_1, <group>_2, ... with at most
  MaxRowsPerSheet data rows per chunk (the header row rides on top). A
  group with zero rows still emits a <group>_empty sheet holding a
  single "No data" cell, so client tooling always sees a stable file
  structure.

STREAMING:
  The workbook is fully assembled in memory before Write touches the
  caller's stream. A failed export therefore never delivers a partial
  file.

SEE ALSO:
  - filter.go: Mode pre-filtering reuses the Filter predicates
  - api/handlers.go: Sets the content-disposition filename
*/
package registry

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// DefaultMaxRowsPerSheet is the export ceiling used when the
// configuration does not override it: the XLSX hard limit of 1,048,576
// rows minus one for the header.
const DefaultMaxRowsPerSheet = 1048575

// noDataMarker is the sentinel written into placeholder sheets.
const noDataMarker = "No data"

// =============================================================================
// MODES
// =============================================================================

// ExportMode selects how the export restricts and partitions rows.
type ExportMode string

const (
	ModeAll      ExportMode = "all"
	ModeToday    ExportMode = "today"
	ModeRange    ExportMode = "range"
	ModeDatewise ExportMode = "datewise"
)

// ParseExportMode validates a mode string. The empty string means
// ModeAll, matching the HTTP surface's default.
func ParseExportMode(s string) (ExportMode, bool) {
	switch ExportMode(s) {
	case ModeAll, ModeToday, ModeRange, ModeDatewise:
		return ExportMode(s), true
	case "":
		return ModeAll, true
	}
	return "", false
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter writes XLSX workbooks under a per-sheet row ceiling.
type Exporter struct {
	// MaxRowsPerSheet caps data rows per output sheet. <= 0 selects
	// DefaultMaxRowsPerSheet.
	MaxRowsPerSheet int
	// Location is the zone "today" is computed in. The original
	// deployment pinned UTC+5:30; it is configuration here, not a
	// constant. nil means UTC.
	Location *time.Location
	// now is swappable for tests.
	now func() time.Time
}

// NewExporter creates an Exporter with the given ceiling and zone.
func NewExporter(maxRows int, loc *time.Location) *Exporter {
	if maxRows <= 0 {
		maxRows = DefaultMaxRowsPerSheet
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{MaxRowsPerSheet: maxRows, Location: loc, now: time.Now}
}

// Filename returns the download filename for a mode:
// companies_all.xlsx, companies_today.xlsx, companies_<from>_<to>.xlsx,
// companies_datewise.xlsx.
func (e *Exporter) Filename(mode ExportMode, dateFrom, dateTo string) string {
	tag := string(mode)
	if mode == ModeRange {
		tag = dateFrom + "_" + dateTo
	}
	return fmt.Sprintf("companies_%s.xlsx", tag)
}

// Export filters records for the mode, partitions them into named
// groups, chunks each group under the sheet ceiling and writes the
// workbook to w.
func (e *Exporter) Export(w io.Writer, records []Record, mode ExportMode, dateFrom, dateTo string) error {
	filtered, err := e.restrict(records, mode, dateFrom, dateTo)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if mode == ModeDatewise {
		groups, order := groupByDate(filtered)
		if len(order) == 0 {
			// Nothing matched at all; still emit a stable placeholder.
			if err := addChunkedSheets(f, "Datewise", nil, e.maxRows()); err != nil {
				return err
			}
		}
		for _, key := range order {
			if err := addChunkedSheets(f, key, groups[key], e.maxRows()); err != nil {
				return err
			}
		}
	} else {
		title := map[ExportMode]string{ModeAll: "All", ModeToday: "Today", ModeRange: "Range"}[mode]
		if err := addChunkedSheets(f, title, filtered, e.maxRows()); err != nil {
			return err
		}
	}

	// Drop excelize's default sheet; every export above added at least one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: drop default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) maxRows() int {
	if e.MaxRowsPerSheet <= 0 {
		return DefaultMaxRowsPerSheet
	}
	return e.MaxRowsPerSheet
}

// restrict applies the mode's date restriction on top of the caller's
// already-applied filter.
func (e *Exporter) restrict(records []Record, mode ExportMode, dateFrom, dateTo string) ([]Record, error) {
	switch mode {
	case ModeToday:
		today := e.now().In(e.Location).Format("2006-01-02")
		return filterRecords(records, Filter{DateFrom: today, DateTo: today}), nil
	case ModeRange:
		if dateFrom == "" || dateTo == "" {
			return nil, ErrInvalidRange
		}
		return filterRecords(records, Filter{DateFrom: dateFrom, DateTo: dateTo}), nil
	default:
		return records, nil
	}
}

func filterRecords(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// PARTITIONING
// =============================================================================

// groupByDate buckets records by date key, with a literal NoDate bucket
// for records that carry none. Returns the buckets plus a deterministic
// order: dates ascending, NoDate last.
func groupByDate(records []Record) (map[string][]Record, []string) {
	groups := make(map[string][]Record)
	for _, r := range records {
		key := r.DateKey()
		if key == "" {
			key = "NoDate"
		}
		groups[key] = append(groups[key], r)
	}

	order := make([]string, 0, len(groups))
	for key := range groups {
		if key != "NoDate" {
			order = append(order, key)
		}
	}
	sort.Strings(order)
	if _, ok := groups["NoDate"]; ok {
		order = append(order, "NoDate")
	}
	return groups, order
}

// addChunkedSheets writes one group as one or more sheets, each holding
// at most maxRows data rows under a header row.
func addChunkedSheets(f *excelize.File, title string, records []Record, maxRows int) error {
	if len(records) == 0 {
		name := title + "_empty"
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export: new sheet %q: %w", name, err)
		}
		if err := f.SetSheetRow(name, "A1", &[]interface{}{noDataMarker}); err != nil {
			return fmt.Errorf("export: sheet %q: %w", name, err)
		}
		return nil
	}

	for chunk, start := 1, 0; start < len(records); chunk, start = chunk+1, start+maxRows {
		end := start + maxRows
		if end > len(records) {
			end = len(records)
		}
		name := fmt.Sprintf("%s_%d", title, chunk)
		if err := writeSheet(f, name, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func writeSheet(f *excelize.File, name string, records []Record) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("export: new sheet %q: %w", name, err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("export: sheet %q: %w", name, err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: sheet %q: %w", name, err)
		}
		tuple := EncodeRecord(r)
		row := make([]interface{}, len(tuple))
		for j, v := range tuple {
			row[j] = v
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("export: sheet %q: %w", name, err)
		}
	}

	if err := f.SetColWidth(name, "A", "F", 20); err != nil {
		return fmt.Errorf("export: sheet %q: %w", name, err)
	}
	return nil
}
