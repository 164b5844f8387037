/*
export_test.go - Export Engine tests

Workbooks are written to a buffer and read back with excelize, so the
assertions cover what a client actually downloads: sheet names, header
rows, chunk boundaries and the empty-group placeholder.
*/
package registry_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/datacheck/company-registry/registry"
)

func export(t *testing.T, e *registry.Exporter, records []registry.Record, mode registry.ExportMode, from, to string) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf, records, mode, from, to))
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func datedRecord(name string, created time.Time) registry.Record {
	return registry.Record{
		CompanyName: name,
		EmpID:       "7",
		Status:      registry.StatusActive,
		CreatedAt:   created,
	}
}

func TestExport_AllMode_SingleSheet(t *testing.T) {
	e := registry.NewExporter(0, time.UTC)
	records := []registry.Record{
		datedRecord("a.com", day(2024, 1, 1)),
		datedRecord("b.com", day(2024, 1, 2)),
	}

	f := export(t, e, records, registry.ModeAll, "", "")

	require.Equal(t, []string{"All_1"}, f.GetSheetList())
	rows, err := f.GetRows("All_1")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 data rows
	assert.Equal(t, "companyName", rows[0][0])
	assert.Equal(t, "a.com", rows[1][0])
	assert.Equal(t, "b.com", rows[2][0])
}

func TestExport_Datewise_GroupsByDate(t *testing.T) {
	// 3 records on day one, 5 on day two; no extraneous groups
	e := registry.NewExporter(0, time.UTC)
	var records []registry.Record
	for i := 0; i < 3; i++ {
		records = append(records, datedRecord(fmt.Sprintf("one-%d.com", i), day(2024, 1, 1)))
	}
	for i := 0; i < 5; i++ {
		records = append(records, datedRecord(fmt.Sprintf("two-%d.com", i), day(2024, 1, 2)))
	}

	f := export(t, e, records, registry.ModeDatewise, "", "")

	require.Equal(t, []string{"2024-01-01_1", "2024-01-02_1"}, f.GetSheetList())

	one, err := f.GetRows("2024-01-01_1")
	require.NoError(t, err)
	assert.Len(t, one, 4) // header + 3

	two, err := f.GetRows("2024-01-02_1")
	require.NoError(t, err)
	assert.Len(t, two, 6) // header + 5
}

func TestExport_Datewise_NoDateBucket(t *testing.T) {
	e := registry.NewExporter(0, time.UTC)
	records := []registry.Record{
		datedRecord("dated.com", day(2024, 1, 1)),
		datedRecord("undated.com", time.Time{}),
	}

	f := export(t, e, records, registry.ModeDatewise, "", "")

	sheets := f.GetSheetList()
	require.Contains(t, sheets, "NoDate_1")
	// NoDate sorts after real dates
	assert.Equal(t, "NoDate_1", sheets[len(sheets)-1])
}

func TestExport_SplitsAtSheetCeiling(t *testing.T) {
	// GIVEN: a ceiling of 20 and ceiling+10 records in one group
	e := registry.NewExporter(20, time.UTC)
	var records []registry.Record
	for i := 0; i < 30; i++ {
		records = append(records, datedRecord(fmt.Sprintf("c%d.com", i), day(2024, 1, 1)))
	}

	f := export(t, e, records, registry.ModeAll, "", "")

	// THEN: exactly two sub-sheets, ceiling rows then the remainder
	require.Equal(t, []string{"All_1", "All_2"}, f.GetSheetList())

	first, err := f.GetRows("All_1")
	require.NoError(t, err)
	assert.Len(t, first, 21) // header + 20

	second, err := f.GetRows("All_2")
	require.NoError(t, err)
	assert.Len(t, second, 11) // header + 10
}

func TestExport_EmptyGroupPlaceholder(t *testing.T) {
	e := registry.NewExporter(0, time.UTC)

	f := export(t, e, nil, registry.ModeAll, "", "")

	require.Equal(t, []string{"All_empty"}, f.GetSheetList())
	cell, err := f.GetCellValue("All_empty", "A1")
	require.NoError(t, err)
	assert.Equal(t, "No data", cell)
}

func TestExport_RangeMode(t *testing.T) {
	e := registry.NewExporter(0, time.UTC)
	records := []registry.Record{
		datedRecord("in.com", day(2024, 1, 15)),
		datedRecord("out.com", day(2024, 3, 1)),
	}

	f := export(t, e, records, registry.ModeRange, "2024-01-01", "2024-01-31")

	rows, err := f.GetRows("Range_1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "in.com", rows[1][0])
}

func TestExport_RangeRequiresBothBounds(t *testing.T) {
	e := registry.NewExporter(0, time.UTC)
	var buf bytes.Buffer

	err := e.Export(&buf, nil, registry.ModeRange, "2024-01-01", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrInvalidRange))
	assert.Zero(t, buf.Len(), "no bytes may be written on a failed export")
}

func TestExport_TodayMode_UsesConfiguredZone(t *testing.T) {
	// GIVEN: an export zone and one record created "today" in that zone
	loc := time.FixedZone("export", 330*60)
	e := registry.NewExporter(0, loc)
	records := []registry.Record{
		datedRecord("today.com", time.Now().In(loc)),
		datedRecord("old.com", day(2020, 1, 1)),
	}

	f := export(t, e, records, registry.ModeToday, "", "")

	rows, err := f.GetRows("Today_1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "today.com", rows[1][0])
}

func TestExport_Filename(t *testing.T) {
	e := registry.NewExporter(0, time.UTC)
	assert.Equal(t, "companies_all.xlsx", e.Filename(registry.ModeAll, "", ""))
	assert.Equal(t, "companies_today.xlsx", e.Filename(registry.ModeToday, "", ""))
	assert.Equal(t, "companies_datewise.xlsx", e.Filename(registry.ModeDatewise, "", ""))
	assert.Equal(t, "companies_2024-01-01_2024-01-31.xlsx",
		e.Filename(registry.ModeRange, "2024-01-01", "2024-01-31"))
}
