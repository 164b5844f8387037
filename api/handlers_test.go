/*
handlers_test.go - HTTP surface tests

Runs the full router against the in-memory backend: the create/list/
toggle/delete lifecycle, conflict and not-found mapping, and the export
endpoint's headers and workbook content.
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/datacheck/company-registry/backend/memory"
	"github.com/datacheck/company-registry/registry"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter() http.Handler {
	store := registry.NewRowStore(memory.New(), 0)
	exporter := registry.NewExporter(0, time.UTC)
	return NewRouter(NewHandler(store, exporter, time.UTC))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createCompany(t *testing.T, router http.Handler, name string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/companies", CreateCompanyRequest{
		CompanyName: name,
		EmpID:       "7",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func listCompanies(t *testing.T, router http.Handler, query string) ListResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodGet, "/api/companies/list"+query, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// LIFECYCLE SCENARIO
// =============================================================================

func TestCompanyLifecycle(t *testing.T) {
	router := newTestRouter()

	// Create abc.com
	rec := doJSON(t, router, http.MethodPost, "/api/companies", CreateCompanyRequest{
		CompanyName: "abc.com",
		EmpID:       "7",
		Status:      "Active",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// List with no filter returns it
	resp := listCompanies(t, router, "")
	require.Equal(t, 1, resp.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "abc.com", resp.Data[0].CompanyName)
	assert.Equal(t, "Active", resp.Data[0].Status)
	assert.NotEmpty(t, resp.Data[0].CreatedAt)

	// Toggle flips to Inactive
	rec = doJSON(t, router, http.MethodPost, "/api/companies/toggle/abc.com", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = listCompanies(t, router, "")
	assert.Equal(t, "Inactive", resp.Data[0].Status)

	// A second toggle is a conflict, not a no-op
	rec = doJSON(t, router, http.MethodPost, "/api/companies/toggle/abc.com", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Delete removes it
	rec = doJSON(t, router, http.MethodDelete, "/api/companies", DeleteCompanyRequest{CompanyName: "abc.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = listCompanies(t, router, "")
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Data)
}

// =============================================================================
// VALIDATION AND ERROR MAPPING
// =============================================================================

func TestCreate_MissingFields(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/companies", CreateCompanyRequest{CompanyName: "x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/companies", CreateCompanyRequest{EmpID: "7"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_InvalidStatus(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/api/companies", CreateCompanyRequest{
		CompanyName: "x.com", EmpID: "7", Status: "Pending",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_DuplicateIsConflict(t *testing.T) {
	router := newTestRouter()
	createCompany(t, router, "abc.com")

	rec := doJSON(t, router, http.MethodPost, "/api/companies", CreateCompanyRequest{
		CompanyName: "ABC.com", EmpID: "9",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate check is case-insensitive")
}

func TestToggleAndDelete_UnknownCompany(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/companies/toggle/nope.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/companies", DeleteCompanyRequest{CompanyName: "nope.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClear_NoShards(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/api/companies/clear", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClear_EmptiesOpenShard(t *testing.T) {
	router := newTestRouter()
	createCompany(t, router, "a.com")
	createCompany(t, router, "b.com")

	rec := doJSON(t, router, http.MethodPost, "/api/companies/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := listCompanies(t, router, "")
	assert.Zero(t, resp.Total)
}

// =============================================================================
// LIST FILTERS AND SEARCH
// =============================================================================

func TestList_FilterAndPagination(t *testing.T) {
	router := newTestRouter()
	createCompany(t, router, "acme.io")
	createCompany(t, router, "globex.com")
	createCompany(t, router, "initech.net")

	resp := listCompanies(t, router, "?q=acme")
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "acme.io", resp.Data[0].CompanyName)

	resp = listCompanies(t, router, "?page=2&limit=2")
	assert.Equal(t, 3, resp.Total, "total is pre-pagination")
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "initech.net", resp.Data[0].CompanyName)
}

func TestSearch_CapsAtTen(t *testing.T) {
	router := newTestRouter()
	for _, suffix := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		createCompany(t, router, "match-"+suffix+".com")
	}

	rec := doJSON(t, router, http.MethodGet, "/api/companies/search?q=match", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []CompanyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 10)

	rec = doJSON(t, router, http.MethodGet, "/api/companies/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Empty(t, results)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExport_DownloadHeadersAndContent(t *testing.T) {
	router := newTestRouter()
	createCompany(t, router, "abc.com")

	rec := doJSON(t, router, http.MethodGet, "/api/companies/export?mode=all", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), `"companies_all.xlsx"`),
		"got %q", rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("All_1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "abc.com", rows[1][0])
}

func TestExport_InvalidModeAndRange(t *testing.T) {
	router := newTestRouter()
	createCompany(t, router, "abc.com")

	rec := doJSON(t, router, http.MethodGet, "/api/companies/export?mode=weekly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/companies/export?mode=range&dateFrom=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
