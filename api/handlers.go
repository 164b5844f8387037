/*
handlers.go - HTTP API handlers for the company registry

PURPOSE:
  Exposes the sharded row store via REST. Handles HTTP request/response
  and JSON serialization, delegating all storage and filtering semantics
  to the registry package.

ENDPOINTS:
  GET    /api/companies/list                  List with filters + pagination
  GET    /api/companies/search                Name autocomplete (max 10)
  POST   /api/companies                       Create
  POST   /api/companies/toggle/{companyName}  One-way Active -> Inactive
  DELETE /api/companies                       Delete by companyName
  POST   /api/companies/clear                 Empty the open shard
  GET    /api/companies/export                Download XLSX

ERROR HANDLING:
  Errors are returned as JSON with the status the registry taxonomy maps
  to:
  - 400: Bad input, invalid export range
  - 404: Company or shard not found
  - 409: Duplicate companyName, already-inactive toggle
  - 500: Backend failures

IDENTITY:
  The submitting operator's empId travels in the request body. Nothing
  here holds operator state between requests.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - registry/: All domain semantics
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/datacheck/company-registry/registry"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *registry.RowStore
	Exporter *registry.Exporter

	// Location is the zone creation timestamps are stamped in.
	Location *time.Location

	// now is swappable for tests.
	now func() time.Time
}

// NewHandler creates a handler over the given store and exporter.
func NewHandler(store *registry.RowStore, exporter *registry.Exporter, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Store:    store,
		Exporter: exporter,
		Location: loc,
		now:      time.Now,
	}
}

// =============================================================================
// LIST + SEARCH
// =============================================================================

// ListCompanies returns a filtered, paginated page of records.
// GET /api/companies/list?status&project&q&dateFrom&dateTo&zero&page&limit
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := h.Store.ListAll(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list companies", err)
		return
	}

	pageRows, total := registry.Paginate(f.Apply(rows), page, limit)
	writeJSON(w, http.StatusOK, ListResponse{Data: toCompanyDTOs(pageRows), Total: total})
}

// SearchCompanies returns up to 10 case-insensitive name matches, used
// by the form for autocomplete and duplicate hints.
// GET /api/companies/search?q=
func (h *Handler) SearchCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, []CompanyDTO{})
		return
	}

	rows, err := h.Store.ListAll(r.Context())
	if err != nil {
		h.writeDomainError(w, "Search failed", err)
		return
	}

	matches := registry.Filter{Query: q}.Apply(rows)
	if len(matches) > 10 {
		matches = matches[:10]
	}
	writeJSON(w, http.StatusOK, toCompanyDTOs(matches))
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateCompany appends a new record.
// POST /api/companies
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyName == "" || req.EmpID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: companyName, empId", nil)
		return
	}

	status := registry.StatusActive
	if req.Status != "" {
		parsed, ok := registry.ParseStatus(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status %q", req.Status), nil)
			return
		}
		status = parsed
	}

	rec := registry.Record{
		CompanyName: req.CompanyName,
		ProjectName: req.ProjectName,
		EmpID:       req.EmpID,
		Status:      status,
		CreatedAt:   h.now().In(h.Location),
		ActiveValue: req.ActiveValue,
	}

	handle, err := h.Store.Append(r.Context(), rec)
	if err != nil {
		h.writeDomainError(w, "Failed to create company", err)
		return
	}

	writeJSON(w, http.StatusCreated, StatusResponse{
		Success: true,
		Message: fmt.Sprintf("Rows appended to %s", handle.ShardID),
	})
}

// ToggleCompany deactivates a record. One-way: an Inactive record stays
// Inactive, and a second toggle is a 409, not a no-op.
// POST /api/companies/toggle/{companyName}
func (h *Handler) ToggleCompany(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "companyName")

	row, err := h.Store.FindByName(r.Context(), name)
	if err != nil {
		h.writeDomainError(w, "Failed to toggle company", err)
		return
	}
	if row.Record.Status == registry.StatusInactive {
		writeError(w, http.StatusConflict, "Already inactive", registry.ErrAlreadyTerminal)
		return
	}

	if err := h.Store.UpdateStatus(r.Context(), row.Handle, registry.StatusInactive); err != nil {
		h.writeDomainError(w, "Failed to toggle company", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Status changed to inactive"})
}

// DeleteCompany removes a record by its business key.
// DELETE /api/companies
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	var req DeleteCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "Missing companyName", nil)
		return
	}

	row, err := h.Store.FindByName(r.Context(), req.CompanyName)
	if err != nil {
		h.writeDomainError(w, "Failed to delete company", err)
		return
	}
	if err := h.Store.Delete(r.Context(), row.Handle); err != nil {
		h.writeDomainError(w, "Failed to delete company", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: fmt.Sprintf("%q deleted", req.CompanyName),
	})
}

// ClearShard empties the open shard's data rows in place. Destructive,
// administrative.
// POST /api/companies/clear
func (h *Handler) ClearShard(w http.ResponseWriter, r *http.Request) {
	shardID, err := h.Store.ClearOpenShard(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to clear shard", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: fmt.Sprintf("Sheet %q cleared", shardID),
	})
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportCompanies streams the filtered record set as an XLSX workbook.
// GET /api/companies/export?mode&status&project&q&dateFrom&dateTo&zero
func (h *Handler) ExportCompanies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode, ok := registry.ParseExportMode(query.Get("mode"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid export mode %q", query.Get("mode")), nil)
		return
	}
	dateFrom, dateTo := query.Get("dateFrom"), query.Get("dateTo")

	rows, err := h.Store.ListAll(r.Context())
	if err != nil {
		h.writeDomainError(w, "Export failed", err)
		return
	}
	filtered := registry.Records(filterFromQuery(r).Apply(rows))

	// Assemble the whole workbook before the first byte goes out, so a
	// failed export never delivers a partial file.
	var buf bytes.Buffer
	if err := h.Exporter.Export(&buf, filtered, mode, dateFrom, dateTo); err != nil {
		h.writeDomainError(w, "Export failed", err)
		return
	}

	filename := h.Exporter.Filename(mode, dateFrom, dateTo)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}

// =============================================================================
// HELPERS
// =============================================================================

func filterFromQuery(r *http.Request) registry.Filter {
	q := r.URL.Query()
	zero := q.Get("zero")
	return registry.Filter{
		Status:   q.Get("status"),
		Project:  q.Get("project"),
		Query:    q.Get("q"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		ZeroOnly: zero == "1" || strings.EqualFold(zero, "true"),
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case registry.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case registry.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, registry.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
