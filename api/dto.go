/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the registry's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - registry/types.go: The domain model behind them
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/datacheck/company-registry/registry"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CompanyDTO represents one record in API responses.
type CompanyDTO struct {
	CompanyName string              `json:"companyName"`
	ProjectName string              `json:"projectName"`
	Status      string              `json:"status"`
	EmpID       string              `json:"empId"`
	CreatedAt   string              `json:"createdAt"`
	ActiveValue decimal.NullDecimal `json:"activeValue"`
}

// ListResponse is the paginated list payload: one page of data plus the
// pre-pagination total.
type ListResponse struct {
	Data  []CompanyDTO `json:"data"`
	Total int          `json:"total"`
}

// CreateCompanyRequest is the request to register a company.
type CreateCompanyRequest struct {
	CompanyName string              `json:"companyName"`
	ProjectName string              `json:"projectName,omitempty"`
	EmpID       string              `json:"empId"`
	Status      string              `json:"status,omitempty"`
	ActiveValue decimal.NullDecimal `json:"activeValue,omitempty"`
}

// DeleteCompanyRequest addresses a record by its business key.
type DeleteCompanyRequest struct {
	CompanyName string `json:"companyName"`
}

// StatusResponse is the generic mutation acknowledgement.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCompanyDTO(r registry.Record) CompanyDTO {
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.Format(time.RFC3339)
	}
	return CompanyDTO{
		CompanyName: r.CompanyName,
		ProjectName: r.ProjectName,
		Status:      string(r.Status),
		EmpID:       r.EmpID,
		CreatedAt:   created,
		ActiveValue: r.ActiveValue,
	}
}

func toCompanyDTOs(rows []registry.Row) []CompanyDTO {
	dtos := make([]CompanyDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toCompanyDTO(row.Record)
	}
	return dtos
}
