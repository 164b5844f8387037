/*
types.go - Core domain types for the company registry

PURPOSE:
  Defines the typed Record that flows through the system, the composite
  RowHandle used to address one row inside one shard, and the tuple codec
  that converts between Records and the positional row tuples the storage
  backends actually speak.

ROW LAYOUT (fixed column order, shared by every backend):
  0: companyName   unique business key (scan-enforced, not backend-enforced)
  1: projectName   optional classification label
  2: status        Active | Inactive
  3: empId         submitting operator, free-form
  4: createdAt     RFC3339, immutable after creation
  5: activeValue   optional exact numeric

TUPLE BOUNDARY:
  Tuples exist only between the RowStore and a Backend. DecodeTuple is
  tolerant of short tuples (trailing empty columns may be dropped by
  spreadsheet backends); EncodeRecord always emits all six columns.

SEE ALSO:
  - backend.go: Backend interface consuming these tuples
  - rowstore.go: The only caller of the codec
*/
package registry

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle state of a company record.
// The transition is strictly one-way: Active -> Inactive. There is no
// programmatic path back to Active.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// ParseStatus normalizes a status string case-insensitively.
// Returns false for anything that is not Active or Inactive.
func ParseStatus(s string) (Status, bool) {
	switch {
	case strings.EqualFold(s, string(StatusActive)):
		return StatusActive, true
	case strings.EqualFold(s, string(StatusInactive)):
		return StatusInactive, true
	}
	return "", false
}

// Is reports whether s matches other, case-insensitively.
func (s Status) Is(other string) bool {
	return strings.EqualFold(string(s), other)
}

// =============================================================================
// RECORD
// =============================================================================

// Record is the logical entity a user manipulates.
type Record struct {
	// CompanyName is the unique business key within the whole table.
	CompanyName string
	// ProjectName is an optional classification label.
	ProjectName string
	// EmpID identifies the submitting operator. Not unique, not authenticated.
	EmpID string
	// Status is mutable, Active -> Inactive only.
	Status Status
	// CreatedAt is set once at creation. Zero means the stored row carried
	// no parseable date.
	CreatedAt time.Time
	// ActiveValue is an auxiliary numeric attribute, optional.
	ActiveValue decimal.NullDecimal
}

// DateKey returns the YYYY-MM-DD portion of CreatedAt in the record's own
// zone, or "" when the record has no date. Date filtering and date-wise
// export both key on this.
func (r Record) DateKey() string {
	if r.CreatedAt.IsZero() {
		return ""
	}
	return r.CreatedAt.Format("2006-01-02")
}

// =============================================================================
// ADDRESSING
// =============================================================================

// RowHandle is the composite address of one Record: which shard, and the
// 0-based data offset within it. It is the only primary key the backends
// offer. A delete above the offset shifts it; stale handles must be
// re-resolved by scanning.
type RowHandle struct {
	ShardID string
	Offset  int
}

// Row pairs a decoded Record with its current address.
type Row struct {
	Record Record
	Handle RowHandle
}

// ShardInfo describes one shard as reported by a backend.
// RowCount counts data rows only; header rows are backend-internal.
type ShardInfo struct {
	ID       string
	RowCount int
}

// =============================================================================
// TUPLE CODEC
// =============================================================================

// Tuple is one raw backend row in the fixed column order above.
type Tuple []string

// Header is the column header emitted by backends that physically store
// a header row (spreadsheet, CSV).
var Header = Tuple{"companyName", "projectName", "status", "empId", "createdAt", "activeValue"}

// EncodeRecord converts a Record to its wire tuple.
func EncodeRecord(r Record) Tuple {
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.Format(time.RFC3339)
	}
	active := ""
	if r.ActiveValue.Valid {
		active = r.ActiveValue.Decimal.String()
	}
	return Tuple{r.CompanyName, r.ProjectName, string(r.Status), r.EmpID, created, active}
}

// DecodeTuple converts a raw backend tuple to a Record. Missing or
// malformed columns decode to zero values rather than failing the whole
// scan; the backends are eventually consistent spreadsheets, not schemas.
func DecodeTuple(t Tuple) Record {
	r := Record{
		CompanyName: col(t, 0),
		ProjectName: col(t, 1),
		EmpID:       col(t, 3),
	}
	if status, ok := ParseStatus(col(t, 2)); ok {
		r.Status = status
	} else {
		r.Status = Status(col(t, 2))
	}
	if raw := col(t, 4); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			r.CreatedAt = ts
		}
	}
	if raw := col(t, 5); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			r.ActiveValue = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	return r
}

func col(t Tuple, i int) string {
	if i < len(t) {
		return t[i]
	}
	return ""
}
