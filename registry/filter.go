/*
filter.go - Query/Filter Engine

PURPOSE:
  Turns ListAll output into a page of Records matching a predicate.
  Pure functions over materialized rows; this engine performs no I/O.

PREDICATES (all optional, ANDed):
  status    case-insensitive equality
  project   exact equality
  query     case-insensitive substring over companyName
  dateFrom  inclusive lower bound on the YYYY-MM-DD date key
  dateTo    inclusive upper bound on the YYYY-MM-DD date key
  zeroOnly  Active records whose activeValue is exactly 0

  A record with no date never matches once either date bound is set.
  Date bounds compare lexicographically: YYYY-MM-DD orders the same way
  as the dates themselves.

ORDERING:
  No sort is applied. Results keep the scan order (shard creation order,
  then in-shard order), which is append order only while nothing has
  been deleted.

SEE ALSO:
  - rowstore.go: Produces the rows this engine consumes
  - export.go: Reuses Filter for export mode pre-filtering
*/
package registry

import "strings"

// =============================================================================
// FILTER
// =============================================================================

// Filter is the conjunction of the optional list/export predicates.
// Zero values mean "no constraint".
type Filter struct {
	Status   string
	Project  string
	Query    string
	DateFrom string
	DateTo   string
	// ZeroOnly selects Active records with activeValue == 0. Applied as a
	// first-class predicate, not a client-side afterthought.
	ZeroOnly bool
}

// Matches reports whether a single record satisfies every set predicate.
func (f Filter) Matches(r Record) bool {
	if f.Status != "" && !r.Status.Is(f.Status) {
		return false
	}
	if f.Project != "" && r.ProjectName != f.Project {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(r.CompanyName), strings.ToLower(f.Query)) {
		return false
	}
	if f.DateFrom != "" || f.DateTo != "" {
		d := r.DateKey()
		if d == "" {
			return false
		}
		if f.DateFrom != "" && d < f.DateFrom {
			return false
		}
		if f.DateTo != "" && d > f.DateTo {
			return false
		}
	}
	if f.ZeroOnly {
		if r.Status != StatusActive {
			return false
		}
		if !r.ActiveValue.Valid || !r.ActiveValue.Decimal.IsZero() {
			return false
		}
	}
	return true
}

// Apply returns the rows matching the filter, in scan order.
func (f Filter) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if f.Matches(row.Record) {
			out = append(out, row)
		}
	}
	return out
}

// =============================================================================
// PAGINATION
// =============================================================================

const (
	// DefaultPageLimit is used when the caller supplies no limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps a single page; larger requests are clamped.
	MaxPageLimit = 500
)

// Paginate slices the window [(page-1)*limit, page*limit) out of rows
// and returns it together with the pre-slice total. page clamps to >= 1
// and limit to 1..MaxPageLimit (0 selects DefaultPageLimit).
func Paginate(rows []Row, page, limit int) ([]Row, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	total := len(rows)
	start := (page - 1) * limit
	if start >= total {
		return []Row{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return rows[start:end], total
}

// Records strips the handles off a row slice. Used where only the
// decoded records matter (export, search responses).
func Records(rows []Row) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = row.Record
	}
	return out
}
