/*
errors.go - Centralized error types for the registry core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these to status codes; nothing in the core ever
  swallows a backend failure.

ERROR CATEGORIES:
  1. Backend errors    - Any shard read/write failure (5xx)
  2. Conflict errors   - Duplicate key, already-terminal toggle (409)
  3. Resolution errors - Stale or unknown row handles (404)
  4. Input errors      - Malformed export ranges (400)

USAGE:
  if errors.Is(err, registry.ErrDuplicateKey) { ... }

SEE ALSO:
  - rowstore.go: Produces most of these
  - api/handlers.go: Maps them to HTTP status codes
*/
package registry

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBackendUnavailable is returned when any shard read or write fails.
	// A failed shard read aborts the whole scan: partial views are unsafe
	// for the uniqueness checks built on top of them.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrDuplicateKey is returned when a create collides with an existing
	// companyName (case-insensitive).
	ErrDuplicateKey = errors.New("company already exists")

	// ErrNotFound is returned when a row handle or company name no longer
	// resolves, e.g. after a delete shifted the offsets beneath it.
	ErrNotFound = errors.New("company not found")

	// ErrAlreadyTerminal is returned when a toggle targets a record that is
	// already Inactive. Deactivation is one-way.
	ErrAlreadyTerminal = errors.New("company already inactive")

	// ErrInvalidRange is returned when a range export is requested without
	// both bounds.
	ErrInvalidRange = errors.New("range export requires dateFrom and dateTo")

	// ErrNoShards is returned when an operation needs an open shard and the
	// backend has none (e.g. clearing an empty spreadsheet).
	ErrNoShards = errors.New("no shards found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BackendError wraps a backend failure with the operation and shard that
// produced it.
type BackendError struct {
	Op      string // e.g. "read shard", "append rows"
	ShardID string // empty for shard-list level failures
	Err     error
}

func (e *BackendError) Error() string {
	if e.ShardID == "" {
		return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend: %s %q: %v", e.Op, e.ShardID, e.Err)
}

func (e *BackendError) Unwrap() error {
	return ErrBackendUnavailable
}

func backendErr(op, shardID string, err error) error {
	return &BackendError{Op: op, ShardID: shardID, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict reports whether the error is a state conflict (409).
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrAlreadyTerminal)
}

// IsNotFound reports whether the error indicates a missing row or shard (404).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoShards)
}

// IsClientError reports whether the error is user-correctable (4xx).
func IsClientError(err error) bool {
	return IsConflict(err) || IsNotFound(err) || errors.Is(err, ErrInvalidRange)
}
