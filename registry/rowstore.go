/*
rowstore.go - Sharded virtual row store

PURPOSE:
  Presents the backend's set of row-count-limited shards as one logical,
  appendable table of typed Records. Owns the shard-splitting policy and
  the composite (shard, offset) addressing.

DESIGN:
  The backend offers no stable row identity beyond positional offset, and
  deleting a row shifts every offset below it. Every mutating operation
  therefore re-resolves its target against current backend state instead
  of trusting a cached handle. That trades O(n) work per mutation for
  correctness against offset shift; the store holds no cache of any kind
  across calls.

SHARD SPLITTING:
  Only the last-created shard (the "open" shard) receives appends. The
  ceiling counts the shard's physical row budget, header slot included,
  so a shard holds at most MaxRowsPerShard-1 data rows. When an append
  would cross that, a new shard named Sheet<n+1> is created and becomes
  the open shard. The split is forward allocation only: existing rows
  are never migrated.

KNOWN LIMITATION:
  The uniqueness check in Append and the write that follows are not
  atomic. Two concurrent appends of the same companyName can both pass
  the scan before either writes. This TOCTOU window is accepted, not
  detected or retried.

SEE ALSO:
  - backend.go: The primitives this store is built on
  - filter.go: Operates on ListAll output, performs no I/O of its own
*/
package registry

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxRowsPerShard is the storage shard ceiling used when the
// configuration does not override it.
const DefaultMaxRowsPerShard = 50000

// RowStore makes the shard set behave like one appendable table.
type RowStore struct {
	backend Backend
	maxRows int
}

// NewRowStore creates a RowStore over the given backend. maxRows <= 0
// selects DefaultMaxRowsPerShard.
func NewRowStore(b Backend, maxRows int) *RowStore {
	if maxRows <= 0 {
		maxRows = DefaultMaxRowsPerShard
	}
	return &RowStore{backend: b, maxRows: maxRows}
}

// =============================================================================
// READS
// =============================================================================

// ListAll reads every shard in creation order and flattens the result
// into one ordered sequence of addressed rows. Any shard read failure
// aborts the whole read: a partial view would break the uniqueness
// checks layered on top.
func (s *RowStore) ListAll(ctx context.Context) ([]Row, error) {
	shards, err := s.backend.ListShards(ctx)
	if err != nil {
		return nil, backendErr("list shards", "", err)
	}

	var all []Row
	for _, shard := range shards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tuples, err := s.backend.ReadShard(ctx, shard.ID)
		if err != nil {
			return nil, backendErr("read shard", shard.ID, err)
		}
		for i, t := range tuples {
			all = append(all, Row{
				Record: DecodeTuple(t),
				Handle: RowHandle{ShardID: shard.ID, Offset: i},
			})
		}
	}
	return all, nil
}

// FindByName resolves a row by exact companyName match, returning its
// current handle. Returns ErrNotFound when no row matches.
func (s *RowStore) FindByName(ctx context.Context, name string) (Row, error) {
	rows, err := s.ListAll(ctx)
	if err != nil {
		return Row{}, err
	}
	for _, row := range rows {
		if row.Record.CompanyName == name {
			return row, nil
		}
	}
	return Row{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Append writes a new record to the end of the open shard, creating a
// new shard first when the open one is full. Returns the handle the row
// landed at.
//
// The case-insensitive companyName uniqueness check runs against a full
// scan taken before the write; see the TOCTOU note in the file header.
func (s *RowStore) Append(ctx context.Context, rec Record) (RowHandle, error) {
	existing, err := s.ListAll(ctx)
	if err != nil {
		return RowHandle{}, err
	}
	for _, row := range existing {
		if strings.EqualFold(row.Record.CompanyName, rec.CompanyName) {
			return RowHandle{}, fmt.Errorf("%w: %q", ErrDuplicateKey, rec.CompanyName)
		}
	}

	shards, err := s.backend.ListShards(ctx)
	if err != nil {
		return RowHandle{}, backendErr("list shards", "", err)
	}

	var open ShardInfo
	switch {
	case len(shards) == 0:
		id, err := s.backend.CreateShard(ctx, shardTitle(1))
		if err != nil {
			return RowHandle{}, backendErr("create shard", shardTitle(1), err)
		}
		open = ShardInfo{ID: id}
	case shards[len(shards)-1].RowCount+1 >= s.maxRows:
		title := shardTitle(len(shards) + 1)
		id, err := s.backend.CreateShard(ctx, title)
		if err != nil {
			return RowHandle{}, backendErr("create shard", title, err)
		}
		open = ShardInfo{ID: id}
	default:
		open = shards[len(shards)-1]
	}

	if err := s.backend.AppendToShard(ctx, open.ID, []Tuple{EncodeRecord(rec)}); err != nil {
		return RowHandle{}, backendErr("append rows", open.ID, err)
	}
	return RowHandle{ShardID: open.ID, Offset: open.RowCount}, nil
}

// UpdateStatus overwrites the full row at the handle with all original
// fields except Status. The backend primitive is a fixed-width range
// overwrite, not a partial patch, so the row is re-read first.
func (s *RowStore) UpdateStatus(ctx context.Context, h RowHandle, status Status) error {
	tuples, err := s.resolveShard(ctx, h)
	if err != nil {
		return err
	}
	rec := DecodeTuple(tuples[h.Offset])
	rec.Status = status
	if err := s.backend.WriteRange(ctx, h.ShardID, h.Offset, EncodeRecord(rec)); err != nil {
		return backendErr("write row", h.ShardID, err)
	}
	return nil
}

// Delete removes the row at the handle. All rows at higher offsets in
// the same shard shift down by one; handles cached for them are stale.
func (s *RowStore) Delete(ctx context.Context, h RowHandle) error {
	if _, err := s.resolveShard(ctx, h); err != nil {
		return err
	}
	if err := s.backend.DeleteRange(ctx, h.ShardID, h.Offset); err != nil {
		return backendErr("delete row", h.ShardID, err)
	}
	return nil
}

// ClearOpenShard empties the last shard's data rows in place and
// returns its id. Destructive and irreversible; an administrative
// operation, not part of the record lifecycle.
func (s *RowStore) ClearOpenShard(ctx context.Context) (string, error) {
	shards, err := s.backend.ListShards(ctx)
	if err != nil {
		return "", backendErr("list shards", "", err)
	}
	if len(shards) == 0 {
		return "", ErrNoShards
	}
	open := shards[len(shards)-1]
	if err := s.backend.ClearShard(ctx, open.ID); err != nil {
		return "", backendErr("clear shard", open.ID, err)
	}
	return open.ID, nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// resolveShard checks that a handle still points at a live row and
// returns the shard's current tuples. A shard that disappeared or an
// offset past the end both mean the handle is stale: ErrNotFound.
func (s *RowStore) resolveShard(ctx context.Context, h RowHandle) ([]Tuple, error) {
	shards, err := s.backend.ListShards(ctx)
	if err != nil {
		return nil, backendErr("list shards", "", err)
	}
	known := false
	for _, shard := range shards {
		if shard.ID == h.ShardID {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: shard %q", ErrNotFound, h.ShardID)
	}
	tuples, err := s.backend.ReadShard(ctx, h.ShardID)
	if err != nil {
		return nil, backendErr("read shard", h.ShardID, err)
	}
	if h.Offset < 0 || h.Offset >= len(tuples) {
		return nil, fmt.Errorf("%w: row %d of shard %q", ErrNotFound, h.Offset, h.ShardID)
	}
	return tuples, nil
}

func shardTitle(n int) string {
	return fmt.Sprintf("Sheet%d", n)
}
