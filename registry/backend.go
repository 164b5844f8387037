/*
backend.go - Storage backend adapter contract

PURPOSE:
  Defines the seven primitive shard operations every storage technology
  must provide. The RowStore is written exclusively against this
  interface; swapping Google Sheets for SQLite or a CSV directory is a
  configuration change, not a code change.

CONTRACT NOTES:
  - ReadShard returns DATA rows only. Backends that physically store a
    header row (spreadsheet tabs, CSV files) write it themselves on
    CreateShard and strip it on read. Offsets everywhere in this package
    are therefore 0-based data offsets.
  - ListShards returns shards in creation order. The last shard is the
    only one eligible for appends (the "open" shard).
  - WriteRange and DeleteRange are treated as atomic primitives: either
    the row is fully rewritten/removed or the call fails with the shard
    unchanged.
  - DeleteRange shifts every subsequent row in the shard up by one. Any
    cached RowHandle past the deleted offset is stale afterwards.

IMPLEMENTATIONS:
  - backend/memory:  in-memory, tests and dev
  - backend/sqlite:  embedded SQL warehouse
  - backend/csvfile: one CSV file per shard in a directory
  - backend/gsheets: Google Sheets, one tab per shard

SEE ALSO:
  - rowstore.go: The only consumer of this interface
  - types.go: Tuple codec used at this boundary
*/
package registry

import "context"

// Backend is the set of primitive shard operations a storage technology
// must provide.
type Backend interface {
	// ListShards returns all shards in creation order with their current
	// data row counts.
	ListShards(ctx context.Context) ([]ShardInfo, error)

	// ReadShard returns the data rows of one shard in order.
	ReadShard(ctx context.Context, id string) ([]Tuple, error)

	// AppendToShard appends rows to the end of one shard.
	AppendToShard(ctx context.Context, id string, rows []Tuple) error

	// WriteRange overwrites the full row at the given data offset.
	WriteRange(ctx context.Context, id string, offset int, row Tuple) error

	// DeleteRange removes the row at the given data offset, shifting
	// subsequent rows up by one.
	DeleteRange(ctx context.Context, id string, offset int) error

	// CreateShard creates a new, empty shard with the given title and
	// returns its id. The new shard becomes the last in creation order.
	CreateShard(ctx context.Context, title string) (string, error)

	// ClearShard removes all data rows from one shard in place. The shard
	// keeps existing and remains appendable.
	ClearShard(ctx context.Context, id string) error
}
