/*
Package memory provides an in-memory registry.Backend.

PURPOSE:
  The test and development backend. Shards are plain slices behind a
  mutex; no header rows exist, so logical data offsets map 1:1 onto
  slice indexes.

Semantics match the remote backends: DeleteRange shifts subsequent
rows up by one, ClearShard empties in place, and creation order is
preserved for ListShards.

SEE ALSO:
  - registry/backend.go: The contract this implements
  - backend/sqlite, backend/csvfile, backend/gsheets: Production backends
*/
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/datacheck/company-registry/registry"
)

// Backend is a mutex-guarded, in-memory shard set.
type Backend struct {
	mu     sync.RWMutex
	order  []string
	shards map[string][]registry.Tuple
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{shards: make(map[string][]registry.Tuple)}
}

func (b *Backend) ListShards(_ context.Context) ([]registry.ShardInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]registry.ShardInfo, len(b.order))
	for i, id := range b.order {
		infos[i] = registry.ShardInfo{ID: id, RowCount: len(b.shards[id])}
	}
	return infos, nil
}

func (b *Backend) ReadShard(_ context.Context, id string) ([]registry.Tuple, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, ok := b.shards[id]
	if !ok {
		return nil, fmt.Errorf("unknown shard %q", id)
	}
	out := make([]registry.Tuple, len(rows))
	copy(out, rows)
	return out, nil
}

func (b *Backend) AppendToShard(_ context.Context, id string, rows []registry.Tuple) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.shards[id]; !ok {
		return fmt.Errorf("unknown shard %q", id)
	}
	b.shards[id] = append(b.shards[id], rows...)
	return nil
}

func (b *Backend) WriteRange(_ context.Context, id string, offset int, row registry.Tuple) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, ok := b.shards[id]
	if !ok {
		return fmt.Errorf("unknown shard %q", id)
	}
	if offset < 0 || offset >= len(rows) {
		return fmt.Errorf("offset %d out of range for shard %q", offset, id)
	}
	rows[offset] = row
	return nil
}

func (b *Backend) DeleteRange(_ context.Context, id string, offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, ok := b.shards[id]
	if !ok {
		return fmt.Errorf("unknown shard %q", id)
	}
	if offset < 0 || offset >= len(rows) {
		return fmt.Errorf("offset %d out of range for shard %q", offset, id)
	}
	b.shards[id] = append(rows[:offset], rows[offset+1:]...)
	return nil
}

func (b *Backend) CreateShard(_ context.Context, title string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.shards[title]; ok {
		return "", fmt.Errorf("shard %q already exists", title)
	}
	b.shards[title] = nil
	b.order = append(b.order, title)
	return title, nil
}

func (b *Backend) ClearShard(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.shards[id]; !ok {
		return fmt.Errorf("unknown shard %q", id)
	}
	b.shards[id] = nil
	return nil
}
