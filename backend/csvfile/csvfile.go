/*
Package csvfile provides a flat-file registry.Backend.

PURPOSE:
  Stores each shard as one CSV file in a directory: a header line
  followed by data rows in the fixed column order. This is the
  file-store flavor of the storage contract, mutating by
  read-modify-rewrite exactly like a remote file host would.

NAMING & ORDER:
  A shard titled "Sheet3" lives at <dir>/Sheet3.csv. Creation order is
  recovered from the numeric suffix of the standard Sheet<n> titles;
  files without one sort lexicographically after them.

ATOMICITY:
  Rewrites go through a temp file plus rename, so a crashed mutation
  leaves the previous shard contents intact rather than a torn file.

SEE ALSO:
  - registry/backend.go: Interface definition
*/
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/datacheck/company-registry/registry"
)

// Backend implements registry.Backend over a directory of CSV files.
type Backend struct {
	dir string
	mu  sync.Mutex
}

// New creates the backend, making the directory if needed.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create shard directory: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) ListShards(ctx context.Context) ([]registry.ShardInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids, err := b.shardIDs()
	if err != nil {
		return nil, err
	}

	infos := make([]registry.ShardInfo, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := b.readAll(id)
		if err != nil {
			return nil, err
		}
		infos = append(infos, registry.ShardInfo{ID: id, RowCount: len(rows)})
	}
	return infos, nil
}

func (b *Backend) ReadShard(_ context.Context, id string) ([]registry.Tuple, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readAll(id)
}

func (b *Backend) AppendToShard(_ context.Context, id string, rows []registry.Tuple) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.readAll(id)
	if err != nil {
		return err
	}
	return b.writeAll(id, append(existing, rows...))
}

func (b *Backend) WriteRange(_ context.Context, id string, offset int, row registry.Tuple) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.readAll(id)
	if err != nil {
		return err
	}
	if offset < 0 || offset >= len(rows) {
		return fmt.Errorf("offset %d out of range for shard %q", offset, id)
	}
	rows[offset] = row
	return b.writeAll(id, rows)
}

func (b *Backend) DeleteRange(_ context.Context, id string, offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.readAll(id)
	if err != nil {
		return err
	}
	if offset < 0 || offset >= len(rows) {
		return fmt.Errorf("offset %d out of range for shard %q", offset, id)
	}
	return b.writeAll(id, append(rows[:offset], rows[offset+1:]...))
}

func (b *Backend) CreateShard(_ context.Context, title string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(b.path(title)); err == nil {
		return "", fmt.Errorf("shard %q already exists", title)
	}
	if err := b.writeAll(title, nil); err != nil {
		return "", err
	}
	return title, nil
}

func (b *Backend) ClearShard(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(b.path(id)); err != nil {
		return fmt.Errorf("unknown shard %q", id)
	}
	return b.writeAll(id, nil)
}

// =============================================================================
// FILE I/O
// =============================================================================

func (b *Backend) path(id string) string {
	return filepath.Join(b.dir, id+".csv")
}

// readAll returns the data rows of one shard, header line stripped.
func (b *Backend) readAll(id string) ([]registry.Tuple, error) {
	f, err := os.Open(b.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("unknown shard %q", id)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read shard %q: %w", id, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	tuples := make([]registry.Tuple, len(records)-1)
	for i, rec := range records[1:] {
		tuples[i] = registry.Tuple(rec)
	}
	return tuples, nil
}

// writeAll rewrites one shard file (header plus rows) via temp + rename.
func (b *Backend) writeAll(id string, rows []registry.Tuple) error {
	tmp, err := os.CreateTemp(b.dir, id+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(registry.Header); err != nil {
		tmp.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(id))
}

// shardIDs lists shard titles in creation order.
func (b *Backend) shardIDs() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, iok := trailingNumber(ids[i])
		nj, jok := trailingNumber(ids[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok:
			return true
		case jok:
			return false
		}
		return ids[i] < ids[j]
	})
	return ids, nil
}

func trailingNumber(s string) (int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}
