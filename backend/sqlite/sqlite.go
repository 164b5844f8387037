/*
Package sqlite provides a SQL-warehouse registry.Backend.

PURPOSE:
  Stores shards as positioned rows in an embedded SQLite database. This
  is the "columnar warehouse" flavor of the storage contract: the same
  SQL patterns carry to a hosted warehouse, only the dialect differs.

SCHEMA:
  shards:     one row per shard, AUTOINCREMENT seq preserves creation order
  shard_rows: (shard_seq, pos) positioned data rows, one column per field

  There is no physical header row; pos is the logical data offset
  directly.

DELETE SEMANTICS:
  DeleteRange removes one row and shifts every higher pos down by one
  inside a single SQL transaction, so the positional addressing the
  RowStore depends on never observes a gap.

WAL MODE:
  Opened with WAL and foreign keys on, same as the rest of our SQLite
  usage: readers don't block, single writer, better crash recovery.

USAGE:
  b, err := sqlite.New("./data/registry.db")   // ":memory:" for tests
  defer b.Close()
  store := registry.NewRowStore(b, 50000)

SEE ALSO:
  - registry/backend.go: Interface definition
  - backend/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/datacheck/company-registry/registry"
)

// Backend implements registry.Backend on SQLite.
type Backend struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Backend, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return b, nil
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shards (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shard_rows (
		shard_seq    INTEGER NOT NULL REFERENCES shards(seq),
		pos          INTEGER NOT NULL,
		company_name TEXT NOT NULL DEFAULT '',
		project_name TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL DEFAULT '',
		emp_id       TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL DEFAULT '',
		active_value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (shard_seq, pos)
	);

	CREATE INDEX IF NOT EXISTS idx_shard_rows_company
		ON shard_rows(company_name);
	`
	_, err := b.db.Exec(schema)
	return err
}

// =============================================================================
// BACKEND PRIMITIVES
// =============================================================================

func (b *Backend) ListShards(ctx context.Context) ([]registry.ShardInfo, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT s.title, COUNT(r.pos)
		FROM shards s
		LEFT JOIN shard_rows r ON r.shard_seq = s.seq
		GROUP BY s.seq
		ORDER BY s.seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []registry.ShardInfo
	for rows.Next() {
		var info registry.ShardInfo
		if err := rows.Scan(&info.ID, &info.RowCount); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (b *Backend) ReadShard(ctx context.Context, id string) ([]registry.Tuple, error) {
	seq, err := b.seqFor(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT company_name, project_name, status, emp_id, created_at, active_value
		FROM shard_rows WHERE shard_seq = ? ORDER BY pos`, seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tuples []registry.Tuple
	for rows.Next() {
		t := make(registry.Tuple, 6)
		if err := rows.Scan(&t[0], &t[1], &t[2], &t[3], &t[4], &t[5]); err != nil {
			return nil, err
		}
		tuples = append(tuples, t)
	}
	return tuples, rows.Err()
}

func (b *Backend) AppendToShard(ctx context.Context, id string, rows []registry.Tuple) error {
	seq, err := b.seqFor(ctx, id)
	if err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(pos) + 1, 0) FROM shard_rows WHERE shard_seq = ?`, seq,
	).Scan(&next); err != nil {
		return err
	}

	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shard_rows
				(shard_seq, pos, company_name, project_name, status, emp_id, created_at, active_value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			seq, next+i, cell(row, 0), cell(row, 1), cell(row, 2), cell(row, 3), cell(row, 4), cell(row, 5),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (b *Backend) WriteRange(ctx context.Context, id string, offset int, row registry.Tuple) error {
	seq, err := b.seqFor(ctx, id)
	if err != nil {
		return err
	}

	res, err := b.db.ExecContext(ctx, `
		UPDATE shard_rows
		SET company_name = ?, project_name = ?, status = ?, emp_id = ?, created_at = ?, active_value = ?
		WHERE shard_seq = ? AND pos = ?`,
		cell(row, 0), cell(row, 1), cell(row, 2), cell(row, 3), cell(row, 4), cell(row, 5),
		seq, offset)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no row at pos %d in shard %q", offset, id)
	}
	return nil
}

func (b *Backend) DeleteRange(ctx context.Context, id string, offset int) error {
	seq, err := b.seqFor(ctx, id)
	if err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM shard_rows WHERE shard_seq = ? AND pos = ?`, seq, offset)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no row at pos %d in shard %q", offset, id)
	}

	// Shift in two steps via negated positions so the (shard_seq, pos)
	// primary key stays unique mid-update.
	if _, err := tx.ExecContext(ctx,
		`UPDATE shard_rows SET pos = -(pos - 1) WHERE shard_seq = ? AND pos > ?`, seq, offset); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE shard_rows SET pos = -pos WHERE shard_seq = ? AND pos < 0`, seq); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *Backend) CreateShard(ctx context.Context, title string) (string, error) {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO shards (title, created_at) VALUES (?, ?)`,
		title, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return title, nil
}

func (b *Backend) ClearShard(ctx context.Context, id string) error {
	seq, err := b.seqFor(ctx, id)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `DELETE FROM shard_rows WHERE shard_seq = ?`, seq)
	return err
}

// =============================================================================
// INTERNAL
// =============================================================================

func (b *Backend) seqFor(ctx context.Context, id string) (int64, error) {
	var seq int64
	err := b.db.QueryRowContext(ctx, `SELECT seq FROM shards WHERE title = ?`, id).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("unknown shard %q", id)
	}
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func cell(t registry.Tuple, i int) string {
	if i < len(t) {
		return t[i]
	}
	return ""
}
