// Package localstore is a sqlite-backed implementation of the destination
// store contract. It backs offline runs (no Airtable credentials needed) and
// gives the sync tests a real store to exercise idempotency against.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/council-votes/internal/store"
)

// DB stores records from every logical table in one sqlite file.
type DB struct {
	conn *sql.DB
}

var _ store.RecordStore = (*DB)(nil)

// Open creates or opens the sqlite database at path, initializing the
// schema on first use.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS records (
  id TEXT PRIMARY KEY,
  table_name TEXT NOT NULL,
  fields TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_records_table ON records(table_name);
`
	if _, err := d.conn.Exec(schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Create inserts a record and returns it with a generated ID.
func (d *DB) Create(ctx context.Context, table string, fields map[string]interface{}) (store.Record, error) {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return store.Record{}, fmt.Errorf("%w: %v", store.ErrInvalidPayload, err)
	}

	id := "rec" + uuid.NewString()
	_, err = d.conn.ExecContext(ctx,
		`INSERT INTO records (id, table_name, fields) VALUES (?, ?, ?)`,
		id, table, string(encoded))
	if err != nil {
		return store.Record{}, fmt.Errorf("inserting record: %w", err)
	}

	return store.Record{ID: id, Fields: fields}, nil
}

// FindByField returns the records in table whose named field equals value.
// Field values are compared by their string rendering, which covers the
// string and numeric identifiers the sync stage looks up.
func (d *DB) FindByField(ctx context.Context, table, field, value string) ([]store.Record, error) {
	all, err := d.List(ctx, table)
	if err != nil {
		return nil, err
	}

	matches := make([]store.Record, 0)
	for _, rec := range all {
		v, ok := rec.Fields[field]
		if !ok {
			continue
		}
		if fmt.Sprint(v) == value {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

// List returns every record in the table in insertion order.
func (d *DB) List(ctx context.Context, table string) ([]store.Record, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, fields FROM records WHERE table_name = ? ORDER BY rowid`, table)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]store.Record, 0)
	for rows.Next() {
		var id, encoded string
		if err := rows.Scan(&id, &encoded); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		fields := make(map[string]interface{})
		if err := json.Unmarshal([]byte(encoded), &fields); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", id, err)
		}
		records = append(records, store.Record{ID: id, Fields: fields})
	}
	return records, rows.Err()
}

// BatchDelete removes the given records, continuing past individual
// failures and reporting the first one.
func (d *DB) BatchDelete(ctx context.Context, table string, ids []string) error {
	var firstErr error
	for _, id := range ids {
		_, err := d.conn.ExecContext(ctx,
			`DELETE FROM records WHERE table_name = ? AND id = ?`, table, id)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("deleting record %s: %w", id, err)
		}
	}
	return firstErr
}
