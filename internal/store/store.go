// Package store provides SQLite-backed persistence for the vector-store and
// key-value boundaries the core consumes (pkg/collection, pkg/kvstore),
// adapted from the teacher's internal/store.SQLiteStore (temporal-versioning
// CRUD-over-database/sql pattern, ncruces/go-sqlite3 driver,
// asg017/sqlite-vec-go-bindings blank import for the vec0 extension). Unlike
// the teacher, which hard-codes one table per document kind, this store is
// schema-generic: any number of logical collections (a user's private
// collection, the unified public space, one collection per group) share the
// same "objects" table, partitioned by a collection name column, because
// pkg/collection.Collection is instantiated once per logical collection
// rather than once per document kind (spec.md §6, §9 "two implementations
// behind one interface").
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// embeddingDims is the width of the placeholder embedding vec0 stores.
// Real embedding generation is explicitly out of scope (spec.md §1); see
// embed.go for what backs NearText/NearVector instead.
const embeddingDims = 32

// schema mirrors the teacher's "CREATE TABLE IF NOT EXISTS" block style:
// one statement per table, indexes declared immediately after their table.
const schema = `
CREATE TABLE IF NOT EXISTS objects (
    rowid_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    collection  TEXT NOT NULL,
    id          TEXT NOT NULL,
    content     TEXT NOT NULL DEFAULT '',
    properties  TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    UNIQUE(collection, id)
);

CREATE INDEX IF NOT EXISTS idx_objects_collection ON objects(collection);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_objects USING vec0(
    embedding float[32]
);

CREATE TABLE IF NOT EXISTS kv_documents (
    path TEXT NOT NULL,
    id   TEXT NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (path, id)
);
`

// DB is the SQLite-backed handle both the Collection and KVDocStore adapters
// share. Thread-safe for concurrent use by multiple goroutines, matching the
// teacher's SQLiteStore's mu sync.RWMutex around every statement.
type DB struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open creates or attaches to a SQLite database at dsn (":memory:" for an
// in-process instance, or a file path for persistent storage) and applies
// schema.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Collection returns a pkg/collection.Collection backed by name, a logical
// partition of the shared objects/vec_objects tables.
func (d *DB) Collection(name string) *Coll {
	return &Coll{db: d, name: name}
}

// KV returns a pkg/kvstore.KVDocStore backed by the shared kv_documents
// table.
func (d *DB) KV() *KV {
	return &KV{db: d}
}
