package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/kvstore"
)

// KV is a SQLite-backed KVDocStore, storing each document as a JSON blob
// keyed by (path, id) without a fixed schema per document kind — ghost
// configs, escalation records, and confirmation tokens all share this one
// table (pkg/kvstore doc comment). CompareAndSetStatus uses sqlite's json1
// functions (json_extract, json_set); merges and QueryDocuments filters are
// applied in Go on the decoded document.
type KV struct {
	db *DB
}

func (k *KV) GetDocument(_ context.Context, path, id string) (*kvstore.Document, error) {
	k.db.mu.RLock()
	defer k.db.mu.RUnlock()

	var raw string
	err := k.db.db.QueryRow(`SELECT data FROM kv_documents WHERE path = ? AND id = ?`, path, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	data, err := unmarshalDoc(raw)
	if err != nil {
		return nil, err
	}
	return &kvstore.Document{ID: id, Data: data}, nil
}

func (k *KV) SetDocument(_ context.Context, path, id string, data map[string]any, opts kvstore.SetOptions) error {
	k.db.mu.Lock()
	defer k.db.mu.Unlock()

	merged := data
	if opts.Merge {
		var raw string
		err := k.db.db.QueryRow(`SELECT data FROM kv_documents WHERE path = ? AND id = ?`, path, id).Scan(&raw)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("store: set document: %w", err)
		}
		existing := map[string]any{}
		if err == nil {
			existing, err = unmarshalDoc(raw)
			if err != nil {
				return err
			}
		}
		for key, v := range data {
			existing[key] = v
		}
		merged = existing
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("store: marshal document: %w", err)
	}
	if _, err := k.db.db.Exec(`
		INSERT INTO kv_documents (path, id, data) VALUES (?, ?, ?)
		ON CONFLICT(path, id) DO UPDATE SET data = excluded.data
	`, path, id, string(payload)); err != nil {
		return fmt.Errorf("store: set document: %w", err)
	}
	return nil
}

func (k *KV) AddDocument(_ context.Context, path string, data map[string]any) (string, error) {
	k.db.mu.Lock()
	defer k.db.mu.Unlock()

	id := ids.New()
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("store: marshal document: %w", err)
	}
	if _, err := k.db.db.Exec(`INSERT INTO kv_documents (path, id, data) VALUES (?, ?, ?)`, path, id, string(payload)); err != nil {
		return "", fmt.Errorf("store: add document: %w", err)
	}
	return id, nil
}

func (k *KV) DeleteDocument(_ context.Context, path, id string) error {
	k.db.mu.Lock()
	defer k.db.mu.Unlock()

	if _, err := k.db.db.Exec(`DELETE FROM kv_documents WHERE path = ? AND id = ?`, path, id); err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	return nil
}

func (k *KV) QueryDocuments(_ context.Context, path string, opts kvstore.QueryOptions) ([]kvstore.Document, error) {
	k.db.mu.RLock()
	defer k.db.mu.RUnlock()

	rows, err := k.db.db.Query(`SELECT id, data FROM kv_documents WHERE path = ? ORDER BY id`, path)
	if err != nil {
		return nil, fmt.Errorf("store: query documents: %w", err)
	}
	defer rows.Close()

	var out []kvstore.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("store: scan document: %w", err)
		}
		data, err := unmarshalDoc(raw)
		if err != nil {
			return nil, err
		}
		if matchesAll(data, opts.Where) {
			out = append(out, kvstore.Document{ID: id, Data: data})
			if opts.Limit > 0 && len(out) >= opts.Limit {
				break
			}
		}
	}
	return out, rows.Err()
}

// CompareAndSetStatus realizes the CAS kvstore.KVDocStore documents as a
// single UPDATE ... WHERE json_extract(data,'$.status') = ?, the SQL
// equivalent of the interface doc comment's example — the database's own
// row lock makes the read-compare-write atomic, rather than needing an
// application-level transaction.
func (k *KV) CompareAndSetStatus(_ context.Context, path, id, expectStatus, newStatus string, extra map[string]any) (bool, error) {
	k.db.mu.Lock()
	defer k.db.mu.Unlock()

	var raw string
	err := k.db.db.QueryRow(`SELECT data FROM kv_documents WHERE path = ? AND id = ?`, path, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("store: compare-and-set: document %s/%s not found", path, id)
	}
	if err != nil {
		return false, fmt.Errorf("store: compare-and-set: %w", err)
	}

	res, err := k.db.db.Exec(`
		UPDATE kv_documents
		SET data = json_set(data, '$.status', ?)
		WHERE path = ? AND id = ? AND json_extract(data, '$.status') = ?
	`, newStatus, path, id, expectStatus)
	if err != nil {
		return false, fmt.Errorf("store: compare-and-set: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: compare-and-set: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if len(extra) == 0 {
		return true, nil
	}

	data, err := unmarshalDoc(raw)
	if err != nil {
		return false, err
	}
	data["status"] = newStatus
	for key, v := range extra {
		data[key] = v
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("store: compare-and-set: marshal extra: %w", err)
	}
	if _, err := k.db.db.Exec(`UPDATE kv_documents SET data = ? WHERE path = ? AND id = ?`, string(payload), path, id); err != nil {
		return false, fmt.Errorf("store: compare-and-set: write extra: %w", err)
	}
	return true, nil
}

// Compile-time interface check, matching the teacher's SQLiteStore idiom.
var _ kvstore.KVDocStore = (*KV)(nil)

func unmarshalDoc(raw string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("store: unmarshal document: %w", err)
	}
	return data, nil
}

func matchesAll(data map[string]any, wheres []kvstore.Where) bool {
	for _, w := range wheres {
		if !matchesWhere(data[w.Field], w) {
			return false
		}
	}
	return true
}

func matchesWhere(v any, w kvstore.Where) bool {
	switch w.Op {
	case kvstore.WhereEqual, "":
		return fmt.Sprint(v) == fmt.Sprint(w.Value)
	case kvstore.WhereNotEqual:
		return fmt.Sprint(v) != fmt.Sprint(w.Value)
	case kvstore.WhereGreaterOrEqual:
		return toFloat(v) >= toFloat(w.Value)
	case kvstore.WhereLessOrEqual:
		return toFloat(v) <= toFloat(w.Value)
	default:
		return false
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
