// Package memstore provides in-memory implementations of the Collection and
// KVDocStore boundaries (pkg/collection, pkg/kvstore), adapted from the
// teacher's pkg/docstore in-memory map-plus-mutex pattern. It is the "in
// memory stub" half of spec.md §9's two-implementations-behind-one-interface
// design note — used for tests and for embedding the core in a process that
// does not want a real vector database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/kvstore"
)

// KV is an in-memory KVDocStore. Safe for concurrent use.
type KV struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any // path -> id -> data
}

// NewKV creates an empty in-memory KVDocStore.
func NewKV() *KV {
	return &KV{docs: make(map[string]map[string]map[string]any)}
}

func (k *KV) bucket(path string) map[string]map[string]any {
	b, ok := k.docs[path]
	if !ok {
		b = make(map[string]map[string]any)
		k.docs[path] = b
	}
	return b
}

func (k *KV) GetDocument(_ context.Context, path, id string) (*kvstore.Document, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	data, ok := k.docs[path][id]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	return &kvstore.Document{ID: id, Data: cloneData(data)}, nil
}

func (k *KV) SetDocument(_ context.Context, path, id string, data map[string]any, opts kvstore.SetOptions) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	b := k.bucket(path)
	if opts.Merge {
		merged := cloneData(b[id])
		for key, v := range data {
			merged[key] = v
		}
		b[id] = merged
		return nil
	}
	b[id] = cloneData(data)
	return nil
}

func (k *KV) AddDocument(_ context.Context, path string, data map[string]any) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	id := ids.New()
	k.bucket(path)[id] = cloneData(data)
	return id, nil
}

func (k *KV) DeleteDocument(_ context.Context, path, id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.bucket(path), id)
	return nil
}

func (k *KV) QueryDocuments(_ context.Context, path string, opts kvstore.QueryOptions) ([]kvstore.Document, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var out []kvstore.Document
	ids := make([]string, 0, len(k.docs[path]))
	for id := range k.docs[path] {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic order for tests

	for _, id := range ids {
		data := k.docs[path][id]
		if matchesAll(data, opts.Where) {
			out = append(out, kvstore.Document{ID: id, Data: cloneData(data)})
			if opts.Limit > 0 && len(out) >= opts.Limit {
				break
			}
		}
	}
	return out, nil
}

func (k *KV) CompareAndSetStatus(_ context.Context, path, id, expectStatus, newStatus string, extra map[string]any) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	b := k.bucket(path)
	data, ok := b[id]
	if !ok {
		return false, fmt.Errorf("memstore: compare-and-set: document %s/%s not found", path, id)
	}
	current, _ := data["status"].(string)
	if current != expectStatus {
		return false, nil
	}

	updated := cloneData(data)
	updated["status"] = newStatus
	for key, v := range extra {
		updated[key] = v
	}
	b[id] = updated
	return true, nil
}

func matchesAll(data map[string]any, wheres []kvstore.Where) bool {
	for _, w := range wheres {
		if !matches(data[w.Field], w) {
			return false
		}
	}
	return true
}

func matches(v any, w kvstore.Where) bool {
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

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
