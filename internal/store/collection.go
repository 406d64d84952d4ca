package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
)

// Coll is a SQLite-backed Collection scoped to one logical partition
// (collection name) of the shared objects/vec_objects tables.
type Coll struct {
	db   *DB
	name string
}

// candidate is one row pulled out of objects for in-process scoring and
// filtering; see search.
type candidate struct {
	rowID   int64
	id      string
	content string
	props   collection.Properties
}

func (c *Coll) Insert(_ context.Context, in collection.InsertInput) (string, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	id := in.ID
	if id == "" {
		id = ids.New()
	}
	propsJSON, err := encodeProps(in.Properties)
	if err != nil {
		return "", err
	}
	content := contentOf(in.Properties)

	res, err := c.db.db.Exec(`
		INSERT INTO objects (collection, id, content, properties, created_at)
		VALUES (?, ?, ?, ?, strftime('%s','now'))
		ON CONFLICT(collection, id) DO UPDATE SET
			content = excluded.content,
			properties = excluded.properties
	`, c.name, id, content, propsJSON)
	if err != nil {
		return "", fmt.Errorf("store: insert object: %w", err)
	}

	rowID, err := c.rowIDFor(id)
	if err != nil {
		return "", err
	}
	if rowID == 0 {
		rowID, err = res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("store: resolve inserted rowid: %w", err)
		}
	}
	if err := c.upsertEmbedding(rowID, content); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Coll) Update(_ context.Context, in collection.UpdateInput) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	existing, err := c.fetchProps(in.ID)
	if err != nil {
		return err
	}
	merged := cloneProps(existing)
	for k, v := range in.Properties {
		merged[k] = v
	}
	propsJSON, err := encodeProps(merged)
	if err != nil {
		return err
	}
	content := contentOf(merged)

	if _, err := c.db.db.Exec(`
		UPDATE objects SET content = ?, properties = ?
		WHERE collection = ? AND id = ?
	`, content, propsJSON, c.name, in.ID); err != nil {
		return fmt.Errorf("store: update object: %w", err)
	}

	rowID, err := c.rowIDFor(in.ID)
	if err != nil {
		return err
	}
	if rowID != 0 {
		if err := c.upsertEmbedding(rowID, content); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coll) DeleteByID(_ context.Context, id string) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	rowID, err := c.rowIDFor(id)
	if err != nil {
		return err
	}
	if _, err := c.db.db.Exec(`DELETE FROM objects WHERE collection = ? AND id = ?`, c.name, id); err != nil {
		return fmt.Errorf("store: delete object: %w", err)
	}
	if rowID != 0 {
		if _, err := c.db.db.Exec(`DELETE FROM vec_objects WHERE rowid = ?`, rowID); err != nil {
			return fmt.Errorf("store: delete embedding: %w", err)
		}
	}
	return nil
}

func (c *Coll) FetchObjectByID(_ context.Context, id string, returnProperties []string) (*collection.Object, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()

	props, err := c.fetchProps(id)
	if err != nil {
		return nil, err
	}
	if props == nil {
		return nil, nil
	}
	return &collection.Object{UUID: id, Properties: projectProps(props, returnProperties)}, nil
}

func (c *Coll) Hybrid(ctx context.Context, query string, opts collection.QueryOptions) (collection.QueryResult, error) {
	return c.search(query, opts, searchHybrid)
}

func (c *Coll) BM25(ctx context.Context, query string, opts collection.QueryOptions) (collection.QueryResult, error) {
	return c.search(query, opts, searchKeyword)
}

func (c *Coll) NearText(ctx context.Context, query string, opts collection.QueryOptions) (collection.QueryResult, error) {
	return c.search(query, opts, searchVector)
}

func (c *Coll) NearVector(_ context.Context, vectorOf string, opts collection.QueryOptions) (collection.QueryResult, error) {
	c.db.mu.RLock()
	content, err := c.contentFor(vectorOf)
	c.db.mu.RUnlock()
	if err != nil {
		return collection.QueryResult{}, err
	}
	if content == "" {
		return collection.QueryResult{}, nil
	}
	return c.search(content, opts, searchVector)
}

// searchMode selects which of keyword/vector/blended scoring a query method
// uses; Hybrid blends both by opts.Alpha, BM25 is keyword-only, NearText and
// NearVector are vector-only (spec.md §6's four query flavors).
type searchMode int

const (
	searchKeyword searchMode = iota
	searchVector
	searchHybrid
)

// search loads every row in this collection, scores it per mode, applies
// opts.Filter with pkg/collection.Match (the structured filter tree is
// evaluated in Go rather than translated to SQL, same as
// internal/memstore — see pkg/collection/match.go's doc comment), sorts
// descending by score, and windows by Offset/Limit.
func (c *Coll) search(query string, opts collection.QueryOptions, mode searchMode) (collection.QueryResult, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()

	rows, err := c.db.db.Query(`
		SELECT rowid_id, id, content, properties FROM objects WHERE collection = ?
	`, c.name)
	if err != nil {
		return collection.QueryResult{}, fmt.Errorf("store: search scan: %w", err)
	}
	defer rows.Close()

	var all []candidate
	for rows.Next() {
		var rowID int64
		var id, content, propsJSON string
		if err := rows.Scan(&rowID, &id, &content, &propsJSON); err != nil {
			return collection.QueryResult{}, fmt.Errorf("store: scan object: %w", err)
		}
		props, err := decodeProps(propsJSON)
		if err != nil {
			return collection.QueryResult{}, err
		}
		all = append(all, candidate{rowID: rowID, id: id, content: content, props: props})
	}
	if err := rows.Err(); err != nil {
		return collection.QueryResult{}, err
	}

	kwScores := keywordScores(query, all)
	var vecScores map[int64]float64
	if mode != searchKeyword {
		vecScores, err = c.vectorScores(query, all)
		if err != nil {
			return collection.QueryResult{}, err
		}
	}

	alpha := opts.Alpha
	if alpha == 0 {
		alpha = 0.5
	}

	type scored struct {
		id       string
		props    collection.Properties
		score    float64
		distance bool
	}
	var matches []scored
	for _, cand := range all {
		if !collection.Match(opts.Filter, cand.props) {
			continue
		}
		var score float64
		isDistance := false
		switch mode {
		case searchKeyword:
			score = kwScores[cand.rowID]
		case searchVector:
			score = vecScores[cand.rowID]
			isDistance = true
		case searchHybrid:
			// vecScores are cosine distances; blend their similarity (1-distance).
			score = alpha*(1-vecScores[cand.rowID]) + (1-alpha)*kwScores[cand.rowID]
		}
		if query != "" && mode == searchKeyword && score == 0 {
			continue
		}
		matches = append(matches, scored{id: cand.id, props: cand.props, score: score, distance: isDistance})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance {
			return matches[i].score < matches[j].score
		}
		return matches[i].score > matches[j].score
	})

	start := opts.Offset
	if start > len(matches) {
		start = len(matches)
	}
	end := len(matches)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	objects := make([]collection.Object, 0, end-start)
	for _, m := range matches[start:end] {
		meta := collection.Metadata{}
		s := m.score
		if m.distance {
			meta.Distance = &s
		} else {
			meta.Score = &s
		}
		objects = append(objects, collection.Object{UUID: m.id, Properties: cloneProps(m.props), Metadata: meta})
	}
	return collection.QueryResult{Objects: objects}, nil
}

func (c *Coll) rowIDFor(id string) (int64, error) {
	var rowID int64
	err := c.db.db.QueryRow(`SELECT rowid_id FROM objects WHERE collection = ? AND id = ?`, c.name, id).Scan(&rowID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: resolve rowid: %w", err)
	}
	return rowID, nil
}

func (c *Coll) fetchProps(id string) (collection.Properties, error) {
	var propsJSON string
	err := c.db.db.QueryRow(`SELECT properties FROM objects WHERE collection = ? AND id = ?`, c.name, id).Scan(&propsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: fetch object: %w", err)
	}
	return decodeProps(propsJSON)
}

func (c *Coll) contentFor(id string) (string, error) {
	var content string
	err := c.db.db.QueryRow(`SELECT content FROM objects WHERE collection = ? AND id = ?`, c.name, id).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: fetch content: %w", err)
	}
	return content, nil
}

// Compile-time interface check, matching the teacher's SQLiteStore idiom.
var _ collection.Collection = (*Coll)(nil)

// upsertEmbedding writes the placeholder embedding for rowID into vec0,
// replacing any prior value (vec0 has no ON CONFLICT support, so delete then
// insert).
func (c *Coll) upsertEmbedding(rowID int64, content string) error {
	if _, err := c.db.db.Exec(`DELETE FROM vec_objects WHERE rowid = ?`, rowID); err != nil {
		return fmt.Errorf("store: clear embedding: %w", err)
	}
	blob := serializeFloat32(pseudoEmbed(content))
	if _, err := c.db.db.Exec(`INSERT INTO vec_objects(rowid, embedding) VALUES (?, ?)`, rowID, blob); err != nil {
		return fmt.Errorf("store: write embedding: %w", err)
	}
	return nil
}
