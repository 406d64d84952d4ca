package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
)

// Coll is an in-memory Collection. Search methods use a simple term-overlap
// score over the "content" property rather than real embeddings — enough to
// exercise ranking, filtering, and pagination in tests without a vector
// database (spec.md §1 explicitly puts embedding generation out of scope).
type Coll struct {
	mu   sync.RWMutex
	rows map[string]collection.Properties
}

// NewCollection creates an empty in-memory Collection.
func NewCollection() *Coll {
	return &Coll{rows: make(map[string]collection.Properties)}
}

func (c *Coll) Insert(_ context.Context, in collection.InsertInput) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := in.ID
	if id == "" {
		id = ids.New()
	}
	c.rows[id] = cloneProps(in.Properties)
	return id, nil
}

func (c *Coll) Update(_ context.Context, in collection.UpdateInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := cloneProps(c.rows[in.ID])
	for k, v := range in.Properties {
		existing[k] = v
	}
	c.rows[in.ID] = existing
	return nil
}

func (c *Coll) DeleteByID(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.rows, id)
	return nil
}

func (c *Coll) FetchObjectByID(_ context.Context, id string, returnProperties []string) (*collection.Object, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	props, ok := c.rows[id]
	if !ok {
		return nil, nil
	}
	return &collection.Object{UUID: id, Properties: project(props, returnProperties)}, nil
}

func (c *Coll) Hybrid(ctx context.Context, query string, opts collection.QueryOptions) (collection.QueryResult, error) {
	return c.search(query, opts, true)
}

func (c *Coll) BM25(ctx context.Context, query string, opts collection.QueryOptions) (collection.QueryResult, error) {
	return c.search(query, opts, true)
}

func (c *Coll) NearText(ctx context.Context, query string, opts collection.QueryOptions) (collection.QueryResult, error) {
	return c.search(query, opts, false)
}

func (c *Coll) NearVector(ctx context.Context, vectorOf string, opts collection.QueryOptions) (collection.QueryResult, error) {
	c.mu.RLock()
	seed, ok := c.rows[vectorOf]
	c.mu.RUnlock()
	if !ok {
		return collection.QueryResult{}, nil
	}
	query, _ := seed["content"].(string)
	return c.search(query, opts, false)
}

// search ranks rows by token overlap with query, applies opts.Filter, and
// windows by Offset/Limit. useScore reports the ranking as Metadata.Score
// (hybrid/bm25); otherwise it is reported as Metadata.Distance (1-score),
// matching how nearText/nearVector results are conventionally shaped.
func (c *Coll) search(query string, opts collection.QueryOptions, useScore bool) (collection.QueryResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	qTokens := tokenize(query)

	type scored struct {
		id    string
		props collection.Properties
		score float64
	}
	var matches []scored
	for id, props := range c.rows {
		if !collection.Match(opts.Filter, props) {
			continue
		}
		content, _ := props["content"].(string)
		score := overlapScore(qTokens, tokenize(content))
		if query != "" && score == 0 {
			continue
		}
		matches = append(matches, scored{id: id, props: props, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
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
		if useScore {
			s := m.score
			meta.Score = &s
		} else {
			d := 1 - m.score
			meta.Distance = &d
		}
		objects = append(objects, collection.Object{UUID: m.id, Properties: cloneProps(m.props), Metadata: meta})
	}
	return collection.QueryResult{Objects: objects}, nil
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func overlapScore(query, doc []string) float64 {
	if len(query) == 0 {
		return 1
	}
	docSet := make(map[string]bool, len(doc))
	for _, t := range doc {
		docSet[t] = true
	}
	hits := 0
	for _, t := range query {
		if docSet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

func project(props collection.Properties, keep []string) collection.Properties {
	if len(keep) == 0 {
		return cloneProps(props)
	}
	out := make(collection.Properties, len(keep))
	for _, k := range keep {
		if v, ok := props[k]; ok {
			out[k] = v
		}
	}
	return out
}

func cloneProps(props collection.Properties) collection.Properties {
	out := make(collection.Properties, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
