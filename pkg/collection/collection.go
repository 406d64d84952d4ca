// Package collection defines the vector-store boundary the core consumes.
//
// This mirrors spec.md §6's "Collection interface" — insert/update/delete by
// id, fetch by id, and four query flavors (hybrid, bm25, nearText, nearVector)
// plus a filter builder. The vector database itself, and embedding generation,
// are explicitly out of scope (spec.md §1); this package only pins down the
// capability surface a concrete adapter (internal/store, internal/memstore)
// must provide.
package collection

import "context"

// Properties is an untyped property bag, matching how the vector store
// represents an object: it has no knowledge of the domain types layered on
// top (Memory, Relationship, PublishedMemory all live in the same shape).
type Properties map[string]any

// Object is a stored row as returned by a fetch or query.
type Object struct {
	UUID       string
	Properties Properties
	Metadata   Metadata
}

// Metadata carries the per-result score/distance a query produced.
// Exactly one of Score/Distance is meaningful depending on which query
// method produced the object.
type Metadata struct {
	Score    *float64
	Distance *float64
}

// InsertInput is the payload for Insert. ID is optional; when empty the
// collection assigns one and returns it.
type InsertInput struct {
	ID         string
	Properties Properties
}

// UpdateInput is the payload for Update; Properties are merged onto the
// existing row (the collection does not support partial nested merges beyond
// top-level keys, matching how a document/vector store update typically
// behaves).
type UpdateInput struct {
	ID         string
	Properties Properties
}

// QueryOptions configures the four query methods.
type QueryOptions struct {
	Filter Filter
	Alpha  float64 // hybrid search keyword/vector blend, 0..1
	Limit  int
	Offset int
}

// QueryResult is the envelope every query method returns.
type QueryResult struct {
	Objects []Object
}

// Collection is the capability surface a concrete vector-store adapter must
// implement. One Collection instance addresses exactly one backing
// collection (a user's private collection, the unified public space
// collection, or a single group's collection).
type Collection interface {
	Insert(ctx context.Context, in InsertInput) (string, error)
	Update(ctx context.Context, in UpdateInput) error
	DeleteByID(ctx context.Context, id string) error

	FetchObjectByID(ctx context.Context, id string, returnProperties []string) (*Object, error)

	Hybrid(ctx context.Context, query string, opts QueryOptions) (QueryResult, error)
	BM25(ctx context.Context, query string, opts QueryOptions) (QueryResult, error)
	NearText(ctx context.Context, query string, opts QueryOptions) (QueryResult, error)
	NearVector(ctx context.Context, vectorOf string, opts QueryOptions) (QueryResult, error)
}
