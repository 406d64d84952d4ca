package memory

import (
	"context"
	"fmt"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/memtype"
)

// SearchInput configures Search.
type SearchInput struct {
	Query                string
	Tags                 []string // AND semantics across tag filters (spec.md §4.5)
	Type                 memtype.MemoryKind
	IncludeRelationships bool
	Limit                int
	Offset               int
}

// SearchResult separates memory rows from relationship rows so callers don't
// need to type-switch.
type SearchResult struct {
	Memories      []*memtype.Memory
	Relationships []*memtype.Relationship
}

// Search performs hybrid text+vector search over the user's collection.
// deleted_at is excluded by default.
func (s *Service) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	docTypeFilter := collection.ByProperty("doc_type").Equal(string(memtype.DocTypeMemory))
	if in.IncludeRelationships {
		docTypeFilter = collection.Or(
			collection.ByProperty("doc_type").Equal(string(memtype.DocTypeMemory)),
			collection.ByProperty("doc_type").Equal(string(memtype.DocTypeRelationship)),
		)
	}

	filters := []collection.Filter{
		docTypeFilter,
		collection.ByProperty("deleted_at").IsNull(true),
	}
	if in.Type != "" {
		filters = append(filters, collection.ByProperty("type").Equal(string(in.Type)))
	}
	for _, tag := range in.Tags {
		filters = append(filters, collection.ByProperty("tags").ContainsAny([]string{tag}))
	}

	res, err := s.Collection.Hybrid(ctx, in.Query, collection.QueryOptions{
		Filter: collection.And(filters...),
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}

	out := &SearchResult{}
	for _, obj := range res.Objects {
		switch memtype.DocType(fmt.Sprint(obj.Properties["doc_type"])) {
		case memtype.DocTypeMemory:
			if m := propsToMemory(obj.UUID, obj.Properties); m.OwnerID == s.UserID {
				out.Memories = append(out.Memories, m)
			}
		case memtype.DocTypeRelationship:
			if r := propsToRelationship(obj.UUID, obj.Properties); r.OwnerID == s.UserID {
				out.Relationships = append(out.Relationships, r)
			}
		}
	}
	return out, nil
}

// SimilarMemory pairs a memory with its similarity score.
type SimilarMemory struct {
	Memory     *memtype.Memory
	Similarity float64
}

// FindSimilar runs nearVector against the source memory's own vector,
// attaching a similarity score per result and dropping anything below
// minSimilarity.
func (s *Service) FindSimilar(ctx context.Context, memoryID string, limit int, minSimilarity float64) ([]SimilarMemory, error) {
	if _, err := s.Get(ctx, memoryID); err != nil {
		return nil, err
	}

	res, err := s.Collection.NearVector(ctx, memoryID, collection.QueryOptions{
		Filter: collection.And(
			collection.ByProperty("doc_type").Equal(string(memtype.DocTypeMemory)),
			collection.ByProperty("deleted_at").IsNull(true),
		),
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: find similar: %w", err)
	}

	out := make([]SimilarMemory, 0, len(res.Objects))
	for _, obj := range res.Objects {
		if obj.UUID == memoryID {
			continue
		}
		m := propsToMemory(obj.UUID, obj.Properties)
		if m.OwnerID != s.UserID {
			continue
		}
		similarity := 0.0
		if obj.Metadata.Distance != nil {
			similarity = 1 - *obj.Metadata.Distance
		} else if obj.Metadata.Score != nil {
			similarity = *obj.Metadata.Score
		}
		if similarity < minSimilarity {
			continue
		}
		out = append(out, SimilarMemory{Memory: m, Similarity: similarity})
	}
	return out, nil
}

// RelevantMemory pairs a memory with its semantic relevance score.
type RelevantMemory struct {
	Memory    *memtype.Memory
	Relevance float64
}

// Query performs a semantic (nearText) search, attaching a relevance score.
func (s *Service) Query(ctx context.Context, question string, limit int, minRelevance float64) ([]RelevantMemory, error) {
	res, err := s.Collection.NearText(ctx, question, collection.QueryOptions{
		Filter: collection.And(
			collection.ByProperty("doc_type").Equal(string(memtype.DocTypeMemory)),
			collection.ByProperty("deleted_at").IsNull(true),
		),
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: query: %w", err)
	}

	out := make([]RelevantMemory, 0, len(res.Objects))
	for _, obj := range res.Objects {
		m := propsToMemory(obj.UUID, obj.Properties)
		if m.OwnerID != s.UserID {
			continue
		}
		relevance := 0.0
		if obj.Metadata.Distance != nil {
			relevance = 1 - *obj.Metadata.Distance
		} else if obj.Metadata.Score != nil {
			relevance = *obj.Metadata.Score
		}
		if relevance < minRelevance {
			continue
		}
		out = append(out, RelevantMemory{Memory: m, Relevance: relevance})
	}
	return out, nil
}
