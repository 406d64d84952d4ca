package publish

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/memtype"
)

// SearchInput configures Search across the unified public collection and
// named groups (spec.md §4.6).
type SearchInput struct {
	Query             string
	Spaces            []string
	Groups            []string
	ContentType       memtype.MemoryKind
	IncludeComments   bool
	Tags              []string // AND across tags, ANY within a tag's values
	MinWeight         *float64
	MaxWeight         *float64
	CreatedAfter      *time.Time
	CreatedBefore     *time.Time
	IncludeUnapproved bool
	Limit             int
	Offset            int
}

// SearchHit pairs a published memory with its ranking score.
type SearchHit struct {
	Memory *memtype.PublishedMemory
	Score  float64
}

// Search performs hybrid search over the unified public collection (when any
// spaces are named, or when neither spaces nor groups are named) unioned
// with each named group's collection, de-duplicated by composite id and
// sorted by descending score (spec.md §4.6).
func (s *Service) Search(ctx context.Context, in SearchInput) ([]SearchHit, error) {
	if in.IncludeUnapproved && !s.canViewUnapproved(in.Groups) {
		return nil, fmt.Errorf("Insufficient permission: viewing non-approved content requires moderator authorization")
	}

	filter := s.resultFilter(in)
	seen := map[string]bool{}
	var hits []SearchHit

	collect := func(dest collection.Collection) error {
		res, err := dest.Hybrid(ctx, in.Query, collection.QueryOptions{Filter: filter})
		if err != nil {
			return err
		}
		for _, obj := range res.Objects {
			if seen[obj.UUID] {
				continue
			}
			seen[obj.UUID] = true
			hits = append(hits, SearchHit{Memory: propsToPublished(obj.UUID, obj.Properties), Score: scoreOf(obj)})
		}
		return nil
	}

	if len(in.Spaces) > 0 || len(in.Groups) == 0 {
		if err := collect(s.PublicSpace); err != nil {
			return nil, fmt.Errorf("publish: search public space: %w", err)
		}
	}
	for _, g := range in.Groups {
		coll, err := s.groupCollection(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("publish: resolve group %s: %w", g, err)
		}
		if err := collect(coll); err != nil {
			return nil, fmt.Errorf("publish: search group %s: %w", g, err)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return windowHits(hits, in.Offset, in.Limit), nil
}

// Query performs a nearText search against the unified public collection,
// filtered by spaces CONTAINS ANY (spec.md §4.6). Returns the same hit
// shape; Score carries (1 - distance) as the semantic relevance.
func (s *Service) Query(ctx context.Context, question string, in SearchInput) ([]SearchHit, error) {
	if in.IncludeUnapproved && !s.canViewUnapproved(nil) {
		return nil, fmt.Errorf("Insufficient permission: viewing non-approved content requires moderator authorization")
	}

	filters := []collection.Filter{s.resultFilter(in)}
	if len(in.Spaces) > 0 {
		filters = append(filters, collection.ByProperty("space_ids").ContainsAny(in.Spaces))
	}

	res, err := s.PublicSpace.NearText(ctx, question, collection.QueryOptions{Filter: collection.And(filters...)})
	if err != nil {
		return nil, fmt.Errorf("publish: query: %w", err)
	}

	hits := make([]SearchHit, 0, len(res.Objects))
	for _, obj := range res.Objects {
		hits = append(hits, SearchHit{Memory: propsToPublished(obj.UUID, obj.Properties), Score: scoreOf(obj)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return windowHits(hits, in.Offset, in.Limit), nil
}

func (s *Service) canViewUnapproved(groups []string) bool {
	if s.Auth.SpaceModerator {
		return true
	}
	return s.Auth.HasGroupCapability(groups, func(p auth.Permissions) bool { return p.CanModerate })
}

// resultFilter builds the shared filter stack: doc_type=memory, moderation
// (default approved-or-null unless IncludeUnapproved), optional content
// type, comment exclusion, tag ANY-per-tag/AND-across-tags, weight bounds,
// created-at bounds (spec.md §4.6).
func (s *Service) resultFilter(in SearchInput) collection.Filter {
	filters := []collection.Filter{
		collection.ByProperty("doc_type").Equal(string(memtype.DocTypeMemory)),
	}

	if !in.IncludeUnapproved {
		filters = append(filters, collection.Or(
			collection.ByProperty("moderation_status").Equal(string(memtype.ModerationApproved)),
			collection.ByProperty("moderation_status").IsNull(true),
		))
	}

	if in.ContentType != "" {
		filters = append(filters, collection.ByProperty("type").Equal(string(in.ContentType)))
	}
	if !in.IncludeComments {
		filters = append(filters, collection.ByProperty("type").NotEqual(string(memtype.MemoryKindComment)))
	}

	for _, tag := range in.Tags {
		filters = append(filters, collection.ByProperty("tags").ContainsAny([]string{tag}))
	}

	if in.MinWeight != nil {
		filters = append(filters, collection.ByProperty("weight").GreaterOrEqual(*in.MinWeight))
	}
	if in.MaxWeight != nil {
		filters = append(filters, collection.ByProperty("weight").LessOrEqual(*in.MaxWeight))
	}
	if in.CreatedAfter != nil {
		filters = append(filters, collection.ByProperty("published_at").GreaterOrEqual(*in.CreatedAfter))
	}
	if in.CreatedBefore != nil {
		filters = append(filters, collection.ByProperty("published_at").LessOrEqual(*in.CreatedBefore))
	}

	return collection.And(filters...)
}

func scoreOf(obj collection.Object) float64 {
	if obj.Metadata.Score != nil {
		return *obj.Metadata.Score
	}
	if obj.Metadata.Distance != nil {
		return 1 - *obj.Metadata.Distance
	}
	return 0
}

func windowHits(hits []SearchHit, offset, limit int) []SearchHit {
	start := offset
	if start > len(hits) {
		start = len(hits)
	}
	end := len(hits)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return hits[start:end]
}
