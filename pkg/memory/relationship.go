package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/memtype"
)

// CreateRelationshipInput is the caller-supplied shape for
// CreateRelationship.
type CreateRelationshipInput struct {
	RelatedMemoryIDs []string
	RelationshipType string
	Observation      string
	Strength         float64
	Confidence       float64
	Tags             []string
}

// CreateRelationship validates every referenced memory (exists, owned by the
// caller, not soft-deleted, doc_type=memory) atomically before inserting,
// per spec.md §3/§4.5: "any dangling/deleted/cross-owner id rejects
// atomically (no partial write)".
func (s *Service) CreateRelationship(ctx context.Context, in CreateRelationshipInput) (*memtype.Relationship, error) {
	if len(in.RelatedMemoryIDs) < 2 {
		return nil, fmt.Errorf("memory: relationship requires at least 2 related memory ids, got %d", len(in.RelatedMemoryIDs))
	}
	if in.Confidence < 0 || in.Confidence > 1 {
		return nil, fmt.Errorf("memory: invalid confidence: %v is outside [0,1]", in.Confidence)
	}

	members := make([]*memtype.Memory, 0, len(in.RelatedMemoryIDs))
	for _, id := range in.RelatedMemoryIDs {
		m, err := s.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("memory: relationship validation failed for %s: %w", id, err)
		}
		if m.IsDeleted() {
			return nil, fmt.Errorf("memory: relationship validation failed: %s is deleted", id)
		}
		members = append(members, m)
	}

	now := time.Now()
	r := &memtype.Relationship{
		ID:               ids.New(),
		OwnerID:          s.UserID,
		DocType:          memtype.DocTypeRelationship,
		RelatedMemoryIDs: in.RelatedMemoryIDs,
		RelationshipType: in.RelationshipType,
		Observation:      in.Observation,
		Strength:         in.Strength,
		Confidence:       in.Confidence,
		Tags:             in.Tags,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := s.Collection.Insert(ctx, collection.InsertInput{ID: r.ID, Properties: relationshipToProps(r)}); err != nil {
		return nil, fmt.Errorf("memory: create relationship: %w", err)
	}

	for _, m := range members {
		relIDs := append(append([]string{}, m.RelationshipIDs...), r.ID)
		if err := s.Collection.Update(ctx, collection.UpdateInput{ID: m.ID, Properties: collection.Properties{"relationship_ids": relIDs}}); err != nil {
			return nil, fmt.Errorf("memory: link relationship to %s: %w", m.ID, err)
		}
	}
	return r, nil
}

func (s *Service) getRelationship(ctx context.Context, id string) (*memtype.Relationship, error) {
	obj, err := s.Collection.FetchObjectByID(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("memory: get relationship: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("memory: not found: %s", id)
	}
	r := propsToRelationship(obj.UUID, obj.Properties)
	if r.DocType != memtype.DocTypeRelationship {
		return nil, fmt.Errorf("memory: not found: %s", id)
	}
	if r.OwnerID != s.UserID {
		return nil, fmt.Errorf("memory: permission denied: not relationship owner")
	}
	return r, nil
}

// UpdateRelationshipInput carries only the fields the caller wants changed.
type UpdateRelationshipInput struct {
	RelationshipID   string
	RelationshipType *string
	Observation      *string
	Strength         *float64
	Confidence       *float64
	Tags             []string
}

// UpdateRelationship validates [0,1] ranges for strength/confidence and
// bumps version (spec.md §4.5).
func (s *Service) UpdateRelationship(ctx context.Context, in UpdateRelationshipInput) error {
	r, err := s.getRelationship(ctx, in.RelationshipID)
	if err != nil {
		return err
	}

	patch := collection.Properties{}
	if in.RelationshipType != nil {
		r.RelationshipType = *in.RelationshipType
		patch["relationship_type"] = r.RelationshipType
	}
	if in.Observation != nil {
		r.Observation = *in.Observation
		patch["observation"] = r.Observation
	}
	if in.Strength != nil {
		if *in.Strength < 0 || *in.Strength > 1 {
			return fmt.Errorf("memory: invalid strength: %v is outside [0,1]", *in.Strength)
		}
		r.Strength = *in.Strength
		patch["strength"] = r.Strength
	}
	if in.Confidence != nil {
		if *in.Confidence < 0 || *in.Confidence > 1 {
			return fmt.Errorf("memory: invalid confidence: %v is outside [0,1]", *in.Confidence)
		}
		r.Confidence = *in.Confidence
		patch["confidence"] = r.Confidence
	}
	if in.Tags != nil {
		r.Tags = in.Tags
		patch["tags"] = r.Tags
	}

	r.UpdatedAt = time.Now()
	r.Version++
	patch["updated_at"] = r.UpdatedAt
	patch["version"] = r.Version

	if err := s.Collection.Update(ctx, collection.UpdateInput{ID: r.ID, Properties: patch}); err != nil {
		return fmt.Errorf("memory: update relationship: %w", err)
	}
	return nil
}

// DeleteRelationship removes the relationship row and strips its id from
// every connected memory's relationship_ids (spec.md §4.5).
func (s *Service) DeleteRelationship(ctx context.Context, relationshipID string) error {
	r, err := s.getRelationship(ctx, relationshipID)
	if err != nil {
		return err
	}

	for _, memID := range r.RelatedMemoryIDs {
		m, err := s.Get(ctx, memID)
		if err != nil {
			continue // memory may already be gone; relationship delete still proceeds
		}
		remaining := make([]string, 0, len(m.RelationshipIDs))
		for _, id := range m.RelationshipIDs {
			if id != relationshipID {
				remaining = append(remaining, id)
			}
		}
		if err := s.Collection.Update(ctx, collection.UpdateInput{ID: m.ID, Properties: collection.Properties{"relationship_ids": remaining}}); err != nil {
			return fmt.Errorf("memory: unlink relationship from %s: %w", m.ID, err)
		}
	}

	if err := s.Collection.DeleteByID(ctx, relationshipID); err != nil {
		return fmt.Errorf("memory: delete relationship: %w", err)
	}
	return nil
}

// RelationshipSearchInput configures SearchRelationships.
type RelationshipSearchInput struct {
	Types              []string // OR semantics
	MinStrength        float64
	MinConfidence      float64
	Tags               []string // ANY semantics (spec.md §4.5, contrast with memory search's AND)
	Limit              int
	Offset             int
}

// SearchRelationships filters on doc_type=relationship, type-OR,
// strength/confidence floors, and tag-ANY (spec.md §4.5).
func (s *Service) SearchRelationships(ctx context.Context, in RelationshipSearchInput) ([]*memtype.Relationship, error) {
	filters := []collection.Filter{
		collection.ByProperty("doc_type").Equal(string(memtype.DocTypeRelationship)),
		collection.ByProperty("owner_id").Equal(s.UserID),
	}
	if len(in.Types) > 0 {
		var typeOr []collection.Filter
		for _, t := range in.Types {
			typeOr = append(typeOr, collection.ByProperty("relationship_type").Equal(t))
		}
		filters = append(filters, collection.Or(typeOr...))
	}
	if in.MinStrength > 0 {
		filters = append(filters, collection.ByProperty("strength").GreaterOrEqual(in.MinStrength))
	}
	if in.MinConfidence > 0 {
		filters = append(filters, collection.ByProperty("confidence").GreaterOrEqual(in.MinConfidence))
	}
	if len(in.Tags) > 0 {
		filters = append(filters, collection.ByProperty("tags").ContainsAny(in.Tags))
	}

	res, err := s.Collection.Hybrid(ctx, "", collection.QueryOptions{
		Filter: collection.And(filters...),
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: search relationships: %w", err)
	}

	out := make([]*memtype.Relationship, 0, len(res.Objects))
	for _, obj := range res.Objects {
		out = append(out, propsToRelationship(obj.UUID, obj.Properties))
	}
	return out, nil
}

// findReferencingRelationships scans the owner's collection for
// relationships whose related_memory_ids includes memoryID.
func (s *Service) findReferencingRelationships(ctx context.Context, memoryID string) ([]string, error) {
	res, err := s.Collection.Hybrid(ctx, "", collection.QueryOptions{
		Filter: collection.And(
			collection.ByProperty("doc_type").Equal(string(memtype.DocTypeRelationship)),
			collection.ByProperty("owner_id").Equal(s.UserID),
			collection.ByProperty("related_memory_ids").ContainsAny([]string{memoryID}),
		),
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Objects))
	for _, obj := range res.Objects {
		out = append(out, obj.UUID)
	}
	return out, nil
}
