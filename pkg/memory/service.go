package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/memtype"
)

// Service is constructor-bound to a single user_id and their private
// collection; authorization is enforced on every operation by reading the
// row's owner_id and asserting equality (spec.md §4.5).
type Service struct {
	UserID     string
	Collection collection.Collection

	now func() time.Time
}

// New constructs a memory service scoped to userID over coll.
func New(userID string, coll collection.Collection) *Service {
	return &Service{UserID: userID, Collection: coll, now: time.Now}
}

// CreateInput is the caller-supplied shape for Create; the service fills in
// id, version, timestamps, and defaults.
type CreateInput struct {
	Content    string
	Title      string
	Summary    string
	Tags       []string
	Type       memtype.MemoryKind
	Weight     *float64
	Trust      *float64
	Context    *memtype.MemoryContext
	Location   *memtype.Location
	References []string
}

// DefaultWeight and DefaultTrust are applied when CreateInput leaves the
// field unset (spec.md §4.5).
const DefaultWeight = 0.5
const DefaultTrust = 0.5

// Create assigns an id, sets version=1, created_at=updated_at=now, and
// inserts into the user's collection.
func (s *Service) Create(ctx context.Context, in CreateInput) (*memtype.Memory, error) {
	now := s.clock()
	weight := DefaultWeight
	if in.Weight != nil {
		weight = *in.Weight
	}
	trustVal := DefaultTrust
	if in.Trust != nil {
		trustVal = *in.Trust
	}
	if weight < 0 || weight > 1 {
		return nil, fmt.Errorf("memory: invalid weight: %v is outside [0,1]", weight)
	}
	if trustVal < 0 || trustVal > 1 {
		return nil, fmt.Errorf("memory: invalid trust: %v is outside [0,1]", trustVal)
	}

	m := &memtype.Memory{
		ID:         ids.New(),
		OwnerID:    s.UserID,
		DocType:    memtype.DocTypeMemory,
		Content:    in.Content,
		Title:      in.Title,
		Summary:    in.Summary,
		Tags:       in.Tags,
		Type:       in.Type,
		Weight:     weight,
		Trust:      trustVal,
		Context:    in.Context,
		Location:   in.Location,
		References: in.References,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}

	if _, err := s.Collection.Insert(ctx, collection.InsertInput{ID: m.ID, Properties: memoryToProps(m)}); err != nil {
		return nil, fmt.Errorf("memory: create: %w", err)
	}
	return m, nil
}

// Get fetches a live memory by id, enforcing ownership.
func (s *Service) Get(ctx context.Context, memoryID string) (*memtype.Memory, error) {
	obj, err := s.Collection.FetchObjectByID(ctx, memoryID, nil)
	if err != nil {
		return nil, fmt.Errorf("memory: get: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("memory: not found: %s", memoryID)
	}
	m := propsToMemory(obj.UUID, obj.Properties)
	if m.DocType != memtype.DocTypeMemory {
		return nil, fmt.Errorf("memory: not found: %s", memoryID)
	}
	if m.IsDeleted() {
		return nil, fmt.Errorf("memory: not found: %s", memoryID)
	}
	if m.OwnerID != s.UserID {
		return nil, fmt.Errorf("memory: permission denied: not memory owner")
	}
	return m, nil
}

// UpdateInput carries only the fields the caller wants changed; nil/empty
// means "leave unchanged" except where noted.
type UpdateInput struct {
	MemoryID   string
	Content    *string
	Title      *string
	Summary    *string
	Tags       []string
	Type       *memtype.MemoryKind
	Weight     *float64
	Trust      *float64
	Context    *memtype.MemoryContext
	Location   *memtype.Location
	References []string
}

// Update writes only the changed fields, bumps updated_at and version, and
// returns the set of changed field names (spec.md §4.5).
func (s *Service) Update(ctx context.Context, in UpdateInput) (changed []string, err error) {
	m, err := s.Get(ctx, in.MemoryID)
	if err != nil {
		return nil, err
	}
	prevSnapshot := memtype.MemoryVersionSnapshot{
		Version:   m.Version,
		Content:   m.Content,
		Title:     m.Title,
		Summary:   m.Summary,
		UpdatedAt: m.UpdatedAt,
	}

	patch := collection.Properties{}
	if in.Content != nil {
		m.Content = *in.Content
		patch["content"] = m.Content
		changed = append(changed, "content")
	}
	if in.Title != nil {
		m.Title = *in.Title
		patch["title"] = m.Title
		changed = append(changed, "title")
	}
	if in.Summary != nil {
		m.Summary = *in.Summary
		patch["summary"] = m.Summary
		changed = append(changed, "summary")
	}
	if in.Tags != nil {
		m.Tags = in.Tags
		patch["tags"] = m.Tags
		changed = append(changed, "tags")
	}
	if in.Type != nil {
		m.Type = *in.Type
		patch["type"] = string(m.Type)
		changed = append(changed, "type")
	}
	if in.Weight != nil {
		if *in.Weight < 0 || *in.Weight > 1 {
			return nil, fmt.Errorf("memory: invalid weight: %v is outside [0,1]", *in.Weight)
		}
		m.Weight = *in.Weight
		patch["weight"] = m.Weight
		changed = append(changed, "weight")
	}
	if in.Trust != nil {
		if *in.Trust < 0 || *in.Trust > 1 {
			return nil, fmt.Errorf("memory: invalid trust: %v is outside [0,1]", *in.Trust)
		}
		m.Trust = *in.Trust
		patch["trust"] = m.Trust
		changed = append(changed, "trust")
	}
	if in.Context != nil {
		m.Context = in.Context
		patch["context"] = contextToMap(in.Context)
		changed = append(changed, "context")
	}
	if in.Location != nil {
		m.Location = in.Location
		patch["location"] = locationToMap(in.Location)
		changed = append(changed, "location")
	}
	if in.References != nil {
		m.References = in.References
		patch["references"] = m.References
		changed = append(changed, "references")
	}

	if len(changed) == 0 {
		return nil, nil
	}

	m.UpdatedAt = s.clock()
	m.Version++
	patch["updated_at"] = m.UpdatedAt
	patch["version"] = m.Version

	history, err := s.loadHistory(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	history = append([]memtype.MemoryVersionSnapshot{prevSnapshot}, history...)
	if len(history) > memtype.MaxMemoryHistory {
		history = history[:memtype.MaxMemoryHistory]
	}
	patch["history"] = historyToAny(history)

	if err := s.Collection.Update(ctx, collection.UpdateInput{ID: m.ID, Properties: patch}); err != nil {
		return nil, fmt.Errorf("memory: update: %w", err)
	}
	return changed, nil
}

// ListMemoryVersions returns the bounded prior-version history recorded on
// update, most recent first (SPEC_FULL.md supplement; spec.md does not say
// whether a source memory's prior content is retrievable).
func (s *Service) ListMemoryVersions(ctx context.Context, memoryID string) ([]memtype.MemoryVersionSnapshot, error) {
	if _, err := s.Get(ctx, memoryID); err != nil {
		return nil, err
	}
	return s.loadHistory(ctx, memoryID)
}

func (s *Service) loadHistory(ctx context.Context, memoryID string) ([]memtype.MemoryVersionSnapshot, error) {
	obj, err := s.Collection.FetchObjectByID(ctx, memoryID, []string{"history"})
	if err != nil {
		return nil, fmt.Errorf("memory: load history: %w", err)
	}
	if obj == nil {
		return nil, nil
	}
	return anyToHistory(obj.Properties["history"]), nil
}

// DeleteInput carries the reason recorded on soft delete.
type DeleteInput struct {
	MemoryID string
	Reason   string
}

// DeleteResult reports relationships orphaned by the delete.
type DeleteResult struct {
	OrphanedRelationshipIDs []string
}

// Delete soft-deletes a memory and reports (without removing) relationships
// that reference it (spec.md §4.5, §3 "Orphaned relationship").
func (s *Service) Delete(ctx context.Context, in DeleteInput) (*DeleteResult, error) {
	m, err := s.Get(ctx, in.MemoryID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	m.DeletedAt = &now
	m.DeletedBy = s.UserID
	m.DeletionReason = in.Reason

	patch := collection.Properties{
		"deleted_at":      now,
		"deleted_by":      s.UserID,
		"deletion_reason": in.Reason,
	}
	if err := s.Collection.Update(ctx, collection.UpdateInput{ID: m.ID, Properties: patch}); err != nil {
		return nil, fmt.Errorf("memory: delete: %w", err)
	}

	orphaned, err := s.findReferencingRelationships(ctx, in.MemoryID)
	if err != nil {
		return nil, fmt.Errorf("memory: scan relationships for orphans: %w", err)
	}
	return &DeleteResult{OrphanedRelationshipIDs: orphaned}, nil
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
