package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/memtype"
)

// Revise is phase 1: the source must exist, belong to the caller, and
// already be published somewhere (spec.md §4.6).
func (s *Service) Revise(ctx context.Context, memoryID string) (*memtype.ConfirmationRequest, error) {
	m, err := s.getSourceMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if len(m.SpaceIDs) == 0 && len(m.GroupIDs) == 0 {
		return nil, fmt.Errorf("Conflict: memory has no published copies: %s", memoryID)
	}

	payload := map[string]any{
		"memory_id": memoryID,
		"spaces":    m.SpaceIDs,
		"groups":    m.GroupIDs,
	}
	req, err := s.Confirm.CreateRequest(ctx, s.OwnerID, memtype.ActionReviseMemory, payload)
	if err != nil {
		return nil, fmt.Errorf("publish: issue revise token: %w", err)
	}
	return req, nil
}

// ReviseResult reports the composite id and per-destination outcome, one of
// success, failed, or skipped (no published copy found).
type ReviseResult struct {
	CompositeID  string
	Destinations []DestinationOutcome
}

// ConfirmRevise is phase 2: propagates the source's current content to every
// destination captured at phase 1, prepending the prior content to each
// destination's bounded revision history when it actually changed.
func (s *Service) ConfirmRevise(ctx context.Context, token string) (*ReviseResult, error) {
	req, ok, err := s.Confirm.ConfirmRequest(ctx, s.OwnerID, token)
	if err != nil {
		return nil, fmt.Errorf("publish: confirm token: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("Expired or consumed token")
	}

	memoryID, _ := req.Payload["memory_id"].(string)
	spaces := toStrings(req.Payload["spaces"])
	groups := toStrings(req.Payload["groups"])

	m, err := s.getSourceMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}

	compositeID := ids.CompositeID(s.OwnerID, memoryID)
	var outcomes []DestinationOutcome

	if len(spaces) > 0 {
		outcomes = append(outcomes, s.reviseDestination(ctx, "space", strings.Join(spaces, ","), s.PublicSpace, compositeID, m))
	}
	for _, g := range groups {
		coll, err := s.groupCollection(ctx, g)
		if err != nil {
			outcomes = append(outcomes, DestinationOutcome{Kind: "group", ID: g, Outcome: "failed", Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, s.reviseDestination(ctx, "group", g, coll, compositeID, m))
	}

	anySuccess := false
	for _, o := range outcomes {
		if o.Outcome == "success" {
			anySuccess = true
		}
	}
	if !anySuccess {
		return &ReviseResult{CompositeID: compositeID, Destinations: outcomes}, fmt.Errorf("publish: revise failed on all destinations")
	}
	return &ReviseResult{CompositeID: compositeID, Destinations: outcomes}, nil
}

func (s *Service) reviseDestination(ctx context.Context, kind, id string, dest collection.Collection, compositeID string, m *memtype.Memory) DestinationOutcome {
	obj, err := dest.FetchObjectByID(ctx, compositeID, nil)
	if err != nil {
		return DestinationOutcome{Kind: kind, ID: id, Outcome: "failed", Error: err.Error()}
	}
	if obj == nil {
		return DestinationOutcome{Kind: kind, ID: id, Outcome: "skipped"}
	}

	p := propsToPublished(obj.UUID, obj.Properties)
	now := s.clock()
	patch := collection.Properties{
		"content":        m.Content,
		"revised_at":     now,
		"revision_count": p.RevisionCount + 1,
	}
	if p.Content != m.Content {
		history := append([]memtype.RevisionEntry{{Content: p.Content, RevisedAt: now}}, p.RevisionHistory...)
		if len(history) > memtype.MaxRevisionHistory {
			history = history[:memtype.MaxRevisionHistory]
		}
		patch["revision_history"] = revisionHistoryToAny(history)
	}

	if err := dest.Update(ctx, collection.UpdateInput{ID: compositeID, Properties: patch}); err != nil {
		return DestinationOutcome{Kind: kind, ID: id, Outcome: "failed", Error: err.Error()}
	}
	return DestinationOutcome{Kind: kind, ID: id, Outcome: "success"}
}
