package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/memtype"
)

// RetractInput is the caller-supplied shape for Retract.
type RetractInput struct {
	MemoryID string
	Spaces   []string
	Groups   []string
}

// Retract is phase 1: verifies every listed destination currently carries
// the memory, else rejects naming the missing ones (spec.md §4.6).
func (s *Service) Retract(ctx context.Context, in RetractInput) (*memtype.ConfirmationRequest, error) {
	m, err := s.getSourceMemory(ctx, in.MemoryID)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, sp := range in.Spaces {
		if !containsString(m.SpaceIDs, sp) {
			missing = append(missing, sp)
		}
	}
	for _, g := range in.Groups {
		if !containsString(m.GroupIDs, g) {
			missing = append(missing, g)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Conflict: not currently published to: %s", strings.Join(missing, ", "))
	}

	payload := map[string]any{
		"memory_id":          in.MemoryID,
		"spaces":             in.Spaces,
		"groups":             in.Groups,
		"space_ids_snapshot": m.SpaceIDs,
		"group_ids_snapshot": m.GroupIDs,
	}
	req, err := s.Confirm.CreateRequest(ctx, s.OwnerID, memtype.ActionRetractMemory, payload)
	if err != nil {
		return nil, fmt.Errorf("publish: issue retract token: %w", err)
	}
	return req, nil
}

// RetractResult reports the composite id and per-destination outcome.
type RetractResult struct {
	CompositeID  string
	Destinations []DestinationOutcome
}

// ConfirmRetract is phase 2: strips the named destinations from the
// published row (the row itself remains, per the orphan model) and from the
// source memory's membership.
func (s *Service) ConfirmRetract(ctx context.Context, token string) (*RetractResult, error) {
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
	var retractedSpaces, retractedGroups []string

	if len(spaces) > 0 {
		label := strings.Join(spaces, ",")
		if err := s.retractFromDestination(ctx, s.PublicSpace, compositeID, spaces, nil); err != nil {
			outcomes = append(outcomes, DestinationOutcome{Kind: "space", ID: label, Outcome: "failed", Error: err.Error()})
		} else {
			outcomes = append(outcomes, DestinationOutcome{Kind: "space", ID: label, Outcome: "success"})
			retractedSpaces = spaces
		}
	}

	for _, g := range groups {
		coll, err := s.groupCollection(ctx, g)
		if err == nil {
			err = s.retractFromDestination(ctx, coll, compositeID, nil, []string{g})
		}
		if err != nil {
			outcomes = append(outcomes, DestinationOutcome{Kind: "group", ID: g, Outcome: "failed", Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, DestinationOutcome{Kind: "group", ID: g, Outcome: "success"})
		retractedGroups = append(retractedGroups, g)
	}

	if len(retractedSpaces) == 0 && len(retractedGroups) == 0 {
		return &RetractResult{CompositeID: compositeID, Destinations: outcomes}, fmt.Errorf("publish: all destinations failed")
	}

	newSpaceIDs := subtractStrings(m.SpaceIDs, retractedSpaces)
	newGroupIDs := subtractStrings(m.GroupIDs, retractedGroups)
	if err := s.Source.Update(ctx, collection.UpdateInput{ID: m.ID, Properties: sourceMembershipPatch(newSpaceIDs, newGroupIDs)}); err != nil {
		return nil, fmt.Errorf("publish: update source membership: %w", err)
	}

	return &RetractResult{CompositeID: compositeID, Destinations: outcomes}, nil
}

func (s *Service) retractFromDestination(ctx context.Context, dest collection.Collection, compositeID string, removeSpaces, removeGroups []string) error {
	obj, err := dest.FetchObjectByID(ctx, compositeID, nil)
	if err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("published row not found: %s", compositeID)
	}
	p := propsToPublished(obj.UUID, obj.Properties)
	p.SpaceIDs = subtractStrings(p.SpaceIDs, removeSpaces)
	p.GroupIDs = subtractStrings(p.GroupIDs, removeGroups)

	now := s.clock()
	patch := collection.Properties{
		"space_ids":    p.SpaceIDs,
		"group_ids":    p.GroupIDs,
		"retracted_at": now,
	}
	return dest.Update(ctx, collection.UpdateInput{ID: compositeID, Properties: patch})
}
