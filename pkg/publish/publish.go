package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/memtype"
)

// PublishInput is the caller-supplied shape for Publish.
type PublishInput struct {
	MemoryID       string
	Spaces         []string
	Groups         []string
	AdditionalTags []string
}

// Publish is phase 1 of the publication protocol (spec.md §4.6): validates
// inputs and issues a publish_memory confirmation token.
func (s *Service) Publish(ctx context.Context, in PublishInput) (*memtype.ConfirmationRequest, error) {
	if len(in.Spaces)+len(in.Groups) == 0 {
		return nil, fmt.Errorf("Invalid destinations: at least one space or group is required")
	}

	var badSpaces []string
	for _, sp := range in.Spaces {
		if !ValidSpaceID(sp) {
			badSpaces = append(badSpaces, sp)
		}
	}
	if len(badSpaces) > 0 {
		return nil, fmt.Errorf("Invalid space IDs: %s", strings.Join(badSpaces, ", "))
	}

	var badGroups []string
	for _, g := range in.Groups {
		if !ValidGroupID(g) {
			badGroups = append(badGroups, g)
		}
	}
	if len(badGroups) > 0 {
		return nil, fmt.Errorf("Invalid group IDs: %s", strings.Join(badGroups, ", "))
	}

	if _, err := s.getSourceMemory(ctx, in.MemoryID); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"memory_id":       in.MemoryID,
		"spaces":          in.Spaces,
		"groups":          in.Groups,
		"additional_tags": in.AdditionalTags,
	}
	req, err := s.Confirm.CreateRequest(ctx, s.OwnerID, memtype.ActionPublishMemory, payload)
	if err != nil {
		return nil, fmt.Errorf("publish: issue token: %w", err)
	}
	return req, nil
}

// PublishResult reports the composite id addressed and a per-destination
// outcome (spec.md §4.6, §7 "Partial destination failure").
type PublishResult struct {
	CompositeID  string
	Destinations []DestinationOutcome
}

// ConfirmPublish is phase 2: consumes the token and fans the memory out into
// its target collections, best-effort per destination.
func (s *Service) ConfirmPublish(ctx context.Context, token string) (*PublishResult, error) {
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
	additionalTags := toStrings(req.Payload["additional_tags"])

	m, err := s.getSourceMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}

	compositeID := ids.CompositeID(s.OwnerID, memoryID)
	tags := unionStrings(m.Tags, additionalTags)

	var outcomes []DestinationOutcome
	var succeededSpaces, succeededGroups []string

	if len(spaces) > 0 {
		label := strings.Join(spaces, ",")
		status, cfgErr := s.resolveSpaceModeration(ctx, spaces)
		switch {
		case cfgErr != nil:
			outcomes = append(outcomes, DestinationOutcome{Kind: "space", ID: label, Outcome: "failed", Error: cfgErr.Error()})
		default:
			if err := s.upsertDestination(ctx, s.PublicSpace, compositeID, m, spaces, nil, tags, status); err != nil {
				outcomes = append(outcomes, DestinationOutcome{Kind: "space", ID: label, Outcome: "failed", Error: err.Error()})
			} else {
				outcomes = append(outcomes, DestinationOutcome{Kind: "space", ID: label, Outcome: "success"})
				succeededSpaces = spaces
			}
		}
	}

	for _, g := range groups {
		if err := s.publishToGroup(ctx, g, compositeID, m, tags); err != nil {
			outcomes = append(outcomes, DestinationOutcome{Kind: "group", ID: g, Outcome: "failed", Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, DestinationOutcome{Kind: "group", ID: g, Outcome: "success"})
		succeededGroups = append(succeededGroups, g)
	}

	if len(succeededSpaces) == 0 && len(succeededGroups) == 0 {
		return &PublishResult{CompositeID: compositeID, Destinations: outcomes}, fmt.Errorf("publish: all destinations failed")
	}

	newSpaceIDs := unionStrings(m.SpaceIDs, succeededSpaces)
	newGroupIDs := unionStrings(m.GroupIDs, succeededGroups)
	if err := s.Source.Update(ctx, collection.UpdateInput{ID: m.ID, Properties: sourceMembershipPatch(newSpaceIDs, newGroupIDs)}); err != nil {
		return nil, fmt.Errorf("publish: update source membership: %w", err)
	}

	return &PublishResult{CompositeID: compositeID, Destinations: outcomes}, nil
}

func (s *Service) publishToGroup(ctx context.Context, groupID, compositeID string, m *memtype.Memory, tags []string) error {
	coll, err := s.groupCollection(ctx, groupID)
	if err != nil {
		return err
	}
	status := memtype.ModerationApproved
	if s.GroupConfigs != nil {
		cfg, err := s.GroupConfigs.GetGroupConfig(ctx, groupID)
		if err != nil {
			return err
		}
		if cfg.RequiresModeration {
			status = memtype.ModerationPending
		}
	}
	return s.upsertDestination(ctx, coll, compositeID, m, nil, []string{groupID}, tags, status)
}

func (s *Service) resolveSpaceModeration(ctx context.Context, spaces []string) (memtype.ModerationStatus, error) {
	if s.SpaceConfigs == nil {
		return memtype.ModerationApproved, nil
	}
	for _, sp := range spaces {
		cfg, err := s.SpaceConfigs.GetSpaceConfig(ctx, sp)
		if err != nil {
			return "", err
		}
		if cfg.RequiresModeration {
			return memtype.ModerationPending, nil
		}
	}
	return memtype.ModerationApproved, nil
}

// upsertDestination inserts or merges the published copy at compositeID.
// Re-publishing unions space/group membership and the tag set, keeping the
// operation idempotent (spec.md §8 invariant "Re-publishing ... is
// idempotent on membership and unions the tag set").
func (s *Service) upsertDestination(ctx context.Context, dest collection.Collection, compositeID string, m *memtype.Memory, newSpaces, newGroups, tags []string, status memtype.ModerationStatus) error {
	existingObj, err := dest.FetchObjectByID(ctx, compositeID, nil)
	if err != nil {
		return err
	}
	now := s.clock()

	if existingObj == nil {
		p := &memtype.PublishedMemory{
			ID:               compositeID,
			DocType:          memtype.DocTypeMemory,
			AuthorID:         s.OwnerID,
			OwnerID:          m.OwnerID,
			Content:          m.Content,
			Title:            m.Title,
			Summary:          m.Summary,
			Tags:             tags,
			Type:             m.Type,
			Weight:           m.Weight,
			PublishedAt:      now,
			SpaceIDs:         newSpaces,
			GroupIDs:         newGroups,
			ModerationStatus: status,
			WriteMode:        memtype.WriteModeOwnerOnly,
		}
		_, err := dest.Insert(ctx, collection.InsertInput{ID: compositeID, Properties: publishedToProps(p)})
		return err
	}

	existing := propsToPublished(existingObj.UUID, existingObj.Properties)
	existing.SpaceIDs = unionStrings(existing.SpaceIDs, newSpaces)
	existing.GroupIDs = unionStrings(existing.GroupIDs, newGroups)
	existing.Tags = unionStrings(existing.Tags, tags)
	// A newly-moderated destination can only push status toward pending, per
	// spec.md §9's documented design choice: one moderated space can hold an
	// otherwise-approved publication in pending.
	if status == memtype.ModerationPending {
		existing.ModerationStatus = memtype.ModerationPending
	} else if existing.ModerationStatus == "" {
		existing.ModerationStatus = status
	}

	patch := collection.Properties{
		"space_ids":         existing.SpaceIDs,
		"group_ids":         existing.GroupIDs,
		"tags":              existing.Tags,
		"moderation_status": string(existing.ModerationStatus),
	}
	return dest.Update(ctx, collection.UpdateInput{ID: compositeID, Properties: patch})
}
