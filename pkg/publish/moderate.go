package publish

import (
	"context"
	"fmt"

	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/memtype"
)

// ModerateInput is the caller-supplied shape for Moderate. Exactly one of
// SpaceID/GroupID must be set (spec.md §4.6).
type ModerateInput struct {
	OwnerID  string // the source memory's owner; addresses the composite row
	MemoryID string
	SpaceID  string
	GroupID  string
	Action   string // "approve" | "reject" | "remove"
	Reason   string
}

// Moderate requires moderator authorization from the service's ambient Auth
// context: group moderation needs can_moderate membership in that group,
// space moderation needs any-moderator capability (spec.md §4.6).
func (s *Service) Moderate(ctx context.Context, in ModerateInput) error {
	if (in.SpaceID == "") == (in.GroupID == "") {
		return fmt.Errorf("publish: moderate requires exactly one of space_id or group_id")
	}

	var status memtype.ModerationStatus
	switch in.Action {
	case "approve":
		status = memtype.ModerationApproved
	case "reject":
		status = memtype.ModerationRejected
	case "remove":
		status = memtype.ModerationRemoved
	default:
		return fmt.Errorf("publish: invalid moderation action: %s", in.Action)
	}

	var dest collection.Collection
	if in.SpaceID != "" {
		if !s.Auth.SpaceModerator {
			return fmt.Errorf("Insufficient permission: space moderation requires moderator capability")
		}
		dest = s.PublicSpace
	} else {
		if !s.Auth.HasGroupCapability([]string{in.GroupID}, func(p auth.Permissions) bool { return p.CanModerate }) {
			return fmt.Errorf("Insufficient permission: group moderation requires can_moderate capability")
		}
		coll, err := s.groupCollection(ctx, in.GroupID)
		if err != nil {
			return err
		}
		dest = coll
	}

	compositeID := ids.CompositeID(in.OwnerID, in.MemoryID)
	obj, err := dest.FetchObjectByID(ctx, compositeID, nil)
	if err != nil {
		return fmt.Errorf("publish: fetch published row: %w", err)
	}
	if obj == nil {
		return fmt.Errorf("Memory not found: published copy %s", compositeID)
	}

	now := s.clock()
	patch := collection.Properties{
		"moderation_status": string(status),
		"moderated_by":      s.Auth.UserID,
		"moderated_at":      now,
	}
	if err := dest.Update(ctx, collection.UpdateInput{ID: compositeID, Properties: patch}); err != nil {
		return fmt.Errorf("publish: write moderation decision: %w", err)
	}
	return nil
}
