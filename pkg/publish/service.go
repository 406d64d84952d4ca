// Package publish implements the space publication pipeline (spec.md §4.6):
// publish/retract/revise over the two-phase confirmation protocol, moderation,
// write-ACL resolution, and cross-space search.
package publish

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/confirm"
	"github.com/remembercore/memcore/pkg/memtype"
)

// spaceIDPattern is the syntactic predicate spaces must satisfy: lowercase
// slug of letters, digits, underscore, hyphen (spec.md §4.6 "validated
// against a format predicate"). The exact charset is not specified; this is
// the conventional slug shape used throughout the rest of the storage layer.
var spaceIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidSpaceID reports whether id satisfies the space-id syntactic predicate.
func ValidSpaceID(id string) bool {
	return spaceIDPattern.MatchString(id)
}

// ValidGroupID reports whether id is non-empty and contains no dots
// (spec.md §4.6: "group id is any non-empty string without a dot").
func ValidGroupID(id string) bool {
	return id != "" && !strings.Contains(id, ".")
}

// SpaceConfig governs publication behavior for the unified public collection.
type SpaceConfig struct {
	RequiresModeration bool
}

// GroupConfig governs publication behavior for one group's collection.
type GroupConfig struct {
	RequiresModeration bool
}

// SpaceConfigProvider resolves per-space publication config.
type SpaceConfigProvider interface {
	GetSpaceConfig(ctx context.Context, spaceID string) (SpaceConfig, error)
}

// GroupConfigProvider resolves per-group publication config.
type GroupConfigProvider interface {
	GetGroupConfig(ctx context.Context, groupID string) (GroupConfig, error)
}

// GroupCollections resolves a group id to the Collection backing that
// group's isolated shared collection (spec.md §6 "Per group: a dedicated
// collection named from the group id").
type GroupCollections interface {
	Collection(ctx context.Context, groupID string) (collection.Collection, error)
}

// Service is constructor-bound to one (user_id, source collection) pair, per
// spec.md §5's shared-resource policy.
type Service struct {
	OwnerID string
	Source  collection.Collection // the owner's private collection

	PublicSpace collection.Collection // unified public collection
	Groups      GroupCollections

	SpaceConfigs SpaceConfigProvider
	GroupConfigs GroupConfigProvider

	Confirm *confirm.Store
	Auth    auth.Context

	now func() time.Time
}

// New constructs a publication Service.
func New(ownerID string, source, publicSpace collection.Collection, groups GroupCollections, spaceConfigs SpaceConfigProvider, groupConfigs GroupConfigProvider, confirmStore *confirm.Store) *Service {
	return &Service{
		OwnerID:      ownerID,
		Source:       source,
		PublicSpace:  publicSpace,
		Groups:       groups,
		SpaceConfigs: spaceConfigs,
		GroupConfigs: groupConfigs,
		Confirm:      confirmStore,
		now:          time.Now,
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// DestinationOutcome is the per-target report every fan-out operation
// produces (spec.md §4.6, §7 "Partial destination failure").
type DestinationOutcome struct {
	Kind    string // "space" or "group"
	ID      string
	Outcome string // "success" | "failed" | "skipped"
	Error   string
}

func (s *Service) getSourceMemory(ctx context.Context, memoryID string) (*memtype.Memory, error) {
	obj, err := s.Source.FetchObjectByID(ctx, memoryID, nil)
	if err != nil {
		return nil, fmt.Errorf("publish: fetch source memory: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("Memory not found: %s", memoryID)
	}
	m := propsToSourceMemory(obj.UUID, obj.Properties)
	if m.DocType != memtype.DocTypeMemory {
		return nil, fmt.Errorf("Memory not found: %s", memoryID)
	}
	if m.OwnerID != s.OwnerID {
		return nil, fmt.Errorf("Permission denied: not memory owner")
	}
	return m, nil
}

func (s *Service) groupCollection(ctx context.Context, groupID string) (collection.Collection, error) {
	if s.Groups == nil {
		return nil, fmt.Errorf("publish: no group collection resolver configured")
	}
	return s.Groups.Collection(ctx, groupID)
}

func stringSet(ss []string) map[string]bool {
	set := make(map[string]bool, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set
}

func unionStrings(a, b []string) []string {
	set := stringSet(a)
	out := append([]string{}, a...)
	for _, s := range b {
		if !set[s] {
			set[s] = true
			out = append(out, s)
		}
	}
	return out
}

func subtractStrings(a, remove []string) []string {
	drop := stringSet(remove)
	out := make([]string, 0, len(a))
	for _, s := range a {
		if !drop[s] {
			out = append(out, s)
		}
	}
	return out
}

func containsString(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
