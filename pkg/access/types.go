// Package access implements per-memory access control and escalation
// bookkeeping (spec.md §4.2): check_access, the attempt-counting state
// machine, and the explicit resetBlock grant.
package access

import (
	"context"
	"time"

	"github.com/remembercore/memcore/pkg/memtype"
)

// ResultKind discriminates the variants of AccessResult (spec.md §4.2).
type ResultKind string

const (
	ResultGranted           ResultKind = "granted"
	ResultNoPermission      ResultKind = "no_permission"
	ResultBlocked           ResultKind = "blocked"
	ResultInsufficientTrust ResultKind = "insufficient_trust"
)

// AccessLevel distinguishes an owner's access from a merely-trusted
// accessor's, carried on a Granted result.
type AccessLevel string

const (
	AccessOwner   AccessLevel = "owner"
	AccessTrusted AccessLevel = "trusted"
)

// Result is the outcome of CheckAccess. Exactly the fields relevant to Kind
// are populated; the others are zero.
type Result struct {
	Kind ResultKind

	// Granted
	AccessLevel AccessLevel

	// Blocked
	MemoryID  string
	Reason    string
	BlockedAt time.Time

	// InsufficientTrust
	Required          float64
	Actual            float64
	AttemptsRemaining int
}

// GhostConfigProvider resolves per-owner ghost configuration. A nil config
// with a nil error means "ghost disabled", identical in effect to an
// explicit enabled=false (spec.md §4.4's GhostConfigProvider contract).
type GhostConfigProvider interface {
	GetGhostConfig(ctx context.Context, ownerID string) (*memtype.GhostConfig, error)
}

// EscalationStore persists per-(owner,accessor,memory) escalation state.
type EscalationStore interface {
	Get(ctx context.Context, ownerID, accessorID, memoryID string) (*memtype.EscalationRecord, error)
	IncrementAndMaybeBlock(ctx context.Context, ownerID, accessorID, memoryID, blockReason string, threshold int) (*memtype.EscalationRecord, error)
	ResetBlock(ctx context.Context, ownerID, accessorID, memoryID string) error
}

// RelationshipPredicate is the pluggable friend-vs-public hook (spec.md §9,
// SPEC_FULL.md "Friend-vs-public predicate hook"). When it returns true the
// checker uses default_friend_trust instead of default_public_trust; nil
// preserves the source's current behavior exactly (friend trust unused).
type RelationshipPredicate func(ownerID, accessorID string) bool
