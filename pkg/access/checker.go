package access

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/remembercore/memcore/internal/obslog"
	"github.com/remembercore/memcore/pkg/memtype"
)

// Checker evaluates CheckAccess against injected ghost-config and escalation
// providers (spec.md §9 "provider interfaces for external stores").
type Checker struct {
	GhostConfigs GhostConfigProvider
	Escalations  EscalationStore

	// RelationshipPredicate is consulted when resolving accessor trust; see
	// the type's doc comment. Leave nil for spec-default behavior.
	RelationshipPredicate RelationshipPredicate

	// Log receives a warning when escalation bookkeeping fails; nil disables
	// logging. The failure never changes the returned access decision
	// (spec.md §7).
	Log *zerolog.Logger
}

// NewChecker constructs a Checker from its two required collaborators.
func NewChecker(configs GhostConfigProvider, escalations EscalationStore) *Checker {
	return &Checker{GhostConfigs: configs, Escalations: escalations}
}

// CheckAccess implements the algorithm of spec.md §4.2 in order; the first
// matching step determines the result.
func (c *Checker) CheckAccess(ctx context.Context, accessorID string, m *memtype.Memory) (Result, error) {
	// 1. Owner short-circuits.
	if accessorID == m.OwnerID {
		return Result{Kind: ResultGranted, AccessLevel: AccessOwner}, nil
	}

	// 2. Ghost config must exist and be enabled.
	cfg, err := c.GhostConfigs.GetGhostConfig(ctx, m.OwnerID)
	if err != nil {
		return Result{}, fmt.Errorf("access: load ghost config: %w", err)
	}
	if cfg == nil || !cfg.Enabled {
		return Result{Kind: ResultNoPermission}, nil
	}

	// 3. User-wide block.
	if cfg.BlockedUsers[accessorID] {
		return Result{Kind: ResultNoPermission}, nil
	}

	// 4. Per-memory block already on file.
	rec, err := c.Escalations.Get(ctx, m.OwnerID, accessorID, m.ID)
	if err != nil {
		return Result{}, fmt.Errorf("access: load escalation record: %w", err)
	}
	if rec != nil && rec.Blocked != nil {
		return Result{
			Kind:      ResultBlocked,
			MemoryID:  m.ID,
			Reason:    rec.Blocked.Reason,
			BlockedAt: rec.Blocked.BlockedAt,
		}, nil
	}

	// 5. Resolve accessor trust.
	accessorTrust := c.resolveAccessorTrust(cfg, m.OwnerID, accessorID)

	// 6. Sufficiency check.
	if accessorTrust < m.Trust {
		reason := fmt.Sprintf("Access blocked after %d unauthorized attempts", memtype.EscalationThreshold)
		updated, err := c.Escalations.IncrementAndMaybeBlock(ctx, m.OwnerID, accessorID, m.ID, reason, memtype.EscalationThreshold)
		if err != nil {
			// Escalation bookkeeping failure must never mask the access
			// decision (spec.md §7): report insufficient_trust as if the
			// write had succeeded, counting this attempt on top of the
			// stored count.
			if c.Log != nil {
				obslog.WarnEscalationFailure(ctx, c.Log, m.OwnerID, accessorID, m.ID, err)
			}
			attempts := 1
			if rec != nil {
				attempts = rec.Count + 1
			}
			return insufficientResult(m.Trust, accessorTrust, attempts), nil
		}
		if updated.Blocked != nil {
			return Result{
				Kind:      ResultBlocked,
				MemoryID:  m.ID,
				Reason:    updated.Blocked.Reason,
				BlockedAt: updated.Blocked.BlockedAt,
			}, nil
		}
		return insufficientResult(m.Trust, accessorTrust, updated.Count), nil
	}

	// 7. Granted.
	return Result{Kind: ResultGranted, AccessLevel: AccessTrusted}, nil
}

func insufficientResult(required, accessorTrust float64, count int) Result {
	actual := accessorTrust - 0.1
	if actual < 0 {
		actual = 0
	}
	return Result{
		Kind:              ResultInsufficientTrust,
		Required:          required,
		Actual:            actual,
		AttemptsRemaining: memtype.EscalationThreshold - count,
	}
}

// resolveAccessorTrust implements spec.md §4.2 step 5: per_user_trust, else
// default_public_trust (or default_friend_trust via the predicate hook),
// else 0.
func (c *Checker) resolveAccessorTrust(cfg *memtype.GhostConfig, ownerID, accessorID string) float64 {
	if t, ok := cfg.PerUserTrust[accessorID]; ok {
		return t
	}
	if c.RelationshipPredicate != nil && c.RelationshipPredicate(ownerID, accessorID) {
		return cfg.DefaultFriendTrust
	}
	return cfg.DefaultPublicTrust
}
