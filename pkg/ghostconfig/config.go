// Package ghostconfig provides CRUD and partial-merge semantics over
// per-owner ghost configuration (spec.md §4.3).
package ghostconfig

import (
	"context"
	"fmt"

	"github.com/remembercore/memcore/internal/obslog"
	"github.com/remembercore/memcore/pkg/kvstore"
	"github.com/remembercore/memcore/pkg/memtype"
)

const docPath = "ghost_config"
const docID = "settings"

func path(ownerID string) string {
	return fmt.Sprintf("users/%s/%s", ownerID, docPath)
}

// Store is the persistent ghost-config CRUD surface, backed by any
// kvstore.KVDocStore (spec.md §9 "provider interfaces for external stores").
type Store struct {
	KV kvstore.KVDocStore
}

// NewStore constructs a ghost config Store.
func NewStore(kv kvstore.KVDocStore) *Store {
	return &Store{KV: kv}
}

// GetGhostConfig implements access.GhostConfigProvider: a nil config and nil
// error means "ghost disabled" (spec.md §4.3).
func (s *Store) GetGhostConfig(ctx context.Context, ownerID string) (*memtype.GhostConfig, error) {
	doc, err := s.KV.GetDocument(ctx, path(ownerID), docID)
	if err == kvstore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ghostconfig: get: %w", err)
	}
	return decode(ownerID, doc.Data), nil
}

// Create writes a brand new ghost config for ownerID, validating every
// field (spec.md §4.3, §3 invariants).
func (s *Store) Create(ctx context.Context, ownerID string, cfg memtype.GhostConfig) error {
	cfg.OwnerID = ownerID
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := s.KV.SetDocument(ctx, path(ownerID), docID, encode(cfg), kvstore.SetOptions{}); err != nil {
		return fmt.Errorf("ghostconfig: create: %w", err)
	}
	return nil
}

// Update partially merges the given fields onto ownerID's existing config.
// Patch uses pointer/optional-map fields so "not provided" is distinguishable
// from "set to zero value". Every provided field is validated against the
// spec.md §3 invariants before anything is persisted; an invalid field fails
// with no change made.
type Patch struct {
	Enabled            *bool
	DefaultFriendTrust *float64
	DefaultPublicTrust *float64
	PerUserTrust       map[string]float64 // merged key-by-key when non-nil
	BlockUsers         []string           // added to the blocked set
	UnblockUsers       []string           // removed from the blocked set
	EnforcementMode    *memtype.EnforcementMode
}

// Update applies patch to ownerID's ghost config, validating first.
// Mutations log the touched key set for audit (spec.md §4.3).
func (s *Store) Update(ctx context.Context, ownerID string, patch Patch) (touched []string, err error) {
	cfg, err := s.GetGhostConfig(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &memtype.GhostConfig{OwnerID: ownerID, PerUserTrust: map[string]float64{}, BlockedUsers: map[string]bool{}}
	}

	next := *cfg
	next.PerUserTrust = cloneFloatMap(cfg.PerUserTrust)
	next.BlockedUsers = cloneBoolMap(cfg.BlockedUsers)

	if patch.Enabled != nil {
		next.Enabled = *patch.Enabled
		touched = append(touched, "enabled")
	}
	if patch.DefaultFriendTrust != nil {
		next.DefaultFriendTrust = *patch.DefaultFriendTrust
		touched = append(touched, "default_friend_trust")
	}
	if patch.DefaultPublicTrust != nil {
		next.DefaultPublicTrust = *patch.DefaultPublicTrust
		touched = append(touched, "default_public_trust")
	}
	if patch.PerUserTrust != nil {
		for user, t := range patch.PerUserTrust {
			next.PerUserTrust[user] = t
		}
		touched = append(touched, "per_user_trust")
	}
	if len(patch.BlockUsers) > 0 {
		for _, u := range patch.BlockUsers {
			next.BlockedUsers[u] = true
		}
		touched = append(touched, "blocked_users")
	}
	if len(patch.UnblockUsers) > 0 {
		for _, u := range patch.UnblockUsers {
			delete(next.BlockedUsers, u)
		}
		touched = append(touched, "blocked_users")
	}
	if patch.EnforcementMode != nil {
		next.EnforcementMode = *patch.EnforcementMode
		touched = append(touched, "enforcement_mode")
	}

	next.OwnerID = ownerID
	if err := Validate(next); err != nil {
		return nil, err
	}

	if err := s.KV.SetDocument(ctx, path(ownerID), docID, encode(next), kvstore.SetOptions{}); err != nil {
		return nil, fmt.Errorf("ghostconfig: update: %w", err)
	}
	obslog.New("ghostconfig").Info().
		Str("owner_id", ownerID).
		Strs("touched", touched).
		Msg("ghost config updated")
	return touched, nil
}

// Delete removes ownerID's ghost config entirely, which is equivalent to
// disabling ghost mode (spec.md §4.3 — provider returns nil for it).
func (s *Store) Delete(ctx context.Context, ownerID string) error {
	if err := s.KV.DeleteDocument(ctx, path(ownerID), docID); err != nil {
		return fmt.Errorf("ghostconfig: delete: %w", err)
	}
	return nil
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
