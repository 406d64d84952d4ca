// Package core is the composition root wiring the trust-and-publication
// components (C1-C6) behind one per-(user, collection) Store, mirroring how
// the teacher's chat.ChatService composes store.Storer with memory.Extractor
// behind plain method calls.
package core

import (
	"github.com/rs/zerolog"

	"github.com/remembercore/memcore/internal/obslog"
	"github.com/remembercore/memcore/pkg/access"
	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/confirm"
	"github.com/remembercore/memcore/pkg/ghostconfig"
	"github.com/remembercore/memcore/pkg/kvstore"
	"github.com/remembercore/memcore/pkg/memory"
	"github.com/remembercore/memcore/pkg/memtype"
	"github.com/remembercore/memcore/pkg/publish"
	"github.com/remembercore/memcore/pkg/trust"
)

// Store is instantiated per (user_id, collection-handle) pair (spec.md §5)
// and exposes every component as a plain field — callers reach C1 through
// trust.*, C5 through Memory, C6 through Publication, and so on, without an
// extra facade layer.
type Store struct {
	UserID string

	Memory      *memory.Service
	Access      *access.Checker
	GhostConfig *ghostconfig.Store
	Confirm     *confirm.Store
	Publication *publish.Service

	Log *zerolog.Logger
}

// Deps bundles the external collaborators a Store needs — the vector-store
// and KV boundaries spec.md §1 treats as out of scope, plus the shared
// collections and config providers the publication pipeline fans out into.
type Deps struct {
	KV kvstore.KVDocStore

	PrivateCollection collection.Collection
	PublicSpace       collection.Collection
	Groups            publish.GroupCollections

	SpaceConfigs publish.SpaceConfigProvider
	GroupConfigs publish.GroupConfigProvider

	RelationshipPredicate access.RelationshipPredicate
	Auth                  auth.Context
}

// New wires one Store for userID over deps.
func New(userID string, deps Deps) *Store {
	log := obslog.New("core")

	ghostConfigs := ghostconfig.NewStore(deps.KV)
	escalations := access.NewKVEscalationStore(deps.KV)
	checker := access.NewChecker(ghostConfigs, escalations)
	checker.RelationshipPredicate = deps.RelationshipPredicate
	checker.Log = log

	confirmStore := confirm.NewStore(deps.KV)

	pub := publish.New(userID, deps.PrivateCollection, deps.PublicSpace, deps.Groups, deps.SpaceConfigs, deps.GroupConfigs, confirmStore)
	pub.Auth = deps.Auth

	return &Store{
		UserID:      userID,
		Memory:      memory.New(userID, deps.PrivateCollection),
		Access:      checker,
		GhostConfig: ghostConfigs,
		Confirm:     confirmStore,
		Publication: pub,
		Log:         log,
	}
}

// FormatForPrompt redaction-formats a memory at accessorTrust through C1's
// prompt-layer formatting (trust.FormatMemoryForPrompt), treating
// accessorID == m.OwnerID as self access. It does not run C2's access check
// (Access.CheckAccess) and does not read ghost config.
func (s *Store) FormatForPrompt(accessorID string, accessorTrust float64, m *memtype.Memory) string {
	return trust.FormatMemoryForPrompt(m, accessorTrust, accessorID == m.OwnerID)
}

// TrustQueryFilter returns the query-layer filter C1 applies before a
// cross-user read reaches the backing collection (spec.md §4.1, data-flow
// note in §2): rows whose trust requirement exceeds accessorTrust never
// transit the wire under "query" or "hybrid" enforcement.
func (s *Store) TrustQueryFilter(accessorTrust float64) collection.Filter {
	return trust.QueryFilter(accessorTrust)
}

// ShouldRedactForPrompt reports whether a memory at memoryTrust still needs
// prompt-layer redaction under mode, after already passing (or bypassing)
// TrustQueryFilter.
func (s *Store) ShouldRedactForPrompt(mode memtype.EnforcementMode, memoryTrust float64) bool {
	return trust.ShouldRedact(trust.EnforcementMode(mode), memoryTrust)
}
