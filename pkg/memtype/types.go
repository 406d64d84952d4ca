// Package memtype holds the data model shared across every component of the
// trust-and-publication core (spec.md §3). Keeping these types in one leaf
// package lets the component packages (trust, access, ghostconfig, confirm,
// memory, publish) depend on the model without depending on each other.
package memtype

import "time"

// DocType discriminates rows sharing one collection, per spec.md §9
// ("Discriminated entities in one collection").
type DocType string

const (
	DocTypeMemory       DocType = "memory"
	DocTypeRelationship DocType = "relationship"
)

// MemoryKind is the free-form-but-enumerated category of a memory.
type MemoryKind string

const (
	MemoryKindJournal MemoryKind = "journal"
	MemoryKindNote    MemoryKind = "note"
	MemoryKindAction  MemoryKind = "action"
	MemoryKindEvent   MemoryKind = "event"
	MemoryKindComment MemoryKind = "comment"
)

// Location is optional GPS/address context for a memory.
type Location struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Address string   `json:"address,omitempty"`
}

// MemoryContext holds structured participants/environment detail.
type MemoryContext struct {
	Participants []string `json:"participants,omitempty"`
	Environment  string   `json:"environment,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Memory is a user-owned knowledge item (spec.md §3).
type Memory struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"owner_id"`
	DocType DocType `json:"doc_type"`

	Content string     `json:"content"`
	Title   string     `json:"title,omitempty"`
	Summary string     `json:"summary,omitempty"`
	Tags    []string   `json:"tags,omitempty"`
	Type    MemoryKind `json:"type,omitempty"`

	Weight float64 `json:"weight"`
	Trust  float64 `json:"trust"`

	Context    *MemoryContext `json:"context,omitempty"`
	Location   *Location      `json:"location,omitempty"`
	References []string       `json:"references,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`

	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeletedBy      string     `json:"deleted_by,omitempty"`
	DeletionReason string     `json:"deletion_reason,omitempty"`

	SpaceIDs        []string `json:"space_ids,omitempty"`
	GroupIDs        []string `json:"group_ids,omitempty"`
	RelationshipIDs []string `json:"relationship_ids,omitempty"`
}

// IsDeleted reports whether the memory has been soft-deleted.
func (m *Memory) IsDeleted() bool { return m != nil && m.DeletedAt != nil }

// MemoryVersionSnapshot is one bounded prior-version entry recorded on
// update. spec.md gives Memory.version as a monotonic counter but is silent
// on whether prior content is retrievable; this is a SPEC_FULL.md
// supplement mirroring PublishedMemory's RevisionEntry/RevisionHistory.
type MemoryVersionSnapshot struct {
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	Title     string    `json:"title,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaxMemoryHistory bounds Memory's supplemented version history, matching
// MaxRevisionHistory's cap on published-memory revisions.
const MaxMemoryHistory = 10

// Relationship is a typed link among two or more memories (spec.md §3).
type Relationship struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"owner_id"`
	DocType DocType `json:"doc_type"`

	RelatedMemoryIDs []string `json:"related_memory_ids"`
	RelationshipType string   `json:"relationship_type"`
	Observation      string   `json:"observation,omitempty"`
	Strength         float64  `json:"strength"`
	Confidence       float64  `json:"confidence"`
	Tags             []string `json:"tags,omitempty"`
	Version          int      `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ModerationStatus governs visibility of a published memory.
type ModerationStatus string

const (
	ModerationApproved ModerationStatus = "approved"
	ModerationPending  ModerationStatus = "pending"
	ModerationRejected ModerationStatus = "rejected"
	ModerationRemoved  ModerationStatus = "removed"
)

// WriteMode governs who may revise/overwrite a published memory.
type WriteMode string

const (
	WriteModeOwnerOnly    WriteMode = "owner_only"
	WriteModeGroupEditors WriteMode = "group_editors"
	WriteModeAnyone       WriteMode = "anyone"
)

// RevisionEntry is one element of a published memory's bounded history.
type RevisionEntry struct {
	Content   string    `json:"content"`
	RevisedAt time.Time `json:"revised_at"`
}

// MaxRevisionHistory bounds PublishedMemory.RevisionHistory (spec.md §3, §8).
const MaxRevisionHistory = 10

// PublishedMemory is a projection of a source memory into a shared
// collection, addressed by a deterministic composite id (spec.md §3).
type PublishedMemory struct {
	ID      string  `json:"id"` // composite id, shared across destinations
	DocType DocType `json:"doc_type"`

	AuthorID string `json:"author_id"`
	OwnerID  string `json:"owner_id"`

	Content string     `json:"content"`
	Title   string     `json:"title,omitempty"`
	Summary string     `json:"summary,omitempty"`
	Tags    []string   `json:"tags,omitempty"`
	Type    MemoryKind `json:"type,omitempty"`
	Weight  float64    `json:"weight"`

	PublishedAt time.Time `json:"published_at"`
	SpaceIDs    []string  `json:"space_ids,omitempty"`
	GroupIDs    []string  `json:"group_ids,omitempty"`

	ModerationStatus ModerationStatus `json:"moderation_status"`
	ModeratedBy      string           `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time       `json:"moderated_at,omitempty"`

	WriteMode           WriteMode       `json:"write_mode"`
	OverwriteAllowedIDs []string        `json:"overwrite_allowed_ids,omitempty"`
	RevisedAt           *time.Time      `json:"revised_at,omitempty"`
	RevisionCount       int             `json:"revision_count"`
	RevisionHistory     []RevisionEntry `json:"revision_history,omitempty"`
	RetractedAt         *time.Time      `json:"retracted_at,omitempty"`
}

// EffectiveWriteMode returns WriteModeOwnerOnly when WriteMode is unset,
// per spec.md §4.6 ("Default write_mode is owner_only when unspecified").
func (p *PublishedMemory) EffectiveWriteMode() WriteMode {
	if p.WriteMode == "" {
		return WriteModeOwnerOnly
	}
	return p.WriteMode
}

// EnforcementMode governs how ghost config applies trust at query time.
type EnforcementMode string

const (
	EnforcementQuery  EnforcementMode = "query"
	EnforcementPrompt EnforcementMode = "prompt"
	EnforcementHybrid EnforcementMode = "hybrid"
)

// GhostConfig is per-owner configuration gating ghost-mode access (spec.md §3).
type GhostConfig struct {
	OwnerID            string             `json:"owner_id"`
	Enabled            bool               `json:"enabled"`
	DefaultFriendTrust float64            `json:"default_friend_trust"`
	DefaultPublicTrust float64            `json:"default_public_trust"`
	PerUserTrust       map[string]float64 `json:"per_user_trust,omitempty"`
	BlockedUsers       map[string]bool    `json:"blocked_users,omitempty"`
	EnforcementMode    EnforcementMode    `json:"enforcement_mode"`
}

// BlockRecord is the terminal state of an escalation triple (spec.md §3).
type BlockRecord struct {
	BlockedAt    time.Time `json:"blocked_at"`
	Reason       string    `json:"reason"`
	AttemptCount int       `json:"attempt_count"`
}

// EscalationRecord tracks repeated insufficient-trust attempts for one
// (owner, accessor, memory) triple (spec.md §3).
type EscalationRecord struct {
	OwnerID       string       `json:"owner_id"`
	AccessorID    string       `json:"accessor_id"`
	MemoryID      string       `json:"memory_id"`
	Count         int          `json:"count"`
	LastAttemptAt time.Time    `json:"last_attempt_at"`
	Blocked       *BlockRecord `json:"blocked,omitempty"`
}

// EscalationThreshold is the attempt count at which a block is written
// (spec.md §4.2, §8 invariant 4).
const EscalationThreshold = 3

// ConfirmationStatus is the state of a confirmation request (spec.md §3).
type ConfirmationStatus string

const (
	StatusPending   ConfirmationStatus = "pending"
	StatusConfirmed ConfirmationStatus = "confirmed"
	StatusDenied    ConfirmationStatus = "denied"
	StatusExpired   ConfirmationStatus = "expired"
	StatusRetracted ConfirmationStatus = "retracted"
)

// ConfirmationAction names the sensitive action a token guards.
type ConfirmationAction string

const (
	ActionPublishMemory ConfirmationAction = "publish_memory"
	ActionRetractMemory ConfirmationAction = "retract_memory"
	ActionReviseMemory  ConfirmationAction = "revise_memory"
)

// TokenTTL is the lifetime of a confirmation request (spec.md §3, §5).
const TokenTTL = 5 * time.Minute

// ConfirmationRequest is a pending sensitive action awaiting two-phase
// confirmation (spec.md §3).
type ConfirmationRequest struct {
	RequestID   string             `json:"request_id"`
	UserID      string             `json:"user_id"`
	Token       string             `json:"token"`
	Action      ConfirmationAction `json:"action"`
	Payload     map[string]any     `json:"payload"`
	CreatedAt   time.Time          `json:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Status      ConfirmationStatus `json:"status"`
	ConfirmedAt *time.Time         `json:"confirmed_at,omitempty"`
}
