// Package ids provides identifier generation for the memory store.
//
// Memory and relationship ids are random (crypto/rand via google/uuid v4);
// composite publication ids must be deterministic so that publishing the same
// source memory to the same destination twice upserts the same row (spec
// invariant: composite_id(owner, mem_id) is a pure function of its inputs).
package ids

import (
	"github.com/google/uuid"
)

// memoryNamespace roots the UUIDv5 space used for composite publication ids.
// Any fixed UUID works here; it only needs to be stable across process restarts.
var memoryNamespace = uuid.MustParse("c9c6e772-df92-4d0b-9d63-7f6cb9f1c9a1")

// New returns a fresh random identifier, used for memories, relationships,
// escalation-free entities and anything else that does not need to be
// addressable deterministically.
func New() string {
	return uuid.NewString()
}

// CompositeID deterministically derives the cross-collection publication id
// for a (owner, source memory) pair. The same pair always yields the same id,
// regardless of which destination (spaces collection or a group collection)
// it is written to.
func CompositeID(ownerID, memoryID string) string {
	return uuid.NewSHA1(memoryNamespace, []byte(ownerID+"\x00"+memoryID)).String()
}

// Token returns an opaque, UUID-strength confirmation token.
func Token() string {
	return uuid.NewString()
}
