package access

import (
	"context"
	"fmt"
	"time"

	"github.com/remembercore/memcore/pkg/kvstore"
	"github.com/remembercore/memcore/pkg/memtype"
)

// escalationPath matches spec.md §6's KV path layout:
// {BASE}.users/{owner}/ghost_escalation/{accessor}:{memory}.
func escalationPath(ownerID string) string {
	return fmt.Sprintf("users/%s/ghost_escalation", ownerID)
}

func escalationDocID(accessorID, memoryID string) string {
	return accessorID + ":" + memoryID
}

// KVEscalationStore implements EscalationStore over any kvstore.KVDocStore.
type KVEscalationStore struct {
	KV kvstore.KVDocStore
}

// NewKVEscalationStore constructs a store-backed EscalationStore.
func NewKVEscalationStore(kv kvstore.KVDocStore) *KVEscalationStore {
	return &KVEscalationStore{KV: kv}
}

func (s *KVEscalationStore) Get(ctx context.Context, ownerID, accessorID, memoryID string) (*memtype.EscalationRecord, error) {
	doc, err := s.KV.GetDocument(ctx, escalationPath(ownerID), escalationDocID(accessorID, memoryID))
	if err == kvstore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("access: get escalation record: %w", err)
	}
	return decodeEscalation(ownerID, accessorID, memoryID, doc.Data), nil
}

// IncrementAndMaybeBlock implements the state machine transitions of
// spec.md §4.2/§8 invariant 4: initial -> attempts=1 -> attempts=2 ->
// blocked (terminal until ResetBlock). Blocking is best-effort per spec.md
// §7 ("escalation updates are best-effort"), but it must never silently
// downgrade a block back to an open count, so a second writer that loses a
// race still converges on "blocked" the next time it reads.
func (s *KVEscalationStore) IncrementAndMaybeBlock(ctx context.Context, ownerID, accessorID, memoryID, blockReason string, threshold int) (*memtype.EscalationRecord, error) {
	existing, err := s.Get(ctx, ownerID, accessorID, memoryID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Blocked != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	count := 1
	if existing != nil {
		count = existing.Count + 1
	}

	data := map[string]any{
		"count":           count,
		"last_attempt_at": now,
	}

	rec := &memtype.EscalationRecord{
		OwnerID:       ownerID,
		AccessorID:    accessorID,
		MemoryID:      memoryID,
		Count:         count,
		LastAttemptAt: now,
	}

	if count >= threshold {
		data["blocked_at"] = now
		data["reason"] = blockReason
		data["attempt_count"] = count
		rec.Blocked = &memtype.BlockRecord{
			BlockedAt:    now,
			Reason:       blockReason,
			AttemptCount: count,
		}
	}

	if err := s.KV.SetDocument(ctx, escalationPath(ownerID), escalationDocID(accessorID, memoryID), data, kvstore.SetOptions{}); err != nil {
		return nil, fmt.Errorf("access: write escalation record: %w", err)
	}
	return rec, nil
}

// ResetBlock clears an escalation record back to its initial state
// (spec.md §4.2 "any state --grant_access (resetBlock)--> initial").
func (s *KVEscalationStore) ResetBlock(ctx context.Context, ownerID, accessorID, memoryID string) error {
	if err := s.KV.DeleteDocument(ctx, escalationPath(ownerID), escalationDocID(accessorID, memoryID)); err != nil {
		return fmt.Errorf("access: reset escalation record: %w", err)
	}
	return nil
}

func decodeEscalation(ownerID, accessorID, memoryID string, data map[string]any) *memtype.EscalationRecord {
	rec := &memtype.EscalationRecord{OwnerID: ownerID, AccessorID: accessorID, MemoryID: memoryID}
	if v, ok := data["count"]; ok {
		rec.Count = toInt(v)
	}
	if v, ok := data["last_attempt_at"]; ok {
		if t, ok := v.(time.Time); ok {
			rec.LastAttemptAt = t
		}
	}
	if _, ok := data["blocked_at"]; ok {
		block := &memtype.BlockRecord{}
		if t, ok := data["blocked_at"].(time.Time); ok {
			block.BlockedAt = t
		}
		if reason, ok := data["reason"].(string); ok {
			block.Reason = reason
		}
		if ac, ok := data["attempt_count"]; ok {
			block.AttemptCount = toInt(ac)
		}
		rec.Blocked = block
	}
	return rec
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
