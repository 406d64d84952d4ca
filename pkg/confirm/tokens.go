// Package confirm implements the one-shot, time-bounded confirmation-token
// state machine that guards every sensitive action in the publication
// pipeline (spec.md §4.4).
package confirm

import (
	"context"
	"fmt"
	"time"

	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/kvstore"
	"github.com/remembercore/memcore/pkg/memtype"
)

const requestsPath = "users/%s/requests"

func path(userID string) string {
	return fmt.Sprintf(requestsPath, userID)
}

// Store issues and transitions confirmation requests over a kvstore.KVDocStore.
type Store struct {
	KV kvstore.KVDocStore

	// now is overridable for deterministic tests; defaults to time.Now.
	now func() time.Time
}

// NewStore constructs a confirmation token Store.
func NewStore(kv kvstore.KVDocStore) *Store {
	return &Store{KV: kv, now: time.Now}
}

// CreateRequest issues a new pending confirmation for userID, expiring
// TokenTTL from now (spec.md §4.4).
func (s *Store) CreateRequest(ctx context.Context, userID string, action memtype.ConfirmationAction, payload map[string]any) (*memtype.ConfirmationRequest, error) {
	now := s.clock()
	req := &memtype.ConfirmationRequest{
		UserID:    userID,
		Token:     ids.Token(),
		Action:    action,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(memtype.TokenTTL),
		Status:    memtype.StatusPending,
	}

	id, err := s.KV.AddDocument(ctx, path(userID), encode(req))
	if err != nil {
		return nil, fmt.Errorf("confirm: create request: %w", err)
	}
	req.RequestID = id
	return req, nil
}

// ValidateToken looks up userID's pending request by token. If it is
// pending but past expiry, it is lazily transitioned to expired and nil is
// returned (spec.md §4.4, §5, §8 boundary: "at exactly expires_at second").
func (s *Store) ValidateToken(ctx context.Context, userID, token string) (*memtype.ConfirmationRequest, error) {
	req, err := s.findByToken(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Status != memtype.StatusPending {
		return nil, nil
	}
	if !s.clock().Before(req.ExpiresAt) {
		_, _ = s.KV.CompareAndSetStatus(ctx, path(userID), req.RequestID, string(memtype.StatusPending), string(memtype.StatusExpired), nil)
		return nil, nil
	}
	return req, nil
}

// ConfirmRequest transitions a pending token to confirmed. Returns false if
// the token was not pending (already consumed, expired, or unknown) — the
// transition is monotonic (spec.md §3, §8 invariant 5).
func (s *Store) ConfirmRequest(ctx context.Context, userID, token string) (*memtype.ConfirmationRequest, bool, error) {
	return s.transition(ctx, userID, token, memtype.StatusConfirmed)
}

// DenyRequest transitions a pending token to denied.
func (s *Store) DenyRequest(ctx context.Context, userID, token string) (*memtype.ConfirmationRequest, bool, error) {
	return s.transition(ctx, userID, token, memtype.StatusDenied)
}

// RetractRequest transitions a pending token to retracted.
func (s *Store) RetractRequest(ctx context.Context, userID, token string) (*memtype.ConfirmationRequest, bool, error) {
	return s.transition(ctx, userID, token, memtype.StatusRetracted)
}

func (s *Store) transition(ctx context.Context, userID, token string, to memtype.ConfirmationStatus) (*memtype.ConfirmationRequest, bool, error) {
	req, err := s.ValidateToken(ctx, userID, token)
	if err != nil {
		return nil, false, err
	}
	if req == nil {
		return nil, false, nil
	}

	now := s.clock()
	ok, err := s.KV.CompareAndSetStatus(ctx, path(userID), req.RequestID, string(memtype.StatusPending), string(to), map[string]any{
		"confirmed_at": now,
	})
	if err != nil {
		return nil, false, fmt.Errorf("confirm: transition request: %w", err)
	}
	if !ok {
		// Lost the race to another caller; the transition must be observed
		// by at most one caller (spec.md §5).
		return nil, false, nil
	}
	req.Status = to
	req.ConfirmedAt = &now
	return req, true, nil
}

func (s *Store) findByToken(ctx context.Context, userID, token string) (*memtype.ConfirmationRequest, error) {
	docs, err := s.KV.QueryDocuments(ctx, path(userID), kvstore.QueryOptions{
		Where: []kvstore.Where{{Field: "token", Op: kvstore.WhereEqual, Value: token}},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("confirm: lookup token: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decode(docs[0].ID, docs[0].Data), nil
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
