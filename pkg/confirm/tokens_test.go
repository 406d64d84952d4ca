package confirm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/memstore"
	"github.com/remembercore/memcore/pkg/confirm"
	"github.com/remembercore/memcore/pkg/memtype"
)

func TestCreateRequestIssuesPendingToken(t *testing.T) {
	ctx := context.Background()
	s := confirm.NewStore(memstore.NewKV())

	req, err := s.CreateRequest(ctx, "u1", memtype.ActionPublishMemory, map[string]any{"memory_id": "m1"})
	require.NoError(t, err)
	require.NotEmpty(t, req.Token)
	require.NotEmpty(t, req.RequestID)
	require.Equal(t, memtype.StatusPending, req.Status)
	require.Equal(t, req.CreatedAt.Add(memtype.TokenTTL), req.ExpiresAt)
}

func TestConfirmRequestTransitionsOnce(t *testing.T) {
	ctx := context.Background()
	s := confirm.NewStore(memstore.NewKV())

	req, err := s.CreateRequest(ctx, "u1", memtype.ActionPublishMemory, nil)
	require.NoError(t, err)

	confirmed, ok, err := s.ConfirmRequest(ctx, "u1", req.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, memtype.StatusConfirmed, confirmed.Status)

	_, ok, err = s.ConfirmRequest(ctx, "u1", req.Token)
	require.NoError(t, err)
	require.False(t, ok, "a token already consumed must not confirm again")
}

func TestConfirmRequestRejectsUnknownToken(t *testing.T) {
	ctx := context.Background()
	s := confirm.NewStore(memstore.NewKV())

	_, ok, err := s.ConfirmRequest(ctx, "u1", "does-not-exist")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateTokenAcceptsUnexpiredRequest(t *testing.T) {
	ctx := context.Background()
	s := confirm.NewStore(memstore.NewKV())

	req, err := s.CreateRequest(ctx, "u1", memtype.ActionRetractMemory, nil)
	require.NoError(t, err)

	got, err := s.ValidateToken(ctx, "u1", req.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestDenyAndRetractTransitions(t *testing.T) {
	ctx := context.Background()
	s := confirm.NewStore(memstore.NewKV())

	req, err := s.CreateRequest(ctx, "u1", memtype.ActionReviseMemory, nil)
	require.NoError(t, err)
	denied, ok, err := s.DenyRequest(ctx, "u1", req.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, memtype.StatusDenied, denied.Status)

	req2, err := s.CreateRequest(ctx, "u1", memtype.ActionReviseMemory, nil)
	require.NoError(t, err)
	retracted, ok, err := s.RetractRequest(ctx, "u1", req2.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, memtype.StatusRetracted, retracted.Status)
}

func TestValidateTokenScopedToUser(t *testing.T) {
	ctx := context.Background()
	s := confirm.NewStore(memstore.NewKV())

	req, err := s.CreateRequest(ctx, "u1", memtype.ActionPublishMemory, nil)
	require.NoError(t, err)

	got, err := s.ValidateToken(ctx, "u2", req.Token)
	require.NoError(t, err)
	require.Nil(t, got, "a token issued to u1 must not validate under u2's path")
}
