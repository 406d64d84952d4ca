package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/memstore"
	"github.com/remembercore/memcore/pkg/memtype"
)

func TestValidateTokenExpiresLazily(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memstore.NewKV())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	req, err := s.CreateRequest(ctx, "u1", memtype.ActionPublishMemory, nil)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(memtype.TokenTTL + time.Second) }

	got, err := s.ValidateToken(ctx, "u1", req.Token)
	require.NoError(t, err)
	require.Nil(t, got, "a token past its expires_at must lazily expire")

	s.now = func() time.Time { return base }
	confirmed, ok, err := s.ConfirmRequest(ctx, "u1", req.Token)
	require.NoError(t, err)
	require.False(t, ok, "an already-expired token must not confirm even if the clock rewinds")
	require.Nil(t, confirmed)
}
