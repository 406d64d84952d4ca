package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/memstore"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/core"
	"github.com/remembercore/memcore/pkg/memory"
	"github.com/remembercore/memcore/pkg/memtype"
)

type noGroups struct{}

func (noGroups) Collection(_ context.Context, _ string) (collection.Collection, error) {
	return memstore.NewCollection(), nil
}

func newTestStore(userID string) *core.Store {
	return core.New(userID, core.Deps{
		KV:                memstore.NewKV(),
		PrivateCollection: memstore.NewCollection(),
		PublicSpace:       memstore.NewCollection(),
		Groups:            noGroups{},
	})
}

func TestNewWiresEveryComponent(t *testing.T) {
	s := newTestStore("u1")
	require.Equal(t, "u1", s.UserID)
	require.NotNil(t, s.Memory)
	require.NotNil(t, s.Access)
	require.NotNil(t, s.GhostConfig)
	require.NotNil(t, s.Confirm)
	require.NotNil(t, s.Publication)
	require.NotNil(t, s.Log)
}

func TestStoreMemoryServiceIsUsable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore("u1")

	m, err := s.Memory.Create(ctx, memory.CreateInput{Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, "u1", m.OwnerID)
}

func TestFormatForPromptSelfAccessBypassesTrust(t *testing.T) {
	s := newTestStore("u1")
	m := &memtype.Memory{OwnerID: "u1", Content: "secret", Trust: 0.9}

	out := s.FormatForPrompt("u1", 0, m)
	require.Contains(t, out, "secret", "self-access must bypass trust gating")
}

func TestTrustQueryFilterUsesAccessorTrust(t *testing.T) {
	s := newTestStore("u1")
	f := s.TrustQueryFilter(0.4)
	require.Equal(t, 0.4, f.Value)
}

func TestShouldRedactForPromptDelegatesToTrust(t *testing.T) {
	s := newTestStore("u1")
	require.False(t, s.ShouldRedactForPrompt(memtype.EnforcementQuery, 0.9))
	require.True(t, s.ShouldRedactForPrompt(memtype.EnforcementPrompt, 0.9))
}
