package publish_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/memtype"
	"github.com/remembercore/memcore/pkg/publish"
)

func TestCanReviseOwnerAlwaysAllowed(t *testing.T) {
	p := &memtype.PublishedMemory{OwnerID: "owner", WriteMode: memtype.WriteModeOwnerOnly}
	ok, err := publish.CanRevise(context.Background(), "owner", p, nil, nil, "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanReviseOwnerOnlyBlocksOthers(t *testing.T) {
	p := &memtype.PublishedMemory{OwnerID: "owner", WriteMode: memtype.WriteModeOwnerOnly}
	ok, err := publish.CanRevise(context.Background(), "stranger", p, nil, nil, "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanReviseAnyoneAllowsEveryone(t *testing.T) {
	p := &memtype.PublishedMemory{OwnerID: "owner", WriteMode: memtype.WriteModeAnyone}
	ok, err := publish.CanRevise(context.Background(), "stranger", p, nil, nil, "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanReviseDefaultsToOwnerOnlyWhenUnset(t *testing.T) {
	p := &memtype.PublishedMemory{OwnerID: "owner"}
	ok, err := publish.CanRevise(context.Background(), "stranger", p, nil, nil, "")
	require.NoError(t, err)
	require.False(t, ok, "unset write_mode must default to owner_only")
}

func TestCanReviseGroupEditorsChecksCapability(t *testing.T) {
	p := &memtype.PublishedMemory{OwnerID: "owner", WriteMode: memtype.WriteModeGroupEditors, GroupIDs: []string{"g1"}}

	noCap := &auth.Context{UserID: "editor", Groups: []auth.GroupMembership{{GroupID: "g1", Permissions: auth.Permissions{CanRevise: false}}}}
	ok, err := publish.CanRevise(context.Background(), "editor", p, noCap, nil, "")
	require.NoError(t, err)
	require.False(t, ok)

	withCap := &auth.Context{UserID: "editor", Groups: []auth.GroupMembership{{GroupID: "g1", Permissions: auth.Permissions{CanRevise: true}}}}
	ok, err = publish.CanRevise(context.Background(), "editor", p, withCap, nil, "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanOverwriteAllowListBypassesWriteMode(t *testing.T) {
	p := &memtype.PublishedMemory{OwnerID: "owner", WriteMode: memtype.WriteModeOwnerOnly, OverwriteAllowedIDs: []string{"trusted"}}
	ok, err := publish.CanOverwrite(context.Background(), "trusted", p, nil, nil, "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanReviseUsesFetcherWhenNoContextGiven(t *testing.T) {
	p := &memtype.PublishedMemory{OwnerID: "owner", WriteMode: memtype.WriteModeGroupEditors, GroupIDs: []string{"g1"}}
	fetcher := auth.CredentialsFetcherFunc(func(_ context.Context, token string) (auth.Context, error) {
		return auth.Context{UserID: "editor", Groups: []auth.GroupMembership{{GroupID: "g1", Permissions: auth.Permissions{CanRevise: true}}}}, nil
	})
	ok, err := publish.CanRevise(context.Background(), "editor", p, nil, fetcher, "tok")
	require.NoError(t, err)
	require.True(t, ok)
}
