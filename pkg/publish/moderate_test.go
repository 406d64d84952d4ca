package publish_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/memstore"
	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/confirm"
	"github.com/remembercore/memcore/pkg/ids"
	"github.com/remembercore/memcore/pkg/publish"
)

func newModerationFixture(authCtx auth.Context) (*publish.Service, collection.Collection) {
	source := memstore.NewCollection()
	publicSpace := memstore.NewCollection()
	groups := &groupColls{byID: map[string]collection.Collection{}}
	confirmStore := confirm.NewStore(memstore.NewKV())
	svc := publish.New("owner1", source, publicSpace, groups, nil, nil, confirmStore)
	svc.Auth = authCtx
	return svc, publicSpace
}

func TestModerateRequiresExactlyOneTarget(t *testing.T) {
	svc, _ := newModerationFixture(auth.Context{SpaceModerator: true})
	err := svc.Moderate(context.Background(), publish.ModerateInput{Action: "approve"})
	require.Error(t, err)
}

func TestModerateSpaceRequiresSpaceModeratorCapability(t *testing.T) {
	ctx := context.Background()
	svc, publicSpace := newModerationFixture(auth.Context{})
	compositeID := ids.CompositeID("owner1", "m1")
	_, err := publicSpace.Insert(ctx, collection.InsertInput{ID: compositeID, Properties: collection.Properties{"owner_id": "owner1"}})
	require.NoError(t, err)

	err = svc.Moderate(ctx, publish.ModerateInput{OwnerID: "owner1", MemoryID: "m1", SpaceID: "general", Action: "approve"})
	require.Error(t, err)
}

func TestModerateSpaceApprovesWhenAuthorized(t *testing.T) {
	ctx := context.Background()
	svc, publicSpace := newModerationFixture(auth.Context{SpaceModerator: true, UserID: "mod1"})
	compositeID := ids.CompositeID("owner1", "m1")
	_, err := publicSpace.Insert(ctx, collection.InsertInput{ID: compositeID, Properties: collection.Properties{"owner_id": "owner1"}})
	require.NoError(t, err)

	err = svc.Moderate(ctx, publish.ModerateInput{OwnerID: "owner1", MemoryID: "m1", SpaceID: "general", Action: "approve"})
	require.NoError(t, err)

	obj, err := publicSpace.FetchObjectByID(ctx, compositeID, nil)
	require.NoError(t, err)
	require.Equal(t, "approved", obj.Properties["moderation_status"])
	require.Equal(t, "mod1", obj.Properties["moderated_by"])
}

func TestModerateRejectsInvalidAction(t *testing.T) {
	svc, _ := newModerationFixture(auth.Context{SpaceModerator: true})
	err := svc.Moderate(context.Background(), publish.ModerateInput{SpaceID: "general", Action: "nonsense"})
	require.Error(t, err)
}

func TestModerateGroupRequiresCanModerateCapability(t *testing.T) {
	ctx := context.Background()
	authCtx := auth.Context{UserID: "u1", Groups: []auth.GroupMembership{{GroupID: "g1", Permissions: auth.Permissions{CanModerate: false}}}}
	svc, _ := newModerationFixture(authCtx)

	err := svc.Moderate(ctx, publish.ModerateInput{OwnerID: "owner1", MemoryID: "m1", GroupID: "g1", Action: "remove"})
	require.Error(t, err)
}
