package publish_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/memstore"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/confirm"
	"github.com/remembercore/memcore/pkg/memtype"
	"github.com/remembercore/memcore/pkg/publish"
)

type groupColls struct {
	byID map[string]collection.Collection
}

func (g *groupColls) Collection(_ context.Context, groupID string) (collection.Collection, error) {
	c, ok := g.byID[groupID]
	if !ok {
		c = memstore.NewCollection()
		g.byID[groupID] = c
	}
	return c, nil
}

func newFixture() (*publish.Service, collection.Collection, collection.Collection, *groupColls) {
	source := memstore.NewCollection()
	publicSpace := memstore.NewCollection()
	groups := &groupColls{byID: map[string]collection.Collection{}}
	confirmStore := confirm.NewStore(memstore.NewKV())
	svc := publish.New("owner1", source, publicSpace, groups, nil, nil, confirmStore)
	return svc, source, publicSpace, groups
}

func createSourceMemory(t *testing.T, source collection.Collection, id string) {
	t.Helper()
	_, err := source.Insert(context.Background(), collection.InsertInput{
		ID: id,
		Properties: collection.Properties{
			"doc_type": string(memtype.DocTypeMemory),
			"owner_id": "owner1",
			"content":  "hello",
			"tags":     []string{"a"},
		},
	})
	require.NoError(t, err)
}

func TestPublishRequiresDestination(t *testing.T) {
	svc, source, _, _ := newFixture()
	createSourceMemory(t, source, "m1")

	_, err := svc.Publish(context.Background(), publish.PublishInput{MemoryID: "m1"})
	require.Error(t, err)
}

func TestPublishRejectsInvalidSpaceID(t *testing.T) {
	svc, source, _, _ := newFixture()
	createSourceMemory(t, source, "m1")

	_, err := svc.Publish(context.Background(), publish.PublishInput{MemoryID: "m1", Spaces: []string{"Not Valid!"}})
	require.Error(t, err)
}

func TestPublishConfirmFlowWritesDestinationAndMembership(t *testing.T) {
	ctx := context.Background()
	svc, source, publicSpace, _ := newFixture()
	createSourceMemory(t, source, "m1")

	req, err := svc.Publish(ctx, publish.PublishInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)

	res, err := svc.ConfirmPublish(ctx, req.Token)
	require.NoError(t, err)
	require.Len(t, res.Destinations, 1)
	require.Equal(t, "success", res.Destinations[0].Outcome)

	obj, err := publicSpace.FetchObjectByID(ctx, res.CompositeID, nil)
	require.NoError(t, err)
	require.NotNil(t, obj)
	require.Equal(t, "hello", obj.Properties["content"])

	srcObj, err := source.FetchObjectByID(ctx, "m1", nil)
	require.NoError(t, err)
	require.Contains(t, srcObj.Properties["space_ids"], "general")
}

func TestConfirmPublishRejectsConsumedToken(t *testing.T) {
	ctx := context.Background()
	svc, source, _, _ := newFixture()
	createSourceMemory(t, source, "m1")

	req, err := svc.Publish(ctx, publish.PublishInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)

	_, err = svc.ConfirmPublish(ctx, req.Token)
	require.NoError(t, err)

	_, err = svc.ConfirmPublish(ctx, req.Token)
	require.Error(t, err, "a consumed token must not confirm twice")
}

func TestRepublishIsIdempotentAndUnionsMembership(t *testing.T) {
	ctx := context.Background()
	svc, source, _, _ := newFixture()
	createSourceMemory(t, source, "m1")

	req1, err := svc.Publish(ctx, publish.PublishInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)
	_, err = svc.ConfirmPublish(ctx, req1.Token)
	require.NoError(t, err)

	req2, err := svc.Publish(ctx, publish.PublishInput{MemoryID: "m1", Spaces: []string{"second"}, AdditionalTags: []string{"extra"}})
	require.NoError(t, err)
	res2, err := svc.ConfirmPublish(ctx, req2.Token)
	require.NoError(t, err)

	srcObj, err := source.FetchObjectByID(ctx, "m1", nil)
	require.NoError(t, err)
	spaceIDs := srcObj.Properties["space_ids"].([]string)
	require.Contains(t, spaceIDs, "general")
	require.Contains(t, spaceIDs, "second")
	require.Len(t, res2.Destinations, 1)
}

func TestRetractRejectsUnpublishedDestination(t *testing.T) {
	ctx := context.Background()
	svc, source, _, _ := newFixture()
	createSourceMemory(t, source, "m1")

	_, err := svc.Retract(ctx, publish.RetractInput{MemoryID: "m1", Spaces: []string{"never-published"}})
	require.Error(t, err)
}

func TestRetractConfirmRemovesMembershipButKeepsRow(t *testing.T) {
	ctx := context.Background()
	svc, source, publicSpace, _ := newFixture()
	createSourceMemory(t, source, "m1")

	pubReq, err := svc.Publish(ctx, publish.PublishInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)
	pubRes, err := svc.ConfirmPublish(ctx, pubReq.Token)
	require.NoError(t, err)

	retReq, err := svc.Retract(ctx, publish.RetractInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)
	_, err = svc.ConfirmRetract(ctx, retReq.Token)
	require.NoError(t, err)

	obj, err := publicSpace.FetchObjectByID(ctx, pubRes.CompositeID, nil)
	require.NoError(t, err)
	require.NotNil(t, obj, "retraction must not delete the published row, per the orphan model")
	require.Empty(t, obj.Properties["space_ids"])

	srcObj, err := source.FetchObjectByID(ctx, "m1", nil)
	require.NoError(t, err)
	require.NotContains(t, srcObj.Properties["space_ids"], "general")
}

func TestReviseRequiresExistingPublication(t *testing.T) {
	ctx := context.Background()
	svc, source, _, _ := newFixture()
	createSourceMemory(t, source, "m1")

	_, err := svc.Revise(ctx, "m1")
	require.Error(t, err)
}

func TestReviseConfirmPropagatesContentAndHistory(t *testing.T) {
	ctx := context.Background()
	svc, source, publicSpace, _ := newFixture()
	createSourceMemory(t, source, "m1")

	pubReq, err := svc.Publish(ctx, publish.PublishInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)
	pubRes, err := svc.ConfirmPublish(ctx, pubReq.Token)
	require.NoError(t, err)

	require.NoError(t, source.Update(ctx, collection.UpdateInput{ID: "m1", Properties: collection.Properties{"content": "revised content"}}))

	revReq, err := svc.Revise(ctx, "m1")
	require.NoError(t, err)
	revRes, err := svc.ConfirmRevise(ctx, revReq.Token)
	require.NoError(t, err)
	require.Equal(t, "success", revRes.Destinations[0].Outcome)

	obj, err := publicSpace.FetchObjectByID(ctx, pubRes.CompositeID, nil)
	require.NoError(t, err)
	require.Equal(t, "revised content", obj.Properties["content"])
	history := obj.Properties["revision_history"].([]any)
	require.Len(t, history, 1)
}

func TestSweepOrphansFindsFullyRetractedRows(t *testing.T) {
	ctx := context.Background()
	svc, source, publicSpace, _ := newFixture()
	createSourceMemory(t, source, "m1")

	pubReq, err := svc.Publish(ctx, publish.PublishInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)
	_, err = svc.ConfirmPublish(ctx, pubReq.Token)
	require.NoError(t, err)

	retReq, err := svc.Retract(ctx, publish.RetractInput{MemoryID: "m1", Spaces: []string{"general"}})
	require.NoError(t, err)
	_, err = svc.ConfirmRetract(ctx, retReq.Token)
	require.NoError(t, err)

	orphans, err := publish.SweepOrphans(ctx, publicSpace)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.Equal(t, "owner1", orphans[0].OwnerID)
}
