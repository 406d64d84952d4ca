package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/memstore"
	"github.com/remembercore/memcore/pkg/memtype"
)

func newTestService(userID string) *Service {
	return New(userID, memstore.NewCollection())
}

func TestCreateAppliesDefaultsAndValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")

	m, err := svc.Create(ctx, CreateInput{Content: "hello world"})
	require.NoError(t, err)
	require.Equal(t, DefaultWeight, m.Weight)
	require.Equal(t, DefaultTrust, m.Trust)
	require.Equal(t, 1, m.Version)
	require.Equal(t, "u1", m.OwnerID)

	badWeight := 1.5
	_, err = svc.Create(ctx, CreateInput{Content: "x", Weight: &badWeight})
	require.Error(t, err)
}

func TestGetEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")
	other := New("u2", svc.Collection)

	m, err := svc.Create(ctx, CreateInput{Content: "mine"})
	require.NoError(t, err)

	_, err = other.Get(ctx, m.ID)
	require.Error(t, err)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "mine", got.Content)
}

func TestUpdateBumpsVersionAndRecordsHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")

	m, err := svc.Create(ctx, CreateInput{Content: "v1", Title: "first"})
	require.NoError(t, err)

	newContent := "v2"
	changed, err := svc.Update(ctx, UpdateInput{MemoryID: m.ID, Content: &newContent})
	require.NoError(t, err)
	require.Contains(t, changed, "content")

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Version)
	require.Equal(t, "v2", got.Content)

	history, err := svc.ListMemoryVersions(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "v1", history[0].Content)
	require.Equal(t, "first", history[0].Title)
	require.Equal(t, 1, history[0].Version)
}

func TestUpdateWithNoChangesReturnsNil(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")

	m, err := svc.Create(ctx, CreateInput{Content: "v1"})
	require.NoError(t, err)

	changed, err := svc.Update(ctx, UpdateInput{MemoryID: m.ID})
	require.NoError(t, err)
	require.Nil(t, changed)
}

func TestHistoryIsBoundedAndMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")

	m, err := svc.Create(ctx, CreateInput{Content: "v0"})
	require.NoError(t, err)

	for i := 1; i <= memtype.MaxMemoryHistory+3; i++ {
		c := string(rune('a' + i))
		_, err := svc.Update(ctx, UpdateInput{MemoryID: m.ID, Content: &c})
		require.NoError(t, err)
	}

	history, err := svc.ListMemoryVersions(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, memtype.MaxMemoryHistory)
	require.Equal(t, string(rune('a'+memtype.MaxMemoryHistory+2)), history[0].Content, "most recent prior version must be first")
}

func TestDeleteSoftDeletesAndReportsOrphans(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")

	a, err := svc.Create(ctx, CreateInput{Content: "a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{Content: "b"})
	require.NoError(t, err)

	_, err = svc.CreateRelationship(ctx, CreateRelationshipInput{
		RelatedMemoryIDs: []string{a.ID, b.ID},
		RelationshipType: "related_to",
		Confidence:       0.8,
	})
	require.NoError(t, err)

	res, err := svc.Delete(ctx, DeleteInput{MemoryID: a.ID, Reason: "test"})
	require.NoError(t, err)
	require.Len(t, res.OrphanedRelationshipIDs, 1)

	_, err = svc.Get(ctx, a.ID)
	require.Error(t, err, "soft-deleted memories are not fetchable via Get")
}

func TestRelationshipValidatesMembers(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")
	other := New("u2", svc.Collection)

	a, err := svc.Create(ctx, CreateInput{Content: "a"})
	require.NoError(t, err)
	foreign, err := other.Create(ctx, CreateInput{Content: "foreign"})
	require.NoError(t, err)

	_, err = svc.CreateRelationship(ctx, CreateRelationshipInput{
		RelatedMemoryIDs: []string{a.ID, foreign.ID},
		RelationshipType: "related_to",
	})
	require.Error(t, err, "cross-owner memory ids must reject atomically")

	_, err = svc.Get(ctx, a.ID)
	require.NoError(t, err, "failed relationship creation must not have partially mutated a")
}

func TestSearchExcludesDeletedAndOtherOwners(t *testing.T) {
	ctx := context.Background()
	svc := newTestService("u1")
	other := New("u2", svc.Collection)

	_, err := svc.Create(ctx, CreateInput{Content: "apples and oranges"})
	require.NoError(t, err)
	deleted, err := svc.Create(ctx, CreateInput{Content: "apples deleted"})
	require.NoError(t, err)
	_, err = svc.Delete(ctx, DeleteInput{MemoryID: deleted.ID, Reason: "x"})
	require.NoError(t, err)
	_, err = other.Create(ctx, CreateInput{Content: "apples owned by someone else"})
	require.NoError(t, err)

	res, err := svc.Search(ctx, SearchInput{Query: "apples"})
	require.NoError(t, err)
	require.Len(t, res.Memories, 1)
	require.Equal(t, "apples and oranges", res.Memories[0].Content)
}
