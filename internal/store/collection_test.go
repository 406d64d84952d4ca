package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/pkg/collection"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCollInsertFetchUpdateDelete(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	id, err := coll.Insert(ctx, collection.InsertInput{
		Properties: collection.Properties{"content": "alpha bravo", "owner_id": "u1"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	obj, err := coll.FetchObjectByID(ctx, id, nil)
	require.NoError(t, err)
	require.NotNil(t, obj)
	require.Equal(t, "alpha bravo", obj.Properties["content"])

	err = coll.Update(ctx, collection.UpdateInput{ID: id, Properties: collection.Properties{"owner_id": "u2"}})
	require.NoError(t, err)

	obj, err = coll.FetchObjectByID(ctx, id, nil)
	require.NoError(t, err)
	require.Equal(t, "u2", obj.Properties["owner_id"])
	require.Equal(t, "alpha bravo", obj.Properties["content"], "update must merge, not replace")

	require.NoError(t, coll.DeleteByID(ctx, id))

	obj, err = coll.FetchObjectByID(ctx, id, nil)
	require.NoError(t, err)
	require.Nil(t, obj)
}

func TestCollInsertWithExplicitIDUpserts(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	id, err := coll.Insert(ctx, collection.InsertInput{ID: "fixed", Properties: collection.Properties{"content": "first"}})
	require.NoError(t, err)
	require.Equal(t, "fixed", id)

	_, err = coll.Insert(ctx, collection.InsertInput{ID: "fixed", Properties: collection.Properties{"content": "second"}})
	require.NoError(t, err)

	obj, err := coll.FetchObjectByID(ctx, "fixed", nil)
	require.NoError(t, err)
	require.Equal(t, "second", obj.Properties["content"])
}

func TestCollFetchObjectByIDMissing(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	obj, err := coll.FetchObjectByID(ctx, "missing", nil)
	require.NoError(t, err)
	require.Nil(t, obj)
}

func TestCollCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a := db.Collection("a")
	b := db.Collection("b")

	_, err := a.Insert(ctx, collection.InsertInput{ID: "shared", Properties: collection.Properties{"content": "in a"}})
	require.NoError(t, err)

	obj, err := b.FetchObjectByID(ctx, "shared", nil)
	require.NoError(t, err)
	require.Nil(t, obj, "ids are scoped per collection name")
}

func TestCollBM25RanksKeywordOverlapHigher(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	_, err := coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "the quick brown fox jumps"}})
	require.NoError(t, err)
	_, err = coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "totally unrelated text about weather"}})
	require.NoError(t, err)

	res, err := coll.BM25(ctx, "quick fox", collection.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, res.Objects, 1)
	require.Contains(t, res.Objects[0].Properties["content"], "quick")
}

func TestCollHybridAppliesFilter(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	_, err := coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "memory about cats", "owner_id": "u1"}})
	require.NoError(t, err)
	_, err = coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "memory about cats", "owner_id": "u2"}})
	require.NoError(t, err)

	res, err := coll.Hybrid(ctx, "cats", collection.QueryOptions{
		Filter: collection.ByProperty("owner_id").Equal("u1"),
	})
	require.NoError(t, err)
	require.Len(t, res.Objects, 1)
	require.Equal(t, "u1", res.Objects[0].Properties["owner_id"])
}

func TestCollNearTextReturnsClosestFirst(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	_, err := coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "rockets launch into orbit"}})
	require.NoError(t, err)
	_, err = coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "bread recipes and baking tips"}})
	require.NoError(t, err)

	res, err := coll.NearText(ctx, "rockets orbit launch", collection.QueryOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Objects)
	require.Equal(t, "rockets launch into orbit", res.Objects[0].Properties["content"])
	require.NotNil(t, res.Objects[0].Metadata.Distance)
}

func TestCollNearVectorUsesSeedContent(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	seedID, err := coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "gardening tips for tomatoes"}})
	require.NoError(t, err)
	_, err = coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "gardening tips for tomato plants"}})
	require.NoError(t, err)
	_, err = coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "quarterly financial report"}})
	require.NoError(t, err)

	res, err := coll.NearVector(ctx, seedID, collection.QueryOptions{Limit: 2})
	require.NoError(t, err)
	require.NotEmpty(t, res.Objects)
}

func TestCollPagination(t *testing.T) {
	ctx := context.Background()
	coll := openTestDB(t).Collection("private")

	for i := 0; i < 5; i++ {
		_, err := coll.Insert(ctx, collection.InsertInput{Properties: collection.Properties{"content": "shared keyword item"}})
		require.NoError(t, err)
	}

	res, err := coll.BM25(ctx, "shared", collection.QueryOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, res.Objects, 2)
}
