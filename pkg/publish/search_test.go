package publish_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/memstore"
	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/confirm"
	"github.com/remembercore/memcore/pkg/memtype"
	"github.com/remembercore/memcore/pkg/publish"
)

func insertPublished(t *testing.T, dest collection.Collection, id string, props collection.Properties) {
	t.Helper()
	base := collection.Properties{"doc_type": string(memtype.DocTypeMemory), "moderation_status": string(memtype.ModerationApproved)}
	for k, v := range props {
		base[k] = v
	}
	_, err := dest.Insert(context.Background(), collection.InsertInput{ID: id, Properties: base})
	require.NoError(t, err)
}

func TestSearchExcludesUnapprovedByDefault(t *testing.T) {
	ctx := context.Background()
	publicSpace := memstore.NewCollection()
	svc := publish.New("owner1", memstore.NewCollection(), publicSpace, &groupColls{byID: map[string]collection.Collection{}}, nil, nil, confirm.NewStore(memstore.NewKV()))

	insertPublished(t, publicSpace, "approved", collection.Properties{"content": "apples"})
	insertPublished(t, publicSpace, "pending", collection.Properties{"content": "apples pending", "moderation_status": string(memtype.ModerationPending)})

	hits, err := svc.Search(ctx, publish.SearchInput{Query: "apples"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "approved", hits[0].Memory.ID)
}

func TestSearchIncludeUnapprovedRequiresModerator(t *testing.T) {
	ctx := context.Background()
	publicSpace := memstore.NewCollection()
	svc := publish.New("owner1", memstore.NewCollection(), publicSpace, &groupColls{byID: map[string]collection.Collection{}}, nil, nil, confirm.NewStore(memstore.NewKV()))

	_, err := svc.Search(ctx, publish.SearchInput{IncludeUnapproved: true})
	require.Error(t, err)

	svc.Auth = auth.Context{SpaceModerator: true}
	_, err = svc.Search(ctx, publish.SearchInput{IncludeUnapproved: true})
	require.NoError(t, err)
}

func TestSearchExcludesCommentsByDefault(t *testing.T) {
	ctx := context.Background()
	publicSpace := memstore.NewCollection()
	svc := publish.New("owner1", memstore.NewCollection(), publicSpace, &groupColls{byID: map[string]collection.Collection{}}, nil, nil, confirm.NewStore(memstore.NewKV()))

	insertPublished(t, publicSpace, "note", collection.Properties{"content": "apples note", "type": string(memtype.MemoryKindNote)})
	insertPublished(t, publicSpace, "comment", collection.Properties{"content": "apples comment", "type": string(memtype.MemoryKindComment)})

	hits, err := svc.Search(ctx, publish.SearchInput{Query: "apples"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "note", hits[0].Memory.ID)
}

func TestSweepOrphansHelperDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	publicSpace := memstore.NewCollection()
	insertPublished(t, publicSpace, "live", collection.Properties{"content": "x", "space_ids": []string{"general"}})

	orphans, err := publish.SweepOrphans(ctx, publicSpace)
	require.NoError(t, err)
	require.Empty(t, orphans)
}
