package publish

import (
	"context"
	"fmt"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/memtype"
)

// OrphanCandidate is a published row with no remaining destination
// membership — a candidate for external archival, per SPEC_FULL.md's
// orphan-sweep supplement (resolves spec.md §9's open question on whether a
// periodic sweep is desired).
type OrphanCandidate struct {
	CompositeID string
	OwnerID     string
	AuthorID    string
}

// SweepOrphans scans dest for fully-retracted rows (empty space_ids and
// group_ids) and returns them without deleting anything — retraction's
// orphan model (the row remains after every membership is stripped) is
// preserved exactly; this only surfaces what a full scan would reveal.
func SweepOrphans(ctx context.Context, dest collection.Collection) ([]OrphanCandidate, error) {
	// space_ids/group_ids are stored as empty slices once retracted, or as
	// nil when that destination kind was never published to, so emptiness is
	// checked in Go below rather than via an IsNull filter, which only matches
	// an absent/nil property.
	res, err := dest.Hybrid(ctx, "", collection.QueryOptions{
		Filter: collection.ByProperty("doc_type").Equal(string(memtype.DocTypeMemory)),
	})
	if err != nil {
		return nil, fmt.Errorf("publish: sweep orphans: %w", err)
	}

	var out []OrphanCandidate
	for _, obj := range res.Objects {
		p := propsToPublished(obj.UUID, obj.Properties)
		if len(p.SpaceIDs) == 0 && len(p.GroupIDs) == 0 {
			out = append(out, OrphanCandidate{CompositeID: p.ID, OwnerID: p.OwnerID, AuthorID: p.AuthorID})
		}
	}
	return out, nil
}
