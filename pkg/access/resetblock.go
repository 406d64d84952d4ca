package access

import (
	"context"
	"fmt"
)

// ResetBlock is the explicit grant operation spec.md names but does not
// fully specify (SPEC_FULL.md "resetBlock" supplement): only the memory
// owner may clear a block or attempt counter on their own ghost.
func (c *Checker) ResetBlock(ctx context.Context, requestingUserID, ownerID, accessorID, memoryID string) error {
	if requestingUserID != ownerID {
		return fmt.Errorf("access: permission denied: only %s may reset blocks on their own memories", ownerID)
	}
	return c.Escalations.ResetBlock(ctx, ownerID, accessorID, memoryID)
}
