// Package obslog is the ambient structured-logging wrapper used across the
// core, built on github.com/rs/zerolog — the structured JSON logger the
// retrieval pack actually uses for this concern (cuemby-warren's pkg/log,
// WithComponent child-logger pattern), rather than a stdlib rendition.
package obslog

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// New returns a JSON zerolog.Logger writing to stderr, tagged with a
// "component" field so log lines from trust/access/publish/etc. are
// distinguishable without a separate logger type per package, mirroring
// cuemby-warren's log.WithComponent.
func New(component string) *zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", component).Logger()
	return &logger
}

// WarnEscalationFailure logs a swallowed escalation-bookkeeping error
// without failing the caller's access decision, matching spec.md §7's
// "escalation updates are best-effort (logged on failure, not retried)".
func WarnEscalationFailure(ctx context.Context, log *zerolog.Logger, ownerID, accessorID, memoryID string, err error) {
	log.Warn().
		Str("owner_id", ownerID).
		Str("accessor_id", accessorID).
		Str("memory_id", memoryID).
		Err(err).
		Msg("escalation bookkeeping failed")
}
