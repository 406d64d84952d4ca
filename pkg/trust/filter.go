package trust

import "github.com/remembercore/memcore/pkg/collection"

// TrustProperty is the collection property the query-layer filter asserts
// against (spec.md §4.1: "filter asserting trust_score ≤ t_a").
const TrustProperty = "trust_score"

// QueryFilter builds the collection filter used by the "query" and "hybrid"
// enforcement modes: only rows whose stored trust requirement is at or below
// the accessor's effective trust ever transit the wire.
func QueryFilter(accessorTrust float64) collection.Filter {
	return collection.ByProperty(TrustProperty).LessThanOrEqual(accessorTrust)
}

// EnforcementMode mirrors memtype.EnforcementMode without importing it, so
// this package stays a leaf; core wires the two together.
type EnforcementMode string

const (
	ModeQuery  EnforcementMode = "query"
	ModePrompt EnforcementMode = "prompt"
	ModeHybrid EnforcementMode = "hybrid"
)

// ShouldRedact reports whether a memory with the given trust requirement
// needs prompt-layer redaction under the given enforcement mode, given it
// already passed (or bypassed) the query-layer filter.
//
//   - query:  the filter already excluded anything above t_a; no redaction.
//   - prompt: everything is redacted per-memory.
//   - hybrid: trust == 0 memories pass untouched; everything else is redacted.
func ShouldRedact(mode EnforcementMode, memoryTrust float64) bool {
	switch mode {
	case ModeQuery:
		return false
	case ModeHybrid:
		return memoryTrust != 0
	default: // prompt, and any unrecognized mode defaults to the safer choice
		return true
	}
}
