// Package trust implements the trust enforcement engine (spec.md §4.1): the
// mapping from a continuous trust score to one of five visibility tiers, the
// query-layer filter that realizes it, and the prompt-layer redaction that
// realizes it when results must travel in full and be trimmed after the fact.
package trust

// Tier is one of the five discrete visibility levels derived from a
// continuous trust value (spec.md §4.1).
type Tier int

const (
	TierExistence Tier = iota
	TierMetadata
	TierSummary
	TierPartial
	TierFull
)

// String names a tier for logging/debugging.
func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierPartial:
		return "partial"
	case TierSummary:
		return "summary"
	case TierMetadata:
		return "metadata"
	default:
		return "existence"
	}
}

// ExistenceOnlyThreshold is the memory trust at or above which a cross-user
// accessor is forced to the Existence tier regardless of their own trust
// (spec.md §4.1 "Cross-user cap").
const ExistenceOnlyThreshold = 1.0

// TierFor maps an accessor's effective trust level against a memory's trust
// requirement to a visibility tier, applying the cross-user cap.
//
// Boundaries are inclusive lower bounds (spec.md §8): t_a == 0.75 is Partial,
// not Summary.
func TierFor(accessorTrust, memoryTrust float64, isSelfAccess bool) Tier {
	if !isSelfAccess && memoryTrust >= ExistenceOnlyThreshold {
		return TierExistence
	}
	switch {
	case accessorTrust >= 1.0:
		return TierFull
	case accessorTrust >= 0.75:
		return TierPartial
	case accessorTrust >= 0.5:
		return TierSummary
	case accessorTrust >= 0.25:
		return TierMetadata
	default:
		return TierExistence
	}
}

// IsTrustSufficient is the sufficiency predicate from spec.md §4.1:
// is_trust_sufficient(m, a) ≡ a ≥ m.
func IsTrustSufficient(accessorTrust, memoryTrust float64) bool {
	return accessorTrust >= memoryTrust
}
