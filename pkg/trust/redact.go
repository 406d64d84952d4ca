package trust

import (
	"fmt"
	"strings"

	"github.com/remembercore/memcore/pkg/memtype"
	"github.com/remembercore/memcore/pkg/pool"
)

// ExistenceText is the fixed string returned for the Existence tier
// (spec.md §4.1).
const ExistenceText = "A memory exists about this topic."

// FormatMemoryForPrompt is the single point where the tier-to-redaction
// policy lives (spec.md §9 "pure transformation"): no I/O, a pure function
// of (memory, accessor trust, is_self).
func FormatMemoryForPrompt(m *memtype.Memory, accessorTrust float64, isSelf bool) string {
	tier := TierFor(accessorTrust, m.Trust, isSelf)
	return renderTier(m, tier)
}

func renderTier(m *memtype.Memory, tier Tier) string {
	fields := pool.GetMap()
	defer pool.PutMap(fields)

	switch tier {
	case TierFull:
		fields["content"] = m.Content
		fields["title"] = m.Title
		fields["summary"] = m.Summary
		fields["type"] = string(m.Type)
		fields["tags"] = m.Tags
		if m.Location != nil {
			fields["location"] = m.Location
		}
		if m.Context != nil {
			fields["context"] = m.Context
		}
		if len(m.References) > 0 {
			fields["references"] = m.References
		}
	case TierPartial:
		fields["content"] = m.Content
		fields["title"] = m.Title
		fields["type"] = string(m.Type)
		fields["tags"] = m.Tags
	case TierSummary:
		fields["title"] = m.Title
		summary := m.Summary
		if summary == "" {
			summary = "(no summary available)"
		}
		fields["summary"] = summary
		fields["type"] = string(m.Type)
	case TierMetadata:
		fields["type"] = string(m.Type)
		fields["tags"] = m.Tags
		fields["created_at"] = m.CreatedAt
	default:
		return ExistenceText
	}

	return renderFields(fields)
}

// fieldOrder keeps output deterministic across Go's randomized map
// iteration, which matters for callers that substring-match the result.
var fieldOrder = []string{"content", "title", "summary", "type", "tags", "location", "context", "references", "created_at"}

func renderFields(fields map[string]any) string {
	var b strings.Builder
	first := true
	for _, key := range fieldOrder {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		fmt.Fprintf(&b, "%s: %v", key, v)
	}
	return b.String()
}

// FormatMemoriesForPrompt redacts a batch in one pass, matching the query
// enforcement mode's fan-out over many rows. It reuses a single scratch
// slice across the batch via pkg/pool, copying each rendered string into the
// returned, independently owned slice.
func FormatMemoriesForPrompt(memories []*memtype.Memory, accessorTrust float64, isSelf bool) []string {
	scratch := pool.GetSlice()
	defer pool.PutSlice(scratch)

	out := make([]string, 0, len(memories))
	for _, m := range memories {
		scratch = append(scratch, FormatMemoryForPrompt(m, accessorTrust, isSelf))
	}
	for _, v := range scratch {
		out = append(out, v.(string))
	}
	return out
}
