package publish

import (
	"time"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/memtype"
)

// sourceMemory is the minimal projection of a user's private memory this
// package needs; it intentionally mirrors pkg/memory's Memory decode rather
// than importing that package, keeping publish's only cross-component
// dependency the shared memtype/collection/confirm/auth leaves.
func propsToSourceMemory(id string, props collection.Properties) *memtype.Memory {
	m := &memtype.Memory{ID: id, DocType: memtype.DocTypeMemory}
	m.OwnerID, _ = props["owner_id"].(string)
	m.Content, _ = props["content"].(string)
	m.Title, _ = props["title"].(string)
	m.Summary, _ = props["summary"].(string)
	m.Tags = toStrings(props["tags"])
	typ, _ := props["type"].(string)
	m.Type = memtype.MemoryKind(typ)
	m.Weight = toFloat(props["weight"])
	m.SpaceIDs = toStrings(props["space_ids"])
	m.GroupIDs = toStrings(props["group_ids"])
	if typv, ok := props["doc_type"].(string); ok {
		m.DocType = memtype.DocType(typv)
	}
	return m
}

func sourceMembershipPatch(spaceIDs, groupIDs []string) collection.Properties {
	return collection.Properties{
		"space_ids": spaceIDs,
		"group_ids": groupIDs,
	}
}

func publishedToProps(p *memtype.PublishedMemory) collection.Properties {
	props := collection.Properties{
		"doc_type":          string(p.DocType),
		"author_id":         p.AuthorID,
		"owner_id":          p.OwnerID,
		"content":           p.Content,
		"title":             p.Title,
		"summary":           p.Summary,
		"tags":              p.Tags,
		"type":              string(p.Type),
		"weight":            p.Weight,
		"published_at":      p.PublishedAt,
		"space_ids":         p.SpaceIDs,
		"group_ids":         p.GroupIDs,
		"moderation_status": string(p.ModerationStatus),
		"write_mode":        string(p.WriteMode),
		"revision_count":    p.RevisionCount,
	}
	if p.ModeratedBy != "" {
		props["moderated_by"] = p.ModeratedBy
	}
	if p.ModeratedAt != nil {
		props["moderated_at"] = *p.ModeratedAt
	}
	if len(p.OverwriteAllowedIDs) > 0 {
		props["overwrite_allowed_ids"] = p.OverwriteAllowedIDs
	}
	if p.RevisedAt != nil {
		props["revised_at"] = *p.RevisedAt
	}
	if len(p.RevisionHistory) > 0 {
		props["revision_history"] = revisionHistoryToAny(p.RevisionHistory)
	}
	if p.RetractedAt != nil {
		props["retracted_at"] = *p.RetractedAt
	}
	return props
}

func propsToPublished(id string, props collection.Properties) *memtype.PublishedMemory {
	p := &memtype.PublishedMemory{ID: id, DocType: memtype.DocTypeMemory}
	p.AuthorID, _ = props["author_id"].(string)
	p.OwnerID, _ = props["owner_id"].(string)
	p.Content, _ = props["content"].(string)
	p.Title, _ = props["title"].(string)
	p.Summary, _ = props["summary"].(string)
	p.Tags = toStrings(props["tags"])
	typ, _ := props["type"].(string)
	p.Type = memtype.MemoryKind(typ)
	p.Weight = toFloat(props["weight"])
	p.PublishedAt = toTime(props["published_at"])
	p.SpaceIDs = toStrings(props["space_ids"])
	p.GroupIDs = toStrings(props["group_ids"])
	ms, _ := props["moderation_status"].(string)
	p.ModerationStatus = memtype.ModerationStatus(ms)
	p.ModeratedBy, _ = props["moderated_by"].(string)
	if v, ok := props["moderated_at"]; ok {
		t := toTime(v)
		p.ModeratedAt = &t
	}
	wm, _ := props["write_mode"].(string)
	p.WriteMode = memtype.WriteMode(wm)
	p.OverwriteAllowedIDs = toStrings(props["overwrite_allowed_ids"])
	if v, ok := props["revised_at"]; ok {
		t := toTime(v)
		p.RevisedAt = &t
	}
	p.RevisionCount = toInt(props["revision_count"])
	p.RevisionHistory = anyToRevisionHistory(props["revision_history"])
	if v, ok := props["retracted_at"]; ok {
		t := toTime(v)
		p.RetractedAt = &t
	}
	return p
}

func revisionHistoryToAny(entries []memtype.RevisionEntry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{"content": e.Content, "revised_at": e.RevisedAt})
	}
	return out
}

func anyToRevisionHistory(v any) []memtype.RevisionEntry {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]memtype.RevisionEntry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		e := memtype.RevisionEntry{}
		e.Content, _ = m["content"].(string)
		e.RevisedAt = toTime(m["revised_at"])
		out = append(out, e)
	}
	return out
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
