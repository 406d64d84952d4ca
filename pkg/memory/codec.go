// Package memory implements the owner-scoped Memory & Relationship service
// (spec.md §4.5): CRUD over a user's private collection, soft delete, and
// orphan detection across relationships.
package memory

import (
	"time"

	"github.com/remembercore/memcore/pkg/collection"
	"github.com/remembercore/memcore/pkg/memtype"
	"github.com/remembercore/memcore/pkg/trust"
)

func memoryToProps(m *memtype.Memory) collection.Properties {
	props := collection.Properties{
		"doc_type":   string(memtype.DocTypeMemory),
		"owner_id":   m.OwnerID,
		"content":    m.Content,
		"title":      m.Title,
		"summary":    m.Summary,
		"tags":       m.Tags,
		"type":       string(m.Type),
		"weight":     m.Weight,
		"trust":      m.Trust,
		trust.TrustProperty: m.Trust,
		"created_at": m.CreatedAt,
		"updated_at": m.UpdatedAt,
		"version":    m.Version,
	}
	if m.DeletedAt != nil {
		props["deleted_at"] = *m.DeletedAt
		props["deleted_by"] = m.DeletedBy
		props["deletion_reason"] = m.DeletionReason
	}
	if m.Context != nil {
		props["context"] = contextToMap(m.Context)
	}
	if m.Location != nil {
		props["location"] = locationToMap(m.Location)
	}
	if len(m.References) > 0 {
		props["references"] = m.References
	}
	if len(m.SpaceIDs) > 0 {
		props["space_ids"] = m.SpaceIDs
	}
	if len(m.GroupIDs) > 0 {
		props["group_ids"] = m.GroupIDs
	}
	if len(m.RelationshipIDs) > 0 {
		props["relationship_ids"] = m.RelationshipIDs
	}
	return props
}

func propsToMemory(id string, props collection.Properties) *memtype.Memory {
	m := &memtype.Memory{ID: id, DocType: memtype.DocTypeMemory}
	m.OwnerID, _ = props["owner_id"].(string)
	m.Content, _ = props["content"].(string)
	m.Title, _ = props["title"].(string)
	m.Summary, _ = props["summary"].(string)
	m.Tags = toStrings(props["tags"])
	typ, _ := props["type"].(string)
	m.Type = memtype.MemoryKind(typ)
	m.Weight = toFloat(props["weight"])
	m.Trust = toFloat(props["trust"])
	m.CreatedAt = toTime(props["created_at"])
	m.UpdatedAt = toTime(props["updated_at"])
	m.Version = toInt(props["version"])
	if v, ok := props["deleted_at"]; ok {
		t := toTime(v)
		m.DeletedAt = &t
		m.DeletedBy, _ = props["deleted_by"].(string)
		m.DeletionReason, _ = props["deletion_reason"].(string)
	}
	if v, ok := props["context"].(map[string]any); ok {
		m.Context = mapToContext(v)
	}
	if v, ok := props["location"].(map[string]any); ok {
		m.Location = mapToLocation(v)
	}
	m.References = toStrings(props["references"])
	m.SpaceIDs = toStrings(props["space_ids"])
	m.GroupIDs = toStrings(props["group_ids"])
	m.RelationshipIDs = toStrings(props["relationship_ids"])
	return m
}

func historyToAny(h []memtype.MemoryVersionSnapshot) []any {
	out := make([]any, len(h))
	for i, e := range h {
		out[i] = map[string]any{
			"version":    e.Version,
			"content":    e.Content,
			"title":      e.Title,
			"summary":    e.Summary,
			"updated_at": e.UpdatedAt,
		}
	}
	return out
}

func anyToHistory(v any) []memtype.MemoryVersionSnapshot {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]memtype.MemoryVersionSnapshot, 0, len(items))
	for _, it := range items {
		entry, ok := it.(map[string]any)
		if !ok {
			continue
		}
		content, _ := entry["content"].(string)
		title, _ := entry["title"].(string)
		summary, _ := entry["summary"].(string)
		out = append(out, memtype.MemoryVersionSnapshot{
			Version:   toInt(entry["version"]),
			Content:   content,
			Title:     title,
			Summary:   summary,
			UpdatedAt: toTime(entry["updated_at"]),
		})
	}
	return out
}

func relationshipToProps(r *memtype.Relationship) collection.Properties {
	return collection.Properties{
		"doc_type":           string(memtype.DocTypeRelationship),
		"owner_id":           r.OwnerID,
		"related_memory_ids": r.RelatedMemoryIDs,
		"relationship_type":  r.RelationshipType,
		"observation":        r.Observation,
		"strength":           r.Strength,
		"confidence":         r.Confidence,
		"tags":               r.Tags,
		"version":            r.Version,
		"created_at":         r.CreatedAt,
		"updated_at":         r.UpdatedAt,
	}
}

func propsToRelationship(id string, props collection.Properties) *memtype.Relationship {
	r := &memtype.Relationship{ID: id, DocType: memtype.DocTypeRelationship}
	r.OwnerID, _ = props["owner_id"].(string)
	r.RelatedMemoryIDs = toStrings(props["related_memory_ids"])
	r.RelationshipType, _ = props["relationship_type"].(string)
	r.Observation, _ = props["observation"].(string)
	r.Strength = toFloat(props["strength"])
	r.Confidence = toFloat(props["confidence"])
	r.Tags = toStrings(props["tags"])
	r.Version = toInt(props["version"])
	r.CreatedAt = toTime(props["created_at"])
	r.UpdatedAt = toTime(props["updated_at"])
	return r
}

func contextToMap(c *memtype.MemoryContext) map[string]any {
	return map[string]any{
		"participants": c.Participants,
		"environment":  c.Environment,
		"notes":        c.Notes,
	}
}

func mapToContext(v map[string]any) *memtype.MemoryContext {
	c := &memtype.MemoryContext{}
	c.Participants = toStrings(v["participants"])
	c.Environment, _ = v["environment"].(string)
	c.Notes, _ = v["notes"].(string)
	return c
}

func locationToMap(l *memtype.Location) map[string]any {
	m := map[string]any{"address": l.Address}
	if l.Lat != nil {
		m["lat"] = *l.Lat
	}
	if l.Lng != nil {
		m["lng"] = *l.Lng
	}
	return m
}

func mapToLocation(v map[string]any) *memtype.Location {
	l := &memtype.Location{}
	l.Address, _ = v["address"].(string)
	if f, ok := v["lat"].(float64); ok {
		l.Lat = &f
	}
	if f, ok := v["lng"].(float64); ok {
		l.Lng = &f
	}
	return l
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
