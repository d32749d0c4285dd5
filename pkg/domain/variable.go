package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Variable is a value owned by an external store.
// The engine reads variables and requests updates of Value; it never creates or deletes them.
type Variable struct {
	EntityType string    `json:"entity_type,omitempty" yaml:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id" yaml:"entity_id"`
	Field      string    `json:"field" yaml:"field"`
	Value      any       `json:"value" yaml:"value"`
	SourceName string    `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Key returns the bare storage key "type_entityId_field" (type omitted when empty).
func (v Variable) Key() string {
	return StorageKey(v.EntityType, v.EntityID, v.Field)
}

// String returns the value formatted for text substitution.
func (v Variable) String() string {
	return FormatValue(v.Value)
}

// StorageKey joins the non-empty identifier parts with underscores.
func StorageKey(entityType, entityID, field string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{entityType, entityID, field} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}

// FormatValue renders a loosely typed value as text.
// Scalars use their natural representation; composites are encoded as JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// Variables is the variable map threaded through a run, keyed by storage key.
// It is treated as immutable: writers produce a new map with With and swap it in,
// so readers holding an earlier map are never affected.
type Variables map[string]Variable

// NewVariables indexes a slice of variables by storage key. Later entries win.
func NewVariables(vars ...Variable) Variables {
	m := make(Variables, len(vars))
	for _, v := range vars {
		m[v.Key()] = v
	}
	return m
}

// With returns a copy of vs with the given variables merged in.
func (vs Variables) With(updates ...Variable) Variables {
	next := make(Variables, len(vs)+len(updates))
	for k, v := range vs {
		next[k] = v
	}
	for _, v := range updates {
		next[v.Key()] = v
	}
	return next
}

// Sorted returns the variables ordered by storage key.
func (vs Variables) Sorted() []Variable {
	keys := make([]string, 0, len(vs))
	for k := range vs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Variable, 0, len(keys))
	for _, k := range keys {
		out = append(out, vs[k])
	}
	return out
}

// Find returns the variable matching the triple, falling back to a case-insensitive
// field match on the same entity and finally to the first variable of that entity.
// Candidates are visited in key order so the fallback is deterministic.
func (vs Variables) Find(entityType, entityID, field string) (Variable, bool) {
	if v, ok := vs[StorageKey(entityType, entityID, field)]; ok {
		return v, true
	}
	sorted := vs.Sorted()
	for _, v := range sorted {
		if v.EntityID == entityID && v.Field == field &&
			(entityType == "" || v.EntityType == "" || strings.EqualFold(v.EntityType, entityType)) {
			return v, true
		}
	}
	for _, v := range sorted {
		if v.EntityID == entityID && strings.EqualFold(v.Field, field) {
			return v, true
		}
	}
	for _, v := range sorted {
		if v.EntityID == entityID {
			return v, true
		}
	}
	return Variable{}, false
}

// ChangeEvent is delivered by a change feed when a variable changes upstream.
type ChangeEvent struct {
	EventType   string `json:"eventType"`
	VariableID  string `json:"variableId"`
	CanonicalID string `json:"canonicalId"`
}
