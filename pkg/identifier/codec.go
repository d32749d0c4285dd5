package identifier

import (
	"strings"

	"github.com/aretw0/cardflow/pkg/schema"
)

const (
	// Prefix opens the tagged wire form.
	Prefix = "@gv_"
	// Terminator closes the tagged wire form.
	Terminator = "-="
	// legacyPrefix is the untagged marker used by older producers.
	legacyPrefix = "gv"

	// UnknownSource is used when a display identifier carries no source name.
	UnknownSource = "Unknown"

	// ShortIDLength is the number of entity id characters kept in display form.
	ShortIDLength = 4
)

// SystemID is a decoded system identifier.
type SystemID struct {
	EntityType string
	EntityID   string
	Field      string
}

// Bare returns the storage key "type_id_field" (type omitted when empty).
func (s SystemID) Bare() string {
	if s.EntityType == "" {
		return s.EntityID + "_" + s.Field
	}
	return s.EntityType + "_" + s.EntityID + "_" + s.Field
}

// Canonical returns s with its field mapped onto the canonical fields of its type.
// Untyped identifiers are returned unchanged.
func (s SystemID) Canonical() SystemID {
	if s.EntityType != "" {
		s.Field = schema.NormalizeField(s.Field, s.EntityType)
	}
	return s
}

// Tagged returns the wire form of the identifier.
func (s SystemID) Tagged() string {
	return Prefix + s.Bare() + Terminator
}

// DisplayID is a decoded display identifier.
type DisplayID struct {
	SourceName string
	Field      string
	ShortID    string
}

// String returns the display form "sourceName.field#shortId".
func (d DisplayID) String() string {
	return d.SourceName + "." + d.Field + "#" + d.ShortID
}

// FormatSystemID returns the tagged form "@gv_{entityID}_{field}-=".
// A terminator already present on field is stripped first, so the call is idempotent.
func FormatSystemID(entityID, field string) string {
	return Prefix + entityID + "_" + trimTerminator(field) + Terminator
}

// FormatTypedSystemID returns the canonical tagged form "@gv_{type}_{entityID}_{field}-=".
func FormatTypedSystemID(entityType, entityID, field string) string {
	if entityType == "" {
		return FormatSystemID(entityID, field)
	}
	return Prefix + entityType + "_" + entityID + "_" + trimTerminator(field) + Terminator
}

// FormatDisplayID returns "sourceName.field#" followed by the first four characters of entityID.
// An empty source name is written as UnknownSource, which is what ParseDisplayID reads back.
func FormatDisplayID(sourceName, field, entityID string) string {
	if sourceName == "" {
		sourceName = UnknownSource
	}
	return sourceName + "." + trimTerminator(field) + "#" + ShortID(entityID)
}

// ShortID returns the display fragment of an entity id.
func ShortID(entityID string) string {
	r := []rune(entityID)
	if len(r) <= ShortIDLength {
		return entityID
	}
	return string(r[:ShortIDLength])
}

// Bare strips the tagged envelope and the legacy "gv_" marker from s.
func Bare(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	s = trimTerminator(s)
	if strings.HasPrefix(s, legacyPrefix+"_") {
		s = s[len(legacyPrefix)+1:]
	}
	return s
}

// IsTagged reports whether s is wrapped in the wire envelope.
func IsTagged(s string) bool {
	return strings.HasPrefix(s, Prefix) && strings.HasSuffix(s, Terminator) && len(s) > len(Prefix)+len(Terminator)
}

// ParseSystemID decomposes a system identifier.
//
// Accepted shapes, with or without the "@gv_...-=" envelope:
//
//	type_id_field
//	gv_id_field
//	gv_type_id_field
//	id_field
//
// Leading type segments are peeled off while at least an id and a field remain,
// which also covers producers that stack a type prefix on top of the type.
// Type labels are matched through the schema registry, so "任务_abc_output"
// decodes with the canonical type "task". The field keeps any remaining underscores.
//
// Three segments headed by a type label are ambiguous. They decode as typed unless
// the last segment is not a field of that type while the last two together spell a
// canonical field: "task_active_level" is entity "task" with field "active_level".
// A "gv" segment left after the envelope is only peeled when a type follows it.
func ParseSystemID(s string) (SystemID, bool) {
	bare := Bare(s)
	if bare == "" {
		return SystemID{}, false
	}

	parts := strings.Split(bare, "_")
	var entityType string
	for len(parts) > 2 {
		head := parts[0]
		if strings.EqualFold(head, legacyPrefix) {
			if len(parts) == 3 {
				break
			}
			parts = parts[1:]
			continue
		}
		typ, ok := schema.LookupType(head)
		if !ok {
			break
		}
		if len(parts) == 3 && !schema.IsField(typ, parts[2]) && schema.IsCanonicalField(parts[1]+"_"+parts[2]) {
			break
		}
		entityType = typ
		parts = parts[1:]
	}

	if len(parts) < 2 {
		return SystemID{}, false
	}
	id := parts[0]
	field := strings.Join(parts[1:], "_")
	if id == "" || field == "" {
		return SystemID{}, false
	}
	return SystemID{EntityType: entityType, EntityID: id, Field: field}, true
}

// ParseDisplayID decomposes "name.field#id".
// When no source name is present, "field#id" is accepted with SourceName set to "Unknown".
func ParseDisplayID(s string) (DisplayID, bool) {
	s = strings.TrimSpace(s)
	hash := strings.LastIndex(s, "#")
	if hash <= 0 || hash == len(s)-1 {
		return DisplayID{}, false
	}
	head, shortID := s[:hash], s[hash+1:]

	dot := strings.LastIndex(head, ".")
	if dot < 0 {
		return DisplayID{SourceName: UnknownSource, Field: head, ShortID: shortID}, true
	}
	name, field := head[:dot], head[dot+1:]
	if field == "" {
		return DisplayID{}, false
	}
	if name == "" {
		name = UnknownSource
	}
	return DisplayID{SourceName: name, Field: field, ShortID: shortID}, true
}

func trimTerminator(s string) string {
	for strings.HasSuffix(s, Terminator) {
		s = strings.TrimSuffix(s, Terminator)
	}
	return s
}

// IsSystemID reports whether s decodes as a system identifier in any accepted shape.
func IsSystemID(s string) bool {
	_, ok := ParseSystemID(s)
	return ok
}
