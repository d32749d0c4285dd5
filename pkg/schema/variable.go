package schema

import "github.com/aretw0/cardflow/pkg/domain"

// NormalizeVariable maps the entity type and field of v onto the canonical schema.
// Variables without an entity type keep their field as is.
func NormalizeVariable(v domain.Variable) domain.Variable {
	if v.EntityType == "" {
		return v
	}
	v.EntityType, v.Field = Normalize(v.EntityType, v.Field)
	return v
}

// NormalizeVariables applies NormalizeVariable to every element, returning a new slice.
func NormalizeVariables(vars []domain.Variable) []domain.Variable {
	out := make([]domain.Variable, len(vars))
	for i, v := range vars {
		out[i] = NormalizeVariable(v)
	}
	return out
}

// LookupType resolves a type label by exact match on a canonical name or one of its
// keywords. Unlike NormalizeType it never guesses: substrings, numbers and unknown
// labels report false.
func LookupType(raw string) (string, bool) {
	key := matchKey(raw)
	if key == "" {
		return "", false
	}
	if IsType(key) {
		return key, true
	}
	for _, r := range typeRules {
		for _, kw := range r.keywords {
			if matchKey(kw) == key {
				return r.name, true
			}
		}
	}
	return "", false
}

// IsField reports whether field normalizes onto a canonical field of canonicalType.
// Custom variables only accept their own field name here, although NormalizeField
// folds any custom field onto it.
func IsField(canonicalType, field string) bool {
	if canonicalType == TypeCustom {
		return matchKey(field) == CustomField
	}
	name := NormalizeField(field, canonicalType)
	for _, f := range Fields(canonicalType) {
		if f == name {
			return true
		}
	}
	return false
}

// IsCanonicalField reports whether field spells a canonical field of any type,
// ignoring case and separators.
func IsCanonicalField(field string) bool {
	key := matchKey(field)
	if key == "" {
		return false
	}
	for _, t := range Types {
		for _, f := range Fields(t) {
			if matchKey(f) == key {
				return true
			}
		}
	}
	return false
}
