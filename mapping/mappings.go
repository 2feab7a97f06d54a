package mapping

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldSpec is the registered type for a single field.
type FieldSpec struct {
	Type FieldType `json:"type"`
}

// Mappings is the field -> type registry for one index. Once a field's
// type is assigned it is permanent unless the caller explicitly
// overwrites it; new fields discovered during ingestion are
// auto-assigned via Infer. The Version counter advances on every
// structural change so callers can tell when the compiled validator
// needs to be refreshed.
type Mappings struct {
	mu         sync.RWMutex
	properties map[string]FieldSpec
	version    int
}

// New creates an empty Mappings registry at version 0.
func New() *Mappings {
	return &Mappings{properties: make(map[string]FieldSpec)}
}

// Version returns the current structural version.
func (m *Mappings) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Get returns the registered type for field, if any.
func (m *Mappings) Get(field string) (FieldType, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.properties[field]
	return spec.Type, ok
}

// Set registers or overwrites field's type, bumping the version.
func (m *Mappings) Set(field string, t FieldType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.properties[field]; ok && existing.Type == t {
		return
	}
	m.properties[field] = FieldSpec{Type: t}
	m.version++
}

// Fields returns the sorted list of registered field names.
func (m *Mappings) Fields() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.properties))
	for f := range m.properties {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// TextLikeFields returns the registered fields whose type is text-like,
// used to expand the "*" field in match queries.
func (m *Mappings) TextLikeFields() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for f, spec := range m.properties {
		if spec.Type.TextLike() {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of the registered properties, suitable for
// persistence.
func (m *Mappings) Snapshot() map[string]FieldSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]FieldSpec, len(m.properties))
	for f, spec := range m.properties {
		out[f] = spec
	}
	return out
}

// Restore replaces the registry wholesale, e.g. from a snapshot.
func (m *Mappings) Restore(properties map[string]FieldSpec, version int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties = make(map[string]FieldSpec, len(properties))
	for f, spec := range properties {
		m.properties[f] = spec
	}
	m.version = version
}

// AutoExtend walks the top-level keys of doc (skipping "id" and
// "indexName"), inferring and registering any field not already known.
// Existing fields are left untouched regardless of the new document's
// shape.
func (m *Mappings) AutoExtend(doc map[string]any) {
	for field, val := range doc {
		if field == "id" || field == "indexName" {
			continue
		}
		if _, ok := m.Get(field); ok {
			continue
		}
		m.Set(field, Infer(val, false))
	}
}

// AutoMap walks doc recursively, producing dotted nested field names
// (e.g. "address.city") and registering each, skipping id/indexName at
// the top level and never descending into geo_point values.
func (m *Mappings) AutoMap(doc map[string]any) {
	m.autoMapWalk(doc, "", true)
}

func (m *Mappings) autoMapWalk(obj map[string]any, prefix string, top bool) {
	for field, val := range obj {
		if top && (field == "id" || field == "indexName") {
			continue
		}
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		t := Infer(val, false)
		if _, ok := m.Get(name); !ok {
			m.Set(name, t)
		}
		if t == Object {
			if nested, ok := val.(map[string]any); ok {
				m.autoMapWalk(nested, name, false)
			}
		}
	}
}

// Validate checks that val is compatible with field's registered type.
// On a mismatch it returns a plain error naming the declared and
// inferred types; the error does not wrap ftserr.ErrValidationFailure.
func (m *Mappings) Validate(field string, val any) error {
	declared, ok := m.Get(field)
	if !ok {
		return nil // unknown fields are auto-extended, not rejected
	}
	inferred := Infer(val, declared == Integer)
	if declared == Float && inferred == Integer {
		return nil // integers are valid floats
	}
	if declared != inferred {
		return fmt.Errorf("field %q: expected %s, got %s", field, declared, inferred)
	}
	return nil
}

// DottedPath splits a dotted nested field name into its path segments.
func DottedPath(name string) []string {
	return strings.Split(name, ".")
}
