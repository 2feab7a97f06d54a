// Package mapping implements field-type inference and the per-index
// Mappings registry (spec.md §3, §4.2).
package mapping

// FieldType is the tagged variant of field types the engine recognizes.
type FieldType string

const (
	Text     FieldType = "text"
	Keyword  FieldType = "keyword"
	EmailT   FieldType = "email"
	URLT     FieldType = "url"
	PhoneT   FieldType = "phone"
	DateT    FieldType = "date"
	Boolean  FieldType = "boolean"
	Integer  FieldType = "integer"
	Float    FieldType = "float"
	GeoPoint FieldType = "geo_point"
	Object   FieldType = "object"
)

// TextLike reports whether values of this type participate in the "*"
// field expansion for match queries (spec.md §4.5).
func (t FieldType) TextLike() bool {
	switch t {
	case Text, Keyword, EmailT, URLT, PhoneT:
		return true
	default:
		return false
	}
}

// Value is the in-memory tagged representation of a document field
// value: a FieldType tag paired with the Go-native payload the rest of
// the engine operates on via explicit type switches (never
// reflect-based field walking, per spec.md §9).
type Value struct {
	Kind FieldType
	Raw  any
}
