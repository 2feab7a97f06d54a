package mapping

import "testing"

func TestInferPriority(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want FieldType
	}{
		{"nil", nil, Text},
		{"email", "jane@example.com", EmailT},
		{"url", "https://example.com/path", URLT},
		{"phone", "+15551234567", PhoneT},
		{"date", "2024-01-15T10:30:00Z", DateT},
		{"text", "hello world", Text},
		{"float", 3.14, Float},
		{"bool", true, Boolean},
		{"geo", []any{37.5, -122.3}, GeoPoint},
		{"empty-seq", []any{}, Text},
		{"object", map[string]any{"a": "b"}, Object},
		{"geo-object", map[string]any{"lat": 1.0, "lon": 2.0}, GeoPoint},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Infer(c.in, false); got != c.want {
				t.Errorf("Infer(%v) = %s, want %s", c.in, got, c.want)
			}
		})
	}
}

func TestInferIntegerPreference(t *testing.T) {
	if got := Infer(42.0, true); got != Integer {
		t.Errorf("got %s, want integer", got)
	}
	if got := Infer(42.5, true); got != Float {
		t.Errorf("got %s, want float for non-integral value", got)
	}
}

func TestMappingsPermanentOnceSet(t *testing.T) {
	m := New()
	m.Set("title", Text)
	v1 := m.Version()
	m.AutoExtend(map[string]any{"id": "1", "title": 12345.0})
	got, _ := m.Get("title")
	if got != Text {
		t.Errorf("expected type to remain permanent, got %s", got)
	}
	if m.Version() != v1 {
		t.Errorf("expected no version bump for already-known field")
	}
}

func TestMappingsAutoExtendSkipsReserved(t *testing.T) {
	m := New()
	m.AutoExtend(map[string]any{"id": "1", "indexName": "x", "title": "hello"})
	if _, ok := m.Get("id"); ok {
		t.Error("id should not be auto-mapped")
	}
	if _, ok := m.Get("indexName"); ok {
		t.Error("indexName should not be auto-mapped")
	}
	if typ, ok := m.Get("title"); !ok || typ != Text {
		t.Errorf("expected title to be text, got %v %v", typ, ok)
	}
}

func TestMappingsAutoMapNestedDotted(t *testing.T) {
	m := New()
	m.AutoMap(map[string]any{
		"id": "1",
		"address": map[string]any{
			"city": "Springfield",
			"geo":  map[string]any{"lat": 1.0, "lon": 2.0},
		},
	})
	if typ, ok := m.Get("address"); !ok || typ != Object {
		t.Fatalf("expected address object, got %v %v", typ, ok)
	}
	if typ, ok := m.Get("address.city"); !ok || typ != Text {
		t.Fatalf("expected address.city text, got %v %v", typ, ok)
	}
	if typ, ok := m.Get("address.geo"); !ok || typ != GeoPoint {
		t.Fatalf("expected address.geo geo_point, got %v %v", typ, ok)
	}
	if _, ok := m.Get("address.geo.lat"); ok {
		t.Error("must not descend into geo_point values")
	}
}

func TestMappingsVersionAdvancesOnNewField(t *testing.T) {
	m := New()
	v0 := m.Version()
	m.Set("a", Text)
	if m.Version() == v0 {
		t.Error("expected version to advance")
	}
}

func TestMappingsValidate(t *testing.T) {
	m := New()
	m.Set("age", Integer)
	if err := m.Validate("age", 30.0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := m.Validate("age", "thirty"); err == nil {
		t.Error("expected validation failure")
	}
}
