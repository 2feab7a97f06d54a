package mapping

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	reURL   = regexp.MustCompile(`^https?://.+`)
	rePhone = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
	}
)

// Infer classifies v using the priority rules of spec.md §4.2. When a
// numeric value should be treated as an integer (the caller has declared
// the field integer) pass preferInteger=true.
func Infer(v any, preferInteger bool) FieldType {
	if v == nil {
		return Text
	}

	switch val := v.(type) {
	case string:
		return inferString(val)
	case float64:
		if preferInteger && val == float64(int64(val)) {
			return Integer
		}
		return Float
	case float32:
		return Float
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer
	case bool:
		return Boolean
	case time.Time:
		return DateT
	case []any:
		return inferSequence(val)
	case map[string]any:
		return inferObject(val)
	default:
		return Text
	}
}

func inferString(s string) FieldType {
	if reEmail.MatchString(s) {
		return EmailT
	}
	if reURL.MatchString(s) {
		return URLT
	}
	normalized := normalizeDigits(s)
	if normalized != "" && rePhone.MatchString(normalized) {
		return PhoneT
	}
	if isDateLike(s) {
		return DateT
	}
	return Text
}

// normalizeDigits strips common phone punctuation, leaving a leading
// '+' if present.
func normalizeDigits(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			continue
		default:
			return ""
		}
	}
	return b.String()
}

func isDateLike(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func inferSequence(seq []any) FieldType {
	if len(seq) == 0 {
		return Text
	}
	if len(seq) == 2 {
		if isNumber(seq[0]) && isNumber(seq[1]) {
			return GeoPoint
		}
	}
	return Infer(seq[0], false)
}

func inferObject(obj map[string]any) FieldType {
	if _, hasLat := obj["lat"]; hasLat {
		if _, hasLon := obj["lon"]; hasLon {
			return GeoPoint
		}
	}
	return Object
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// ParseFloat extracts a numeric value from a stored field, used by the
// range and geo query leaves.
func ParseFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
