package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Values is the form state: field name to scalar, list, Option, or
// LocalizedText.
type Values map[string]any

// Clone returns a deep copy so snapshots stay immutable from the caller's
// perspective.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = CloneValue(value)
	}
	return out
}

// String returns the value stored under name rendered as text.
func (v Values) String(name string) string {
	return AsString(v[name])
}

// CloneValue deep copies the container types the form state can hold.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, item := range typed {
			clone[k] = CloneValue(item)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, item := range typed {
			clone[i] = CloneValue(item)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	case LocalizedText:
		return typed.Clone()
	case Option:
		return typed.Clone()
	case []Option:
		clone := make([]Option, len(typed))
		for i, item := range typed {
			clone[i] = item.Clone()
		}
		return clone
	default:
		return typed
	}
}

// IsEmpty reports whether a value counts as absent: nil, blank strings, empty
// containers, and options without a key.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	case []string:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	case LocalizedText:
		return typed.IsEmpty()
	case Option:
		return strings.TrimSpace(typed.Value) == ""
	case []Option:
		return len(typed) == 0
	case *Attachment:
		return typed == nil || typed.ID == 0
	default:
		return false
	}
}

// AsString renders scalar values as text. Options resolve to their key and
// option lists to the first key.
func AsString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case Option:
		return typed.Value
	case []Option:
		if len(typed) == 0 {
			return ""
		}
		return typed[0].Value
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	case *Attachment:
		if typed == nil {
			return ""
		}
		return typed.Name
	default:
		return fmt.Sprint(value)
	}
}

// AsNumber converts numeric values and numeric-looking strings to float64.
func AsNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
