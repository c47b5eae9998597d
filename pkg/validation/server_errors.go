package validation

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// FieldMessage is one backend validation entry.
type FieldMessage struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ServerErrors splits backend validation entries into messages for known
// fields and form-level messages.
type ServerErrors struct {
	Fields model.FieldErrors
	Form   []string
}

// Empty reports whether nothing was mapped.
func (s ServerErrors) Empty() bool {
	return len(s.Fields) == 0 && len(s.Form) == 0
}

// MapServerErrors maps backend entries onto the internal field names.
// Entry paths may use internal or external names (aliases maps external to
// internal), JSON pointers, dotted or bracketed paths, request wrappers and
// `_i18n` shadow names. Unknown paths become form-level messages so nothing
// is lost.
func MapServerErrors(fields []string, aliases map[string]string, entries []FieldMessage) ServerErrors {
	out := ServerErrors{}
	if len(entries) == 0 {
		return out
	}

	known := make(map[string]string, len(fields)+len(aliases))
	for _, name := range fields {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		known[strings.ToLower(name)] = name
	}
	for external, internal := range aliases {
		if _, ok := known[strings.ToLower(internal)]; ok {
			known[strings.ToLower(external)] = internal
		}
	}

	perField := make(map[string][]string)
	for _, entry := range entries {
		message := strings.TrimSpace(entry.Message)
		if message == "" {
			continue
		}
		name, formLevel := mapErrorPath(entry.Field, known)
		if formLevel {
			out.Form = append(out.Form, message)
			continue
		}
		perField[name] = append(perField[name], message)
	}

	if len(perField) > 0 {
		out.Fields = make(model.FieldErrors, len(perField))
		for name, messages := range perField {
			out.Fields[name] = strings.Join(normalizeMessages(messages), "; ")
		}
	}
	out.Form = normalizeMessages(out.Form)
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, known map[string]string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	for _, segment := range stripNumericSegments(dropWrapperSegments(segments)) {
		if name, ok := lookupField(segment, known); ok {
			return name, false
		}
	}
	return "", true
}

func lookupField(segment string, known map[string]string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(segment))
	if name, ok := known[key]; ok {
		return name, true
	}
	if trimmed := strings.TrimSuffix(key, strings.ToLower(model.I18nSuffix)); trimmed != key {
		name, ok := known[trimmed]
		return name, ok
	}
	return "", false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "", "//", "/").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, strings.Trim(segment, `"'`))
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "attributes", "properties":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
