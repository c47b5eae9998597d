// Package payload maps form state to the backend entry payload and back.
package payload

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Payload is the external entry shape: external field name to scalar,
// number, boolean, string or translation map.
type Payload map[string]any

// Option customises a Builder.
type Option func(*Builder)

// WithRename maps an internal field name to its external API name.
func WithRename(internal, external string) Option {
	return func(b *Builder) {
		internal = strings.TrimSpace(internal)
		external = strings.TrimSpace(external)
		if internal == "" || external == "" {
			return
		}
		b.renames[internal] = external
	}
}

// WithStatusField names the field forced to the draft sentinel on draft
// submissions.
func WithStatusField(name string) Option {
	return func(b *Builder) {
		b.statusField = strings.TrimSpace(name)
	}
}

// WithSanitizer replaces the free-text sanitizer.
func WithSanitizer(fn func(string) string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.sanitize = fn
		}
	}
}

// Builder converts between form values and payloads for one definition. It
// holds no mutable state.
type Builder struct {
	def         model.Definition
	renames     map[string]string
	reverse     map[string]string
	statusField string
	sanitize    func(string) string
}

// NewBuilder returns a builder for def.
func NewBuilder(def model.Definition, opts ...Option) *Builder {
	b := &Builder{
		def:      def,
		renames:  make(map[string]string),
		reverse:  make(map[string]string),
		sanitize: SanitizeText,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	for internal, external := range b.renames {
		b.reverse[external] = internal
	}
	return b
}

// ExternalName returns the API name of an internal field.
func (b *Builder) ExternalName(internal string) string {
	if external, ok := b.renames[internal]; ok {
		return external
	}
	return internal
}

// InternalName returns the internal name of an API field.
func (b *Builder) InternalName(external string) string {
	if internal, ok := b.reverse[external]; ok {
		return internal
	}
	return external
}

// Aliases returns external to internal renames.
func (b *Builder) Aliases() map[string]string {
	out := make(map[string]string, len(b.reverse))
	for k, v := range b.reverse {
		out[k] = v
	}
	return out
}

// Build maps values to a payload. Absent and empty values are omitted,
// relationships are flattened to their bare key, numeric fields are coerced,
// free text is stripped of markup and translation shadows of localized fields
// are emitted as `<external>_i18n`. Option shadows stay in the form state. With isDraft the status field is forced to "Draft".
func (b *Builder) Build(values model.Values, isDraft bool) Payload {
	out := make(Payload)
	for _, field := range b.def.Fields {
		external := b.ExternalName(field.Name)

		if field.Localized {
			if shadow, ok := values[model.ShadowName(field.Name)].(model.LocalizedText); ok && !shadow.IsEmpty() {
				out[external+model.I18nSuffix] = translations(shadow)
			}
		}

		value, ok := b.convert(field, values)
		if ok {
			out[external] = value
		}
	}

	if isDraft && b.statusField != "" {
		out[b.ExternalName(b.statusField)] = model.StatusDraft
	}
	return out
}

func (b *Builder) convert(field model.Field, values model.Values) (any, bool) {
	value := values[field.Name]
	if field.Localized && model.IsEmpty(value) {
		if shadow, ok := values[model.ShadowName(field.Name)].(model.LocalizedText); ok {
			value = shadow.Get(model.LocaleEnglish)
			if model.IsEmpty(value) {
				value = shadow.First()
			}
		}
	}
	if model.IsEmpty(value) {
		return nil, false
	}

	switch field.Kind {
	case model.FieldKindRelationship:
		return relationshipKey(model.AsString(value)), true
	case model.FieldKindSelect:
		if field.Multiple {
			if options, ok := value.([]model.Option); ok {
				return strings.Join(model.OptionKeys(options), ","), true
			}
		}
		return model.AsString(value), true
	case model.FieldKindInteger:
		if number, ok := model.AsNumber(value); ok && number == float64(int64(number)) {
			return int64(number), true
		}
		return value, true
	case model.FieldKindNumber:
		if number, ok := model.AsNumber(value); ok {
			return number, true
		}
		return value, true
	case model.FieldKindBoolean:
		switch typed := value.(type) {
		case bool:
			return typed, true
		default:
			parsed, err := strconv.ParseBool(strings.TrimSpace(model.AsString(value)))
			if err != nil {
				return nil, false
			}
			return parsed, true
		}
	case model.FieldKindFile:
		switch typed := value.(type) {
		case *model.Attachment:
			return typed.ID, true
		case model.Attachment:
			if typed.ID == 0 {
				return nil, false
			}
			return typed.ID, true
		default:
			return relationshipKey(model.AsString(value)), true
		}
	case model.FieldKindText:
		cleaned := b.sanitize(model.AsString(value))
		if cleaned == "" {
			return nil, false
		}
		return cleaned, true
	case model.FieldKindDate:
		return strings.TrimSpace(model.AsString(value)), true
	default:
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s), true
		}
		return model.AsString(value), true
	}
}

// relationshipKey returns numeric keys as int64, others unchanged.
func relationshipKey(key string) any {
	key = strings.TrimSpace(key)
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return id
	}
	return key
}

func translations(text model.LocalizedText) map[string]string {
	out := make(map[string]string, len(text))
	for locale, value := range text.Normalized() {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out[locale] = value
	}
	return out
}
