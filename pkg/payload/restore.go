package payload

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Restore maps a fetched entry back to form values, the inverse of Build. It
// accepts the shapes the backend returns on reads: picklist fields as
// `{key, name}` objects, attachments as `{id, name, link}` objects and
// date-times where dates were written.
func (b *Builder) Restore(entry map[string]any) model.Values {
	out := make(model.Values)
	for _, field := range b.def.Fields {
		external := b.ExternalName(field.Name)

		if raw, ok := entry[external+model.I18nSuffix]; ok {
			if text := toLocalizedText(raw); !text.IsEmpty() {
				out[model.ShadowName(field.Name)] = text
			}
		}

		raw, ok := entry[external]
		if !ok || raw == nil {
			continue
		}
		if value, ok := restoreValue(field, raw); ok {
			out[field.Name] = value
		}
	}
	return out
}

func restoreValue(field model.Field, raw any) (any, bool) {
	switch field.Kind {
	case model.FieldKindRelationship:
		key := scalarKey(raw)
		if key == "" || key == "0" {
			return nil, false
		}
		return []model.Option{{Value: key}}, true
	case model.FieldKindSelect:
		if field.Multiple {
			return restoreMulti(raw), true
		}
		option, ok := restoreOption(raw)
		if !ok {
			return nil, false
		}
		if field.Computed {
			return option.Value, true
		}
		return option, true
	case model.FieldKindFile:
		attachment := restoreAttachment(raw)
		if attachment == nil {
			return nil, false
		}
		return attachment, true
	case model.FieldKindDate:
		text := strings.TrimSpace(model.AsString(raw))
		if len(text) > len(model.DateLayout) {
			text = text[:len(model.DateLayout)]
		}
		return text, text != ""
	case model.FieldKindInteger, model.FieldKindNumber:
		number, ok := model.AsNumber(raw)
		if !ok {
			return nil, false
		}
		return model.AsString(number), true
	case model.FieldKindBoolean:
		if b, ok := raw.(bool); ok {
			return b, true
		}
		parsed, err := strconv.ParseBool(model.AsString(raw))
		return parsed, err == nil
	default:
		return model.AsString(raw), true
	}
}

func restoreOption(raw any) (model.Option, bool) {
	switch typed := raw.(type) {
	case map[string]any:
		key := model.AsString(typed["key"])
		if key == "" {
			return model.Option{}, false
		}
		option := model.Option{Value: key, Label: model.AsString(typed["name"]), Raw: typed}
		if text := toLocalizedText(typed["name_i18n"]); !text.IsEmpty() {
			option.LabelI18n = text
		}
		return option, true
	default:
		key := scalarKey(raw)
		return model.Option{Value: key}, key != ""
	}
}

func restoreMulti(raw any) []model.Option {
	var out []model.Option
	switch typed := raw.(type) {
	case []any:
		for _, item := range typed {
			if option, ok := restoreOption(item); ok {
				out = append(out, option)
			}
		}
	case string:
		for _, key := range strings.Split(typed, ",") {
			if key = strings.TrimSpace(key); key != "" {
				out = append(out, model.Option{Value: key})
			}
		}
	}
	return out
}

func restoreAttachment(raw any) *model.Attachment {
	switch typed := raw.(type) {
	case map[string]any:
		id, _ := model.AsNumber(typed["id"])
		if id == 0 {
			return nil
		}
		return &model.Attachment{
			ID:   int64(id),
			Name: model.AsString(typed["name"]),
			URL:  model.AsString(typed["link"]),
		}
	default:
		id, ok := model.AsNumber(raw)
		if !ok || id == 0 {
			return nil
		}
		return &model.Attachment{ID: int64(id)}
	}
}

func scalarKey(raw any) string {
	if number, ok := raw.(float64); ok {
		return strconv.FormatFloat(number, 'f', -1, 64)
	}
	return strings.TrimSpace(model.AsString(raw))
}

func toLocalizedText(raw any) model.LocalizedText {
	out := make(model.LocalizedText)
	switch typed := raw.(type) {
	case map[string]any:
		for locale, value := range typed {
			if s, ok := value.(string); ok {
				out[locale] = s
			}
		}
	case map[string]string:
		for locale, value := range typed {
			out[locale] = value
		}
	case model.LocalizedText:
		return typed.Normalized()
	}
	return out.Normalized()
}
