package render

import (
	"strings"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Translation is one locale of a localized value.
type Translation struct {
	Locale string `json:"locale"`
	Text   string `json:"text"`
}

// Row is one field in a review summary.
type Row struct {
	Name         string        `json:"name"`
	Label        string        `json:"label"`
	Value        string        `json:"value"`
	Error        string        `json:"error,omitempty"`
	Computed     bool          `json:"computed,omitempty"`
	Translations []Translation `json:"translations,omitempty"`
}

// Section groups the rows of one step.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Review is the read-only summary shown before a submission.
type Review struct {
	Form     string    `json:"form"`
	Locale   string    `json:"locale"`
	Sections []Section `json:"sections"`
	Errors   []string  `json:"errors,omitempty"`
}

// HasErrors reports whether any row or form-level message carries an error.
func (r Review) HasErrors() bool {
	if len(r.Errors) > 0 {
		return true
	}
	for _, section := range r.Sections {
		for _, row := range section.Rows {
			if row.Error != "" {
				return true
			}
		}
	}
	return false
}

// BuildReview walks the steps of def in order and resolves every value for
// display in locale. Errors keyed by unknown fields become form-level
// messages.
func BuildReview(def model.Definition, values model.Values, errs model.FieldErrors, locale string) Review {
	review := Review{
		Form:   def.Name,
		Locale: model.NormalizeLocale(locale),
	}
	seen := make(map[string]bool)
	for _, step := range def.Steps {
		section := Section{Key: step.Key, Title: stepTitle(step, locale)}
		for _, name := range step.Fields {
			field, ok := def.Field(name)
			if !ok {
				continue
			}
			seen[name] = true
			section.Rows = append(section.Rows, Row{
				Name:         name,
				Label:        field.DisplayLabel(locale),
				Value:        DisplayValue(field, values[name], locale),
				Error:        errs[name],
				Computed:     field.Computed,
				Translations: translationsOf(field, values),
			})
		}
		review.Sections = append(review.Sections, section)
	}
	for _, name := range errs.Names() {
		if !seen[name] {
			review.Errors = append(review.Errors, errs[name])
		}
	}
	return review
}

// DisplayValue renders a stored value for humans: options resolve to their
// label in locale, attachments to their file name and booleans to Yes/No.
func DisplayValue(field model.Field, value any, locale string) string {
	if model.IsEmpty(value) {
		return ""
	}
	switch typed := value.(type) {
	case model.Option:
		return typed.DisplayLabel(locale)
	case []model.Option:
		labels := make([]string, 0, len(typed))
		for _, option := range typed {
			labels = append(labels, option.DisplayLabel(locale))
		}
		return strings.Join(labels, ", ")
	case *model.Attachment:
		return typed.Name
	case bool:
		if typed {
			return "Yes"
		}
		return "No"
	}
	if field.Kind == model.FieldKindBoolean {
		switch strings.ToLower(model.AsString(value)) {
		case "true":
			return "Yes"
		case "false":
			return "No"
		}
	}
	return strings.TrimSpace(model.AsString(value))
}

func translationsOf(field model.Field, values model.Values) []Translation {
	if !field.Localized {
		return nil
	}
	text, ok := values[model.ShadowName(field.Name)].(model.LocalizedText)
	if !ok {
		return nil
	}
	var out []Translation
	for _, locale := range text.Locales() {
		if value := strings.TrimSpace(text[locale]); value != "" {
			out = append(out, Translation{Locale: locale, Text: value})
		}
	}
	return out
}

func stepTitle(step model.Step, locale string) string {
	if title := step.Title.Get(locale); title != "" {
		return title
	}
	if title := step.Title.First(); title != "" {
		return title
	}
	return step.Key
}
