package model

import (
	"sort"
	"strings"
)

// FieldKind is the simplified enum for form-friendly field kinds.
type FieldKind string

const (
	FieldKindString       FieldKind = "string"
	FieldKindText         FieldKind = "text"
	FieldKindInteger      FieldKind = "integer"
	FieldKindNumber       FieldKind = "number"
	FieldKindBoolean      FieldKind = "boolean"
	FieldKindDate         FieldKind = "date"
	FieldKindSelect       FieldKind = "select"
	FieldKindRelationship FieldKind = "relationship"
	FieldKindFile         FieldKind = "file"
)

// I18nSuffix is appended to a field name to address its translation shadow.
const I18nSuffix = "_i18n"

// ShadowName returns the `<name>_i18n` key for a localized field.
func ShadowName(name string) string {
	return strings.TrimSpace(name) + I18nSuffix
}

// OptionSourceKind identifies where option-backed fields load their choices.
type OptionSourceKind string

const (
	// OptionSourcePicklist loads entries from a list type definition.
	OptionSourcePicklist OptionSourceKind = "picklist"
	// OptionSourceObject loads entries from an object collection.
	OptionSourceObject OptionSourceKind = "object"
)

// OptionSource describes the reference data behind a select or relationship
// field.
type OptionSource struct {
	Kind OptionSourceKind `json:"kind" yaml:"kind"`
	Name string           `json:"name" yaml:"name"`
}

// ListName returns the cache key used by the option cache.
func (s OptionSource) ListName() string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ""
	}
	if s.Kind == OptionSourceObject {
		return string(OptionSourceObject) + ":" + name
	}
	return name
}

// Field models an individual input inside a form definition.
type Field struct {
	Name      string        `json:"name"`
	Kind      FieldKind     `json:"kind"`
	Label     LocalizedText `json:"label,omitempty"`
	Help      string        `json:"help,omitempty"`
	Localized bool          `json:"localized,omitempty"`
	Computed  bool          `json:"computed,omitempty"`
	Multiple  bool          `json:"multiple,omitempty"`
	Options   *OptionSource `json:"options,omitempty"`
	Category  string        `json:"category,omitempty"`
	Default   any           `json:"default,omitempty"`
	// Widget forces the prompt used for the field instead of the one
	// resolved from its kind.
	Widget string `json:"widget,omitempty"`
}

// DisplayLabel returns the label for locale, falling back to the field name.
func (f Field) DisplayLabel(locale string) string {
	if label := f.Label.Get(locale); label != "" {
		return label
	}
	if label := f.Label.First(); label != "" {
		return label
	}
	return f.Name
}

// Step is one page of a multi-page form.
type Step struct {
	Key    string        `json:"key"`
	Title  LocalizedText `json:"title,omitempty"`
	Fields []string      `json:"fields"`
}

// Owns reports whether the step owns the named field.
func (s Step) Owns(name string) bool {
	for _, field := range s.Fields {
		if field == name {
			return true
		}
	}
	return false
}

// Definition is the declarative registry of one form: its fields, the order
// in which steps present them and the backend collection it persists to.
type Definition struct {
	Name       string  `json:"name"`
	Collection string  `json:"collection"`
	Fields     []Field `json:"fields"`
	Steps      []Step  `json:"steps"`
}

// Field returns the named field definition.
func (d Definition) Field(name string) (Field, bool) {
	for _, field := range d.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Defaults returns the initial values declared on the fields.
func (d Definition) Defaults() Values {
	out := make(Values)
	for _, field := range d.Fields {
		if field.Default != nil {
			out[field.Name] = field.Default
		}
	}
	return out
}

// FieldErrors maps a field name to a human readable message. Valid fields are
// absent from the map.
type FieldErrors map[string]string

// Merge copies every entry from other into e, returning e (allocated when
// nil).
func (e FieldErrors) Merge(other FieldErrors) FieldErrors {
	if len(other) == 0 {
		return e
	}
	if e == nil {
		e = make(FieldErrors, len(other))
	}
	for name, message := range other {
		if strings.TrimSpace(message) == "" {
			continue
		}
		e[name] = message
	}
	return e
}

// Clone returns a copy of the error map.
func (e FieldErrors) Clone() FieldErrors {
	if e == nil {
		return nil
	}
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Names returns the failing field names in sorted order.
func (e FieldErrors) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attachment is the result of a file upload.
type Attachment struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
