// Package store holds the per-form value state: plain field values, the
// translation shadows of localized fields and the active locale of each
// localized field.
package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Store tracks collected values, touched flags and per-field active locales.
// It is safe for concurrent use; snapshots are deep copies.
type Store struct {
	mu            sync.RWMutex
	values        model.Values
	touched       map[string]bool
	locales       map[string]string
	localized     map[string]bool
	defaultLocale string
}

// New seeds a store for the definition with its declared defaults merged
// with prefill. Localized fields start on defaultLocale.
func New(def model.Definition, defaultLocale string, prefill model.Values) *Store {
	s := &Store{
		touched:       make(map[string]bool),
		locales:       make(map[string]string),
		localized:     make(map[string]bool),
		defaultLocale: model.NormalizeLocale(defaultLocale),
	}
	if s.defaultLocale == "" {
		s.defaultLocale = model.LocaleEnglish
	}
	for _, field := range def.Fields {
		if field.Localized {
			s.localized[field.Name] = true
		}
	}
	s.values = mergeValues(def.Defaults(), prefill)
	s.syncMirrors()
	return s
}

// SetField stores value and marks the field touched. For localized fields the
// value is also written into the shadow under the field's active locale.
func (s *Store) SetField(name string, value any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("store: field name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[name] = model.CloneValue(value)
	s.touched[name] = true

	if s.localized[name] {
		text, _ := s.values[model.ShadowName(name)].(model.LocalizedText)
		text = text.Clone()
		if text == nil {
			text = make(model.LocalizedText)
		}
		text[text.Key(s.localeLocked(name))] = model.AsString(value)
		s.values[model.ShadowName(name)] = text
	}
	return nil
}

// SetLocalizedField replaces the full translation map of a field and updates
// the plain mirror from the field's active locale.
func (s *Store) SetLocalizedField(name string, text model.LocalizedText) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("store: field name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := text.Normalized()
	if normalized == nil {
		normalized = make(model.LocalizedText)
	}
	s.values[model.ShadowName(name)] = normalized
	s.values[name] = normalized.Get(s.localeLocked(name))
	s.touched[name] = true
	return nil
}

// SetFieldLocale switches the locale used to display and edit a field. The
// mirror shows the new locale's translation, or "" when there is none yet;
// translations of other locales are kept untouched.
func (s *Store) SetFieldLocale(name, locale string) error {
	name = strings.TrimSpace(name)
	normalized := model.NormalizeLocale(locale)
	if name == "" || normalized == "" {
		return fmt.Errorf("store: field name and locale are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locales[name] = normalized
	if text, ok := s.values[model.ShadowName(name)].(model.LocalizedText); ok {
		s.values[name] = text.Get(normalized)
	} else if s.localized[name] {
		s.values[name] = ""
	}
	return nil
}

// Derive writes a computed value without marking the field touched. A nil
// value removes the entry. Writing a shadow refreshes its mirror.
func (s *Store) Derive(name string, value any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("store: field name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == nil {
		delete(s.values, name)
	} else {
		s.values[name] = model.CloneValue(value)
	}
	if base, ok := strings.CutSuffix(name, model.I18nSuffix); ok && s.localized[base] {
		s.syncMirrorsLocked()
	}
	return nil
}

// Locale returns the active locale of a field.
func (s *Store) Locale(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localeLocked(name)
}

// Value returns the stored value of a field.
func (s *Store) Value(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	return model.CloneValue(value), ok
}

// Touched reports whether the field was set through a setter.
func (s *Store) Touched(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touched[name]
}

// Snapshot returns a deep copy of the current values.
func (s *Store) Snapshot() model.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Clone()
}

// Reset restores the supplied values, clears touched flags and returns every
// localized field to the default locale.
func (s *Store) Reset(values model.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values.Clone()
	s.touched = make(map[string]bool)
	s.locales = make(map[string]string)
	s.syncMirrorsLocked()
}

// Replace overwrites the values without touching locale selections; used
// when an existing record is loaded for editing.
func (s *Store) Replace(values model.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values.Clone()
	s.touched = make(map[string]bool)
	s.syncMirrorsLocked()
}

func (s *Store) localeLocked(name string) string {
	if locale := s.locales[name]; locale != "" {
		return locale
	}
	return s.defaultLocale
}

func (s *Store) syncMirrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncMirrorsLocked()
}

func (s *Store) syncMirrorsLocked() {
	for name := range s.localized {
		text, ok := s.values[model.ShadowName(name)].(model.LocalizedText)
		if !ok {
			continue
		}
		s.values[name] = text.Get(s.localeLocked(name))
	}
}

func mergeValues(base, overlay model.Values) model.Values {
	out := base.Clone()
	for key, value := range overlay {
		out[key] = model.CloneValue(value)
	}
	return out
}
