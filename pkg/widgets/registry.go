// Package widgets resolves which prompt renders a form field. Explicit
// Field.Widget values win; otherwise registered matchers are evaluated by
// priority.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetInput       = "input"
	WidgetTextArea    = "textarea"
	WidgetDate        = "date"
	WidgetConfirm     = "confirm"
	WidgetSelect      = "select"
	WidgetMultiSelect = "multiselect"
	WidgetFile        = "file"
	WidgetLocalized   = "localized"
	WidgetReadOnly    = "readonly"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field model.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields based on explicit hints or
// registered matchers. Higher priority wins; ties fall back to registration
// order. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(field model.Field) (string, bool) {
	if explicit := strings.TrimSpace(field.Widget); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// ResolveAll maps every field of def to its widget. Unresolved fields fall
// back to WidgetInput.
func (r *Registry) ResolveAll(def model.Definition) map[string]string {
	out := make(map[string]string, len(def.Fields))
	for _, field := range def.Fields {
		widget, ok := r.Resolve(field)
		if !ok {
			widget = WidgetInput
		}
		out[field.Name] = widget
	}
	return out
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetReadOnly, 100, func(field model.Field) bool {
		return field.Computed
	})

	r.Register(WidgetLocalized, 90, func(field model.Field) bool {
		return field.Localized
	})

	r.Register(WidgetFile, 85, func(field model.Field) bool {
		return field.Kind == model.FieldKindFile
	})

	r.Register(WidgetConfirm, 80, func(field model.Field) bool {
		return field.Kind == model.FieldKindBoolean
	})

	r.Register(WidgetMultiSelect, 70, func(field model.Field) bool {
		if field.Kind != model.FieldKindSelect && field.Kind != model.FieldKindRelationship {
			return false
		}
		return field.Multiple
	})

	r.Register(WidgetSelect, 60, func(field model.Field) bool {
		return field.Kind == model.FieldKindSelect || field.Kind == model.FieldKindRelationship || field.Options != nil
	})

	r.Register(WidgetDate, 50, func(field model.Field) bool {
		return field.Kind == model.FieldKindDate
	})

	r.Register(WidgetTextArea, 40, func(field model.Field) bool {
		return field.Kind == model.FieldKindText
	})

	r.Register(WidgetInput, 0, func(model.Field) bool {
		return true
	})
}
