// Package forms bundles a form definition with its rule, derivation and
// payload tables, and keeps a registry of the available forms.
package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/derive"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/payload"
	"github.com/goliatone/go-fleetform/pkg/validation"
)

// ErrUnknownForm is returned by Registry.Build for unregistered names.
var ErrUnknownForm = errors.New("forms: unknown form")

// Blueprint is everything a session needs to run one form.
type Blueprint struct {
	Definition  model.Definition
	Rules       validation.Table
	Derivations derive.Table
	// Renames maps internal field names to external API names.
	Renames map[string]string
	// StatusField is forced to the draft sentinel on draft submissions.
	StatusField string
	// Columns are the fields shown when listing entries.
	Columns []string
}

// Validator compiles the rule table.
func (b Blueprint) Validator(opts ...validation.Option) (*validation.Engine, error) {
	return validation.NewEngine(b.Definition, b.Rules, opts...)
}

// Deriver returns the derivation engine.
func (b Blueprint) Deriver(opts ...derive.Option) *derive.Engine {
	return derive.New(b.Derivations, opts...)
}

// Builder returns the payload builder with the blueprint's renames and
// status field applied before opts.
func (b Blueprint) Builder(opts ...payload.Option) *payload.Builder {
	all := make([]payload.Option, 0, len(b.Renames)+1+len(opts))
	for internal, external := range b.Renames {
		all = append(all, payload.WithRename(internal, external))
	}
	if b.StatusField != "" {
		all = append(all, payload.WithStatusField(b.StatusField))
	}
	all = append(all, opts...)
	return payload.NewBuilder(b.Definition, all...)
}

// OptionLists returns the cache list names of every option-backed field.
func (b Blueprint) OptionLists() []string {
	seen := make(map[string]bool)
	var out []string
	for _, field := range b.Definition.Fields {
		if field.Options == nil {
			continue
		}
		name := field.Options.ListName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Check reports blueprint wiring mistakes: step fields that are not
// declared and rules or derivations keyed by unknown fields.
func (b Blueprint) Check() error {
	declared := make(map[string]bool, len(b.Definition.Fields))
	for _, field := range b.Definition.Fields {
		declared[field.Name] = true
	}
	var problems []string
	for _, step := range b.Definition.Steps {
		for _, name := range step.Fields {
			if !declared[name] {
				problems = append(problems, fmt.Sprintf("step %q lists undeclared field %q", step.Key, name))
			}
		}
	}
	for name := range b.Rules {
		if !declared[name] {
			problems = append(problems, fmt.Sprintf("rule for undeclared field %q", name))
		}
	}
	for name, derivations := range b.Derivations {
		if !declared[name] {
			problems = append(problems, fmt.Sprintf("derivation source %q is undeclared", name))
		}
		for _, d := range derivations {
			if d.Target != "" && !declared[d.Target] {
				problems = append(problems, fmt.Sprintf("derivation target %q is undeclared", d.Target))
			}
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("forms: %s: %s", b.Definition.Name, strings.Join(problems, "; "))
}

// Factory builds a blueprint from the configured business policy.
type Factory func(policy config.Policy) Blueprint

// Registry maps form names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces a factory. Blank names and nil factories are
// ignored.
func (r *Registry) Register(name string, factory Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	if r == nil || name == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Build returns the named blueprint for policy.
func (r *Registry) Build(name string, policy config.Policy) (Blueprint, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return Blueprint{}, fmt.Errorf("%w %q", ErrUnknownForm, name)
	}
	return factory(policy), nil
}

// Names lists the registered forms in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Text is shorthand for a label in the default locales.
func Text(en, ar string) model.LocalizedText {
	out := model.LocalizedText{model.LocaleEnglish: en}
	if ar != "" {
		out[model.LocaleArabic] = ar
	}
	return out
}
