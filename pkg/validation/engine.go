package validation

import (
	"fmt"
	"time"

	"github.com/goliatone/go-fleetform/pkg/condition"
	"github.com/goliatone/go-fleetform/pkg/model"
)

// Spec is the rule record of one field.
type Spec struct {
	Rules []Rule
	// RequiredWhen, when set, gates Required rules: if it evaluates false the
	// field is optional and its other rules only run on a present value.
	RequiredWhen string
}

// Table maps field names to their rule records.
type Table map[string]Spec

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source used by date rules.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithHost exposes host values to RequiredWhen expressions under `host.`.
func WithHost(host map[string]any) Option {
	return func(e *Engine) {
		e.host = host
	}
}

// Engine evaluates a Table against form snapshots. It performs no I/O and
// holds no mutable state, so it is safe for concurrent use.
type Engine struct {
	def   model.Definition
	table Table
	conds map[string]*condition.Expr
	clock func() time.Time
	host  map[string]any
}

// NewEngine compiles the table's RequiredWhen expressions.
func NewEngine(def model.Definition, table Table, opts ...Option) (*Engine, error) {
	e := &Engine{
		def:   def,
		table: table,
		conds: make(map[string]*condition.Expr),
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	for name, fieldRules := range table {
		if fieldRules.RequiredWhen == "" {
			continue
		}
		expr, err := condition.Compile(fieldRules.RequiredWhen)
		if err != nil {
			return nil, fmt.Errorf("validation: field %q: %w", name, err)
		}
		e.conds[name] = expr
	}
	return e, nil
}

// Definition returns the form definition the engine validates.
func (e *Engine) Definition() model.Definition {
	return e.def
}

// ValidateField runs the rules of one field and returns the first failing
// message, or "".
func (e *Engine) ValidateField(name string, value any, snapshot model.Values) string {
	fieldRules, ok := e.table[name]
	if !ok || len(fieldRules.Rules) == 0 {
		return ""
	}

	value = e.effectiveValue(name, value, snapshot)
	env := Env{
		Field:    name,
		Snapshot: snapshot,
		Host:     e.host,
		Today:    StartOfDay(e.clock()),
	}

	required := e.required(name, snapshot)
	empty := model.IsEmpty(value)

	for _, rule := range fieldRules.Rules {
		if rule.IsRequired() {
			if !required {
				continue
			}
			if message := rule.Apply(value, env); message != "" {
				return message
			}
			continue
		}
		if empty {
			continue
		}
		if message := applyEach(rule, value, env); message != "" {
			return message
		}
	}
	return ""
}

// ValidateStep validates every field the step owns against snapshot. Only
// failing fields appear in the result.
func (e *Engine) ValidateStep(step int, snapshot model.Values) model.FieldErrors {
	if step < 0 || step >= len(e.def.Steps) {
		return nil
	}
	return e.validateFields(e.def.Steps[step].Fields, snapshot)
}

// ValidateAll validates every step.
func (e *Engine) ValidateAll(snapshot model.Values) model.FieldErrors {
	var errs model.FieldErrors
	for i := range e.def.Steps {
		errs = errs.Merge(e.ValidateStep(i, snapshot))
	}
	return errs
}

// StepOf returns the index of the step owning name, or -1.
func (e *Engine) StepOf(name string) int {
	for i, step := range e.def.Steps {
		if step.Owns(name) {
			return i
		}
	}
	return -1
}

func (e *Engine) validateFields(names []string, snapshot model.Values) model.FieldErrors {
	errs := make(model.FieldErrors)
	for _, name := range names {
		if message := e.ValidateField(name, e.stepValue(name, snapshot), snapshot); message != "" {
			errs[name] = message
		}
	}
	return errs
}

func (e *Engine) required(name string, snapshot model.Values) bool {
	expr, ok := e.conds[name]
	if !ok {
		return true
	}
	result, err := expr.Eval(condition.Context{Values: snapshot, Host: e.host})
	if err != nil {
		return true
	}
	return result
}

// effectiveValue falls back to the translation shadow of localized fields
// so a field counts as filled when any locale has text.
func (e *Engine) effectiveValue(name string, value any, snapshot model.Values) any {
	if !model.IsEmpty(value) {
		return value
	}
	if field, ok := e.def.Field(name); ok && field.Localized {
		if text, ok := snapshot[model.ShadowName(name)].(model.LocalizedText); ok && !text.IsEmpty() {
			return text
		}
	}
	return value
}

// stepValue returns the value a step check runs against: every translation
// for localized fields, the plain value otherwise.
func (e *Engine) stepValue(name string, snapshot model.Values) any {
	if field, ok := e.def.Field(name); ok && field.Localized {
		if text, ok := snapshot[model.ShadowName(name)].(model.LocalizedText); ok && !text.IsEmpty() {
			return text
		}
	}
	return snapshot[name]
}

// applyEach runs text rules on every translation of a localized value.
func applyEach(rule Rule, value any, env Env) string {
	text, ok := value.(model.LocalizedText)
	if !ok {
		return rule.Apply(value, env)
	}
	for _, locale := range text.Locales() {
		if model.IsEmpty(text[locale]) {
			continue
		}
		if message := rule.Apply(text[locale], env); message != "" {
			return message
		}
	}
	return ""
}
