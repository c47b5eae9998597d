package derive

import (
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Env is what a derivation sees when its source changes.
type Env struct {
	Source        string
	Snapshot      model.Values
	Now           time.Time
	ThresholdDays int
	Locales       []string
}

// Derivation computes one dependent value. An empty Target addresses the
// `_i18n` shadow of the source field. Compute returns the new value and
// whether the target should change; a nil value clears the target.
type Derivation struct {
	Target  string
	Compute func(value any, env Env) (any, bool)
}

// Table maps a source field to the derivations it drives.
type Table map[string][]Derivation

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for status derivations.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithThresholdDays sets the about-to-expire window.
func WithThresholdDays(days int) Option {
	return func(e *Engine) {
		if days >= 0 {
			e.thresholdDays = days
		}
	}
}

// WithLocales sets the locales filled into translation shadows.
func WithLocales(locales ...string) Option {
	return func(e *Engine) {
		normalized := make([]string, 0, len(locales))
		for _, locale := range locales {
			if n := model.NormalizeLocale(locale); n != "" {
				normalized = append(normalized, n)
			}
		}
		if len(normalized) > 0 {
			e.locales = normalized
		}
	}
}

// Engine applies a derivation Table.
type Engine struct {
	table         Table
	clock         func() time.Time
	thresholdDays int
	locales       []string
}

// New builds an engine with the default 30-day window and en_US + ar_SA
// shadow locales.
func New(table Table, opts ...Option) *Engine {
	e := &Engine{
		table:         table,
		clock:         time.Now,
		thresholdDays: DefaultThresholdDays,
		locales:       append([]string(nil), model.DefaultLocales...),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Locales returns the shadow locales.
func (e *Engine) Locales() []string {
	return append([]string(nil), e.locales...)
}

// Sources lists the fields that drive derivations, sorted.
func (e *Engine) Sources() []string {
	out := make([]string, 0, len(e.table))
	for source := range e.table {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// Apply returns the updates triggered by a change of source. The snapshot
// must already hold the new source value.
func (e *Engine) Apply(source string, snapshot model.Values) model.Values {
	derivations := e.table[strings.TrimSpace(source)]
	if len(derivations) == 0 {
		return nil
	}
	env := Env{
		Source:        source,
		Snapshot:      snapshot,
		Now:           e.clock(),
		ThresholdDays: e.thresholdDays,
		Locales:       e.Locales(),
	}
	updates := make(model.Values)
	for _, derivation := range derivations {
		if derivation.Compute == nil {
			continue
		}
		target := derivation.Target
		if target == "" {
			target = model.ShadowName(source)
		}
		if value, ok := derivation.Compute(snapshot[source], env); ok {
			updates[target] = value
		}
	}
	return updates
}

// ApplyAll recomputes every derivation, e.g. after a record is loaded.
func (e *Engine) ApplyAll(snapshot model.Values) model.Values {
	working := snapshot.Clone()
	updates := make(model.Values)
	for _, source := range e.Sources() {
		for target, value := range e.Apply(source, working) {
			updates[target] = value
			working[target] = value
		}
	}
	return updates
}

// StatusInto derives an ExpiryStatus from a date source into target.
func StatusInto(target string) Derivation {
	return Derivation{
		Target: target,
		Compute: func(value any, env Env) (any, bool) {
			return string(ExpiryStatus(value, env.Now, env.ThresholdDays)), true
		},
	}
}

// OptionShadow fills the source's `_i18n` shadow from the localized-name
// payload of the selected option, for every configured locale regardless of
// the active one. Options without a localized payload leave the shadow
// untouched; clearing the selection clears the shadow.
func OptionShadow() Derivation {
	return Derivation{
		Compute: func(value any, env Env) (any, bool) {
			option, ok := selectedOption(value)
			if !ok {
				if model.IsEmpty(value) {
					return nil, true
				}
				return nil, false
			}
			names := localizedNames(option)
			if names.IsEmpty() {
				return nil, false
			}
			shadow := make(model.LocalizedText, len(env.Locales))
			for _, locale := range env.Locales {
				text := names.Get(locale)
				if strings.TrimSpace(text) == "" {
					text = option.Label
				}
				shadow[locale] = text
			}
			return shadow, true
		},
	}
}

func selectedOption(value any) (model.Option, bool) {
	switch typed := value.(type) {
	case model.Option:
		return typed, typed.Value != ""
	case []model.Option:
		if len(typed) == 0 {
			return model.Option{}, false
		}
		return typed[0], typed[0].Value != ""
	default:
		return model.Option{}, false
	}
}

// localizedNames reads the option's label translations, falling back to a
// `name_i18n` entry in the raw source record.
func localizedNames(option model.Option) model.LocalizedText {
	if !option.LabelI18n.IsEmpty() {
		return option.LabelI18n.Normalized()
	}
	raw, ok := option.Raw["name_i18n"]
	if !ok {
		return nil
	}
	out := make(model.LocalizedText)
	switch typed := raw.(type) {
	case map[string]any:
		for locale, text := range typed {
			if s, ok := text.(string); ok {
				out[locale] = s
			}
		}
	case map[string]string:
		for locale, text := range typed {
			out[locale] = text
		}
	case model.LocalizedText:
		out = typed.Clone()
	}
	return out.Normalized()
}
