package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
	"unicode"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/render/template"
)

const extension = ".tpl"

var (
	errNilEngine  = errors.New("gotemplate: engine is nil")
	errFSRequired = errors.New("gotemplate: a template fs is required")
)

// Option configures the engine before construction.
type Option func(*Engine)

// WithFS loads templates from files. Names resolve relative to its root.
func WithFS(files fs.FS) Option {
	return func(e *Engine) {
		e.files = files
	}
}

// WithTrimBlocks drops the newline after block tags and the indentation
// before them, which keeps plain-text templates readable.
func WithTrimBlocks() Option {
	return func(e *Engine) {
		e.trimBlocks = true
	}
}

// Engine satisfies template.TemplateRenderer with a pongo2 template set.
// Parsed templates are cached by name.
type Engine struct {
	files      fs.FS
	trimBlocks bool

	mu     sync.RWMutex
	set    *pongo2.TemplateSet
	parsed map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an engine over the configured template files.
func New(options ...Option) (*Engine, error) {
	e := &Engine{parsed: make(map[string]*pongo2.Template)}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.files == nil {
		return nil, errFSRequired
	}

	e.set = pongo2.NewSet("fleetform", pongo2.NewFSLoader(e.files))
	e.set.Globals = pongo2.Context{}
	if e.trimBlocks {
		e.set.Options.TrimBlocks = true
		e.set.Options.LStripBlocks = true
	}
	registerFilters()
	return e, nil
}

// Render treats name as inline content when it carries template tags and as
// a template name otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate renders a named template; the .tpl extension is optional.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errNilEngine
	}
	if !strings.HasSuffix(name, extension) {
		name += extension
	}
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, name, out)
}

// RenderString renders inline template content.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errNilEngine
	}
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return e.execute(tmpl, data, "inline template", out)
}

// RegisterFilter registers fn under name. pongo2 filters are process-wide,
// so a name can only be registered once.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.set == nil {
		return errNilEngine
	}
	values, err := toContext(data)
	if err != nil {
		return fmt.Errorf("gotemplate: global context: %w", err)
	}
	e.mu.Lock()
	e.set.Globals.Update(values)
	e.mu.Unlock()
	return nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.parsed[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.parsed[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", name, err)
	}
	e.parsed[name] = tmpl
	return tmpl, nil
}

func (e *Engine) execute(tmpl *pongo2.Template, data any, label string, out []io.Writer) (string, error) {
	values, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", label, err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(values, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", label, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// toContext normalises data through its JSON encoding so templates address
// struct fields by their json names and typed maps become plain maps.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	values := pongo2.Context{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("template data must encode as an object: %w", err)
	}
	return values, nil
}

func registerFilters() {
	filters := map[string]pongo2.FilterFunction{
		"trim":      filterTrim,
		"humanize":  filterHumanize,
		"translate": filterTranslate,
	}
	for name, fn := range filters {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterHumanize splits camel-case keys such as "AboutToExpire" into
// "About to expire".
func filterHumanize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	runes := []rune(strings.TrimSpace(in.String()))
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteRune(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return pongo2.AsValue(b.String()), nil
}

// filterTranslate picks the entry for the locale parameter from a
// locale-keyed map, falling back to the first translation.
func filterTranslate(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	raw, ok := in.Interface().(map[string]any)
	if !ok {
		return in, nil
	}
	text := make(model.LocalizedText, len(raw))
	for locale, value := range raw {
		if s, ok := value.(string); ok {
			text[locale] = s
		}
	}
	locale := ""
	if param != nil {
		locale = param.String()
	}
	if value := text.Get(locale); value != "" {
		return pongo2.AsValue(value), nil
	}
	return pongo2.AsValue(text.First()), nil
}
