package render

import (
	"embed"
	"fmt"
	"io"
	"io/fs"

	"github.com/goliatone/go-fleetform/pkg/render/template"
	"github.com/goliatone/go-fleetform/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var embedded embed.FS

const (
	TemplateReview  = "review"
	TemplateEntries = "entries"
)

// Templates returns the embedded template files.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithEngine replaces the default pongo2 engine.
func WithEngine(engine template.TemplateRenderer) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// Renderer writes review summaries and entry tables as plain text.
type Renderer struct {
	engine template.TemplateRenderer
}

// New returns a renderer backed by the embedded templates unless an engine
// is supplied.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.engine == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(Templates()), gotemplate.WithTrimBlocks())
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

// Review renders a review summary into w.
func (r *Renderer) Review(w io.Writer, review Review) error {
	_, err := r.engine.RenderTemplate(TemplateReview, review, w)
	return err
}

// Table renders a page of entries into w.
func (r *Renderer) Table(w io.Writer, table Table) error {
	_, err := r.engine.RenderTemplate(TemplateEntries, table, w)
	return err
}
