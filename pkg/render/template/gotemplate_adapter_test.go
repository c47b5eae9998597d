package template_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-fleetform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-fleetform/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "hello.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, _ := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", nil, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-global.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("fleet_shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("fleet_shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter registration to fail")
	}

	result, _ := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-filter.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_TrimBlocksAndHumanize(t *testing.T) {
	engine := newEngine(t)

	result, _ := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("statuses", map[string]any{
			"statuses": []string{"Valid", "AboutToExpire", "Expired"},
		}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "statuses.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_RenderDetectsInlineContent(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.Render(`{{ label|translate:"ar_SA" }}`, map[string]any{
		"label": map[string]string{"en_US": "Vehicle", "ar_SA": "مركبة"},
	})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "مركبة" {
		t.Fatalf("expected arabic translation, got %q", got)
	}

	got, err = engine.RenderString(`{{ label|translate:"fr_FR" }}`, map[string]any{
		"label": map[string]string{"en_US": "Vehicle"},
	})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "Vehicle" {
		t.Fatalf("expected fallback translation, got %q", got)
	}
}

func TestGoTemplateEngine_RequiresLoader(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS), gotemplate.WithTrimBlocks())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
