package tui

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/render"
	"github.com/goliatone/go-fleetform/pkg/widgets"
)

// Theme captures optional prefixes the runner applies to printed lines.
type Theme struct {
	StepPrefix  string
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme keeps output plain.
func DefaultTheme() Theme {
	return Theme{StepPrefix: "» ", InfoPrefix: "", ErrorPrefix: "! "}
}

// FileOpener reads a file the user pointed a file field at.
type FileOpener func(path string) (liferay.File, error)

// Option configures the Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where the default survey driver prints messages.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) {
		r.out = out
	}
}

// WithLocale sets the display locale for labels and option names.
func WithLocale(locale string) Option {
	return func(r *Runner) {
		if normalized := model.NormalizeLocale(locale); normalized != "" {
			r.locale = normalized
		}
	}
}

// WithWidgets replaces the widget registry that picks a prompt per field.
func WithWidgets(registry *widgets.Registry) Option {
	return func(r *Runner) {
		if registry != nil {
			r.widgets = registry
		}
	}
}

// WithReviewRenderer replaces the renderer used for the review summary.
func WithReviewRenderer(renderer *render.Renderer) Option {
	return func(r *Runner) {
		if renderer != nil {
			r.review = renderer
		}
	}
}

// WithFileOpener replaces how file paths are read for uploads.
func WithFileOpener(open FileOpener) Option {
	return func(r *Runner) {
		if open != nil {
			r.openFile = open
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithPageSize sets how many options select prompts show at once.
func WithPageSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.OrNoOp(logger)
	}
}

// OpenFile reads path from disk, guessing the content type from the
// extension and then from the content.
func OpenFile(path string) (liferay.File, error) {
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return liferay.File{}, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return liferay.File{Name: filepath.Base(path), ContentType: contentType, Data: data}, nil
}
