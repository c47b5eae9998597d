package picklists

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
)

// Source resolves the options of a list. *options.Cache satisfies it.
type Source interface {
	Get(ctx context.Context, list string) []model.Option
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, list string) []model.Option

// Get delegates to the function.
func (fn SourceFunc) Get(ctx context.Context, list string) []model.Option {
	return fn(ctx, list)
}

type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	PageParam       string
	LocaleParam     string
	DefaultLocale   string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Guard           GuardFunc

	Source Source
	// Lists restricts the served list names; nil serves any list.
	Lists  []string
	Logger logging.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       "/api/picklists",
		SearchParam:     "q",
		LimitParam:      "limit",
		PageParam:       "page",
		LocaleParam:     "locale",
		DefaultLocale:   model.LocaleEnglish,
		DefaultLimit:    50,
		MaxLimit:        200,
		EmptySearchMode: EmptySearchTop,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	defaults := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaults.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaults.MaxLimit
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = defaults.EmptySearchMode
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaults.RoutePath
	}
	if opts.SearchParam == "" {
		opts.SearchParam = defaults.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = defaults.LimitParam
	}
	if opts.PageParam == "" {
		opts.PageParam = defaults.PageParam
	}
	if opts.LocaleParam == "" {
		opts.LocaleParam = defaults.LocaleParam
	}
	if opts.DefaultLocale = model.NormalizeLocale(opts.DefaultLocale); opts.DefaultLocale == "" {
		opts.DefaultLocale = defaults.DefaultLocale
	}
	if opts.Lists != nil {
		opts.Lists = append([]string{}, opts.Lists...)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LimitParam = name
	}
}

func WithLocaleParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LocaleParam = name
	}
}

func WithDefaultLocale(locale string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLocale = locale
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.EmptySearchMode = mode
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithSource(source Source) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Source = source
	}
}

// WithLists restricts the handler to the named lists.
func WithLists(lists ...string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Lists = append([]string{}, lists...)
	}
}

func WithLogger(logger logging.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func (o Options) allows(list string) bool {
	if o.Lists == nil {
		return true
	}
	for _, name := range o.Lists {
		if strings.EqualFold(strings.TrimSpace(name), list) {
			return true
		}
	}
	return false
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
