package picklists

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-fleetform/pkg/model"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type optionsResponse struct {
	Data []Option `json:"data"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a handler from a pre-constructed Options value.
// The list name is read from the {list} path wildcard when the handler is
// mounted through RegisterRoutes, otherwise from the last path segment.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		list := listName(r)
		if list == "" || !opts.allows(list) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		if opts.Source == nil {
			opts.Logger.Error("picklists.source_missing", "list", list)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		query := r.URL.Query()
		locale := requestLocale(r, opts)
		options := opts.Source.Get(r.Context(), list)
		results := SearchOptions(
			options,
			query.Get(opts.SearchParam),
			locale,
			parseInt(query.Get(opts.LimitParam)),
			parseInt(query.Get(opts.PageParam)),
			opts,
		)
		if results == nil {
			results = []Option{}
		}
		opts.Logger.Debug("picklists.served", "list", list, "locale", locale, "count", len(results))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Language", strings.ReplaceAll(locale, "_", "-"))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}

		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(true)
		_ = enc.Encode(optionsResponse{Data: results})
	})
}

func listName(r *http.Request) string {
	if name := strings.TrimSpace(r.PathValue("list")); name != "" {
		return name
	}
	path := strings.TrimRight(r.URL.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	return strings.TrimSpace(path)
}

// requestLocale prefers the explicit locale parameter, then the best
// Accept-Language entry, then the configured default.
func requestLocale(r *http.Request, opts Options) string {
	if locale := model.NormalizeLocale(r.URL.Query().Get(opts.LocaleParam)); locale != "" {
		return locale
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		tags, _, err := language.ParseAcceptLanguage(header)
		if err == nil && len(tags) > 0 {
			if locale := model.NormalizeLocale(tags[0].String()); locale != "" {
				return locale
			}
		}
	}
	return opts.DefaultLocale
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
