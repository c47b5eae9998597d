// Package listquery keeps the pagination, sort and search state of an entry
// listing in URL query parameters so it survives reloads.
package listquery

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamSort     = "sort"
	ParamSearch   = "search"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 200
	maxSearchLength = 100
)

// Direction orders a sorted listing.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a single `field:direction` ordering.
type Sort struct {
	Field     string
	Direction Direction
}

// String renders the sort in the backend `field:dir` form.
func (s Sort) String() string {
	if s.Field == "" {
		return ""
	}
	dir := s.Direction
	if dir == "" {
		dir = Asc
	}
	return s.Field + ":" + string(dir)
}

// State is the listing state shown to the user.
type State struct {
	Page     int
	PageSize int
	Sort     Sort
	Search   string
}

// Default returns the first page with the default page size.
func Default() State {
	return State{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Parse reads state from query parameters, replacing malformed or out of
// range entries with defaults.
func Parse(query url.Values) State {
	state := Default()
	if page, err := strconv.Atoi(strings.TrimSpace(query.Get(ParamPage))); err == nil {
		state.Page = page
	}
	if size, err := strconv.Atoi(strings.TrimSpace(query.Get(ParamPageSize))); err == nil {
		state.PageSize = size
	}
	state.Sort = ParseSort(query.Get(ParamSort))
	state.Search = query.Get(ParamSearch)
	return state.Normalize()
}

// ParseSort reads `field`, `field:asc` or `field:desc`. Unknown directions
// fall back to ascending; fields outside [A-Za-z0-9_.] are rejected.
func ParseSort(raw string) Sort {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Sort{}
	}
	field, dir, _ := strings.Cut(raw, ":")
	field = strings.TrimSpace(field)
	if !validField(field) {
		return Sort{}
	}
	direction := Asc
	if strings.EqualFold(strings.TrimSpace(dir), string(Desc)) {
		direction = Desc
	}
	return Sort{Field: field, Direction: direction}
}

// Normalize clamps the page and page size and trims the search term.
func (s State) Normalize() State {
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	switch {
	case s.PageSize < 1:
		s.PageSize = DefaultPageSize
	case s.PageSize > MaxPageSize:
		s.PageSize = MaxPageSize
	}
	s.Search = strings.TrimSpace(s.Search)
	if runes := []rune(s.Search); len(runes) > maxSearchLength {
		s.Search = string(runes[:maxSearchLength])
	}
	if s.Sort.Field != "" && !validField(s.Sort.Field) {
		s.Sort = Sort{}
	}
	return s
}

// Values writes the non-default parts of the state as query parameters.
func (s State) Values() url.Values {
	s = s.Normalize()
	out := url.Values{}
	if s.Page != DefaultPage {
		out.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if s.PageSize != DefaultPageSize {
		out.Set(ParamPageSize, strconv.Itoa(s.PageSize))
	}
	if sort := s.Sort.String(); sort != "" {
		out.Set(ParamSort, sort)
	}
	if s.Search != "" {
		out.Set(ParamSearch, s.Search)
	}
	return out
}

// Merge replaces the listing keys of query with the state, keeping unrelated
// parameters intact.
func (s State) Merge(query url.Values) url.Values {
	out := url.Values{}
	for key, values := range query {
		switch key {
		case ParamPage, ParamPageSize, ParamSort, ParamSearch:
			continue
		}
		out[key] = append([]string(nil), values...)
	}
	for key, values := range s.Values() {
		out[key] = values
	}
	return out
}

// Backend renders the state in the form the headless list endpoints expect:
// page and pageSize always present.
func (s State) Backend() url.Values {
	s = s.Normalize()
	out := url.Values{}
	out.Set(ParamPage, strconv.Itoa(s.Page))
	out.Set(ParamPageSize, strconv.Itoa(s.PageSize))
	if sort := s.Sort.String(); sort != "" {
		out.Set(ParamSort, sort)
	}
	if s.Search != "" {
		out.Set(ParamSearch, s.Search)
	}
	return out
}

// WithPage returns the state moved to page, resetting nothing else.
func (s State) WithPage(page int) State {
	s.Page = page
	return s.Normalize()
}

// WithSearch returns the state with a new search term; the page returns to
// the first one.
func (s State) WithSearch(search string) State {
	s.Search = search
	s.Page = DefaultPage
	return s.Normalize()
}

// WithSort toggles the direction when field is already the sort field,
// otherwise sorts ascending by field.
func (s State) WithSort(field string) State {
	field = strings.TrimSpace(field)
	if s.Sort.Field == field && s.Sort.Direction != Desc {
		s.Sort = Sort{Field: field, Direction: Desc}
	} else {
		s.Sort = Sort{Field: field, Direction: Asc}
	}
	return s.Normalize()
}

// Offset returns the zero-based index of the first entry on the page.
func (s State) Offset() int {
	s = s.Normalize()
	return (s.Page - 1) * s.PageSize
}

// TotalPages returns the number of pages needed for total entries.
func (s State) TotalPages(total int) int {
	s = s.Normalize()
	if total <= 0 {
		return 1
	}
	return (total + s.PageSize - 1) / s.PageSize
}

func validField(field string) bool {
	if field == "" {
		return false
	}
	for _, r := range field {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
