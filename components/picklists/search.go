package picklists

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/goliatone/go-fleetform/pkg/listquery"
	"github.com/goliatone/go-fleetform/pkg/model"
)

// Option is the wire shape of one served entry. Label is already resolved
// for the requested locale.
type Option struct {
	Value     string              `json:"value"`
	Label     string              `json:"label"`
	LabelI18n model.LocalizedText `json:"labelI18n,omitempty"`
}

// Search filters options whose label in locale contains query, ranking
// prefix matches first and otherwise keeping the source order. page is
// one-based and sized by the clamped limit.
func Search(options []model.Option, query, locale string, limit, page int, opts Options) []model.Option {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}
	state := listquery.State{Page: page, PageSize: limit, Search: query}.Normalize()

	var matches []model.Option
	if state.Search == "" {
		if opts.EmptySearchMode != EmptySearchTop {
			return nil
		}
		matches = options
	} else {
		matches = match(options, state.Search, locale)
	}

	offset := state.Offset()
	if offset >= len(matches) {
		return nil
	}
	end := offset + state.PageSize
	if end > len(matches) {
		end = len(matches)
	}
	return append([]model.Option{}, matches[offset:end]...)
}

// SearchOptions runs Search and converts the results to their wire shape.
func SearchOptions(options []model.Option, query, locale string, limit, page int, opts Options) []Option {
	results := Search(options, query, locale, limit, page, opts)
	if len(results) == 0 {
		return nil
	}
	out := make([]Option, 0, len(results))
	for _, option := range results {
		out = append(out, Option{
			Value:     option.Value,
			Label:     option.DisplayLabel(locale),
			LabelI18n: option.LabelI18n.Clone(),
		})
	}
	return out
}

func match(options []model.Option, query, locale string) []model.Option {
	fold := cases.Fold()
	q := fold.String(query)

	matches := make([]matchedOption, 0, len(options))
	for _, option := range options {
		label := fold.String(option.DisplayLabel(locale))
		if !strings.Contains(label, q) {
			continue
		}
		matches = append(matches, matchedOption{
			option:   option,
			isPrefix: strings.HasPrefix(label, q),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].isPrefix && !matches[j].isPrefix
	})

	out := make([]model.Option, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.option)
	}
	return out
}

type matchedOption struct {
	option   model.Option
	isPrefix bool
}
