package render

import (
	"strconv"
	"unicode/utf8"

	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/listquery"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/payload"
)

// Column is one table header. Width is the widest cell in the column,
// header included, counted in runes.
type Column struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Width int    `json:"width"`
}

// Cell is one rendered value padded to its column width by the template.
type Cell struct {
	Text  string `json:"text"`
	Width int    `json:"width"`
}

// Table is one page of entries.
type Table struct {
	Title      string   `json:"title"`
	Columns    []Column `json:"columns"`
	Rows       [][]Cell `json:"rows"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
	Total      int      `json:"total"`
	Sort       string   `json:"sort,omitempty"`
	Search     string   `json:"search,omitempty"`
	Empty      bool     `json:"empty"`
}

// TableInput carries what BuildTable needs to lay out a listing.
type TableInput struct {
	Title      string
	Definition model.Definition
	Builder    *payload.Builder
	Columns    []string
	Page       liferay.Page
	State      listquery.State
	Locale     string
}

// BuildTable restores each entry into form values and renders the selected
// columns, prefixed by the entry id.
func BuildTable(in TableInput) Table {
	state := in.State.Normalize()
	builder := in.Builder
	if builder == nil {
		builder = payload.NewBuilder(in.Definition)
	}

	table := Table{
		Title:      in.Title,
		Page:       state.Page,
		TotalPages: state.TotalPages(in.Page.TotalCount),
		Total:      in.Page.TotalCount,
		Sort:       state.Sort.String(),
		Search:     state.Search,
		Empty:      len(in.Page.Items) == 0,
	}
	if in.Page.Page > 0 {
		table.Page = in.Page.Page
	}
	if in.Page.LastPage > 0 {
		table.TotalPages = in.Page.LastPage
	}

	table.Columns = append(table.Columns, Column{Name: "id", Label: "ID"})
	fields := make([]model.Field, 0, len(in.Columns))
	for _, name := range in.Columns {
		field, ok := in.Definition.Field(name)
		if !ok {
			continue
		}
		fields = append(fields, field)
		table.Columns = append(table.Columns, Column{Name: name, Label: field.DisplayLabel(in.Locale)})
	}

	for _, entry := range in.Page.Items {
		values := builder.Restore(entry)
		row := []Cell{{Text: strconv.FormatInt(entry.ID(), 10)}}
		for _, field := range fields {
			row = append(row, Cell{Text: DisplayValue(field, values[field.Name], in.Locale)})
		}
		table.Rows = append(table.Rows, row)
	}

	for i := range table.Columns {
		width := utf8.RuneCountInString(table.Columns[i].Label)
		for _, row := range table.Rows {
			if n := utf8.RuneCountInString(row[i].Text); n > width {
				width = n
			}
		}
		table.Columns[i].Width = width
		for _, row := range table.Rows {
			row[i].Width = width
		}
	}
	return table
}
