package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/listquery"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/payload"
	"github.com/goliatone/go-fleetform/pkg/render"
)

func definition() model.Definition {
	return model.Definition{
		Name:       "vehicle",
		Collection: "vehicles",
		Fields: []model.Field{
			{Name: "plateNumber", Kind: model.FieldKindString, Label: model.LocalizedText{"en_US": "Plate number", "ar_SA": "رقم اللوحة"}},
			{Name: "vehicleType", Kind: model.FieldKindSelect, Label: model.LocalizedText{"en_US": "Vehicle type"}},
			{Name: "ownerName", Kind: model.FieldKindString, Localized: true, Label: model.LocalizedText{"en_US": "Owner"}},
			{Name: "carValueMOE", Kind: model.FieldKindNumber, Label: model.LocalizedText{"en_US": "Car value"}},
			{Name: "licenseStatus", Kind: model.FieldKindSelect, Computed: true, Label: model.LocalizedText{"en_US": "License status"}},
			{Name: "registrationDocument", Kind: model.FieldKindFile, Label: model.LocalizedText{"en_US": "Registration document"}},
		},
		Steps: []model.Step{
			{Key: "details", Title: model.LocalizedText{"en_US": "Details", "ar_SA": "التفاصيل"}, Fields: []string{"plateNumber", "vehicleType", "ownerName"}},
			{Key: "registration", Fields: []string{"licenseStatus", "registrationDocument"}},
		},
	}
}

func reviewValues() model.Values {
	return model.Values{
		"plateNumber": "",
		"vehicleType": model.Option{
			Value:     "SUV",
			Label:     "SUV",
			LabelI18n: model.LocalizedText{"en_US": "Sport utility", "ar_SA": "رياضية"},
		},
		"ownerName":            "Salim",
		"ownerName_i18n":       model.LocalizedText{"en_US": "Salim", "ar_SA": "سالم"},
		"licenseStatus":        "AboutToExpire",
		"registrationDocument": &model.Attachment{ID: 7, Name: "reg.pdf"},
	}
}

func reviewErrors() model.FieldErrors {
	return model.FieldErrors{
		"plateNumber": "Plate number is required.",
		"server":      "Duplicate entry.",
	}
}

func TestBuildReview(t *testing.T) {
	got := render.BuildReview(definition(), reviewValues(), reviewErrors(), "en-US")

	want := render.Review{
		Form:   "vehicle",
		Locale: "en_US",
		Sections: []render.Section{
			{
				Key:   "details",
				Title: "Details",
				Rows: []render.Row{
					{Name: "plateNumber", Label: "Plate number", Error: "Plate number is required."},
					{Name: "vehicleType", Label: "Vehicle type", Value: "Sport utility"},
					{Name: "ownerName", Label: "Owner", Value: "Salim", Translations: []render.Translation{
						{Locale: "ar_SA", Text: "سالم"},
						{Locale: "en_US", Text: "Salim"},
					}},
				},
			},
			{
				Key:   "registration",
				Title: "registration",
				Rows: []render.Row{
					{Name: "licenseStatus", Label: "License status", Value: "AboutToExpire", Computed: true},
					{Name: "registrationDocument", Label: "Registration document", Value: "reg.pdf"},
				},
			},
		},
		Errors: []string{"Duplicate entry."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("review mismatch (-want +got):\n%s", diff)
	}
	if !got.HasErrors() {
		t.Fatalf("expected review to report errors")
	}
}

func TestBuildReviewUsesLocale(t *testing.T) {
	got := render.BuildReview(definition(), reviewValues(), nil, "ar_SA")

	if title := got.Sections[0].Title; title != "التفاصيل" {
		t.Fatalf("expected arabic step title, got %q", title)
	}
	if label := got.Sections[0].Rows[0].Label; label != "رقم اللوحة" {
		t.Fatalf("expected arabic field label, got %q", label)
	}
	if value := got.Sections[0].Rows[1].Value; value != "رياضية" {
		t.Fatalf("expected arabic option label, got %q", value)
	}
	if label := got.Sections[0].Rows[1].Label; label != "Vehicle type" {
		t.Fatalf("expected english fallback label, got %q", label)
	}
	if got.HasErrors() {
		t.Fatalf("expected no errors")
	}
}

func TestDisplayValue(t *testing.T) {
	boolean := model.Field{Name: "active", Kind: model.FieldKindBoolean}
	text := model.Field{Name: "notes", Kind: model.FieldKindText}

	cases := []struct {
		field model.Field
		value any
		want  string
	}{
		{boolean, true, "Yes"},
		{boolean, "false", "No"},
		{text, "  spaced  ", "spaced"},
		{text, nil, ""},
		{text, []model.Option{{Value: "1", Label: "Fleet"}, {Value: "2"}}, "Fleet, 2"},
		{text, float64(12.5), "12.5"},
	}
	for _, tc := range cases {
		if got := render.DisplayValue(tc.field, tc.value, "en_US"); got != tc.want {
			t.Fatalf("DisplayValue(%#v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func tableInput() render.TableInput {
	def := definition()
	return render.TableInput{
		Title:      "Vehicles",
		Definition: def,
		Builder:    payload.NewBuilder(def, payload.WithRename("carValueMOE", "carValueMoe")),
		Columns:    []string{"plateNumber", "vehicleType", "carValueMOE", "unknown"},
		Page: liferay.Page{
			Items: []liferay.Entry{
				{"id": float64(41), "plateNumber": "AB 1234", "vehicleType": map[string]any{"key": "SUV", "name": "SUV"}, "carValueMoe": 12000.5},
				{"id": float64(42), "plateNumber": "XY 9", "vehicleType": map[string]any{"key": "Sedan", "name": "Sedan"}},
			},
			Page:       2,
			PageSize:   20,
			TotalCount: 45,
			LastPage:   3,
		},
		State:  listquery.State{Page: 2, PageSize: 20, Search: "ab"},
		Locale: "en_US",
	}
}

func TestBuildTable(t *testing.T) {
	got := render.BuildTable(tableInput())

	wantColumns := []render.Column{
		{Name: "id", Label: "ID", Width: 2},
		{Name: "plateNumber", Label: "Plate number", Width: 12},
		{Name: "vehicleType", Label: "Vehicle type", Width: 12},
		{Name: "carValueMOE", Label: "Car value", Width: 9},
	}
	if diff := cmp.Diff(wantColumns, got.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	var cells [][]string
	for _, row := range got.Rows {
		var texts []string
		for _, cell := range row {
			texts = append(texts, cell.Text)
		}
		cells = append(cells, texts)
	}
	wantCells := [][]string{
		{"41", "AB 1234", "SUV", "12000.5"},
		{"42", "XY 9", "Sedan", ""},
	}
	if diff := cmp.Diff(wantCells, cells); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
	if got.Page != 2 || got.TotalPages != 3 || got.Total != 45 || got.Search != "ab" || got.Empty {
		t.Fatalf("unexpected paging: %+v", got)
	}
}

func TestRendererWritesReview(t *testing.T) {
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	review := render.BuildReview(definition(), reviewValues(), reviewErrors(), "en_US")
	if err := renderer.Review(&buf, review); err != nil {
		t.Fatalf("Review: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"VEHICLE REVIEW",
		"== Details ==",
		"Plate number: -",
		"Vehicle type: Sport utility",
		"    [ar_SA] سالم",
		"License status: About to expire",
		"    ! Plate number is required.",
		"  - Duplicate entry.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected review to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRendererWritesTable(t *testing.T) {
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	if err := renderer.Table(&buf, render.BuildTable(tableInput())); err != nil {
		t.Fatalf("Table: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Vehicles",
		"ID  Plate number  Vehicle type  Car value",
		"41  AB 1234       SUV           12000.5",
		`Page 2 of 3 (45 entries), search "ab"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "No entries found.") {
		t.Fatalf("unexpected empty marker:\n%s", out)
	}
}
