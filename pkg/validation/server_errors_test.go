package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/validation"
)

func TestMapServerErrors(t *testing.T) {
	t.Parallel()

	fields := []string{"vin", "carValueMOE", "fullName", "department"}
	aliases := map[string]string{"carValueMoe": "carValueMOE", "r_departmentVehicles_c_departmentId": "department"}

	got := validation.MapServerErrors(fields, aliases, []validation.FieldMessage{
		{Field: "vin", Message: "VIN already exists."},
		{Field: "/carValueMoe", Message: "Must be positive."},
		{Field: "#/body/fullName_i18n", Message: "Name required."},
		{Field: "payload[0].r_departmentVehicles_c_departmentId", Message: "Unknown department."},
		{Field: "vin", Message: "VIN already exists."},
		{Field: "somethingElse", Message: "Backend exploded."},
		{Field: "", Message: "General failure."},
		{Field: "vin", Message: "  "},
	})

	want := validation.ServerErrors{
		Fields: model.FieldErrors{
			"vin":         "VIN already exists.",
			"carValueMOE": "Must be positive.",
			"fullName":    "Name required.",
			"department":  "Unknown department.",
		},
		Form: []string{"Backend exploded.", "General failure."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestMapServerErrorsEmpty(t *testing.T) {
	t.Parallel()

	got := validation.MapServerErrors([]string{"vin"}, nil, nil)
	if !got.Empty() {
		t.Fatalf("expected empty mapping, got %#v", got)
	}
}
