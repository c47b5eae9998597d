package vehicle_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/derive"
	"github.com/goliatone/go-fleetform/pkg/forms"
	"github.com/goliatone/go-fleetform/pkg/forms/vehicle"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/validation"
	"github.com/goliatone/go-fleetform/pkg/wizard"
)

var today = time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return today }

func newEngine(t *testing.T) (forms.Blueprint, *validation.Engine) {
	t.Helper()
	bp := vehicle.New(config.DefaultPolicy())
	engine, err := bp.Validator(validation.WithClock(clock))
	if err != nil {
		t.Fatalf("Validator: %v", err)
	}
	return bp, engine
}

func TestBlueprintIsConsistent(t *testing.T) {
	bp := vehicle.New(config.DefaultPolicy())
	if err := bp.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := []string{"VehicleType", "CarMake", "OwnershipType", "ExpiryStatus", "object:departments", "VehicleStatus"}
	if diff := cmp.Diff(want, bp.OptionLists()); diff != "" {
		t.Fatalf("option lists mismatch (-want +got):\n%s", diff)
	}
}

func TestVINLength(t *testing.T) {
	_, engine := newEngine(t)

	if got := engine.ValidateField("vin", "ABCDEFGHJK", nil); got != "VIN must be 17 characters and unique." {
		t.Fatalf("expected length message for 10 chars, got %q", got)
	}
	if got := engine.ValidateField("vin", "1HGCM82633A004352", nil); got != "" {
		t.Fatalf("expected 17 chars to pass, got %q", got)
	}
	for _, vin := range []string{"ABCDEFGHIJKLMNOPQ", "1HGCM82633A00435O", "AAAA-BBBB-CCCC-DD"} {
		if got := engine.ValidateField("vin", vin, nil); got != "" {
			t.Fatalf("expected any 17 characters to pass for %q, got %q", vin, got)
		}
	}
	if got := engine.ValidateField("vin", "1HGCM82633A0043521", nil); got != "VIN must be 17 characters and unique." {
		t.Fatalf("expected length message for 18 chars, got %q", got)
	}
}

func TestCarYearRange(t *testing.T) {
	_, engine := newEngine(t)

	if got := engine.ValidateField("carYear", "1980", nil); got != "Year must be between 1990 and the current year." {
		t.Fatalf("expected range error for 1980, got %q", got)
	}
	if got := engine.ValidateField("carYear", strconv.Itoa(today.Year()), nil); got != "" {
		t.Fatalf("expected current year to pass, got %q", got)
	}
	if got := engine.ValidateField("carYear", strconv.Itoa(today.Year()+1), nil); got == "" {
		t.Fatalf("expected next year to fail")
	}
}

func TestCapacityBounds(t *testing.T) {
	_, engine := newEngine(t)

	cases := map[string]struct {
		field string
		value any
		fail  bool
	}{
		"zero seats":    {"seatingCapacity", "0", true},
		"sixty seats":   {"seatingCapacity", "60", false},
		"too many":      {"seatingCapacity", 61, true},
		"max load":      {"loadCapacity", "5000", false},
		"overload":      {"loadCapacity", "5000.5", true},
		"empty load ok": {"loadCapacity", "", false},
	}
	for name, tc := range cases {
		got := engine.ValidateField(tc.field, tc.value, nil)
		if (got != "") != tc.fail {
			t.Fatalf("%s: expected fail=%v, got %q", name, tc.fail, got)
		}
	}
}

func TestNextRefusedOnEmptyRequiredField(t *testing.T) {
	bp, engine := newEngine(t)
	snapshot := model.Values{
		"vin":             "1HGCM82633A004352",
		"plateNumber":     "",
		"vehicleType":     model.Option{Value: "Car"},
		"carMake":         model.Option{Value: "Toyota"},
		"carModel":        "Land Cruiser",
		"carYear":         "2020",
		"seatingCapacity": "7",
	}

	ctrl, err := wizard.New(bp.Definition.Steps, func(ctx context.Context, step int) (model.FieldErrors, error) {
		return engine.ValidateStep(step, snapshot), nil
	})
	if err != nil {
		t.Fatalf("wizard.New: %v", err)
	}
	if outcome := ctrl.Next(context.Background()); outcome != wizard.Refused {
		t.Fatalf("expected refused, got %s", outcome)
	}
	if ctrl.Current() != 0 {
		t.Fatalf("expected to stay on step 0, got %d", ctrl.Current())
	}
	if diff := cmp.Diff(model.FieldErrors{"plateNumber": "Plate number is required."}, ctrl.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	snapshot["plateNumber"] = "1234 AB"
	if outcome := ctrl.Next(context.Background()); outcome != wizard.Advanced || ctrl.Current() != 1 {
		t.Fatalf("expected advance to step 1, got %s at %d", outcome, ctrl.Current())
	}
}

func TestVendorYearlyValueMustBePositive(t *testing.T) {
	_, engine := newEngine(t)
	snapshot := model.Values{
		"ownershipType":        model.Option{Value: vehicle.OwnershipVendor},
		"vendorName":           "Gulf Rentals",
		"vendorContractNumber": "GR-77",
		"vendorYearlyValue":    "0",
	}

	want := model.FieldErrors{"vendorYearlyValue": "Enter a valid yearly value."}
	if diff := cmp.Diff(want, engine.ValidateStep(1, snapshot)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(engine.ValidateStep(1, snapshot), engine.ValidateStep(1, snapshot)); diff != "" {
		t.Fatalf("step validation not idempotent:\n%s", diff)
	}
}

func TestConditionalOwnershipFields(t *testing.T) {
	_, engine := newEngine(t)

	for _, ownership := range []string{vehicle.OwnershipLeased, "Donated"} {
		errs := engine.ValidateStep(1, model.Values{"ownershipType": []model.Option{{Value: ownership}}})
		if len(errs) != 0 {
			t.Fatalf("%s: expected MOE and vendor fields optional, got %v", ownership, errs)
		}
	}

	errs := engine.ValidateStep(1, model.Values{"ownershipType": model.Option{Value: vehicle.OwnershipMOE}})
	want := model.FieldErrors{
		"moeContractNumber": "MOE contract number is required.",
		"carValueMOE":       "Car value is required.",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("MOE errors mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftPayload(t *testing.T) {
	bp := vehicle.New(config.DefaultPolicy())
	builder := bp.Builder()
	values := model.Values{
		"vin":           "1HGCM82633A004352",
		"vehicleStatus": model.Option{Value: "Active"},
		"carValueMOE":   "12500.50",
		"department":    []model.Option{{Value: "7", Label: "Fleet"}},
		"notes":         "<b>spare</b> tyre",
		"carColor":      "",
	}

	got := builder.Build(values, true)
	want := map[string]any{
		"vin":           "1HGCM82633A004352",
		"vehicleStatus": model.StatusDraft,
		"carValueMoe":   12500.50,
		"department":    int64(7),
		"notes":         "spare tyre",
	}
	for key, value := range want {
		if diff := cmp.Diff(value, got[key]); diff != "" {
			t.Fatalf("payload %s mismatch (-want +got):\n%s", key, diff)
		}
	}
	if _, ok := got["carColor"]; ok {
		t.Fatalf("expected empty values omitted")
	}
	if got := builder.Build(values, false)["vehicleStatus"]; got != "Active" {
		t.Fatalf("expected user status on final submit, got %#v", got)
	}
}

func TestExpiryDerivations(t *testing.T) {
	bp := vehicle.New(config.DefaultPolicy())
	deriver := bp.Deriver(derive.WithClock(clock))

	snapshot := model.Values{
		"registrationExpiryDate": "2026-10-14",
		"insuranceExpiryDate":    "2026-11-14",
	}
	got := deriver.ApplyAll(snapshot)
	if got["licenseStatus"] != string(model.StatusExpired) {
		t.Fatalf("expected expired registration, got %#v", got["licenseStatus"])
	}
	if got["insuranceStatus"] != string(model.StatusAboutToExpire) {
		t.Fatalf("expected insurance about to expire, got %#v", got["insuranceStatus"])
	}
}
