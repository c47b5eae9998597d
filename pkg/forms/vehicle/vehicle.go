// Package vehicle declares the three-step Vehicle data-entry form.
package vehicle

import (
	"fmt"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/derive"
	"github.com/goliatone/go-fleetform/pkg/forms"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/validation"
)

// Name is the registry key of the form.
const Name = "vehicle"

// Ownership type keys.
const (
	OwnershipMOE    = "MOE"
	OwnershipVendor = "ExternalVendor"
	OwnershipLeased = "Leased"
)

// Picklist names.
const (
	ListVehicleType   = "VehicleType"
	ListCarMake       = "CarMake"
	ListOwnershipType = "OwnershipType"
	ListVehicleStatus = "VehicleStatus"
	ListExpiryStatus  = "ExpiryStatus"
)

const vinMessage = "VIN must be 17 characters and unique."

// New returns the vehicle blueprint for policy.
func New(policy config.Policy) forms.Blueprint {
	return forms.Blueprint{
		Definition:  definition(),
		Rules:       rules(policy),
		Derivations: derivations(),
		Renames: map[string]string{
			"carValueMOE": "carValueMoe",
		},
		StatusField: "vehicleStatus",
		Columns:     []string{"plateNumber", "vin", "vehicleType", "carMake", "carYear", "vehicleStatus", "licenseStatus"},
	}
}

// Register adds the form to registry.
func Register(registry *forms.Registry) {
	registry.Register(Name, New)
}

func picklist(name string) *model.OptionSource {
	return &model.OptionSource{Kind: model.OptionSourcePicklist, Name: name}
}

func definition() model.Definition {
	return model.Definition{
		Name:       Name,
		Collection: "vehicles",
		Fields: []model.Field{
			{Name: "vin", Kind: model.FieldKindString, Label: forms.Text("VIN", "رقم الهيكل")},
			{Name: "plateNumber", Kind: model.FieldKindString, Label: forms.Text("Plate number", "رقم اللوحة")},
			{Name: "vehicleType", Kind: model.FieldKindSelect, Label: forms.Text("Vehicle type", "نوع المركبة"), Options: picklist(ListVehicleType)},
			{Name: "carMake", Kind: model.FieldKindSelect, Label: forms.Text("Make", "الشركة المصنعة"), Options: picklist(ListCarMake)},
			{Name: "carModel", Kind: model.FieldKindString, Label: forms.Text("Model", "الطراز")},
			{Name: "carYear", Kind: model.FieldKindInteger, Label: forms.Text("Year", "سنة الصنع")},
			{Name: "carColor", Kind: model.FieldKindString, Label: forms.Text("Color", "اللون")},
			{Name: "seatingCapacity", Kind: model.FieldKindInteger, Label: forms.Text("Seating capacity", "عدد المقاعد")},
			{Name: "loadCapacity", Kind: model.FieldKindNumber, Label: forms.Text("Load capacity (kg)", "الحمولة (كجم)")},

			{Name: "ownershipType", Kind: model.FieldKindSelect, Label: forms.Text("Ownership type", "نوع الملكية"), Options: picklist(ListOwnershipType)},
			{Name: "moeContractNumber", Kind: model.FieldKindString, Label: forms.Text("MOE contract number", "رقم عقد الوزارة")},
			{Name: "carValueMOE", Kind: model.FieldKindNumber, Label: forms.Text("Car value", "قيمة المركبة")},
			{Name: "vendorName", Kind: model.FieldKindString, Label: forms.Text("Vendor name", "اسم المورد")},
			{Name: "vendorContractNumber", Kind: model.FieldKindString, Label: forms.Text("Vendor contract number", "رقم عقد المورد")},
			{Name: "vendorYearlyValue", Kind: model.FieldKindNumber, Label: forms.Text("Yearly value", "القيمة السنوية")},

			{Name: "registrationExpiryDate", Kind: model.FieldKindDate, Label: forms.Text("Registration expiry", "انتهاء التسجيل")},
			{Name: "licenseStatus", Kind: model.FieldKindSelect, Label: forms.Text("License status", "حالة الترخيص"), Computed: true, Options: picklist(ListExpiryStatus), Default: string(model.StatusValid)},
			{Name: "insuranceCompany", Kind: model.FieldKindString, Label: forms.Text("Insurance company", "شركة التأمين")},
			{Name: "insuranceExpiryDate", Kind: model.FieldKindDate, Label: forms.Text("Insurance expiry", "انتهاء التأمين")},
			{Name: "insuranceStatus", Kind: model.FieldKindSelect, Label: forms.Text("Insurance status", "حالة التأمين"), Computed: true, Options: picklist(ListExpiryStatus), Default: string(model.StatusValid)},
			{Name: "department", Kind: model.FieldKindRelationship, Label: forms.Text("Department", "القسم"), Options: &model.OptionSource{Kind: model.OptionSourceObject, Name: "departments"}},
			{Name: "vehicleStatus", Kind: model.FieldKindSelect, Label: forms.Text("Vehicle status", "حالة المركبة"), Options: picklist(ListVehicleStatus), Default: "Active"},
			{Name: "notes", Kind: model.FieldKindText, Label: forms.Text("Notes", "ملاحظات")},
			{Name: "registrationDocument", Kind: model.FieldKindFile, Label: forms.Text("Registration document", "وثيقة التسجيل"), Category: "registration"},
		},
		Steps: []model.Step{
			{
				Key:    "details",
				Title:  forms.Text("Vehicle details", "بيانات المركبة"),
				Fields: []string{"vin", "plateNumber", "vehicleType", "carMake", "carModel", "carYear", "carColor", "seatingCapacity", "loadCapacity"},
			},
			{
				Key:    "ownership",
				Title:  forms.Text("Ownership", "الملكية"),
				Fields: []string{"ownershipType", "moeContractNumber", "carValueMOE", "vendorName", "vendorContractNumber", "vendorYearlyValue"},
			},
			{
				Key:    "registration",
				Title:  forms.Text("Registration and insurance", "التسجيل والتأمين"),
				Fields: []string{"registrationExpiryDate", "licenseStatus", "insuranceCompany", "insuranceExpiryDate", "insuranceStatus", "department", "vehicleStatus", "notes", "registrationDocument"},
			},
		},
	}
}

func rules(policy config.Policy) validation.Table {
	moe := fmt.Sprintf("ownershipType == %q", OwnershipMOE)
	vendor := fmt.Sprintf("ownershipType == %q", OwnershipVendor)

	return validation.Table{
		"vin": {Rules: []validation.Rule{
			validation.Required("VIN is required."),
			validation.Length(17, 17, vinMessage),
		}},
		"plateNumber": {Rules: []validation.Rule{
			validation.Required("Plate number is required."),
			validation.Length(1, 10, "Plate number must be at most 10 characters."),
		}},
		"vehicleType": {Rules: []validation.Rule{validation.Required("Select a vehicle type.")}},
		"carMake":     {Rules: []validation.Rule{validation.Required("Select a make.")}},
		"carModel": {Rules: []validation.Rule{
			validation.Required("Model is required."),
			validation.Length(1, 50, "Model must be at most 50 characters."),
		}},
		"carYear": {Rules: []validation.Rule{
			validation.Required("Year is required."),
			validation.Integer("Enter a valid year."),
			validation.YearRange(policy.MinCarYear, fmt.Sprintf("Year must be between %d and the current year.", policy.MinCarYear)),
		}},
		"carColor": {Rules: []validation.Rule{
			validation.Length(0, 30, "Color must be at most 30 characters."),
		}},
		"seatingCapacity": {Rules: []validation.Rule{
			validation.Required("Seating capacity is required."),
			validation.Integer("Enter a whole number of seats."),
			validation.Range(float64(policy.MinSeats), float64(policy.MaxSeats),
				fmt.Sprintf("Seating capacity must be between %d and %d.", policy.MinSeats, policy.MaxSeats)),
		}},
		"loadCapacity": {Rules: []validation.Rule{
			validation.Range(0, policy.MaxLoadKg, fmt.Sprintf("Load capacity must be between 0 and %g kg.", policy.MaxLoadKg)),
		}},

		"ownershipType": {Rules: []validation.Rule{validation.Required("Select an ownership type.")}},
		"moeContractNumber": {RequiredWhen: moe, Rules: []validation.Rule{
			validation.Required("MOE contract number is required."),
			validation.Length(0, 50, "Contract number must be at most 50 characters."),
		}},
		"carValueMOE": {RequiredWhen: moe, Rules: []validation.Rule{
			validation.Required("Car value is required."),
			validation.GreaterThan(0, "Enter a valid car value."),
		}},
		"vendorName": {RequiredWhen: vendor, Rules: []validation.Rule{
			validation.Required("Vendor name is required."),
			validation.Length(0, 100, "Vendor name must be at most 100 characters."),
		}},
		"vendorContractNumber": {RequiredWhen: vendor, Rules: []validation.Rule{
			validation.Required("Vendor contract number is required."),
			validation.Length(0, 50, "Contract number must be at most 50 characters."),
		}},
		"vendorYearlyValue": {RequiredWhen: vendor, Rules: []validation.Rule{
			validation.Required("Yearly value is required."),
			validation.GreaterThan(0, "Enter a valid yearly value."),
		}},

		"registrationExpiryDate": {Rules: []validation.Rule{
			validation.Required("Registration expiry date is required."),
			validation.Date("Enter a valid date."),
		}},
		"insuranceCompany": {Rules: []validation.Rule{
			validation.Required("Insurance company is required."),
			validation.Length(0, 100, "Insurance company must be at most 100 characters."),
		}},
		"insuranceExpiryDate": {Rules: []validation.Rule{
			validation.Required("Insurance expiry date is required."),
			validation.Date("Enter a valid date."),
		}},
		"department":    {Rules: []validation.Rule{validation.Required("Select a department.")}},
		"vehicleStatus": {Rules: []validation.Rule{validation.Required("Select a status.")}},
		"notes": {Rules: []validation.Rule{
			validation.Length(0, 500, "Notes must be at most 500 characters."),
		}},
	}
}

func derivations() derive.Table {
	return derive.Table{
		"registrationExpiryDate": {derive.StatusInto("licenseStatus")},
		"insuranceExpiryDate":    {derive.StatusInto("insuranceStatus")},
		"vehicleType":            {derive.OptionShadow()},
		"carMake":                {derive.OptionShadow()},
		"department":             {derive.OptionShadow()},
	}
}
