// Package driver declares the three-step Driver data-entry form.
package driver

import (
	"fmt"
	"regexp"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/derive"
	"github.com/goliatone/go-fleetform/pkg/forms"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/validation"
)

// Name is the registry key of the form.
const Name = "driver"

// Picklist names.
const (
	ListNationality  = "Nationality"
	ListLicenseType  = "LicenseType"
	ListDriverStatus = "DriverStatus"
	ListExpiryStatus = "ExpiryStatus"
)

var (
	omanPhonePattern = regexp.MustCompile(`^(\+968)?[79]\d{7}$`)
	civilIDPattern   = regexp.MustCompile(`^\d{8}$`)
	employeePattern  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// New returns the driver blueprint for policy.
func New(policy config.Policy) forms.Blueprint {
	return forms.Blueprint{
		Definition:  definition(),
		Rules:       rules(policy),
		Derivations: derivations(),
		StatusField: "driverStatus",
		Columns:     []string{"fullName", "civilId", "phone", "licenseNumber", "licenseType", "driverStatus", "licenseStatus"},
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
		Collection: "drivers",
		Fields: []model.Field{
			{Name: "fullName", Kind: model.FieldKindString, Label: forms.Text("Full name", "الاسم الكامل"), Localized: true},
			{Name: "civilId", Kind: model.FieldKindString, Label: forms.Text("Civil ID", "الرقم المدني")},
			{Name: "employeeNumber", Kind: model.FieldKindString, Label: forms.Text("Employee number", "الرقم الوظيفي")},
			{Name: "dateOfBirth", Kind: model.FieldKindDate, Label: forms.Text("Date of birth", "تاريخ الميلاد")},
			{Name: "phone", Kind: model.FieldKindString, Label: forms.Text("Phone", "الهاتف")},
			{Name: "email", Kind: model.FieldKindString, Label: forms.Text("Email", "البريد الإلكتروني")},
			{Name: "nationality", Kind: model.FieldKindSelect, Label: forms.Text("Nationality", "الجنسية"), Options: picklist(ListNationality)},
			{Name: "address", Kind: model.FieldKindText, Label: forms.Text("Address", "العنوان"), Localized: true},

			{Name: "licenseNumber", Kind: model.FieldKindString, Label: forms.Text("License number", "رقم الرخصة")},
			{Name: "licenseType", Kind: model.FieldKindSelect, Label: forms.Text("License type", "نوع الرخصة"), Options: picklist(ListLicenseType)},
			{Name: "licenseExpiryDate", Kind: model.FieldKindDate, Label: forms.Text("License expiry", "انتهاء الرخصة")},
			{Name: "licenseStatus", Kind: model.FieldKindSelect, Label: forms.Text("License status", "حالة الرخصة"), Computed: true, Options: picklist(ListExpiryStatus), Default: string(model.StatusValid)},
			{Name: "violationPoints", Kind: model.FieldKindInteger, Label: forms.Text("Violation points", "نقاط المخالفات")},
			{Name: "department", Kind: model.FieldKindRelationship, Label: forms.Text("Department", "القسم"), Options: &model.OptionSource{Kind: model.OptionSourceObject, Name: "departments"}},
			{Name: "driverStatus", Kind: model.FieldKindSelect, Label: forms.Text("Driver status", "حالة السائق"), Options: picklist(ListDriverStatus), Default: "Active"},

			{Name: "licenseCopy", Kind: model.FieldKindFile, Label: forms.Text("License copy", "نسخة الرخصة"), Category: "licenseCopy"},
			{Name: "notes", Kind: model.FieldKindText, Label: forms.Text("Notes", "ملاحظات")},
		},
		Steps: []model.Step{
			{
				Key:    "personal",
				Title:  forms.Text("Personal information", "البيانات الشخصية"),
				Fields: []string{"fullName", "civilId", "employeeNumber", "dateOfBirth", "phone", "email", "nationality", "address"},
			},
			{
				Key:    "license",
				Title:  forms.Text("License", "الرخصة"),
				Fields: []string{"licenseNumber", "licenseType", "licenseExpiryDate", "licenseStatus", "violationPoints", "department", "driverStatus"},
			},
			{
				Key:    "documents",
				Title:  forms.Text("Documents", "المستندات"),
				Fields: []string{"licenseCopy", "notes"},
			},
		},
	}
}

func rules(policy config.Policy) validation.Table {
	return validation.Table{
		"fullName": {Rules: []validation.Rule{
			validation.Required("Full name is required in at least one language."),
			validation.Length(2, 100, "Full name must be between 2 and 100 characters."),
		}},
		"civilId": {Rules: []validation.Rule{
			validation.Required("Civil ID is required."),
			validation.Pattern(civilIDPattern, "Civil ID must be 8 digits."),
		}},
		"employeeNumber": {Rules: []validation.Rule{
			validation.Required("Employee number is required."),
			validation.Length(1, 20, "Employee number must be at most 20 characters."),
			validation.Pattern(employeePattern, "Employee number may contain letters, digits and dashes only."),
		}},
		"dateOfBirth": {Rules: []validation.Rule{
			validation.Date("Enter a valid date."),
			validation.DateNotAfter(-policy.MinDriverAge, 0, fmt.Sprintf("Driver must be at least %d years old.", policy.MinDriverAge)),
		}},
		"phone": {Rules: []validation.Rule{
			validation.Required("Phone is required."),
			validation.Pattern(omanPhonePattern, "Enter a valid Oman phone number."),
		}},
		"email": {Rules: []validation.Rule{
			validation.Email("Enter a valid email address."),
		}},
		"nationality": {Rules: []validation.Rule{validation.Required("Select a nationality.")}},
		"address": {Rules: []validation.Rule{
			validation.Length(0, 250, "Address must be at most 250 characters."),
		}},

		"licenseNumber": {Rules: []validation.Rule{
			validation.Required("License number is required."),
			validation.Length(1, 20, "License number must be at most 20 characters."),
		}},
		"licenseType": {Rules: []validation.Rule{validation.Required("Select a license type.")}},
		"licenseExpiryDate": {Rules: []validation.Rule{
			validation.Required("License expiry date is required."),
			validation.Date("Enter a valid date."),
		}},
		"violationPoints": {Rules: []validation.Rule{
			validation.Integer("Violation points must be a whole number."),
			validation.Range(0, float64(policy.MaxViolationPoints),
				fmt.Sprintf("Violation points must be between 0 and %d.", policy.MaxViolationPoints)),
		}},
		"department":   {Rules: []validation.Rule{validation.Required("Select a department.")}},
		"driverStatus": {Rules: []validation.Rule{validation.Required("Select a status.")}},

		"notes": {Rules: []validation.Rule{
			validation.Length(0, 500, "Notes must be at most 500 characters."),
		}},
	}
}

func derivations() derive.Table {
	return derive.Table{
		"licenseExpiryDate": {derive.StatusInto("licenseStatus")},
		"nationality":       {derive.OptionShadow()},
		"licenseType":       {derive.OptionShadow()},
		"department":        {derive.OptionShadow()},
	}
}
