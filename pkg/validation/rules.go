// Package validation evaluates the declarative per-field rule table of a form
// definition and maps backend validation failures back onto form fields.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Env is what a rule sees besides the value under test.
type Env struct {
	Field    string
	Snapshot model.Values
	Host     map[string]any
	// Today is the validation time truncated to the start of the day.
	Today time.Time
}

// Rule is a single check carrying its own message.
type Rule struct {
	code     string
	required bool
	check    func(value any, env Env) error
}

// Code returns the stable rule identifier (e.g. "required", "length").
func (r Rule) Code() string { return r.code }

// IsRequired reports whether the rule is a presence check.
func (r Rule) IsRequired() bool { return r.required }

// Apply runs the rule and returns its message, or "" when the value passes.
func (r Rule) Apply(value any, env Env) string {
	if r.check == nil {
		return ""
	}
	if err := r.check(value, env); err != nil {
		return errorMessage(err)
	}
	return ""
}

var errEmptyDate = errors.New("validation: empty date")

func errorMessage(err error) string {
	if vErr, ok := err.(ozzo.Error); ok {
		return vErr.Message()
	}
	return err.Error()
}

// Required fails on absent values: blank strings, empty lists, options
// without a key and localized text with no non-blank translation.
func Required(message string) Rule {
	return Rule{
		code:     "required",
		required: true,
		check: func(value any, _ Env) error {
			if model.IsEmpty(value) {
				return ozzo.NewError("validation_required", message)
			}
			return nil
		},
	}
}

// Length bounds the rune length of a text value. A zero max means no upper
// bound.
func Length(min, max int, message string) Rule {
	rule := ozzo.RuneLength(min, max).Error(message)
	return Rule{
		code: "length",
		check: func(value any, _ Env) error {
			return ozzo.Validate(model.AsString(value), rule)
		},
	}
}

// Pattern matches the text value against re.
func Pattern(re *regexp.Regexp, message string) Rule {
	rule := ozzo.Match(re).Error(message)
	return Rule{
		code: "pattern",
		check: func(value any, _ Env) error {
			return ozzo.Validate(strings.TrimSpace(model.AsString(value)), rule)
		},
	}
}

// Email checks the value is a well formed address.
func Email(message string) Rule {
	rule := is.EmailFormat.Error(message)
	return Rule{
		code: "email",
		check: func(value any, _ Env) error {
			return ozzo.Validate(strings.TrimSpace(model.AsString(value)), rule)
		},
	}
}

// Range requires a number (or numeric string) within [min, max].
func Range(min, max float64, message string) Rule {
	return Rule{
		code: "range",
		check: func(value any, _ Env) error {
			return checkRange(value, min, max, message)
		},
	}
}

// YearRange requires a year between min and the current year.
func YearRange(min int, message string) Rule {
	return Rule{
		code: "range",
		check: func(value any, env Env) error {
			return checkRange(value, float64(min), float64(env.Today.Year()), message)
		},
	}
}

func checkRange(value any, min, max float64, message string) error {
	number, ok := model.AsNumber(value)
	if !ok {
		return ozzo.NewError("validation_not_a_number", message)
	}
	return ozzo.Validate(number,
		ozzo.Min(min).Error(message),
		ozzo.Max(max).Error(message),
	)
}

// GreaterThan requires a number strictly greater than limit.
func GreaterThan(limit float64, message string) Rule {
	return Rule{
		code: "greater_than",
		check: func(value any, _ Env) error {
			number, ok := model.AsNumber(value)
			if !ok {
				return ozzo.NewError("validation_not_a_number", message)
			}
			return ozzo.Validate(number, ozzo.Min(limit).Exclusive().Error(message))
		},
	}
}

// Integer requires a whole number.
func Integer(message string) Rule {
	return Rule{
		code: "integer",
		check: func(value any, _ Env) error {
			number, ok := model.AsNumber(value)
			if !ok || number != float64(int64(number)) {
				return ozzo.NewError("validation_not_an_integer", message)
			}
			return nil
		},
	}
}

// Date requires a value in the `YYYY-MM-DD` wire layout.
func Date(message string) Rule {
	return Rule{
		code: "date",
		check: func(value any, env Env) error {
			if _, err := ParseDate(value, env.Today.Location()); err != nil {
				return ozzo.NewError("validation_date_invalid", message)
			}
			return nil
		},
	}
}

// DateNotBefore requires a date on or after today shifted by the given years
// and days (negative values look back).
func DateNotBefore(years, days int, message string) Rule {
	return Rule{
		code: "date_not_before",
		check: func(value any, env Env) error {
			date, err := ParseDate(value, env.Today.Location())
			if err != nil {
				return ozzo.NewError("validation_date_invalid", message)
			}
			if date.Before(env.Today.AddDate(years, 0, days)) {
				return ozzo.NewError("validation_date_too_early", message)
			}
			return nil
		},
	}
}

// DateNotAfter requires a date on or before today shifted by the given years
// and days.
func DateNotAfter(years, days int, message string) Rule {
	return Rule{
		code: "date_not_after",
		check: func(value any, env Env) error {
			date, err := ParseDate(value, env.Today.Location())
			if err != nil {
				return ozzo.NewError("validation_date_invalid", message)
			}
			if date.After(env.Today.AddDate(years, 0, days)) {
				return ozzo.NewError("validation_date_too_late", message)
			}
			return nil
		},
	}
}

// Func wraps a custom check. fn returns a message, or "" when valid.
func Func(code string, fn func(value any, env Env) string) Rule {
	return Rule{
		code: code,
		check: func(value any, env Env) error {
			if fn == nil {
				return nil
			}
			if message := fn(value, env); strings.TrimSpace(message) != "" {
				return ozzo.NewError("validation_"+code, message)
			}
			return nil
		},
	}
}

// ParseDate reads a date-only value as midnight in loc (time.Local when nil).
// time.Time values are truncated to their day.
func ParseDate(value any, loc *time.Location) (time.Time, error) {
	switch typed := value.(type) {
	case time.Time:
		return StartOfDay(typed), nil
	case *time.Time:
		if typed == nil {
			return time.Time{}, errEmptyDate
		}
		return StartOfDay(*typed), nil
	}
	raw := strings.TrimSpace(model.AsString(value))
	if raw == "" {
		return time.Time{}, errEmptyDate
	}
	if len(raw) > len(model.DateLayout) && raw[len(model.DateLayout)] == 'T' {
		raw = raw[:len(model.DateLayout)]
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(model.DateLayout, raw, loc)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
