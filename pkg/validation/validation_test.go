package validation_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/validation"
)

var fixedNow = time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC)

func testEngine(t *testing.T) *validation.Engine {
	t.Helper()

	def := model.Definition{
		Name: "sample",
		Fields: []model.Field{
			{Name: "title", Kind: model.FieldKindString, Localized: true},
			{Name: "kind", Kind: model.FieldKindSelect},
			{Name: "contract", Kind: model.FieldKindString},
			{Name: "amount", Kind: model.FieldKindNumber},
			{Name: "year", Kind: model.FieldKindInteger},
			{Name: "code", Kind: model.FieldKindString},
			{Name: "expires", Kind: model.FieldKindDate},
		},
		Steps: []model.Step{
			{Key: "one", Fields: []string{"title", "kind", "code"}},
			{Key: "two", Fields: []string{"contract", "amount", "year", "expires"}},
		},
	}
	table := validation.Table{
		"title": {Rules: []validation.Rule{
			validation.Required("Title is required."),
			validation.Length(0, 5, "Title is too long."),
		}},
		"kind": {Rules: []validation.Rule{validation.Required("Kind is required.")}},
		"code": {Rules: []validation.Rule{
			validation.Pattern(regexp.MustCompile(`^[A-Z]{3}$`), "Code must be three letters."),
		}},
		"contract": {
			RequiredWhen: `kind == "A"`,
			Rules: []validation.Rule{
				validation.Required("Contract is required."),
				validation.Length(3, 10, "Contract must be 3-10 characters."),
			},
		},
		"amount": {
			RequiredWhen: `kind == "A"`,
			Rules: []validation.Rule{
				validation.Required("Amount is required."),
				validation.GreaterThan(0, "Amount must be positive."),
			},
		},
		"year": {Rules: []validation.Rule{
			validation.YearRange(1990, "Year out of range."),
		}},
		"expires": {Rules: []validation.Rule{
			validation.DateNotBefore(0, -7, "Too far in the past."),
		}},
	}

	engine, err := validation.NewEngine(def, table, validation.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestValidateStepReturnsOnlyFailures(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	snapshot := model.Values{"title": "", "code": "abc"}

	got := engine.ValidateStep(0, snapshot)
	want := model.FieldErrors{
		"title": "Title is required.",
		"kind":  "Kind is required.",
		"code":  "Code must be three letters.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("step errors mismatch (-want +got):\n%s", diff)
	}

	again := engine.ValidateStep(0, snapshot)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("validation not idempotent (-first +second):\n%s", diff)
	}
}

func TestRequiredWhenGatesConditionalFields(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)

	for _, kind := range []string{"B", "", "Leased"} {
		errs := engine.ValidateStep(1, model.Values{"kind": kind})
		if len(errs) != 0 {
			t.Fatalf("kind %q: expected conditional fields optional, got %v", kind, errs)
		}
	}

	errs := engine.ValidateStep(1, model.Values{"kind": "A"})
	want := model.FieldErrors{
		"contract": "Contract is required.",
		"amount":   "Amount is required.",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("conditional errors mismatch (-want +got):\n%s", diff)
	}

	// other rules still run on a present value even when optional
	errs = engine.ValidateStep(1, model.Values{"kind": "B", "amount": "0", "contract": "ab"})
	want = model.FieldErrors{
		"contract": "Contract must be 3-10 characters.",
		"amount":   "Amount must be positive.",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("optional rule errors mismatch (-want +got):\n%s", diff)
	}
}

func TestRequiredWhenMatchesSelectedOption(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	snapshot := model.Values{"kind": []model.Option{{Value: "A"}}}
	if msg := engine.ValidateField("contract", nil, snapshot); msg != "Contract is required." {
		t.Fatalf("expected option key to drive requirement, got %q", msg)
	}
}

func TestYearRangeUsesClock(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	cases := map[string]string{
		"1980": "Year out of range.",
		"1990": "",
		"2025": "",
		"2026": "Year out of range.",
		"abcd": "Year out of range.",
	}
	for value, want := range cases {
		if got := engine.ValidateField("year", value, model.Values{}); got != want {
			t.Fatalf("year %q: got %q, want %q", value, got, want)
		}
	}
}

func TestDateNotBeforeTruncatesToday(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	if got := engine.ValidateField("expires", "2025-03-03", nil); got != "" {
		t.Fatalf("expected boundary date to pass, got %q", got)
	}
	if got := engine.ValidateField("expires", "2025-03-02", nil); got != "Too far in the past." {
		t.Fatalf("expected early date to fail, got %q", got)
	}
	if got := engine.ValidateField("expires", "03/10/2025", nil); got != "Too far in the past." {
		t.Fatalf("expected malformed date to fail, got %q", got)
	}
}

func TestLocalizedFieldUsesShadow(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)

	snapshot := model.Values{
		"title":      "",
		"title_i18n": model.LocalizedText{"ar_SA": "عنوان"},
	}
	if got := engine.ValidateStep(0, snapshot)["title"]; got != "" {
		t.Fatalf("expected translation in another locale to satisfy required, got %q", got)
	}

	snapshot["title_i18n"] = model.LocalizedText{"en_US": "ok", "ar_SA": "طويل جدا"}
	if got := engine.ValidateStep(0, snapshot)["title"]; got != "Title is too long." {
		t.Fatalf("expected length checked per translation, got %q", got)
	}
}

func TestNewEngineRejectsBadCondition(t *testing.T) {
	t.Parallel()

	_, err := validation.NewEngine(model.Definition{}, validation.Table{
		"x": {RequiredWhen: `a = "b"`},
	})
	if err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestFuncRule(t *testing.T) {
	t.Parallel()

	rule := validation.Func("match", func(value any, env validation.Env) string {
		if model.AsString(value) != env.Snapshot.String("other") {
			return "Values must match."
		}
		return ""
	})
	env := validation.Env{Snapshot: model.Values{"other": "x"}}
	if got := rule.Apply("y", env); got != "Values must match." {
		t.Fatalf("expected custom message, got %q", got)
	}
	if got := rule.Apply("x", env); got != "" {
		t.Fatalf("expected pass, got %q", got)
	}
}
