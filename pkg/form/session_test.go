package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/form"
	"github.com/goliatone/go-fleetform/pkg/forms/vehicle"
	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
	"github.com/goliatone/go-fleetform/pkg/validation"
	"github.com/goliatone/go-fleetform/pkg/wizard"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var today = time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu      sync.Mutex
	created []map[string]any
	updated map[int64]map[string]any
	entry   liferay.Entry
	err     error
	started chan struct{}
	release chan struct{}
}

func (b *fakeBackend) wait(ctx context.Context) error {
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.release == nil {
		return nil
	}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *fakeBackend) GetEntry(_ context.Context, _ string, id int64) (liferay.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.entry, nil
}

func (b *fakeBackend) CreateEntry(ctx context.Context, _ string, p map[string]any) (liferay.Entry, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.created = append(b.created, p)
	return liferay.Entry{"id": float64(100 + len(b.created))}, nil
}

func (b *fakeBackend) UpdateEntry(ctx context.Context, _ string, id int64, p map[string]any) (liferay.Entry, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	if b.updated == nil {
		b.updated = make(map[int64]map[string]any)
	}
	b.updated[id] = p
	return liferay.Entry{"id": float64(id)}, nil
}

type staticOptions map[string][]model.Option

func (o staticOptions) Get(_ context.Context, list string) []model.Option {
	return o[list]
}

func vehicleOptions() staticOptions {
	return staticOptions{
		"VehicleType":   {{Value: "Car", Label: "Car", LabelI18n: model.LocalizedText{"en_US": "Car", "ar_SA": "سيارة"}}},
		"CarMake":       {{Value: "Toyota", Label: "Toyota"}},
		"OwnershipType": {{Value: "MOE"}, {Value: "ExternalVendor"}, {Value: "Leased"}},
		"VehicleStatus": {{Value: "Active"}, {Value: "Inactive"}},
		"object:departments": {{
			Value: "7",
			Label: "Fleet",
			Raw:   map[string]any{"name_i18n": map[string]any{"en_US": "Fleet", "ar_SA": "الأسطول"}},
		}},
	}
}

func newSession(t *testing.T, backend form.Backend, host model.Host, opts ...form.Option) (*form.Session, *notify.Recorder) {
	t.Helper()
	recorder := &notify.Recorder{}
	all := append([]form.Option{
		form.WithBackend(backend),
		form.WithOptionSource(vehicleOptions()),
		form.WithNotifier(recorder),
		form.WithClock(func() time.Time { return today }),
	}, opts...)
	s, err := form.New(vehicle.New(config.DefaultPolicy()), host, all...)
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	t.Cleanup(s.Close)
	return s, recorder
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func fillVehicle(t *testing.T, s *form.Session) {
	t.Helper()
	ctx := context.Background()
	must(t, s.SetField("vin", "1HGCM82633A004352"))
	must(t, s.SetField("plateNumber", "1234 AB"))
	must(t, s.SelectOption(ctx, "vehicleType", "Car"))
	must(t, s.SelectOption(ctx, "carMake", "Toyota"))
	must(t, s.SetField("carModel", "Hilux"))
	must(t, s.SetField("carYear", "2020"))
	must(t, s.SetField("seatingCapacity", "5"))
	must(t, s.SelectOption(ctx, "ownershipType", "MOE"))
	must(t, s.SetField("moeContractNumber", "MOE-1"))
	must(t, s.SetField("carValueMOE", "12000"))
	must(t, s.SetField("registrationExpiryDate", "2027-01-01"))
	must(t, s.SetField("insuranceCompany", "Dhofar Insurance"))
	must(t, s.SetField("insuranceExpiryDate", "2026-11-01"))
	must(t, s.SelectOption(ctx, "department", "7"))
	must(t, s.SelectOption(ctx, "vehicleStatus", "Active"))
}

func TestCreateFlowSubmitsAndResets(t *testing.T) {
	backend := &fakeBackend{}
	s, recorder := newSession(t, backend, model.Host{Locale: "en-US"})
	ctx := context.Background()

	fillVehicle(t, s)
	for i := 0; i < 2; i++ {
		if outcome := s.Next(ctx); outcome != wizard.Advanced {
			t.Fatalf("step %d: expected advance, got %s (%v)", i, outcome, s.Errors())
		}
	}
	if !s.Wizard().IsLast() {
		t.Fatalf("expected to reach the last step")
	}

	result, err := s.Submit(ctx, false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Created || result.Entry.ID() != 101 {
		t.Fatalf("unexpected result %#v", result)
	}

	want := map[string]any{
		"vin":                    "1HGCM82633A004352",
		"plateNumber":            "1234 AB",
		"vehicleType":            "Car",
		"carMake":                "Toyota",
		"carModel":               "Hilux",
		"carYear":                int64(2020),
		"seatingCapacity":        int64(5),
		"ownershipType":          "MOE",
		"moeContractNumber":      "MOE-1",
		"carValueMoe":            float64(12000),
		"registrationExpiryDate": "2027-01-01",
		"licenseStatus":          "Valid",
		"insuranceCompany":       "Dhofar Insurance",
		"insuranceExpiryDate":    "2026-11-01",
		"insuranceStatus":        "AboutToExpire",
		"department":             int64(7),
		"vehicleStatus":          "Active",
	}
	if len(backend.created) != 1 {
		t.Fatalf("expected one create, got %d", len(backend.created))
	}
	if diff := cmp.Diff(want, backend.created[0]); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}

	if _, ok := s.Value("vin"); ok {
		t.Fatalf("expected the form to reset after create")
	}
	if got, _ := s.Value("licenseStatus"); got != "Valid" {
		t.Fatalf("expected derived default after reset, got %#v", got)
	}
	if s.Wizard().Current() != 0 {
		t.Fatalf("expected wizard back at step 0")
	}
	if diff := cmp.Diff([]notify.Kind{notify.KindSubmitted}, recorder.Kinds()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitValidatesEveryStep(t *testing.T) {
	backend := &fakeBackend{}
	s, recorder := newSession(t, backend, model.Host{})

	_, err := s.Submit(context.Background(), false)
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(backend.created) != 0 {
		t.Fatalf("expected no backend call")
	}
	errs := s.Errors()
	for _, name := range []string{"vin", "ownershipType", "insuranceExpiryDate"} {
		if errs[name] == "" {
			t.Fatalf("expected error for %s, got %v", name, errs)
		}
	}
	if diff := cmp.Diff([]notify.Kind{notify.KindSubmitRejected}, recorder.Kinds()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftSkipsCompletenessAndForcesStatus(t *testing.T) {
	backend := &fakeBackend{}
	s, _ := newSession(t, backend, model.Host{})
	must(t, s.SetField("vin", "1HGCM82633A004352"))
	must(t, s.SelectOption(context.Background(), "vehicleStatus", "Inactive"))

	if _, err := s.Submit(context.Background(), true); err != nil {
		t.Fatalf("Submit draft: %v", err)
	}
	got := backend.created[0]
	if got["vehicleStatus"] != model.StatusDraft {
		t.Fatalf("expected Draft status, got %#v", got["vehicleStatus"])
	}
	if got["vin"] != "1HGCM82633A004352" {
		t.Fatalf("expected partial values sent, got %#v", got)
	}
}

func TestSecondSubmitWhileInFlightIsRejected(t *testing.T) {
	backend := &fakeBackend{started: make(chan struct{}, 1), release: make(chan struct{})}
	s, _ := newSession(t, backend, model.Host{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), true)
		done <- err
	}()
	<-backend.started

	if !s.Submitting() {
		t.Fatalf("expected submission in flight")
	}
	if _, err := s.Submit(context.Background(), true); !errors.Is(err, form.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	close(backend.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if s.Submitting() {
		t.Fatalf("expected in-flight flag released")
	}
}

func TestCloseAbandonsPendingSubmitSilently(t *testing.T) {
	backend := &fakeBackend{started: make(chan struct{}, 1), release: make(chan struct{})}
	s, recorder := newSession(t, backend, model.Host{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), true)
		done <- err
	}()
	<-backend.started
	s.Close()

	if err := <-done; !errors.Is(err, form.ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}
	if len(recorder.Notices()) != 0 {
		t.Fatalf("expected no notices after close, got %v", recorder.Kinds())
	}
	if _, err := s.Submit(context.Background(), true); !errors.Is(err, form.ErrAbandoned) {
		t.Fatalf("expected closed session to refuse submit, got %v", err)
	}
}

func TestEditModeLoadsAndUpdates(t *testing.T) {
	backend := &fakeBackend{entry: liferay.Entry{
		"id":                     float64(42),
		"vin":                    "1HGCM82633A004352",
		"plateNumber":            "99 XY",
		"carValueMoe":            float64(9000),
		"vehicleType":            map[string]any{"key": "Car", "name": "Car"},
		"registrationExpiryDate": "2026-10-01T00:00:00Z",
		"department":             float64(7),
	}}
	s, recorder := newSession(t, backend, model.Host{RecordID: 42})

	if !s.EditMode() {
		t.Fatalf("expected edit mode")
	}
	must(t, s.Load(context.Background()))
	if got, _ := s.Value("carValueMOE"); got != "9000" {
		t.Fatalf("expected restored internal name, got %#v", got)
	}
	if got, _ := s.Value("licenseStatus"); got != string(model.StatusExpired) {
		t.Fatalf("expected status derived from restored date, got %#v", got)
	}

	must(t, s.SetField("plateNumber", "100 XY"))
	if _, err := s.Submit(context.Background(), true); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := backend.updated[42]["plateNumber"]; got != "100 XY" {
		t.Fatalf("expected update with edited plate, got %#v", got)
	}
	if got, _ := s.Value("plateNumber"); got != "100 XY" {
		t.Fatalf("expected state kept after edit, got %#v", got)
	}
	if diff := cmp.Diff([]notify.Kind{notify.KindSubmitted}, recorder.Kinds()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFailureNotifies(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	s, recorder := newSession(t, backend, model.Host{RecordID: 9})

	err := s.Load(context.Background())
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if diff := cmp.Diff([]notify.Kind{notify.KindRecordLoadFailed}, recorder.Kinds()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestBackendValidationErrorsMapToFields(t *testing.T) {
	backend := &fakeBackend{}
	s, recorder := newSession(t, backend, model.Host{})
	ctx := context.Background()
	fillVehicle(t, s)
	s.Next(ctx)
	s.Next(ctx)

	backend.err = &liferay.ValidationError{
		Problem: &liferay.Problem{Status: 400, Title: "Invalid"},
		Entries: []validation.FieldMessage{
			{Field: "carValueMoe", Message: "Value exceeds the approved budget."},
			{Field: "somethingElse", Message: "Duplicate entry."},
		},
	}
	result, err := s.Submit(ctx, false)
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if diff := cmp.Diff(model.FieldErrors{"carValueMOE": "Value exceeds the approved budget."}, result.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Duplicate entry."}, result.Form); diff != "" {
		t.Fatalf("form messages mismatch (-want +got):\n%s", diff)
	}
	if s.Wizard().Current() != 1 {
		t.Fatalf("expected wizard back on the ownership step, got %d", s.Wizard().Current())
	}
	if s.Errors()["carValueMOE"] == "" {
		t.Fatalf("expected inline error merged")
	}
	if got, _ := s.Value("vin"); got == nil {
		t.Fatalf("expected state kept after a rejection")
	}
	if diff := cmp.Diff([]notify.Kind{notify.KindSubmitRejected}, recorder.Kinds()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestGenericBackendFailure(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection reset")}
	s, recorder := newSession(t, backend, model.Host{})

	_, err := s.Submit(context.Background(), true)
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if diff := cmp.Diff([]notify.Kind{notify.KindSubmitFailed}, recorder.Kinds()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldMutations(t *testing.T) {
	s, _ := newSession(t, &fakeBackend{}, model.Host{})
	ctx := context.Background()

	if err := s.SetField("licenseStatus", "Valid"); !errors.Is(err, form.ErrComputedField) {
		t.Fatalf("expected ErrComputedField, got %v", err)
	}
	if err := s.SetField("trailerHitch", "x"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := s.SelectOption(ctx, "carMake", "Lada"); !errors.Is(err, form.ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}

	must(t, s.SelectOption(ctx, "vehicleType", "Car"))
	shadow, _ := s.Value("vehicleType_i18n")
	if diff := cmp.Diff(model.LocalizedText{"en_US": "Car", "ar_SA": "سيارة"}, shadow); diff != "" {
		t.Fatalf("shadow mismatch (-want +got):\n%s", diff)
	}
	must(t, s.SelectOption(ctx, "vehicleType"))
	if _, ok := s.Value("vehicleType_i18n"); ok {
		t.Fatalf("expected clearing the selection to clear the shadow")
	}

	must(t, s.SetField("insuranceExpiryDate", "2026-10-01"))
	if got, _ := s.Value("insuranceStatus"); got != string(model.StatusExpired) {
		t.Fatalf("expected expired insurance, got %#v", got)
	}
}

func TestInlineErrorRefreshesAfterEdit(t *testing.T) {
	s, _ := newSession(t, &fakeBackend{}, model.Host{})
	ctx := context.Background()

	if outcome := s.Next(ctx); outcome != wizard.Refused {
		t.Fatalf("expected refused, got %s", outcome)
	}
	must(t, s.SetField("vin", "SHORT"))
	if got := s.Errors()["vin"]; got != "VIN must be 17 characters and unique." {
		t.Fatalf("expected refreshed vin error, got %q", got)
	}
	must(t, s.SetField("vin", "1HGCM82633A004352"))
	if _, ok := s.Errors()["vin"]; ok {
		t.Fatalf("expected vin error cleared once valid")
	}
}

type fakeUploader struct {
	err error
}

func (u fakeUploader) Upload(_ context.Context, file liferay.File, category string) (*model.Attachment, error) {
	if u.err != nil {
		return nil, u.err
	}
	return &model.Attachment{ID: 55, Name: category + "/" + file.Name}, nil
}

func TestUpload(t *testing.T) {
	s, recorder := newSession(t, &fakeBackend{}, model.Host{}, form.WithUploader(fakeUploader{}))
	attachment, err := s.Upload(context.Background(), "registrationDocument", liferay.File{Name: "card.pdf"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if attachment.Name != "registration/card.pdf" {
		t.Fatalf("expected category routed, got %#v", attachment)
	}
	if got := s.Payload(true)["registrationDocument"]; got != int64(55) {
		t.Fatalf("expected attachment id in payload, got %#v", got)
	}

	failing, _ := newSession(t, &fakeBackend{}, model.Host{}, form.WithUploader(fakeUploader{err: errors.New("disk full")}), form.WithNotifier(recorder))
	if _, err := failing.Upload(context.Background(), "registrationDocument", liferay.File{Name: "x.pdf"}); err == nil {
		t.Fatalf("expected upload failure")
	}
	if diff := cmp.Diff([]notify.Kind{notify.KindUploadFailed}, recorder.Kinds()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Upload(context.Background(), "vin", liferay.File{Name: "x"}); err == nil {
		t.Fatalf("expected non-file field to be refused")
	}
}
