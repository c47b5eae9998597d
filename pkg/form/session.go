// Package form binds one mounted form instance: its value store, rule and
// derivation engines, step controller, payload builder and the backend
// collaborators that load and persist the entry.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-fleetform/pkg/derive"
	"github.com/goliatone/go-fleetform/pkg/forms"
	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
	"github.com/goliatone/go-fleetform/pkg/payload"
	"github.com/goliatone/go-fleetform/pkg/store"
	"github.com/goliatone/go-fleetform/pkg/validation"
	"github.com/goliatone/go-fleetform/pkg/wizard"
)

var (
	ErrSubmitInFlight = errors.New("form: a submission is already in flight")
	ErrAbandoned      = errors.New("form: session closed before the operation resolved")
	ErrUnknownField   = errors.New("form: unknown field")
	ErrComputedField  = errors.New("form: field is computed")
	ErrUnknownOption  = errors.New("form: option not found")
	ErrNoBackend      = errors.New("form: no backend configured")
	ErrNoUploader     = errors.New("form: no uploader configured")
)

// Session is one form interaction. Mutations are safe for concurrent use;
// Submit admits one call at a time.
type Session struct {
	blueprint  forms.Blueprint
	host       model.Host
	collection string

	store   *store.Store
	engine  *validation.Engine
	deriver *derive.Engine
	builder *payload.Builder
	wizard  *wizard.Controller

	backend  Backend
	uploader Uploader
	options  OptionSource
	contract *payload.Contract
	notifier notify.Notifier
	logger   logging.Logger

	clock         func() time.Time
	locales       []string
	thresholdDays int

	recordID   atomic.Int64
	submitting atomic.Bool
	closed     atomic.Bool
	life       context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
}

// New mounts blueprint for host. With host.RecordID set the session edits
// that record; call Load to fetch it.
func New(blueprint forms.Blueprint, host model.Host, opts ...Option) (*Session, error) {
	s := &Session{
		blueprint:     blueprint,
		host:          host,
		collection:    blueprint.Definition.Collection,
		notifier:      notify.Nop{},
		logger:        logging.NoOp(),
		clock:         time.Now,
		thresholdDays: derive.DefaultThresholdDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if strings.TrimSpace(s.collection) == "" {
		return nil, fmt.Errorf("form: %s: collection is required", blueprint.Definition.Name)
	}

	engine, err := blueprint.Validator(
		validation.WithClock(s.clock),
		validation.WithHost(host.Values()),
	)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	deriveOpts := []derive.Option{derive.WithClock(s.clock), derive.WithThresholdDays(s.thresholdDays)}
	if len(s.locales) > 0 {
		deriveOpts = append(deriveOpts, derive.WithLocales(s.locales...))
	}
	s.deriver = blueprint.Deriver(deriveOpts...)
	s.builder = blueprint.Builder()

	locale := model.NormalizeLocale(host.Locale)
	if locale == "" {
		locale = model.LocaleEnglish
	}
	s.store = store.New(blueprint.Definition, locale, nil)
	s.applyDerivations(s.deriver.ApplyAll(s.store.Snapshot()))

	s.wizard, err = wizard.New(blueprint.Definition.Steps, s.validateStep, wizard.WithNotifier(s.notifier))
	if err != nil {
		return nil, err
	}
	s.recordID.Store(host.RecordID)
	s.life, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Blueprint returns the form blueprint.
func (s *Session) Blueprint() forms.Blueprint {
	return s.blueprint
}

// Host returns the injected host context.
func (s *Session) Host() model.Host {
	return s.host
}

// EditMode reports whether the session updates an existing record.
func (s *Session) EditMode() bool {
	return s.recordID.Load() > 0
}

// RecordID returns the edited record id, or zero in create mode.
func (s *Session) RecordID() int64 {
	return s.recordID.Load()
}

// Locales returns the locales translations are collected in.
func (s *Session) Locales() []string {
	if len(s.locales) == 0 {
		return append([]string(nil), model.DefaultLocales...)
	}
	return append([]string(nil), s.locales...)
}

// Load fetches the edited record and restores it into the store. It is a
// no-op in create mode.
func (s *Session) Load(ctx context.Context) error {
	id := s.recordID.Load()
	if id <= 0 {
		return nil
	}
	if s.backend == nil {
		return ErrNoBackend
	}
	ctx, release := s.bind(ctx)
	defer release()

	entry, err := s.backend.GetEntry(ctx, s.collection, id)
	if s.closed.Load() {
		return ErrAbandoned
	}
	if err != nil {
		s.logger.Error("record load failed", "collection", s.collection, "id", id, "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			Kind:    notify.KindRecordLoadFailed,
			Level:   notify.LevelError,
			Message: "The record could not be loaded.",
			Err:     err,
		})
		return wrapCommandError(err, textCodeLoadFailed, "record load failed")
	}

	values := s.blueprint.Definition.Defaults()
	for name, value := range s.builder.Restore(entry) {
		values[name] = value
	}
	for name, value := range s.deriver.ApplyAll(values) {
		if value == nil {
			delete(values, name)
			continue
		}
		values[name] = value
	}
	s.store.Replace(values)
	s.wizard.ClearErrors()
	return nil
}

// SetField stores a value typed by the user and recomputes what depends on
// it.
func (s *Session) SetField(name string, value any) error {
	field, err := s.editable(name)
	if err != nil {
		return err
	}
	if err := s.store.SetField(field.Name, value); err != nil {
		return err
	}
	s.afterChange(field.Name)
	return nil
}

// SetLocalizedField replaces every translation of a localized field.
func (s *Session) SetLocalizedField(name string, text model.LocalizedText) error {
	field, err := s.editable(name)
	if err != nil {
		return err
	}
	if !field.Localized {
		return fmt.Errorf("form: field %q is not localized", name)
	}
	if err := s.store.SetLocalizedField(field.Name, text); err != nil {
		return err
	}
	s.afterChange(field.Name)
	return nil
}

// SetFieldLocale switches the editing locale of a localized field.
func (s *Session) SetFieldLocale(name, locale string) error {
	field, ok := s.blueprint.Definition.Field(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	if !field.Localized {
		return fmt.Errorf("form: field %q is not localized", name)
	}
	return s.store.SetFieldLocale(field.Name, locale)
}

// Options returns the choices of an option-backed field.
func (s *Session) Options(ctx context.Context, name string) ([]model.Option, error) {
	field, ok := s.blueprint.Definition.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	if field.Options == nil || s.options == nil {
		return []model.Option{}, nil
	}
	return s.options.Get(ctx, field.Options.ListName()), nil
}

// SelectOption stores the options with the given keys. Relationship and
// multiple-choice fields hold a list, single selects hold one option; no
// keys clears the field.
func (s *Session) SelectOption(ctx context.Context, name string, keys ...string) error {
	field, err := s.editable(name)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		if err := s.store.SetField(field.Name, nil); err != nil {
			return err
		}
		s.afterChange(field.Name)
		return nil
	}

	choices, err := s.Options(ctx, field.Name)
	if err != nil {
		return err
	}
	selected := make([]model.Option, 0, len(keys))
	for _, key := range keys {
		option, ok := model.FindOption(choices, key)
		if !ok {
			return fmt.Errorf("%w: %s=%q", ErrUnknownOption, field.Name, key)
		}
		selected = append(selected, option)
	}

	var value any = selected
	if field.Kind == model.FieldKindSelect && !field.Multiple {
		value = selected[0]
	}
	if err := s.store.SetField(field.Name, value); err != nil {
		return err
	}
	s.afterChange(field.Name)
	return nil
}

// Upload stores file through the uploader and sets the resulting
// attachment on the file field.
func (s *Session) Upload(ctx context.Context, name string, file liferay.File) (*model.Attachment, error) {
	field, err := s.editable(name)
	if err != nil {
		return nil, err
	}
	if field.Kind != model.FieldKindFile {
		return nil, fmt.Errorf("form: field %q is not a file field", name)
	}
	if s.uploader == nil {
		return nil, ErrNoUploader
	}
	ctx, release := s.bind(ctx)
	defer release()

	attachment, err := s.uploader.Upload(ctx, file, field.Category)
	if s.closed.Load() {
		return nil, ErrAbandoned
	}
	if err != nil {
		s.logger.Warn("upload failed", "field", field.Name, "file", file.Name, "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			Kind:    notify.KindUploadFailed,
			Level:   notify.LevelError,
			Message: fmt.Sprintf("%s could not be uploaded.", file.Name),
			Err:     err,
		})
		return nil, wrapCommandError(err, textCodeUploadFailed, "upload failed")
	}
	if err := s.store.SetField(field.Name, attachment); err != nil {
		return nil, err
	}
	s.afterChange(field.Name)
	return attachment, nil
}

// Value returns the current value of a field.
func (s *Session) Value(name string) (any, bool) {
	return s.store.Value(name)
}

// Locale returns the editing locale of a field.
func (s *Session) Locale(name string) string {
	return s.store.Locale(name)
}

// Values returns a snapshot of the form state.
func (s *Session) Values() model.Values {
	return s.store.Snapshot()
}

// Next validates the current step and advances when it passes.
func (s *Session) Next(ctx context.Context) wizard.Outcome {
	ctx, release := s.bind(ctx)
	defer release()
	return s.wizard.Next(ctx)
}

// Validate runs the current step's rules without moving.
func (s *Session) Validate(ctx context.Context) (model.FieldErrors, error) {
	ctx, release := s.bind(ctx)
	defer release()
	return s.wizard.Validate(ctx)
}

// Prev moves back one step.
func (s *Session) Prev() bool {
	return s.wizard.Prev()
}

// Wizard exposes the step controller.
func (s *Session) Wizard() *wizard.Controller {
	return s.wizard
}

// Errors returns the field error map.
func (s *Session) Errors() model.FieldErrors {
	return s.wizard.Errors()
}

// Payload builds the payload the next Submit would send.
func (s *Session) Payload(isDraft bool) payload.Payload {
	return s.builder.Build(s.store.Snapshot(), isDraft)
}

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool {
	return s.submitting.Load()
}

// Close abandons pending work. Results that arrive afterwards are dropped
// without notices.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.cancel()
	s.wizard.Close()
}

// bind derives a context that is also cancelled by Close.
func (s *Session) bind(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Session) editable(name string) (model.Field, error) {
	field, ok := s.blueprint.Definition.Field(strings.TrimSpace(name))
	if !ok {
		return model.Field{}, fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	if field.Computed {
		return model.Field{}, fmt.Errorf("%w %q", ErrComputedField, name)
	}
	return field, nil
}

// afterChange recomputes derived values and refreshes the field's inline
// error once it has been reported.
func (s *Session) afterChange(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyDerivations(s.deriver.Apply(name, s.store.Snapshot()))

	if _, reported := s.wizard.Errors()[name]; !reported {
		return
	}
	snapshot := s.store.Snapshot()
	message := s.engine.ValidateField(name, snapshot[name], snapshot)
	if message == "" {
		s.wizard.ClearErrors(name)
		return
	}
	s.wizard.SetFieldError(name, message)
}

func (s *Session) applyDerivations(updates model.Values) {
	for target, value := range updates {
		if err := s.store.Derive(target, value); err != nil {
			s.logger.Warn("derivation not applied", "target", target, "error", err)
		}
	}
}

func (s *Session) validateStep(ctx context.Context, step int) (model.FieldErrors, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.engine.ValidateStep(step, s.store.Snapshot()), nil
}
