package form

import (
	"context"
	"errors"

	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
	"github.com/goliatone/go-fleetform/pkg/payload"
	"github.com/goliatone/go-fleetform/pkg/validation"
)

// Result describes a submission.
type Result struct {
	Entry   liferay.Entry
	Payload payload.Payload
	Created bool
	// Fields and Form carry rejected field messages and form-level
	// messages.
	Fields model.FieldErrors
	Form   []string
}

// Submit persists the form. A final submit validates every step first; a
// draft skips completeness checks and forces the status field to Draft.
// Creating resets the form on success; editing keeps the state.
func (s *Session) Submit(ctx context.Context, isDraft bool) (Result, error) {
	if s.closed.Load() {
		return Result{}, ErrAbandoned
	}
	if s.backend == nil {
		return Result{}, ErrNoBackend
	}
	if !s.submitting.CompareAndSwap(false, true) {
		return Result{}, ErrSubmitInFlight
	}
	defer s.submitting.Store(false)

	ctx, release := s.bind(ctx)
	defer release()

	snapshot := s.store.Snapshot()
	if !isDraft {
		if errs := s.engine.ValidateAll(snapshot); len(errs) > 0 {
			return s.reject(ctx, Result{Fields: errs}, nil,
				wrapValidationError(errInvalid, textCodeInvalid, "form validation failed"))
		}
	}

	body := s.builder.Build(snapshot, isDraft)
	result := Result{Payload: body}
	if s.contract != nil {
		if err := s.contract.Check(body, isDraft); err != nil {
			var violation *payload.ContractError
			if errors.As(err, &violation) {
				mapped := s.mapServerErrors(violation.Violations)
				result.Fields, result.Form = mapped.Fields, mapped.Form
			}
			s.logger.Warn("payload contract violated", "form", s.blueprint.Definition.Name, "error", err)
			return s.reject(ctx, result, err, wrapValidationError(err, textCodeContract, "payload contract violated"))
		}
	}

	id := s.recordID.Load()
	var entry liferay.Entry
	var err error
	if id > 0 {
		entry, err = s.backend.UpdateEntry(ctx, s.collection, id, body)
	} else {
		entry, err = s.backend.CreateEntry(ctx, s.collection, body)
	}
	if s.closed.Load() {
		return Result{}, ErrAbandoned
	}
	if err != nil {
		return s.submitFailed(ctx, result, err)
	}

	result.Entry = entry
	result.Created = id <= 0
	s.logger.Info("entry saved", "form", s.blueprint.Definition.Name, "id", entry.ID(), "draft", isDraft, "created", result.Created)
	if result.Created {
		s.resetAfterCreate()
	} else {
		s.wizard.ClearErrors()
	}
	s.notifier.Notify(ctx, notify.Notice{
		Kind:    notify.KindSubmitted,
		Level:   notify.LevelSuccess,
		Message: savedMessage(isDraft),
	})
	return result, nil
}

func (s *Session) submitFailed(ctx context.Context, result Result, err error) (Result, error) {
	var rejected *liferay.ValidationError
	if errors.As(err, &rejected) {
		mapped := s.mapServerErrors(rejected.Entries)
		result.Fields, result.Form = mapped.Fields, mapped.Form
		if !mapped.Empty() {
			s.logger.Warn("entry rejected", "form", s.blueprint.Definition.Name, "fields", mapped.Fields.Names())
			return s.reject(ctx, result, err, wrapValidationError(err, textCodeRejected, "entry rejected"))
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return Result{}, ErrAbandoned
	}
	s.logger.Error("submission failed", "form", s.blueprint.Definition.Name, "error", err)
	s.notifier.Notify(ctx, notify.Notice{
		Kind:    notify.KindSubmitFailed,
		Level:   notify.LevelError,
		Message: "The entry could not be saved. Please try again.",
		Err:     err,
	})
	return result, wrapCommandError(err, textCodeSubmitFailed, "submission failed")
}

// reject merges field errors, moves back to the earliest failing step and
// notifies.
func (s *Session) reject(ctx context.Context, result Result, cause, err error) (Result, error) {
	if len(result.Fields) > 0 {
		s.wizard.MergeErrors(result.Fields)
		first := -1
		for _, name := range result.Fields.Names() {
			if step := s.wizard.StepForField(name); step >= 0 && (first < 0 || step < first) {
				first = step
			}
		}
		if first >= 0 {
			s.wizard.GoTo(first)
		}
	}
	message := "Please correct the highlighted fields."
	if len(result.Fields) == 0 && len(result.Form) > 0 {
		message = result.Form[0]
	}
	if cause == nil {
		cause = errRejected
	}
	s.notifier.Notify(ctx, notify.Notice{
		Kind:    notify.KindSubmitRejected,
		Level:   notify.LevelError,
		Message: message,
		Fields:  result.Fields.Clone(),
		Err:     cause,
	})
	return result, err
}

func (s *Session) mapServerErrors(entries []validation.FieldMessage) validation.ServerErrors {
	names := make([]string, 0, len(s.blueprint.Definition.Fields))
	for _, field := range s.blueprint.Definition.Fields {
		names = append(names, field.Name)
	}
	return validation.MapServerErrors(names, s.builder.Aliases(), entries)
}

func (s *Session) resetAfterCreate() {
	values := s.blueprint.Definition.Defaults()
	s.store.Reset(values)
	s.applyDerivations(s.deriver.ApplyAll(s.store.Snapshot()))
	s.wizard.Reset()
}

func savedMessage(isDraft bool) string {
	if isDraft {
		return "Draft saved."
	}
	return "Entry saved."
}
