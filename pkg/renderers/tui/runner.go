// Package tui drives a form session from the terminal: one prompt per field,
// step by step, with a review summary before the final submit.
package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-fleetform/pkg/form"
	"github.com/goliatone/go-fleetform/pkg/forms"
	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
	"github.com/goliatone/go-fleetform/pkg/render"
	"github.com/goliatone/go-fleetform/pkg/widgets"
	"github.com/goliatone/go-fleetform/pkg/wizard"
)

// Session is the part of *form.Session the runner drives.
type Session interface {
	Blueprint() forms.Blueprint
	Locales() []string
	Values() model.Values
	Errors() model.FieldErrors
	Wizard() *wizard.Controller
	EditMode() bool
	Options(ctx context.Context, name string) ([]model.Option, error)
	SetField(name string, value any) error
	SetLocalizedField(name string, text model.LocalizedText) error
	SelectOption(ctx context.Context, name string, keys ...string) error
	Upload(ctx context.Context, name string, file liferay.File) (*model.Attachment, error)
	Validate(ctx context.Context) (model.FieldErrors, error)
	Next(ctx context.Context) wizard.Outcome
	Prev() bool
	Submit(ctx context.Context, isDraft bool) (form.Result, error)
}

var _ Session = (*form.Session)(nil)

const (
	actionNext   = "next"
	actionEdit   = "edit"
	actionBack   = "back"
	actionDraft  = "draft"
	actionReview = "review"
	actionCancel = "cancel"

	noneLabel = "(none)"

	firstStepPrompt = "Continue to the next step?"
	refusedMessage  = "Please fix the highlighted fields before continuing."
)

// Runner walks a session through its steps with terminal prompts.
type Runner struct {
	driver   PromptDriver
	out      io.Writer
	widgets  *widgets.Registry
	review   *render.Renderer
	openFile FileOpener
	theme    Theme
	locale   string
	pageSize int
	logger   logging.Logger
}

// New builds a Runner. Without WithPromptDriver it prompts through survey.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		widgets:  widgets.NewRegistry(),
		openFile: OpenFile,
		theme:    DefaultTheme(),
		locale:   model.LocaleEnglish,
		pageSize: 10,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	if r.review == nil {
		renderer, err := render.New()
		if err != nil {
			return nil, fmt.Errorf("tui: review renderer: %w", err)
		}
		r.review = renderer
	}
	return r, nil
}

// Notifier prints session notices through the prompt driver.
func (r *Runner) Notifier() notify.Notifier {
	return notify.Func(func(ctx context.Context, notice notify.Notice) {
		prefix := r.theme.InfoPrefix
		if notice.Level == notify.LevelError || notice.Level == notify.LevelWarning {
			prefix = r.theme.ErrorPrefix
		}
		if err := r.driver.Info(context.WithoutCancel(ctx), prefix+notice.Message); err != nil {
			r.logger.Warn("notice not printed", "kind", notice.Kind, "error", err)
		}
	})
}

// Run prompts every step until the entry is submitted or the user cancels.
// Cancelling returns ErrAborted.
func (r *Runner) Run(ctx context.Context, session Session) (form.Result, error) {
	if session == nil {
		return form.Result{}, ErrNoSession
	}
	ctl := session.Wizard()
	def := session.Blueprint().Definition
	resolved := r.widgets.ResolveAll(def)

	for {
		if err := ctx.Err(); err != nil {
			return form.Result{}, err
		}
		step := ctl.Step()
		header := fmt.Sprintf("%sStep %d of %d: %s", r.theme.StepPrefix, ctl.Current()+1, ctl.Len(), stepTitle(step, r.locale))
		if err := r.driver.Info(ctx, header); err != nil {
			return form.Result{}, err
		}

		for _, name := range step.Fields {
			field, ok := def.Field(name)
			if !ok {
				continue
			}
			if err := r.promptField(ctx, session, field, resolved[name]); err != nil {
				return form.Result{}, err
			}
		}

		if ctl.IsFirst() && !ctl.IsLast() {
			handled, err := r.firstStep(ctx, session)
			if err != nil {
				return form.Result{}, err
			}
			if handled {
				continue
			}
		}

		action, err := r.navigate(ctx, ctl)
		if err != nil {
			return form.Result{}, err
		}

		switch action {
		case actionNext:
			if outcome := session.Next(ctx); outcome == wizard.Abandoned {
				return form.Result{}, form.ErrAbandoned
			}
		case actionEdit:
			continue
		case actionBack:
			session.Prev()
		case actionDraft:
			result, err := session.Submit(ctx, true)
			if done, err := r.afterSubmit(ctx, result, err); done {
				return result, err
			}
		case actionReview:
			confirmed, err := r.confirmReview(ctx, session, def)
			if err != nil {
				return form.Result{}, err
			}
			if !confirmed {
				continue
			}
			result, err := session.Submit(ctx, false)
			if done, err := r.afterSubmit(ctx, result, err); done {
				return result, err
			}
		case actionCancel:
			return form.Result{}, ErrAborted
		}
	}
}

// afterSubmit reports whether the run is over. Rejections and backend
// failures keep the user in the wizard; a rejection has already moved the
// session back to the first failing step.
func (r *Runner) afterSubmit(ctx context.Context, result form.Result, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, form.ErrAbandoned) || errors.Is(err, form.ErrNoBackend) || ctx.Err() != nil {
		return true, err
	}
	if form.IsRejected(err) {
		for _, message := range result.Form {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
				return true, err
			}
		}
		return false, nil
	}
	r.logger.Warn("submission failed", "error", err)
	return false, nil
}

// firstStep asks for the first step's own Next before the navigation bar.
// Accepting runs the step validation in place; a clean step advances, a
// refused one is prompted again with its errors. It reports whether the
// answer was handled; declining leaves the choice to the navigation bar.
func (r *Runner) firstStep(ctx context.Context, session Session) (bool, error) {
	proceed, err := r.driver.Confirm(ctx, ConfirmConfig{Message: firstStepPrompt, Default: true})
	if err != nil || !proceed {
		return false, err
	}
	errs, err := session.Validate(ctx)
	if err != nil {
		return false, err
	}
	if len(errs) > 0 {
		return true, r.driver.Info(ctx, r.theme.ErrorPrefix+refusedMessage)
	}
	if outcome := session.Next(ctx); outcome == wizard.Abandoned {
		return false, form.ErrAbandoned
	}
	return true, nil
}

func (r *Runner) navigate(ctx context.Context, ctl *wizard.Controller) (string, error) {
	var labels, actions []string
	add := func(label, action string) {
		labels = append(labels, label)
		actions = append(actions, action)
	}
	switch {
	case ctl.IsLast():
		add("Review and submit", actionReview)
	case ctl.IsFirst():
		add("Edit this step", actionEdit)
	default:
		add("Next", actionNext)
	}
	if !ctl.IsFirst() {
		add("Back", actionBack)
	}
	add("Save draft", actionDraft)
	add("Cancel", actionCancel)

	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Continue", Options: labels})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(actions) {
		return "", fmt.Errorf("tui: navigation choice %d out of range", idx)
	}
	return actions[idx], nil
}

func (r *Runner) confirmReview(ctx context.Context, session Session, def model.Definition) (bool, error) {
	review := render.BuildReview(def, session.Values(), session.Errors(), r.locale)
	var buf bytes.Buffer
	if err := r.review.Review(&buf, review); err != nil {
		return false, err
	}
	if err := r.driver.Info(ctx, strings.TrimRight(buf.String(), "\n")); err != nil {
		return false, err
	}
	message := "Submit this entry?"
	if session.EditMode() {
		message = "Save these changes?"
	}
	return r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: true})
}

func (r *Runner) promptField(ctx context.Context, session Session, field model.Field, widget string) error {
	if message := session.Errors()[field.Name]; message != "" {
		if err := r.driver.Info(ctx, "  "+r.theme.ErrorPrefix+message); err != nil {
			return err
		}
	}

	label := field.DisplayLabel(r.locale)
	values := session.Values()
	current := values[field.Name]

	switch widget {
	case widgets.WidgetReadOnly:
		return r.driver.Info(ctx, fmt.Sprintf("%s: %s", label, render.DisplayValue(field, current, r.locale)))
	case widgets.WidgetConfirm:
		checked, _ := current.(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: checked, Help: field.Help})
		if err != nil {
			return err
		}
		return session.SetField(field.Name, answer)
	case widgets.WidgetTextArea:
		answer, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: model.AsString(current), Help: field.Help})
		if err != nil {
			return err
		}
		return session.SetField(field.Name, answer)
	case widgets.WidgetDate:
		answer, err := r.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   model.AsString(current),
			Help:      "Format YYYY-MM-DD",
			Validator: validDate,
		})
		if err != nil {
			return err
		}
		return session.SetField(field.Name, strings.TrimSpace(answer))
	case widgets.WidgetSelect, widgets.WidgetMultiSelect:
		return r.promptOptions(ctx, session, field, label, current, widget == widgets.WidgetMultiSelect)
	case widgets.WidgetLocalized:
		return r.promptTranslations(ctx, session, field, label, values)
	case widgets.WidgetFile:
		return r.promptFile(ctx, session, field, label, current)
	default:
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: model.AsString(current), Help: field.Help})
		if err != nil {
			return err
		}
		return session.SetField(field.Name, answer)
	}
}

func (r *Runner) promptOptions(ctx context.Context, session Session, field model.Field, label string, current any, multiple bool) error {
	options, err := session.Options(ctx, field.Name)
	if err != nil {
		return err
	}
	if len(options) == 0 {
		return r.driver.Info(ctx, fmt.Sprintf("%s: no options available", label))
	}

	selected := make(map[string]bool)
	switch typed := current.(type) {
	case []model.Option:
		for _, key := range model.OptionKeys(typed) {
			selected[key] = true
		}
	default:
		if key := model.AsString(current); key != "" {
			selected[key] = true
		}
	}

	if multiple {
		labels := make([]string, len(options))
		var defaults []int
		for i, option := range options {
			labels[i] = option.DisplayLabel(r.locale)
			if selected[option.Value] {
				defaults = append(defaults, i)
			}
		}
		picked, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  labels,
			Defaults: defaults,
			Help:     field.Help,
			PageSize: r.pageSize,
		})
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(options) {
				keys = append(keys, options[idx].Value)
			}
		}
		return session.SelectOption(ctx, field.Name, keys...)
	}

	labels := append(make([]string, 0, len(options)+1), noneLabel)
	defaultIndex := 0
	for i, option := range options {
		labels = append(labels, option.DisplayLabel(r.locale))
		if selected[option.Value] && defaultIndex == 0 {
			defaultIndex = i + 1
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		DefaultIndex: defaultIndex,
		Help:         field.Help,
		PageSize:     r.pageSize,
	})
	if err != nil {
		return err
	}
	if idx <= 0 || idx > len(options) {
		return session.SelectOption(ctx, field.Name)
	}
	return session.SelectOption(ctx, field.Name, options[idx-1].Value)
}

func (r *Runner) promptTranslations(ctx context.Context, session Session, field model.Field, label string, values model.Values) error {
	shadow, _ := values[model.ShadowName(field.Name)].(model.LocalizedText)
	text := make(model.LocalizedText)
	for _, locale := range session.Locales() {
		current := shadow.Get(locale)
		if current == "" && locale == model.LocaleEnglish {
			current = model.AsString(values[field.Name])
		}
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s [%s]", label, locale),
			Default: current,
			Help:    field.Help,
		})
		if err != nil {
			return err
		}
		text[locale] = strings.TrimSpace(answer)
	}
	return session.SetLocalizedField(field.Name, text)
}

func (r *Runner) promptFile(ctx context.Context, session Session, field model.Field, label string, current any) error {
	message := label + " (file path)"
	if attachment, ok := current.(*model.Attachment); ok && attachment != nil {
		message = fmt.Sprintf("%s (file path, blank keeps %s)", label, attachment.Name)
	}
	path, err := r.driver.Input(ctx, InputConfig{Message: message, Help: field.Help})
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return nil
	}
	file, err := r.openFile(path)
	if err != nil {
		return r.driver.Info(ctx, fmt.Sprintf("%s%s: %v", r.theme.ErrorPrefix, label, err))
	}
	if _, err := session.Upload(ctx, field.Name, file); err != nil {
		if errors.Is(err, form.ErrAbandoned) {
			return err
		}
		r.logger.Warn("upload failed", "field", field.Name, "error", err)
		if errors.Is(err, form.ErrNoUploader) {
			return r.driver.Info(ctx, fmt.Sprintf("%s%s: uploads are not configured", r.theme.ErrorPrefix, label))
		}
	}
	return nil
}

func validDate(answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, answer); err != nil {
		return fmt.Errorf("use the format YYYY-MM-DD")
	}
	return nil
}

func stepTitle(step model.Step, locale string) string {
	if title := step.Title.Get(locale); title != "" {
		return title
	}
	if title := step.Title.First(); title != "" {
		return title
	}
	return step.Key
}
