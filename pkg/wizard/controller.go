// Package wizard implements the step controller of a multi-step form: an
// index over the definition's steps whose forward transition is gated on
// the current step validating cleanly.
package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
)

// ErrNoSteps is returned when a controller is built without steps.
var ErrNoSteps = errors.New("wizard: at least one step is required")

// Validator validates one step. It may block (e.g. future remote checks)
// and should honour ctx.
type Validator func(ctx context.Context, step int) (model.FieldErrors, error)

// Outcome describes what a Next call did.
type Outcome int

const (
	// Advanced means the index moved forward.
	Advanced Outcome = iota
	// Refused means validation failed; errors were merged and a notice sent.
	Refused
	// Ignored means the call was a no-op: another Next is pending, the
	// controller is on the last step or closed.
	Ignored
	// Abandoned means ctx was cancelled before validation resolved.
	Abandoned
)

func (o Outcome) String() string {
	switch o {
	case Advanced:
		return "advanced"
	case Refused:
		return "refused"
	case Ignored:
		return "ignored"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Option customises a Controller.
type Option func(*Controller)

// WithNotifier routes refusal notices.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) {
		c.notifier = notify.OrNop(n)
	}
}

// WithRefusedMessage overrides the message of the refusal notice.
func WithRefusedMessage(message string) Option {
	return func(c *Controller) {
		if message != "" {
			c.refusedMessage = message
		}
	}
}

// WithStart positions the controller on a step other than 0.
func WithStart(step int) Option {
	return func(c *Controller) {
		c.current = step
	}
}

// Controller is the step state machine. All methods are safe for concurrent
// use; overlapping Next calls are serialized by dropping the later ones.
type Controller struct {
	mu             sync.Mutex
	steps          []model.Step
	current        int
	errors         model.FieldErrors
	pending        bool
	closed         bool
	validate       Validator
	notifier       notify.Notifier
	refusedMessage string
}

// New builds a controller over steps.
func New(steps []model.Step, validate Validator, opts ...Option) (*Controller, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	c := &Controller{
		steps:          append([]model.Step(nil), steps...),
		validate:       validate,
		notifier:       notify.Nop{},
		refusedMessage: "Please fix the highlighted fields before continuing.",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.current < 0 || c.current >= len(c.steps) {
		c.current = 0
	}
	return c, nil
}

// Next validates the current step and advances when it is clean.
func (c *Controller) Next(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.pending || c.closed || c.current >= len(c.steps)-1 {
		c.mu.Unlock()
		return Ignored
	}
	c.pending = true
	step := c.current
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	errs, err := c.run(ctx, step)
	if ctx.Err() != nil {
		return Abandoned
	}

	c.mu.Lock()
	if c.closed || c.current != step {
		c.mu.Unlock()
		return Ignored
	}
	if err != nil || len(errs) > 0 {
		c.clearLocked(c.steps[step].Fields...)
		c.errors = c.errors.Merge(errs)
		merged := c.errors.Clone()
		c.mu.Unlock()
		c.notifier.Notify(ctx, notify.Notice{
			Kind:    notify.KindStepRefused,
			Level:   notify.LevelError,
			Message: c.refusedMessage,
			Fields:  merged,
			Err:     err,
		})
		return Refused
	}
	c.clearLocked(c.steps[step].Fields...)
	c.current++
	c.mu.Unlock()
	return Advanced
}

// Validate runs the current step's validator without moving and merges the
// result; it is the gate the first step uses before the navigation bar
// takes over.
func (c *Controller) Validate(ctx context.Context) (model.FieldErrors, error) {
	c.mu.Lock()
	step := c.current
	c.mu.Unlock()
	errs, err := c.run(ctx, step)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.clearLocked(c.steps[step].Fields...)
	c.errors = c.errors.Merge(errs)
	c.mu.Unlock()
	return errs, nil
}

func (c *Controller) run(ctx context.Context, step int) (model.FieldErrors, error) {
	if c.validate == nil {
		return nil, nil
	}
	return c.validate(ctx, step)
}

// Prev moves back one step without validating.
func (c *Controller) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current == 0 {
		return false
	}
	c.current--
	return true
}

// Reset returns to the first step and clears errors.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
	c.errors = nil
}

// Close makes every later transition a no-op; a pending Next resolves as
// Ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Current returns the current step index.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Step returns the current step definition.
func (c *Controller) Step() model.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[c.current]
}

// Len returns the number of steps.
func (c *Controller) Len() int {
	return len(c.steps)
}

// IsFirst reports whether the controller is on step 0.
func (c *Controller) IsFirst() bool {
	return c.Current() == 0
}

// IsLast reports whether the controller is on the final step, where Submit
// replaces Next.
func (c *Controller) IsLast() bool {
	return c.Current() == len(c.steps)-1
}

// Pending reports whether a Next call is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Errors returns a copy of the global error map.
func (c *Controller) Errors() model.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// MergeErrors adds errors from outside the step validator (e.g. backend
// rejections).
func (c *Controller) MergeErrors(errs model.FieldErrors) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = c.errors.Merge(errs)
}

// SetFieldError records or, with an empty message, clears one field error.
func (c *Controller) SetFieldError(name, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if message == "" {
		c.clearLocked(name)
		return
	}
	c.errors = c.errors.Merge(model.FieldErrors{name: message})
}

// ClearErrors removes the named fields from the error map; with no names it
// clears everything.
func (c *Controller) ClearErrors(fields ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(fields) == 0 {
		c.errors = nil
		return
	}
	c.clearLocked(fields...)
}

func (c *Controller) clearLocked(fields ...string) {
	for _, name := range fields {
		delete(c.errors, name)
	}
}

// StepForField returns the index of the step owning name, or -1.
func (c *Controller) StepForField(name string) int {
	for i, step := range c.steps {
		if step.Owns(name) {
			return i
		}
	}
	return -1
}

// GoTo jumps backwards to an earlier step, e.g. to show a field the backend
// rejected. Forward jumps are refused since they would skip validation.
func (c *Controller) GoTo(step int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || step < 0 || step > c.current {
		return false
	}
	c.current = step
	return true
}
