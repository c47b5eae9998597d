// Package notify carries transient user-facing notifications (step refused,
// options unavailable, submission failed) from the form core to whatever
// surface renders them.
package notify

import (
	"context"
	"sync"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// Level classifies a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Kind identifies what happened.
type Kind string

const (
	KindStepRefused      Kind = "step_refused"
	KindOptionsFailed    Kind = "options_failed"
	KindSubmitted        Kind = "submitted"
	KindSubmitFailed     Kind = "submit_failed"
	KindSubmitRejected   Kind = "submit_rejected"
	KindUploadFailed     Kind = "upload_failed"
	KindRecordLoadFailed Kind = "record_load_failed"
)

// Notice is one notification.
type Notice struct {
	Kind    Kind
	Level   Level
	Message string
	Fields  model.FieldErrors
	Err     error
}

// Notifier receives notices.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// Func adapts a function into a Notifier.
type Func func(ctx context.Context, notice Notice)

// Notify delegates to the function.
func (fn Func) Notify(ctx context.Context, notice Notice) {
	if fn != nil {
		fn(ctx, notice)
	}
}

// Nop discards notices.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, Notice) {}

// Recorder keeps notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records the notice.
func (r *Recorder) Notify(_ context.Context, notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices returns a copy of what was recorded.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Kinds returns the recorded kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.notices))
	for i, notice := range r.notices {
		out[i] = notice.Kind
	}
	return out
}

// OrNop returns n, or Nop when n is nil.
func OrNop(n Notifier) Notifier {
	if n == nil {
		return Nop{}
	}
	return n
}
