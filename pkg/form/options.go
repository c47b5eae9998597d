package form

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
	"github.com/goliatone/go-fleetform/pkg/payload"
)

// Backend persists entries.
type Backend interface {
	GetEntry(ctx context.Context, collection string, id int64) (liferay.Entry, error)
	CreateEntry(ctx context.Context, collection string, payload map[string]any) (liferay.Entry, error)
	UpdateEntry(ctx context.Context, collection string, id int64, payload map[string]any) (liferay.Entry, error)
}

// Uploader stores files for file fields.
type Uploader interface {
	Upload(ctx context.Context, file liferay.File, category string) (*model.Attachment, error)
}

// OptionSource resolves the choices of option-backed fields. Failures are
// expected to degrade to an empty list.
type OptionSource interface {
	Get(ctx context.Context, listName string) []model.Option
}

// Option customises a Session.
type Option func(*Session)

// WithBackend sets the entry backend used by Load and Submit.
func WithBackend(backend Backend) Option {
	return func(s *Session) {
		s.backend = backend
	}
}

// WithUploader sets the file uploader.
func WithUploader(uploader Uploader) Option {
	return func(s *Session) {
		s.uploader = uploader
	}
}

// WithOptionSource sets where option-backed fields load choices.
func WithOptionSource(source OptionSource) Option {
	return func(s *Session) {
		s.options = source
	}
}

// WithNotifier routes notices.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Session) {
		s.notifier = notify.OrNop(n)
	}
}

// WithLogger sets the session logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) {
		s.logger = logging.OrNoOp(logger)
	}
}

// WithClock overrides the time source of date rules and derivations.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithContract checks payloads against the object schema before sending.
func WithContract(contract *payload.Contract) Option {
	return func(s *Session) {
		s.contract = contract
	}
}

// WithCollection overrides the definition's backend collection.
func WithCollection(collection string) Option {
	return func(s *Session) {
		if c := strings.TrimSpace(collection); c != "" {
			s.collection = c
		}
	}
}

// WithLocales sets the locales filled into option translation shadows.
func WithLocales(locales ...string) Option {
	return func(s *Session) {
		s.locales = append([]string(nil), locales...)
	}
}

// WithThresholdDays sets the about-to-expire window.
func WithThresholdDays(days int) Option {
	return func(s *Session) {
		s.thresholdDays = days
	}
}
