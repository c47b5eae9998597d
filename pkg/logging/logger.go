// Package logging defines the leveled logger contract used across the
// module. It mirrors github.com/goliatone/go-logger so that package plugs in
// through the gologger adapter without further glue.
package logging

import (
	"context"
	"maps"
)

// Logger is the leveled logging contract.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// Provider hands out named loggers.
type Provider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is the optional extension for persistent structured fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

const rootModule = "fleetform"

// ModuleLogger returns a logger for module tagged with a "module" field,
// or a no-op logger when provider is nil.
func ModuleLogger(provider Provider, module string) Logger {
	if module == "" {
		module = rootModule
	}
	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// WithFields attaches fields when the logger supports it.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}
	return logger
}

// OrNoOp returns logger, or a no-op logger when it is nil.
func OrNoOp(logger Logger) Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) Logger {
	return n
}
