// Package fleetform is the entry point for embedding the fleet forms: it
// loads the configuration and wires the orchestrator that hands out form
// sessions, entry listings and the picklist component.
package fleetform

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/orchestrator"
	"github.com/goliatone/go-fleetform/pkg/render"
)

// Config aliases config.Config for callers using only the root package.
type Config = config.Config

// Orchestrator aliases orchestrator.Orchestrator.
type Orchestrator = orchestrator.Orchestrator

// LoadConfig reads a YAML configuration file over the defaults and applies
// FLEETFORM_* environment overrides.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// New wires the backend client, option cache and the built-in vehicle and
// driver forms for cfg.
func New(ctx context.Context, cfg Config, options ...orchestrator.Option) (*Orchestrator, error) {
	return orchestrator.New(ctx, cfg, options...)
}

// Templates exposes the embedded review and listing templates so callers can
// copy or override them.
func Templates() fs.FS {
	return render.Templates()
}
