package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/logging/gologger"
	"github.com/goliatone/go-fleetform/pkg/orchestrator"
	"github.com/goliatone/go-fleetform/pkg/renderers/tui"
)

// environment carries what commands need from the outside world so tests can
// swap the terminal and the logger.
type environment struct {
	out      io.Writer
	driver   tui.PromptDriver
	provider logging.Provider
	getenv   func(string) string
}

func defaultEnvironment() *environment {
	return &environment{out: os.Stdout, getenv: os.Getenv}
}

type globalFlags struct {
	configPath string
	baseURL    string
	locale     string
	logLevel   string
}

type app struct {
	env   *environment
	flags globalFlags
}

func newRootCmd(env *environment) *cobra.Command {
	a := &app{env: env}
	root := &cobra.Command{
		Use:   "fleetform",
		Short: "Fleet vehicle and driver forms",
		Long: `fleetform walks you through the vehicle and driver registration forms,
lists stored entries and serves picklist search for other front ends.

Configuration is read from --config (YAML) and FLEETFORM_* environment
variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "path to the YAML configuration file")
	flags.StringVar(&a.flags.baseURL, "base-url", "", "portal base URL (overrides the config file)")
	flags.StringVar(&a.flags.locale, "locale", "", "display locale, e.g. en_US or ar_SA")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		a.newFormCmd("vehicle", "Register or edit a vehicle"),
		a.newFormCmd("driver", "Register or edit a driver"),
		a.newListCmd(),
		a.newPicklistCmd(),
		a.newServeCmd(),
	)
	return root
}

func (a *app) config() (config.Config, error) {
	cfg := config.DefaultConfig()
	if strings.TrimSpace(a.flags.configPath) != "" {
		loaded, err := config.Load(a.flags.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	} else {
		cfg.ApplyEnv(a.env.getenv)
	}
	if a.flags.baseURL != "" {
		cfg.BaseURL = a.flags.baseURL
	}
	if a.flags.locale != "" {
		cfg.Locales.Default = a.flags.locale
	}
	if a.flags.logLevel != "" {
		cfg.Logging.Level = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (a *app) loggerProvider(cfg config.Config) (logging.Provider, error) {
	if a.env.provider != nil {
		return a.env.provider, nil
	}
	return gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Focus:     cfg.Logging.Focus,
	})
}

// prepare loads the configuration and the logger provider.
func (a *app) prepare() (config.Config, logging.Provider, error) {
	cfg, err := a.config()
	if err != nil {
		return config.Config{}, nil, err
	}
	provider, err := a.loggerProvider(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, provider, nil
}

// orchestrator wires the application for cfg.
func (a *app) orchestrator(ctx context.Context, cfg config.Config, provider logging.Provider, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	all := append([]orchestrator.Option{orchestrator.WithLoggerProvider(provider)}, opts...)
	return orchestrator.New(ctx, cfg, all...)
}
