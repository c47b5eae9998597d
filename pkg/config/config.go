// Package config holds the runtime configuration: backend endpoint and
// credentials, locales, business policy constants, cache backend, upload
// folders and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fleetform/pkg/model"
)

var (
	ErrBaseURLRequired      = errors.New("fleetform config: base url is required")
	ErrAuthConflict         = errors.New("fleetform config: configure either basic auth or a token, not both")
	ErrLocalesRequired      = errors.New("fleetform config: at least one shadow locale is required")
	ErrPolicyInvalid        = errors.New("fleetform config: policy bounds are invalid")
	ErrCacheBackendUnknown  = errors.New("fleetform config: cache backend must be memory or redis")
	ErrCacheRedisURLMissing = errors.New("fleetform config: redis url is required for the redis cache backend")
	ErrLoggingLevelInvalid  = errors.New("fleetform config: logging level is invalid")
	ErrLoggingFormatInvalid = errors.New("fleetform config: logging format is invalid")
)

// Config aggregates everything the CLI and the form sessions need.
type Config struct {
	BaseURL     string            `yaml:"base_url"`
	Auth        AuthConfig        `yaml:"auth"`
	Timeout     time.Duration     `yaml:"timeout"`
	Locales     LocaleConfig      `yaml:"locales"`
	Policy      Policy            `yaml:"policy"`
	Cache       CacheConfig       `yaml:"cache"`
	Collections CollectionsConfig `yaml:"collections"`
	Uploads     UploadConfig      `yaml:"uploads"`
	Contracts   ContractConfig    `yaml:"contracts"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// AuthConfig selects basic auth or a bearer token.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

// LocaleConfig names the default editing locale and the locales filled into
// translation shadows.
type LocaleConfig struct {
	Default string   `yaml:"default"`
	Shadow  []string `yaml:"shadow"`
}

// Policy collects the business bounds used by the form rule tables.
type Policy struct {
	AboutToExpireDays  int     `yaml:"about_to_expire_days"`
	MinCarYear         int     `yaml:"min_car_year"`
	MinSeats           int     `yaml:"min_seats"`
	MaxSeats           int     `yaml:"max_seats"`
	MaxLoadKg          float64 `yaml:"max_load_kg"`
	MaxViolationPoints int     `yaml:"max_violation_points"`
	MinDriverAge       int     `yaml:"min_driver_age"`
}

// CacheConfig selects the option cache backend.
type CacheConfig struct {
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"redis_url"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// CollectionsConfig names the object collections behind each form and the
// reference data they use.
type CollectionsConfig struct {
	Vehicles    string `yaml:"vehicles"`
	Drivers     string `yaml:"drivers"`
	Departments string `yaml:"departments"`
}

// UploadConfig maps an upload category to a document folder id.
type UploadConfig struct {
	SiteID  int64            `yaml:"site_id"`
	Folders map[string]int64 `yaml:"folders"`
}

// ContractConfig enables payload checks against the object OpenAPI schema.
type ContractConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ServerConfig configures the picklist HTTP component.
type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Route string `yaml:"route"`
	Limit int    `yaml:"limit"`
}

// LoggingConfig configures the go-logger provider.
type LoggingConfig struct {
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultPolicy returns the observed business bounds.
func DefaultPolicy() Policy {
	return Policy{
		AboutToExpireDays:  30,
		MinCarYear:         1990,
		MinSeats:           1,
		MaxSeats:           60,
		MaxLoadKg:          5000,
		MaxViolationPoints: 24,
		MinDriverAge:       18,
	}
}

// DefaultConfig returns a configuration that validates once BaseURL is set.
func DefaultConfig() Config {
	return Config{
		Timeout: 15 * time.Second,
		Locales: LocaleConfig{
			Default: model.LocaleEnglish,
			Shadow:  append([]string(nil), model.DefaultLocales...),
		},
		Policy: DefaultPolicy(),
		Cache: CacheConfig{
			Backend: "memory",
			Prefix:  "fleetform:options:",
			TTL:     time.Hour,
		},
		Collections: CollectionsConfig{
			Vehicles:    "vehicles",
			Drivers:     "drivers",
			Departments: "departments",
		},
		Uploads: UploadConfig{Folders: map[string]int64{}},
		Server: ServerConfig{
			Addr:  ":8080",
			Route: "/api/picklists",
			Limit: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over DefaultConfig and applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("fleetform config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("fleetform config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides endpoint and credentials from FLEETFORM_* variables.
func (cfg *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv("FLEETFORM_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := getenv("FLEETFORM_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := getenv("FLEETFORM_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := getenv("FLEETFORM_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := strings.TrimSpace(getenv("FLEETFORM_REDIS_URL")); v != "" {
		cfg.Cache.Backend = "redis"
		cfg.Cache.RedisURL = v
	}
}

// Validate checks the configuration for inconsistencies.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return ErrBaseURLRequired
	}
	if cfg.Auth.Token != "" && cfg.Auth.Username != "" {
		return ErrAuthConflict
	}
	if len(cfg.Locales.Shadow) == 0 {
		return ErrLocalesRequired
	}
	if err := cfg.Policy.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Cache.Backend)) {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(cfg.Cache.RedisURL) == "" {
			return ErrCacheRedisURLMissing
		}
	default:
		return ErrCacheBackendUnknown
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return ErrLoggingLevelInvalid
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "", "json", "console", "pretty":
	default:
		return ErrLoggingFormatInvalid
	}
	return nil
}

// Validate checks the policy bounds are coherent.
func (p Policy) Validate() error {
	switch {
	case p.AboutToExpireDays < 0:
		return fmt.Errorf("%w: about_to_expire_days must be zero or positive", ErrPolicyInvalid)
	case p.MinCarYear <= 0:
		return fmt.Errorf("%w: min_car_year must be positive", ErrPolicyInvalid)
	case p.MinSeats < 0 || p.MaxSeats < p.MinSeats:
		return fmt.Errorf("%w: seat bounds", ErrPolicyInvalid)
	case p.MaxLoadKg < 0:
		return fmt.Errorf("%w: max_load_kg must be zero or positive", ErrPolicyInvalid)
	case p.MaxViolationPoints < 0:
		return fmt.Errorf("%w: max_violation_points must be zero or positive", ErrPolicyInvalid)
	case p.MinDriverAge < 0:
		return fmt.Errorf("%w: min_driver_age must be zero or positive", ErrPolicyInvalid)
	}
	return nil
}

// FolderFor returns the document folder configured for an upload category.
func (u UploadConfig) FolderFor(category string) (int64, bool) {
	id, ok := u.Folders[strings.TrimSpace(category)]
	if ok && id > 0 {
		return id, true
	}
	id, ok = u.Folders["default"]
	return id, ok && id > 0
}
