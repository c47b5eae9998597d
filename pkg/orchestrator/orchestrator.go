package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-fleetform/components/picklists"
	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/form"
	"github.com/goliatone/go-fleetform/pkg/forms"
	"github.com/goliatone/go-fleetform/pkg/forms/driver"
	"github.com/goliatone/go-fleetform/pkg/forms/vehicle"
	"github.com/goliatone/go-fleetform/pkg/liferay"
	"github.com/goliatone/go-fleetform/pkg/listquery"
	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/logging/gologger"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
	"github.com/goliatone/go-fleetform/pkg/options"
	"github.com/goliatone/go-fleetform/pkg/payload"
	"github.com/goliatone/go-fleetform/pkg/render"
)

const (
	cacheBackendMemory = "memory"
	cacheBackendRedis  = "redis"
)

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithLoggerProvider replaces the go-logger provider built from the logging
// config.
func WithLoggerProvider(provider logging.Provider) Option {
	return func(o *Orchestrator) {
		o.provider = provider
	}
}

// WithClient injects a portal client instead of building one from BaseURL.
func WithClient(client *liferay.Client) Option {
	return func(o *Orchestrator) {
		o.client = client
	}
}

// WithHTTPClient sets the transport used by the default portal client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Orchestrator) {
		o.httpClient = client
	}
}

// WithOptionStore replaces the option cache store selected by the cache
// config.
func WithOptionStore(store options.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithRegistry replaces the built-in form registry.
func WithRegistry(registry *forms.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithNotifier routes notices from sessions and the option cache.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = notify.OrNop(n)
	}
}

// WithClock overrides the time source handed to sessions.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// Orchestrator wires the configured backend, option cache and form registry
// into form sessions, entry listings and the picklist component.
type Orchestrator struct {
	cfg        config.Config
	provider   logging.Provider
	logger     logging.Logger
	client     *liferay.Client
	httpClient *http.Client
	store      options.Store
	cache      *options.Cache
	uploader   *liferay.Uploader
	registry   *forms.Registry
	notifier   notify.Notifier
	clock      func() time.Time
	closers    []io.Closer

	contractsMu     sync.Mutex
	contracts       map[string]*payload.Contract
	contractFetches singleflight.Group
}

// New validates cfg and builds every missing dependency from it.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Orchestrator, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:       cfg,
		notifier:  notify.Nop{},
		contracts: make(map[string]*payload.Contract),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.applyDefaults(ctx); err != nil {
		_ = o.Close()
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) applyDefaults(ctx context.Context) error {
	if o.provider == nil {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     o.cfg.Logging.Level,
			Format:    o.cfg.Logging.Format,
			AddSource: o.cfg.Logging.AddSource,
			Focus:     o.cfg.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("orchestrator: logger: %w", err)
		}
		o.provider = provider
	}
	o.logger = logging.ModuleLogger(o.provider, "orchestrator")

	if o.client == nil {
		clientOpts := []liferay.Option{
			liferay.WithTimeout(o.cfg.Timeout),
			liferay.WithLogger(logging.ModuleLogger(o.provider, "liferay")),
		}
		if o.httpClient != nil {
			clientOpts = append(clientOpts, liferay.WithHTTPClient(o.httpClient))
		}
		switch {
		case o.cfg.Auth.Token != "":
			clientOpts = append(clientOpts, liferay.WithToken(o.cfg.Auth.Token))
		case o.cfg.Auth.Username != "":
			clientOpts = append(clientOpts, liferay.WithBasicAuth(o.cfg.Auth.Username, o.cfg.Auth.Password))
		}
		client, err := liferay.New(o.cfg.BaseURL, clientOpts...)
		if err != nil {
			return err
		}
		o.client = client
	}

	if o.store == nil {
		switch strings.ToLower(strings.TrimSpace(o.cfg.Cache.Backend)) {
		case cacheBackendRedis:
			store, err := options.NewRedisStore(ctx, o.cfg.Cache.RedisURL, o.cfg.Cache.Prefix, o.cfg.Cache.TTL)
			if err != nil {
				return fmt.Errorf("orchestrator: option cache: %w", err)
			}
			o.store = store
			o.closers = append(o.closers, store)
		default:
			o.store = options.NewMemoryStore()
		}
	}
	o.cache = options.NewCache(o.client,
		options.WithStore(o.store),
		options.WithNotifier(o.notifier),
		options.WithLogger(logging.ModuleLogger(o.provider, "options")),
	)
	o.uploader = liferay.NewUploader(o.client, o.cfg.Uploads.FolderFor)

	if o.registry == nil {
		o.registry = forms.NewRegistry()
		vehicle.Register(o.registry)
		driver.Register(o.registry)
	}
	return nil
}

// Config returns the validated configuration.
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// Client returns the portal client.
func (o *Orchestrator) Client() *liferay.Client {
	return o.client
}

// Options returns the shared option cache.
func (o *Orchestrator) Options() *options.Cache {
	return o.cache
}

// Forms lists the registered form names.
func (o *Orchestrator) Forms() []string {
	return o.registry.Names()
}

// Blueprint builds the named form under the configured policy.
func (o *Orchestrator) Blueprint(name string) (forms.Blueprint, error) {
	return o.registry.Build(name, o.cfg.Policy)
}

// Collection returns the backend collection the named form persists to.
func (o *Orchestrator) Collection(name string, blueprint forms.Blueprint) string {
	switch name {
	case vehicle.Name:
		if o.cfg.Collections.Vehicles != "" {
			return o.cfg.Collections.Vehicles
		}
	case driver.Name:
		if o.cfg.Collections.Drivers != "" {
			return o.cfg.Collections.Drivers
		}
	}
	return blueprint.Definition.Collection
}

// Session mounts the named form for host. In edit mode the record is loaded
// before the session is returned.
func (o *Orchestrator) Session(ctx context.Context, name string, host model.Host, extra ...form.Option) (*form.Session, error) {
	blueprint, err := o.Blueprint(name)
	if err != nil {
		return nil, err
	}
	if host.Locale == "" {
		host.Locale = o.cfg.Locales.Default
	}
	collection := o.Collection(name, blueprint)

	opts := []form.Option{
		form.WithBackend(o.client),
		form.WithUploader(o.uploader),
		form.WithOptionSource(o.cache),
		form.WithNotifier(o.notifier),
		form.WithLogger(logging.ModuleLogger(o.provider, "form")),
		form.WithCollection(collection),
		form.WithLocales(o.cfg.Locales.Shadow...),
		form.WithThresholdDays(o.cfg.Policy.AboutToExpireDays),
	}
	if o.clock != nil {
		opts = append(opts, form.WithClock(o.clock))
	}
	if o.cfg.Contracts.Enabled {
		if contract := o.contract(ctx, collection); contract != nil {
			opts = append(opts, form.WithContract(contract))
		}
	}
	opts = append(opts, extra...)

	session, err := form.New(blueprint, host, opts...)
	if err != nil {
		return nil, err
	}
	if err := session.Load(ctx); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

// contract loads and memoises the payload contract of collection. A missing
// or invalid document disables the check for that collection. Concurrent
// mounts of one collection share a single fetch; other collections are not
// held up by it.
func (o *Orchestrator) contract(ctx context.Context, collection string) *payload.Contract {
	if contract, ok := o.cachedContract(collection); ok {
		return contract
	}
	v, _, _ := o.contractFetches.Do(collection, func() (any, error) {
		if contract, ok := o.cachedContract(collection); ok {
			return contract, nil
		}
		var contract *payload.Contract
		raw, err := o.client.OpenAPIDocument(ctx, collection)
		if err == nil {
			contract, err = payload.LoadContract(ctx, raw, liferay.ObjectPath(collection))
		}
		if err != nil {
			o.logger.Warn("payload contract unavailable", "collection", collection, "error", err)
			if ctx.Err() != nil {
				return (*payload.Contract)(nil), nil
			}
		}
		o.contractsMu.Lock()
		o.contracts[collection] = contract
		o.contractsMu.Unlock()
		return contract, nil
	})
	contract, _ := v.(*payload.Contract)
	return contract
}

func (o *Orchestrator) cachedContract(collection string) (*payload.Contract, bool) {
	o.contractsMu.Lock()
	defer o.contractsMu.Unlock()
	contract, ok := o.contracts[collection]
	return contract, ok
}

// Entries reads one page of the named form's collection and lays it out as a
// table of the blueprint's list columns.
func (o *Orchestrator) Entries(ctx context.Context, name string, state listquery.State, locale string) (render.Table, error) {
	blueprint, err := o.Blueprint(name)
	if err != nil {
		return render.Table{}, err
	}
	state = state.Normalize()
	page, err := o.client.ListEntries(ctx, o.Collection(name, blueprint), state)
	if err != nil {
		return render.Table{}, err
	}
	if locale == "" {
		locale = o.cfg.Locales.Default
	}
	return render.BuildTable(render.TableInput{
		Title:      blueprint.Definition.Name,
		Definition: blueprint.Definition,
		Builder:    blueprint.Builder(),
		Columns:    blueprint.Columns,
		Page:       page,
		State:      state,
		Locale:     locale,
	}), nil
}

// Picklists returns the picklist search component served from the option
// cache. fns apply after the configured defaults.
func (o *Orchestrator) Picklists(fns ...picklists.OptionFn) *picklists.Component {
	all := []picklists.OptionFn{
		picklists.WithSource(o.cache),
		picklists.WithLogger(logging.ModuleLogger(o.provider, "picklists")),
	}
	if o.cfg.Server.Route != "" {
		all = append(all, picklists.WithRoutePath(o.cfg.Server.Route))
	}
	if o.cfg.Locales.Default != "" {
		all = append(all, picklists.WithDefaultLocale(o.cfg.Locales.Default))
	}
	if o.cfg.Server.Limit > 0 {
		all = append(all, picklists.WithDefaultLimit(o.cfg.Server.Limit))
	}
	return picklists.New(append(all, fns...)...)
}

// Close releases the cache connection.
func (o *Orchestrator) Close() error {
	var errs []error
	for _, closer := range o.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	return errors.Join(errs...)
}
