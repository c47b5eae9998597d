// Package options memoizes picklist and reference-data lookups per list
// name. Fetch failures degrade to an empty list and a notice; they are never
// cached, so a later Get retries.
package options

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/notify"
)

// Source fetches the options of a list from the backend.
type Source interface {
	Fetch(ctx context.Context, listName string) ([]model.Option, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, listName string) ([]model.Option, error)

// Fetch delegates to the function.
func (fn SourceFunc) Fetch(ctx context.Context, listName string) ([]model.Option, error) {
	return fn(ctx, listName)
}

// Store persists fetched lists. Get reports a miss with ok=false.
type Store interface {
	Get(ctx context.Context, listName string) (opts []model.Option, ok bool, err error)
	Set(ctx context.Context, listName string, opts []model.Option) error
	Delete(ctx context.Context, listName string) error
}

// Option customises a Cache.
type Option func(*Cache)

// WithStore replaces the default in-memory store.
func WithStore(store Store) Option {
	return func(c *Cache) {
		if store != nil {
			c.store = store
		}
	}
}

// WithNotifier routes fetch-failure notices.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Cache) {
		c.notifier = notify.OrNop(n)
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.OrNoOp(logger)
	}
}

// Cache is owned by one application session; it is not a package global.
type Cache struct {
	source   Source
	store    Store
	group    singleflight.Group
	notifier notify.Notifier
	logger   logging.Logger
}

// NewCache wraps source.
func NewCache(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:   source,
		store:    NewMemoryStore(),
		notifier: notify.Nop{},
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the options of listName in backend order. Concurrent calls for
// the same list share one fetch. Failures return an empty list.
func (c *Cache) Get(ctx context.Context, listName string) []model.Option {
	listName = strings.TrimSpace(listName)
	if listName == "" {
		return []model.Option{}
	}

	if cached, ok, err := c.store.Get(ctx, listName); err != nil {
		c.logger.Warn("options.cache.read_failed", "list", listName, "error", err)
	} else if ok {
		return cloneOptions(cached)
	}

	result, err, _ := c.group.Do(listName, func() (any, error) {
		fetched, err := c.fetch(ctx, listName)
		if err != nil {
			c.logger.Warn("options.fetch_failed", "list", listName, "error", err)
			c.notifier.Notify(ctx, notify.Notice{
				Kind:    notify.KindOptionsFailed,
				Level:   notify.LevelWarning,
				Message: fmt.Sprintf("Could not load options for %s.", listName),
				Err:     err,
			})
		}
		return fetched, err
	})
	if err != nil {
		return []model.Option{}
	}
	return cloneOptions(result.([]model.Option))
}

func (c *Cache) fetch(ctx context.Context, listName string) ([]model.Option, error) {
	if c.source == nil {
		return nil, fmt.Errorf("options: no source configured")
	}
	fetched, err := c.source.Fetch(ctx, listName)
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		fetched = []model.Option{}
	}
	if err := c.store.Set(ctx, listName, fetched); err != nil {
		c.logger.Warn("options.cache.write_failed", "list", listName, "error", err)
	}
	c.logger.Debug("options.fetched", "list", listName, "count", len(fetched))
	return fetched, nil
}

// Invalidate drops a cached list so the next Get refetches.
func (c *Cache) Invalidate(ctx context.Context, listName string) error {
	return c.store.Delete(ctx, strings.TrimSpace(listName))
}

// Find resolves an option by key, fetching the list if needed.
func (c *Cache) Find(ctx context.Context, listName, value string) (model.Option, bool) {
	return model.FindOption(c.Get(ctx, listName), value)
}

func cloneOptions(in []model.Option) []model.Option {
	out := make([]model.Option, len(in))
	for i, option := range in {
		out[i] = option.Clone()
	}
	return out
}
