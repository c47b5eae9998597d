package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// DefaultRedisTTL bounds how long a shared list stays cached.
const DefaultRedisTTL = time.Hour

// RedisStore shares cached lists across processes with a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("options: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("options: connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, prefix, ttl), nil
}

// NewRedisStoreWithClient builds a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "fleetform:options:"
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(listName string) string {
	return s.prefix + listName
}

type storedOption struct {
	Value     string              `json:"value"`
	Label     string              `json:"label"`
	LabelI18n model.LocalizedText `json:"labelI18n,omitempty"`
	Raw       map[string]any      `json:"raw,omitempty"`
}

func (s *RedisStore) Get(ctx context.Context, listName string) ([]model.Option, bool, error) {
	raw, err := s.client.Get(ctx, s.key(listName)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("options: read %q: %w", listName, err)
	}

	var stored []storedOption
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, false, fmt.Errorf("options: decode %q: %w", listName, err)
	}
	out := make([]model.Option, len(stored))
	for i, item := range stored {
		out[i] = model.Option{Value: item.Value, Label: item.Label, LabelI18n: item.LabelI18n, Raw: item.Raw}
	}
	return out, true, nil
}

func (s *RedisStore) Set(ctx context.Context, listName string, opts []model.Option) error {
	stored := make([]storedOption, len(opts))
	for i, option := range opts {
		stored[i] = storedOption{Value: option.Value, Label: option.Label, LabelI18n: option.LabelI18n, Raw: option.Raw}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("options: encode %q: %w", listName, err)
	}
	if err := s.client.Set(ctx, s.key(listName), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("options: write %q: %w", listName, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, listName string) error {
	if err := s.client.Del(ctx, s.key(listName)).Err(); err != nil {
		return fmt.Errorf("options: delete %q: %w", listName, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
