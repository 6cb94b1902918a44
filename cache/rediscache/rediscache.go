// Package rediscache provides a Redis-backed fetch.Cache.
//
// Values are serialized with a pluggable Codec (JSON by default) and
// stored under "<prefix><source>:<identity>". The cache is value-like by
// construction: its state lives in Redis, so Insert returns the receiver.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	fetch "github.com/fetch-fn/fetch-go"
)

// Client is the slice of the go-redis API the cache needs. *redis.Client,
// *redis.ClusterClient and redis.UniversalClient all satisfy it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Codec converts cached values to and from their stored form. JSON is the
// default; note that encoding/json round-trips numbers as float64, so
// callers with typed identities or values usually supply their own.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// JSONCodec stores values as JSON.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte) (any, error) {
	var v any
	err := json.Unmarshal(data, &v)
	return v, err
}

// Cache is a fetch.Cache storing results in Redis.
type Cache struct {
	client Client
	codec  Codec
	prefix string
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix sets the key prefix. Default "fetch:".
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithTTL sets an expiration on stored values. Zero (the default) stores
// without expiration.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithCodec sets the value codec. Default JSONCodec.
func WithCodec(codec Codec) Option {
	return func(c *Cache) {
		c.codec = codec
	}
}

// New creates a Redis-backed cache over the given client.
func New(client Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		codec:  JSONCodec{},
		prefix: "fetch:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup implements fetch.Cache. A redis.Nil reply is a miss.
func (c *Cache) Lookup(ctx context.Context, key fetch.Key) (any, bool, error) {
	raw, err := c.client.Get(ctx, c.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rediscache: lookup %v: %w", key, err)
	}

	val, err := c.codec.Unmarshal([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("rediscache: decode %v: %w", key, err)
	}
	return val, true, nil
}

// Insert implements fetch.Cache.
func (c *Cache) Insert(ctx context.Context, key fetch.Key, val any) (fetch.Cache, error) {
	data, err := c.codec.Marshal(val)
	if err != nil {
		return c, fmt.Errorf("rediscache: encode %v: %w", key, err)
	}
	if err := c.client.Set(ctx, c.redisKey(key), data, c.ttl).Err(); err != nil {
		return c, fmt.Errorf("rediscache: insert %v: %w", key, err)
	}
	return c, nil
}

func (c *Cache) redisKey(key fetch.Key) string {
	return fmt.Sprintf("%s%s:%v", c.prefix, key.Source, key.ID)
}
