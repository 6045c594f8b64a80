package dictionary

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// MemoryCache keeps the most recently used dictionaries in process.
type MemoryCache struct {
	lru *expirable.LRU[string, Entry]
}

// NewMemoryCache returns a cache holding up to size languages for ttl (0 keeps them until evicted).
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 16
	}
	return &MemoryCache{lru: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, lang string) (Entry, bool, error) {
	entry, ok := c.lru.Get(lang)
	return entry, ok, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, lang string, entry Entry) error {
	c.lru.Add(lang, entry)
	return nil
}

const redisKeyPrefix = "typist:dict:"

// RedisCache shares dictionaries between server instances. Values hold the
// file version on the first line followed by one word per line.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache returns a cache storing entries with the given TTL (0 keeps them forever).
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) key(lang string) string { return redisKeyPrefix + lang }

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, lang string) (Entry, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(lang)).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	version, words, found := strings.Cut(raw, "\n")
	if !found || words == "" {
		return Entry{}, false, nil
	}
	return Entry{Version: version, Words: strings.Split(words, "\n")}, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, lang string, entry Entry) error {
	value := entry.Version + "\n" + strings.Join(entry.Words, "\n")
	return c.rdb.Set(ctx, c.key(lang), value, c.ttl).Err()
}

// Delete drops the cached entry for lang.
func (c *RedisCache) Delete(ctx context.Context, lang string) error {
	return c.rdb.Del(ctx, c.key(lang)).Err()
}
