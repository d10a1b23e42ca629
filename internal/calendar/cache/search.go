// Package cache holds availability search results in Redis. Entries are
// namespaced by a generation counter; any reservation or block change bumps
// the generation, which orphans every cached search at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cabins/pkg/days"
	"cabins/pkg/logger"
	"cabins/pkg/model"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "availability:search:"
	generationKey = keyPrefix + "generation"
)

type SearchCache interface {
	GetRooms(ctx context.Context, rng days.Range, minCapacity int) ([]*model.Room, bool)
	SetRooms(ctx context.Context, rng days.Range, minCapacity int, rooms []*model.Room)
	Invalidate(ctx context.Context) error
}

type RedisSearchCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisSearchCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisSearchCache {
	return &RedisSearchCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *RedisSearchCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func searchKey(gen int64, rng days.Range, minCapacity int) string {
	return fmt.Sprintf("%s%d:%s:%s:%d", keyPrefix, gen, rng.From, rng.To, minCapacity)
}

// GetRooms never fails: a Redis error is logged and reported as a miss.
func (c *RedisSearchCache) GetRooms(ctx context.Context, rng days.Range, minCapacity int) ([]*model.Room, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn("Search cache unavailable", "operation", "generation", "error", err)
		return nil, false
	}

	data, err := c.rdb.Get(ctx, searchKey(gen, rng, minCapacity)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Search cache unavailable", "operation", "get", "error", err)
		}
		return nil, false
	}

	var rooms []*model.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		c.log.Warn("Discarding corrupt search cache entry", "error", err)
		return nil, false
	}
	return rooms, true
}

func (c *RedisSearchCache) SetRooms(ctx context.Context, rng days.Range, minCapacity int, rooms []*model.Room) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn("Search cache unavailable", "operation", "generation", "error", err)
		return
	}

	data, err := json.Marshal(rooms)
	if err != nil {
		c.log.Error("Failed to encode search cache entry", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, searchKey(gen, rng, minCapacity), data, c.ttl).Err(); err != nil {
		c.log.Warn("Search cache unavailable", "operation", "set", "error", err)
	}
}

func (c *RedisSearchCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate search cache: %w", err)
	}
	return nil
}

// Handle lets the cache subscribe to reservation events.
func (c *RedisSearchCache) Handle(ctx context.Context, event model.ReservationEvent) error {
	return c.Invalidate(ctx)
}
