package cache

import (
	"context"
	"testing"
	"time"

	"cabins/pkg/days"
	"cabins/pkg/logger"
	"cabins/pkg/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisSearchCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSearchCache(rdb, time.Minute, logger.Discard()), mr
}

func testRange() days.Range {
	from, _ := days.Parse("2024-06-01")
	return days.NewRange(from, from.AddDays(5))
}

func TestSearchCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	rng := testRange()

	_, ok := c.GetRooms(ctx, rng, 2)
	assert.False(t, ok)

	rooms := []*model.Room{{ID: "A", Capacity: 2}, {ID: "B", Capacity: 4}}
	c.SetRooms(ctx, rng, 2, rooms)

	got, ok := c.GetRooms(ctx, rng, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, []string{got[0].ID, got[1].ID})

	_, ok = c.GetRooms(ctx, rng, 3)
	assert.False(t, ok, "capacity is part of the key")
}

func TestSearchCache_EmptyResultIsCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetRooms(ctx, testRange(), 1, []*model.Room{})
	got, ok := c.GetRooms(ctx, testRange(), 1)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestSearchCache_EventInvalidates(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetRooms(ctx, testRange(), 1, []*model.Room{{ID: "A"}})
	require.NoError(t, c.Handle(ctx, model.ReservationEvent{Type: model.EventReservationCreated}))

	_, ok := c.GetRooms(ctx, testRange(), 1)
	assert.False(t, ok)
}

func TestSearchCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetRooms(ctx, testRange(), 1, []*model.Room{{ID: "A"}})
	mr.FastForward(2 * time.Minute)

	_, ok := c.GetRooms(ctx, testRange(), 1)
	assert.False(t, ok)
}

func TestSearchCache_RedisDownIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	c.SetRooms(ctx, testRange(), 1, []*model.Room{{ID: "A"}})
	_, ok := c.GetRooms(ctx, testRange(), 1)
	assert.False(t, ok)
	assert.Error(t, c.Invalidate(ctx))
}
