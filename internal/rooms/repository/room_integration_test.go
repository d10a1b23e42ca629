//go:build integration

package repository

import (
	"context"
	"testing"

	roomserrors "cabins/internal/rooms/errors"
	"cabins/internal/testutil/mongotest"
	"cabins/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoRooms(t *testing.T) {
	cfg := mongotest.Setup(t)
	repo := NewMongoRoomRepository(cfg)
	ctx := context.Background()

	for _, room := range []model.Room{
		{ID: "lake-2", RoomNumber: "2", Capacity: 6, PricePerNightCents: 20000, IsActive: true},
		{ID: "lake-1", RoomNumber: "1", Capacity: 2, PricePerNightCents: 12000, IsActive: true},
		{ID: "barn", RoomNumber: "3", Capacity: 8, PricePerNightCents: 9000, IsActive: false},
	} {
		room := room
		require.NoError(t, repo.Save(ctx, &room))
	}

	got, err := repo.Get(ctx, "lake-2")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Capacity)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.Get(ctx, "none")
	assert.ErrorIs(t, err, roomserrors.ErrNotFound)

	active, err := repo.ListActive(ctx, 3)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "lake-2", active[0].ID)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"barn", "lake-1", "lake-2"}, ids)

	got.PricePerNightCents = 25000
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.Get(ctx, "lake-2")
	require.NoError(t, err)
	assert.EqualValues(t, 25000, again.PricePerNightCents)
	assert.True(t, again.CreatedAt.Equal(got.CreatedAt))
}
