//go:build integration

package service

import (
	"context"
	"testing"

	"cabins/internal/store"
	"cabins/internal/testutil/mongotest"
	"cabins/pkg/days"
	"cabins/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoReconcile(t *testing.T) {
	cfg := mongotest.Setup(t)
	stores := store.Open(cfg)
	ctx := context.Background()

	require.NoError(t, stores.Rooms.Save(ctx, &model.Room{ID: "A", RoomNumber: "1", Capacity: 4, PricePerNightCents: 1000, IsActive: true}))

	first := reservation("", "A", "2024-06-01", "2024-06-06", model.StatusConfirmed, day("2024-01-01").Time())
	require.NoError(t, stores.Reservations.Create(ctx, &first))
	second := reservation("", "A", "2024-06-04", "2024-06-09", model.StatusConfirmed, day("2024-01-02").Time())
	require.NoError(t, stores.Reservations.Create(ctx, &second))
	cancelled := reservation("", "A", "2024-06-09", "2024-06-11", model.StatusCancelled, day("2024-01-03").Time())
	require.NoError(t, stores.Reservations.Create(ctx, &cancelled))

	_, err := stores.Blocks.Add(ctx, []model.ManualBlock{{RoomID: "A", Date: day("2024-06-10"), Reason: "repair"}})
	require.NoError(t, err)

	reconciler := NewReconciler(stores.Tx, stores.Rooms, stores.Reservations, stores.Calendar, stores.Blocks, cfg)
	horizon := days.NewRange(day("2024-06-01"), day("2024-06-15"))

	report, err := reconciler.Reconcile(ctx, nil, horizon.From, horizon.To)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RoomsExamined)
	assert.Equal(t, 14, report.Created)
	require.Len(t, report.Overlaps, 1)
	assert.Equal(t, first.ID, report.Overlaps[0].Winner)
	assert.Equal(t, second.ID, report.Overlaps[0].Loser)

	cells, err := stores.Calendar.GetRange(ctx, "A", horizon)
	require.NoError(t, err)
	require.Len(t, cells, 14)
	assert.Equal(t, first.ID, cells[4].ReservationID)
	assert.Equal(t, second.ID, cells[6].ReservationID)
	assert.True(t, cells[8].Available)
	assert.True(t, cells[9].Blocked)
	assert.False(t, cells[9].Available)

	again, err := reconciler.Reconcile(ctx, nil, horizon.From, horizon.To)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Writes())
	assert.Equal(t, 14, again.Unchanged)
}
