//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	reservationserrors "cabins/internal/reservations/errors"
	"cabins/internal/testutil/mongotest"
	"cabins/pkg/days"
	"cabins/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newReservation(requester string, in days.Day, nights int, status model.ReservationStatus) *model.Reservation {
	return &model.Reservation{
		RoomID:          "A",
		RequesterID:     requester,
		CheckIn:         in,
		CheckOut:        in.AddDays(nights),
		Nights:          nights,
		PartySize:       2,
		TotalPriceCents: int64(nights) * 10000,
		Status:          status,
	}
}

func TestMongoReservations(t *testing.T) {
	cfg := mongotest.Setup(t)
	repo := NewMongoReservationRepository(cfg)
	ctx := context.Background()

	late := newReservation("u1", days.New(2024, 6, 20), 5, model.StatusConfirmed)
	early := newReservation("u1", days.New(2024, 6, 1), 5, model.StatusConfirmed)
	other := newReservation("u2", days.New(2024, 6, 3), 5, model.StatusCancelled)
	for _, r := range []*model.Reservation{late, early, other} {
		require.NoError(t, repo.Create(ctx, r))
		require.True(t, primitive.IsValidObjectID(r.ID))
	}

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, early.ID)
		require.NoError(t, err)
		assert.True(t, got.CheckIn.Equal(early.CheckIn))
		assert.Equal(t, model.StatusConfirmed, got.Status)

		_, err = repo.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, reservationserrors.ErrInvalidID)
		_, err = repo.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, reservationserrors.ErrNotFound)
	})

	t.Run("list is ordered by check in", func(t *testing.T) {
		list, err := repo.FindAll(ctx, "u1", 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, early.ID, list[0].ID)

		n, err := repo.Count(ctx, "")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("active overlap ignores cancelled", func(t *testing.T) {
		found, err := repo.FindActiveOverlapping(ctx, "A", days.NewRange(days.New(2024, 6, 4), days.New(2024, 6, 21)))
		require.NoError(t, err)
		require.Len(t, found, 2)

		found, err = repo.FindActiveOverlapping(ctx, "A", days.NewRange(days.New(2024, 6, 6), days.New(2024, 6, 20)))
		require.NoError(t, err)
		assert.Empty(t, found, "ranges are half open")
	})

	t.Run("update", func(t *testing.T) {
		cancelledAt := time.Now().UTC().Truncate(time.Millisecond)
		late.Status = model.StatusCancelled
		late.CancelledAt = &cancelledAt
		require.NoError(t, repo.Update(ctx, late))

		got, err := repo.FindByID(ctx, late.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		require.NotNil(t, got.CancelledAt)
		assert.True(t, got.CancelledAt.Equal(cancelledAt))

		missing := newReservation("u1", days.New(2024, 9, 1), 5, model.StatusConfirmed)
		missing.ID = primitive.NewObjectID().Hex()
		assert.ErrorIs(t, repo.Update(ctx, missing), reservationserrors.ErrNotFound)
	})
}
