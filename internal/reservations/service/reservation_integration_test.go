//go:build integration

package service

import (
	"context"
	"sync"
	"testing"

	"cabins/internal/store"
	"cabins/internal/testutil/mongotest"
	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMongoService(t *testing.T) (ReservationService, *store.Stores) {
	t.Helper()
	cfg := mongotest.Setup(t)
	stores := store.Open(cfg)
	ctx := context.Background()

	room := model.Room{ID: "R", RoomNumber: "1", Capacity: 4, PricePerNightCents: 10000, IsActive: true}
	require.NoError(t, stores.Rooms.Save(ctx, &room))

	var cells []model.CalendarCell
	for _, d := range days.NewRange(day("2024-06-01"), day("2024-08-01")).Days() {
		cells = append(cells, model.NewCell(room.ID, d, "", false))
	}
	_, err := stores.Calendar.SetMany(ctx, cells)
	require.NoError(t, err)

	svc := NewReservationService(stores.Tx, stores.Rooms, stores.Reservations, stores.Calendar, cfg)
	return svc, stores
}

func TestMongoEngine_CreateModifyCancel(t *testing.T) {
	svc, stores := newMongoService(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, u1, CreateInput{RoomID: "R", CheckIn: day("2024-06-01"), CheckOut: day("2024-06-06"), PartySize: 2})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, r.Status)
	assert.EqualValues(t, 50000, r.TotalPriceCents)

	_, err = svc.Create(ctx, u2, CreateInput{RoomID: "R", CheckIn: day("2024-06-05"), CheckOut: day("2024-06-10"), PartySize: 2})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)

	checkOut := day("2024-06-08")
	modified, err := svc.Modify(ctx, u1, r.ID, Patch{CheckOut: &checkOut})
	require.NoError(t, err)
	assert.Equal(t, 7, modified.Nights)

	counts, err := stores.Calendar.CountAvailable(ctx, []string{"R"}, days.NewRange(day("2024-06-01"), day("2024-06-11")))
	require.NoError(t, err)
	assert.Equal(t, 3, counts["R"])

	res, err := svc.Cancel(ctx, u1, r.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCancelled)

	res, err = svc.Cancel(ctx, u1, r.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyCancelled)

	counts, err = stores.Calendar.CountAvailable(ctx, []string{"R"}, days.NewRange(day("2024-06-01"), day("2024-06-11")))
	require.NoError(t, err)
	assert.Equal(t, 10, counts["R"])
}

func TestMongoEngine_ConcurrentCreateNeverDoubleBooks(t *testing.T) {
	svc, stores := newMongoService(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every request overlaps 2024-06-05.
			in := day("2024-06-01").AddDays(i % 4)
			_, err := svc.Create(ctx, u1, CreateInput{RoomID: "R", CheckIn: in, CheckOut: in.AddDays(5), PartySize: 1})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict) || apperrors.HasCode(err, apperrors.CodeTransientFailure), "got %v", err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	cells, err := stores.Calendar.GetRange(ctx, "R", days.NewRange(day("2024-06-01"), day("2024-06-10")))
	require.NoError(t, err)
	owners := map[string]bool{}
	for _, c := range cells {
		if c.ReservationID != "" {
			owners[c.ReservationID] = true
		}
	}
	assert.Len(t, owners, 1)
}
