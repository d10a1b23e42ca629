//go:build integration

package repository

import (
	"context"
	"testing"

	calendarerrors "cabins/internal/calendar/errors"
	"cabins/internal/testutil/mongotest"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	"cabins/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

var june = days.NewRange(days.New(2024, 6, 1), days.New(2024, 6, 11))

func seed(t *testing.T, repo CalendarRepository, roomID string) {
	t.Helper()
	cells := make([]model.CalendarCell, 0, june.Nights())
	for _, d := range june.Days() {
		cells = append(cells, model.NewCell(roomID, d, "", false))
	}
	n, err := repo.SetMany(context.Background(), cells)
	require.NoError(t, err)
	require.EqualValues(t, june.Nights(), n)
}

func TestMongoCalendar(t *testing.T) {
	cfg := mongotest.Setup(t)
	repo := NewMongoCalendarRepository(cfg)
	ctx := context.Background()
	seed(t, repo, "A")
	seed(t, repo, "B")

	t.Run("get missing cell", func(t *testing.T) {
		_, err := repo.Get(ctx, "A", days.New(2025, 1, 1))
		assert.ErrorIs(t, err, calendarerrors.ErrCellNotFound)
	})

	t.Run("set many is idempotent", func(t *testing.T) {
		n, err := repo.SetMany(ctx, []model.CalendarCell{model.NewCell("A", june.From, "", false)})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("allocate all or count short", func(t *testing.T) {
		first := days.NewRange(days.New(2024, 6, 1), days.New(2024, 6, 6)).Days()
		n, err := repo.Allocate(ctx, "A", first, "r1")
		require.NoError(t, err)
		assert.EqualValues(t, 5, n)

		overlap := days.NewRange(days.New(2024, 6, 4), days.New(2024, 6, 9)).Days()
		n, err = repo.Allocate(ctx, "A", overlap, "r2")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		cell, err := repo.Get(ctx, "A", days.New(2024, 6, 4))
		require.NoError(t, err)
		assert.Equal(t, "r1", cell.ReservationID)
		assert.False(t, cell.Available)
	})

	t.Run("release keeps blocked unavailable", func(t *testing.T) {
		d := days.New(2024, 6, 2)
		_, err := repo.SetBlocked(ctx, "A", []days.Day{d}, true)
		require.NoError(t, err)

		n, err := repo.Release(ctx, "A", []days.Day{d, days.New(2024, 6, 3)}, "r1")
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		blocked, err := repo.Get(ctx, "A", d)
		require.NoError(t, err)
		assert.Equal(t, "", blocked.ReservationID)
		assert.True(t, blocked.Blocked)
		assert.False(t, blocked.Available)

		free, err := repo.Get(ctx, "A", days.New(2024, 6, 3))
		require.NoError(t, err)
		assert.True(t, free.Available)
	})

	t.Run("release ignores other owners", func(t *testing.T) {
		n, err := repo.Release(ctx, "A", []days.Day{days.New(2024, 6, 4)}, "r2")
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("set blocked creates missing cells", func(t *testing.T) {
		d := days.New(2024, 8, 1)
		n, err := repo.SetBlocked(ctx, "B", []days.Day{d}, false)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		cell, err := repo.Get(ctx, "B", d)
		require.NoError(t, err)
		assert.True(t, cell.Available)
		assert.False(t, cell.Blocked)
	})

	t.Run("block keeps owner", func(t *testing.T) {
		d := days.New(2024, 6, 5)
		_, err := repo.SetBlocked(ctx, "A", []days.Day{d}, true)
		require.NoError(t, err)
		_, err = repo.SetBlocked(ctx, "A", []days.Day{d}, false)
		require.NoError(t, err)

		cell, err := repo.Get(ctx, "A", d)
		require.NoError(t, err)
		assert.Equal(t, "r1", cell.ReservationID)
		assert.False(t, cell.Available)
	})

	t.Run("count available", func(t *testing.T) {
		counts, err := repo.CountAvailable(ctx, []string{"A", "B", "C"}, june)
		require.NoError(t, err)
		assert.Equal(t, 10, counts["B"])
		assert.Equal(t, 0, counts["C"])
		// 3, 9 and 10 are free. 2 is blocked, the rest are owned.
		assert.Equal(t, 3, counts["A"])
	})

	t.Run("range is ordered and half open", func(t *testing.T) {
		cells, err := repo.GetRange(ctx, "B", days.NewRange(days.New(2024, 6, 3), days.New(2024, 6, 6)))
		require.NoError(t, err)
		require.Len(t, cells, 3)
		assert.True(t, cells[0].Date.Equal(days.New(2024, 6, 3)))
		assert.True(t, cells[2].Date.Equal(days.New(2024, 6, 5)))
	})
}

func TestMongoCalendar_UniqueCell(t *testing.T) {
	cfg := mongotest.Setup(t)
	coll := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CellsCollectionName)
	ctx := context.Background()

	cell := model.NewCell("A", june.From, "", false)
	_, err := coll.InsertOne(ctx, cell)
	require.NoError(t, err)
	_, err = coll.InsertOne(ctx, cell)
	assert.True(t, mongo.IsDuplicateKeyError(err), "got %v", err)
}

func TestMongoCalendar_TransactionRollsBack(t *testing.T) {
	cfg := mongotest.Setup(t)
	repo := NewMongoCalendarRepository(cfg)
	tx := mongotx.NewTransactionManager(cfg.Client.Mongo)
	ctx := context.Background()
	seed(t, repo, "A")

	ds := days.NewRange(days.New(2024, 6, 1), days.New(2024, 6, 6)).Days()
	err := tx.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		n, err := repo.Allocate(txCtx, "A", ds, "r1")
		require.NoError(t, err)
		require.EqualValues(t, 5, n)
		return calendarerrors.ErrCellNotFound
	})
	require.ErrorIs(t, err, calendarerrors.ErrCellNotFound)

	counts, err := repo.CountAvailable(ctx, []string{"A"}, june)
	require.NoError(t, err)
	assert.Equal(t, 10, counts["A"])
}

func TestMongoBlocks(t *testing.T) {
	cfg := mongotest.Setup(t)
	repo := NewMongoBlockRepository(cfg)
	ctx := context.Background()

	blocks := []model.ManualBlock{
		{RoomID: "A", Date: days.New(2024, 6, 2), Reason: "paint", CreatedBy: "admin-1"},
		{RoomID: "A", Date: days.New(2024, 6, 3), Reason: "paint", CreatedBy: "admin-1"},
	}
	n, err := repo.Add(ctx, blocks)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.Add(ctx, blocks[:1])
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	found, err := repo.FindRange(ctx, "A", june)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "paint", found[0].Reason)
	assert.False(t, found[0].CreatedAt.IsZero())

	n, err = repo.Remove(ctx, "A", []days.Day{days.New(2024, 6, 2), days.New(2024, 6, 9)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
