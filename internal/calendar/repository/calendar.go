package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendarerrors "cabins/internal/calendar/errors"
	"cabins/pkg/config"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	"cabins/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CellsCollectionName = "CalendarCells"
)

// CalendarRepository stores one cell per (room, day). Every method joins the
// caller's transaction when ctx carries one.
type CalendarRepository interface {
	Get(ctx context.Context, roomID string, day days.Day) (*model.CalendarCell, error)
	// GetRange returns the existing cells of [r.From, r.To) ordered by date.
	// Days without a cell are absent from the result.
	GetRange(ctx context.Context, roomID string, r days.Range) ([]model.CalendarCell, error)
	// SetMany upserts each cell to exactly the given state and returns how
	// many documents were inserted or changed.
	SetMany(ctx context.Context, cells []model.CalendarCell) (int64, error)
	// Allocate flips available cells to owned by reservationID. The update is
	// conditioned on available == true, so the count is lower than len(ds)
	// when any day is taken, blocked or missing.
	Allocate(ctx context.Context, roomID string, ds []days.Day, reservationID string) (int64, error)
	// Release clears ownership of the cells held by reservationID. Blocked
	// cells stay unavailable.
	Release(ctx context.Context, roomID string, ds []days.Day, reservationID string) (int64, error)
	// SetBlocked sets the manual-block flag, creating missing cells.
	SetBlocked(ctx context.Context, roomID string, ds []days.Day, blocked bool) (int64, error)
	// CountAvailable counts available cells in r per room.
	CountAvailable(ctx context.Context, roomIDs []string, r days.Range) (map[string]int, error)
}

type mongoCalendarRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCalendarRepository(cfg *config.Config) CalendarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCalendarRepository{
		cfg:        cfg,
		collection: db.Collection(CellsCollectionName),
	}
}

func (r *mongoCalendarRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *mongoCalendarRepository) Get(ctx context.Context, roomID string, day days.Day) (*model.CalendarCell, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var cell model.CalendarCell
	err := r.collection.FindOne(ctx, bson.M{"room_id": roomID, "date": day}).Decode(&cell)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, calendarerrors.ErrCellNotFound
		}
		return nil, fmt.Errorf("failed to find calendar cell: %w", err)
	}
	return &cell, nil
}

func (r *mongoCalendarRepository) GetRange(ctx context.Context, roomID string, rng days.Range) ([]model.CalendarCell, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id": roomID,
		"date":    bson.M{"$gte": rng.From, "$lt": rng.To},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar range: %w", err)
	}
	defer cursor.Close(ctx)

	var cells []model.CalendarCell
	if err = cursor.All(ctx, &cells); err != nil {
		return nil, fmt.Errorf("failed to decode calendar cells: %w", err)
	}
	return cells, nil
}

func (r *mongoCalendarRepository) SetMany(ctx context.Context, cells []model.CalendarCell) (int64, error) {
	if len(cells) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := now()
	writes := make([]mongo.WriteModel, 0, len(cells))
	for _, c := range cells {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"room_id": c.RoomID, "date": c.Date}).
			SetUpdate(bson.M{"$set": bson.M{
				"available":      c.ReservationID == "" && !c.Blocked,
				"reservation_id": c.ReservationID,
				"blocked":        c.Blocked,
				"updated_at":     ts,
			}}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("failed to write calendar cells: %w", err)
	}
	return result.UpsertedCount + result.ModifiedCount, nil
}

func (r *mongoCalendarRepository) Allocate(ctx context.Context, roomID string, ds []days.Day, reservationID string) (int64, error) {
	if len(ds) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":   roomID,
		"date":      bson.M{"$in": ds},
		"available": true,
	}
	update := bson.M{"$set": bson.M{
		"available":      false,
		"reservation_id": reservationID,
		"updated_at":     now(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate calendar cells: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoCalendarRepository) Release(ctx context.Context, roomID string, ds []days.Day, reservationID string) (int64, error) {
	if len(ds) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":        roomID,
		"date":           bson.M{"$in": ds},
		"reservation_id": reservationID,
	}
	// Pipeline form so available is derived from the stored blocked flag.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reservation_id": "",
			"available":      bson.M{"$not": bson.A{bson.M{"$ifNull": bson.A{"$blocked", false}}}},
			"updated_at":     now(),
		}}},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to release calendar cells: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoCalendarRepository) SetBlocked(ctx context.Context, roomID string, ds []days.Day, blocked bool) (int64, error) {
	if len(ds) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := now()
	owner := bson.M{"$ifNull": bson.A{"$reservation_id", ""}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reservation_id": owner,
			"blocked":        blocked,
			"available":      bson.M{"$and": bson.A{!blocked, bson.M{"$eq": bson.A{owner, ""}}}},
			"updated_at":     ts,
		}}},
	}

	writes := make([]mongo.WriteModel, 0, len(ds))
	for _, d := range ds {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"room_id": roomID, "date": d}).
			SetUpdate(update).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("failed to set calendar blocks: %w", err)
	}
	return result.UpsertedCount + result.ModifiedCount, nil
}

func (r *mongoCalendarRepository) CountAvailable(ctx context.Context, roomIDs []string, rng days.Range) (map[string]int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	counts := make(map[string]int, len(roomIDs))
	if len(roomIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"room_id":   bson.M{"$in": roomIDs},
			"date":      bson.M{"$gte": rng.From, "$lt": rng.To},
			"available": true,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$room_id",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count available cells: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		RoomID string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode availability counts: %w", err)
	}
	for _, row := range rows {
		counts[row.RoomID] = row.Count
	}
	return counts, nil
}
