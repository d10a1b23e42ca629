// Package mongo creates the collections, schema validators and indexes the
// repositories rely on. It is safe to run repeatedly.
package mongo

import (
	"context"
	"fmt"

	"cabins/internal/calendar/repository"
	"cabins/internal/migrations/mongo/validators"
	reservationrepo "cabins/internal/reservations/repository"
	roomrepo "cabins/internal/rooms/repository"
	"cabins/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "check_in", Value: 1},
			{Key: "check_out", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "requester_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	// One cell per room and day is what makes a double allocation a
	// write conflict instead of a second document.
	CalendarCellsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("room_date_unique"),
		},
		{Keys: bson.D{
			{Key: "date", Value: 1},
			{Key: "available", Value: 1},
		}},
		{Keys: bson.D{{Key: "reservation_id", Value: 1}}},
	}

	ManualBlocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("room_date_unique"),
		},
	}

	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "is_active", Value: 1},
			{Key: "capacity", Value: 1},
		}},
	}
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection in creation order.
func Collections() []CollectionDef {
	return []CollectionDef{
		{Name: roomrepo.CollectionName, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
		{Name: reservationrepo.CollectionName, Indexes: ReservationsIndexes, Validator: validators.ReservationValidator},
		{Name: repository.CellsCollectionName, Indexes: CalendarCellsIndexes, Validator: validators.CalendarCellValidator},
		{Name: repository.BlocksCollectionName, Indexes: ManualBlocksIndexes, Validator: validators.ManualBlockValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
