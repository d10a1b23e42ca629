package repository

import (
	"context"
	"fmt"
	"time"

	"cabins/pkg/config"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	"cabins/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BlocksCollectionName = "ManualBlocks"
)

// BlockRepository stores manual blocks, unique per (room, day).
type BlockRepository interface {
	// Add upserts blocks and returns how many were new.
	Add(ctx context.Context, blocks []model.ManualBlock) (int64, error)
	Remove(ctx context.Context, roomID string, ds []days.Day) (int64, error)
	FindRange(ctx context.Context, roomID string, r days.Range) ([]model.ManualBlock, error)
}

type mongoBlockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBlockRepository(cfg *config.Config) BlockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBlockRepository{
		cfg:        cfg,
		collection: db.Collection(BlocksCollectionName),
	}
}

func (r *mongoBlockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBlockRepository) Add(ctx context.Context, blocks []model.ManualBlock) (int64, error) {
	if len(blocks) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := now()
	writes := make([]mongo.WriteModel, 0, len(blocks))
	for _, b := range blocks {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"room_id": b.RoomID, "date": b.Date}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"reason":     b.Reason,
					"created_by": b.CreatedBy,
				},
				"$setOnInsert": bson.M{"created_at": ts},
			}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, writes)
	if err != nil {
		return 0, fmt.Errorf("failed to add manual blocks: %w", err)
	}
	return result.UpsertedCount, nil
}

func (r *mongoBlockRepository) Remove(ctx context.Context, roomID string, ds []days.Day) (int64, error) {
	if len(ds) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{
		"room_id": roomID,
		"date":    bson.M{"$in": ds},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to remove manual blocks: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoBlockRepository) FindRange(ctx context.Context, roomID string, rng days.Range) ([]model.ManualBlock, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id": roomID,
		"date":    bson.M{"$gte": rng.From, "$lt": rng.To},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read manual blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []model.ManualBlock
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode manual blocks: %w", err)
	}
	return blocks, nil
}
