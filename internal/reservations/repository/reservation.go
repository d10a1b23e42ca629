package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "cabins/internal/reservations/errors"
	"cabins/pkg/config"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	"cabins/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reservations"
)

// ReservationRepository is the authoritative ledger. Reservation ids are
// ObjectID hex strings assigned by Create.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Update(ctx context.Context, reservation *model.Reservation) error
	FindAll(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error)
	Count(ctx context.Context, requesterID string) (int64, error)
	// FindActiveOverlapping returns pending and confirmed reservations on the
	// room sharing at least one day with r, oldest first.
	FindActiveOverlapping(ctx context.Context, roomID string, r days.Range) ([]*model.Reservation, error)
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout leaves a SessionContext untouched; wrapping it would detach
// the call from the transaction.
func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	if reservation.ID == "" {
		reservation.ID = primitive.NewObjectID().Hex()
	}
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var reservation model.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

func (r *mongoReservationRepository) Update(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reservation.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	set := bson.M{
		"room_id":           reservation.RoomID,
		"check_in":          reservation.CheckIn,
		"check_out":         reservation.CheckOut,
		"party_size":        reservation.PartySize,
		"nights":            reservation.Nights,
		"total_price_cents": reservation.TotalPriceCents,
		"status":            reservation.Status,
		"updated_at":        reservation.UpdatedAt,
	}
	if reservation.CancelledAt != nil {
		set["cancelled_at"] = *reservation.CancelledAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": reservation.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReservationRepository) FindAll(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "check_in", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, requesterFilter(requesterID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func (r *mongoReservationRepository) Count(ctx context.Context, requesterID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, requesterFilter(requesterID))
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) FindActiveOverlapping(ctx context.Context, roomID string, rng days.Range) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":   roomID,
		"status":    bson.M{"$in": model.ActiveStatuses},
		"check_in":  bson.M{"$lt": rng.To},
		"check_out": bson.M{"$gt": rng.From},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func requesterFilter(requesterID string) bson.M {
	if requesterID == "" {
		return bson.M{}
	}
	return bson.M{"requester_id": requesterID}
}
