package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	reservationserrors "cabins/internal/reservations/errors"
	"cabins/pkg/days"
	"cabins/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reservationRepository struct {
	store *Store
}

func (r *reservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.store.locked(ctx, func(st *state) error {
		if reservation.ID == "" {
			reservation.ID = primitive.NewObjectID().Hex()
		}
		if _, exists := st.reservations[reservation.ID]; exists {
			return fmt.Errorf("failed to create reservation: duplicate id %s", reservation.ID)
		}
		now := time.Now().UTC()
		reservation.CreatedAt = now
		reservation.UpdatedAt = now
		st.reservations[reservation.ID] = *reservation
		return nil
	})
}

func (r *reservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}
	var out *model.Reservation
	err := r.store.locked(ctx, func(st *state) error {
		res, ok := st.reservations[id]
		if !ok {
			return reservationserrors.ErrNotFound
		}
		out = &res
		return nil
	})
	return out, err
}

func (r *reservationRepository) Update(ctx context.Context, reservation *model.Reservation) error {
	return r.store.locked(ctx, func(st *state) error {
		existing, ok := st.reservations[reservation.ID]
		if !ok {
			return reservationserrors.ErrNotFound
		}
		reservation.CreatedAt = existing.CreatedAt
		reservation.RequesterID = existing.RequesterID
		reservation.UpdatedAt = time.Now().UTC()
		st.reservations[reservation.ID] = *reservation
		return nil
	})
}

func (r *reservationRepository) FindAll(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error) {
	var all []*model.Reservation
	err := r.store.locked(ctx, func(st *state) error {
		all = filterReservations(st, func(res *model.Reservation) bool {
			return requesterID == "" || res.RequesterID == requesterID
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CheckIn.Equal(all[j].CheckIn) {
			return all[i].CheckIn.Before(all[j].CheckIn)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= int64(len(all)) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *reservationRepository) Count(ctx context.Context, requesterID string) (int64, error) {
	var n int64
	err := r.store.locked(ctx, func(st *state) error {
		for _, res := range st.reservations {
			if requesterID == "" || res.RequesterID == requesterID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *reservationRepository) FindActiveOverlapping(ctx context.Context, roomID string, rng days.Range) ([]*model.Reservation, error) {
	var out []*model.Reservation
	err := r.store.locked(ctx, func(st *state) error {
		out = filterReservations(st, func(res *model.Reservation) bool {
			return res.RoomID == roomID && res.IsActive() && res.Range().Overlaps(rng)
		})
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func filterReservations(st *state, keep func(*model.Reservation) bool) []*model.Reservation {
	var out []*model.Reservation
	for _, res := range st.reservations {
		res := res
		if keep(&res) {
			out = append(out, &res)
		}
	}
	return out
}
