package memory

import (
	"context"
	"sort"
	"time"

	roomserrors "cabins/internal/rooms/errors"
	"cabins/pkg/model"
)

type roomRepository struct {
	store *Store
}

func (r *roomRepository) Get(ctx context.Context, id string) (*model.Room, error) {
	var out *model.Room
	err := r.store.locked(ctx, func(st *state) error {
		room, ok := st.rooms[id]
		if !ok {
			return roomserrors.ErrNotFound
		}
		out = &room
		return nil
	})
	return out, err
}

func (r *roomRepository) ListActive(ctx context.Context, minCapacity int) ([]*model.Room, error) {
	var out []*model.Room
	err := r.store.locked(ctx, func(st *state) error {
		for _, room := range st.rooms {
			if room.IsActive && room.Capacity >= minCapacity {
				room := room
				out = append(out, &room)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *roomRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.store.locked(ctx, func(st *state) error {
		for id := range st.rooms {
			ids = append(ids, id)
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

func (r *roomRepository) Save(ctx context.Context, room *model.Room) error {
	return r.store.locked(ctx, func(st *state) error {
		now := time.Now().UTC()
		if room.CreatedAt.IsZero() {
			room.CreatedAt = now
		}
		room.UpdatedAt = now
		st.rooms[room.ID] = *room
		return nil
	})
}
