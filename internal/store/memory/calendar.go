package memory

import (
	"context"
	"sort"
	"time"

	calendarerrors "cabins/internal/calendar/errors"
	"cabins/pkg/days"
	"cabins/pkg/model"
)

type calendarRepository struct {
	store *Store
}

func (r *calendarRepository) Get(ctx context.Context, roomID string, day days.Day) (*model.CalendarCell, error) {
	var out *model.CalendarCell
	err := r.store.locked(ctx, func(st *state) error {
		cell, ok := st.cells[cellKey{roomID, day}]
		if !ok {
			return calendarerrors.ErrCellNotFound
		}
		out = &cell
		return nil
	})
	return out, err
}

func (r *calendarRepository) GetRange(ctx context.Context, roomID string, rng days.Range) ([]model.CalendarCell, error) {
	var out []model.CalendarCell
	err := r.store.locked(ctx, func(st *state) error {
		for _, d := range rng.Days() {
			if cell, ok := st.cells[cellKey{roomID, d}]; ok {
				out = append(out, cell)
			}
		}
		return nil
	})
	return out, err
}

func (r *calendarRepository) SetMany(ctx context.Context, cells []model.CalendarCell) (int64, error) {
	var n int64
	err := r.store.locked(ctx, func(st *state) error {
		now := time.Now().UTC()
		for _, c := range cells {
			next := model.NewCell(c.RoomID, c.Date, c.ReservationID, c.Blocked)
			next.UpdatedAt = now
			key := cellKey{c.RoomID, c.Date}
			if existing, ok := st.cells[key]; ok && existing.SameState(next) {
				continue
			}
			st.cells[key] = next
			n++
		}
		r.store.cellWrites += n
		return nil
	})
	return n, err
}

func (r *calendarRepository) Allocate(ctx context.Context, roomID string, ds []days.Day, reservationID string) (int64, error) {
	var n int64
	err := r.store.locked(ctx, func(st *state) error {
		now := time.Now().UTC()
		for _, d := range ds {
			key := cellKey{roomID, d}
			cell, ok := st.cells[key]
			if !ok || !cell.Available {
				continue
			}
			cell.Available = false
			cell.ReservationID = reservationID
			cell.UpdatedAt = now
			st.cells[key] = cell
			n++
		}
		r.store.cellWrites += n
		return nil
	})
	return n, err
}

func (r *calendarRepository) Release(ctx context.Context, roomID string, ds []days.Day, reservationID string) (int64, error) {
	var n int64
	err := r.store.locked(ctx, func(st *state) error {
		now := time.Now().UTC()
		for _, d := range ds {
			key := cellKey{roomID, d}
			cell, ok := st.cells[key]
			if !ok || cell.ReservationID != reservationID {
				continue
			}
			cell.ReservationID = ""
			cell.Available = !cell.Blocked
			cell.UpdatedAt = now
			st.cells[key] = cell
			n++
		}
		r.store.cellWrites += n
		return nil
	})
	return n, err
}

func (r *calendarRepository) SetBlocked(ctx context.Context, roomID string, ds []days.Day, blocked bool) (int64, error) {
	var n int64
	err := r.store.locked(ctx, func(st *state) error {
		now := time.Now().UTC()
		for _, d := range ds {
			key := cellKey{roomID, d}
			cell := st.cells[key]
			next := model.NewCell(roomID, d, cell.ReservationID, blocked)
			next.UpdatedAt = now
			st.cells[key] = next
			n++
		}
		r.store.cellWrites += n
		return nil
	})
	return n, err
}

func (r *calendarRepository) CountAvailable(ctx context.Context, roomIDs []string, rng days.Range) (map[string]int, error) {
	counts := make(map[string]int, len(roomIDs))
	err := r.store.locked(ctx, func(st *state) error {
		ds := rng.Days()
		for _, id := range roomIDs {
			for _, d := range ds {
				if cell, ok := st.cells[cellKey{id, d}]; ok && cell.Available {
					counts[id]++
				}
			}
		}
		return nil
	})
	return counts, err
}

type blockRepository struct {
	store *Store
}

func (r *blockRepository) Add(ctx context.Context, blocks []model.ManualBlock) (int64, error) {
	var n int64
	err := r.store.locked(ctx, func(st *state) error {
		now := time.Now().UTC()
		for _, b := range blocks {
			key := cellKey{b.RoomID, b.Date}
			if existing, ok := st.blocks[key]; ok {
				b.CreatedAt = existing.CreatedAt
			} else {
				b.CreatedAt = now
				n++
			}
			st.blocks[key] = b
		}
		return nil
	})
	return n, err
}

func (r *blockRepository) Remove(ctx context.Context, roomID string, ds []days.Day) (int64, error) {
	var n int64
	err := r.store.locked(ctx, func(st *state) error {
		for _, d := range ds {
			key := cellKey{roomID, d}
			if _, ok := st.blocks[key]; ok {
				delete(st.blocks, key)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *blockRepository) FindRange(ctx context.Context, roomID string, rng days.Range) ([]model.ManualBlock, error) {
	var out []model.ManualBlock
	err := r.store.locked(ctx, func(st *state) error {
		for key, b := range st.blocks {
			if key.roomID == roomID && rng.Contains(key.date) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, err
}
