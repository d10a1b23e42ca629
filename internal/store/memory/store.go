// Package memory is an in-process backend for every store. Transactions are
// serialised by one mutex and roll back to a snapshot on any error, which
// gives the same all-or-nothing behaviour as a Mongo transaction.
package memory

import (
	"context"
	"fmt"
	"sync"

	calendarrepo "cabins/internal/calendar/repository"
	reservationrepo "cabins/internal/reservations/repository"
	roomrepo "cabins/internal/rooms/repository"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/model"
)

type cellKey struct {
	roomID string
	date   days.Day
}

type state struct {
	rooms        map[string]model.Room
	reservations map[string]model.Reservation
	cells        map[cellKey]model.CalendarCell
	blocks       map[cellKey]model.ManualBlock
}

func newState() *state {
	return &state{
		rooms:        make(map[string]model.Room),
		reservations: make(map[string]model.Reservation),
		cells:        make(map[cellKey]model.CalendarCell),
		blocks:       make(map[cellKey]model.ManualBlock),
	}
}

func (s *state) clone() *state {
	c := &state{
		rooms:        make(map[string]model.Room, len(s.rooms)),
		reservations: make(map[string]model.Reservation, len(s.reservations)),
		cells:        make(map[cellKey]model.CalendarCell, len(s.cells)),
		blocks:       make(map[cellKey]model.ManualBlock, len(s.blocks)),
	}
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.cells {
		c.cells[k] = v
	}
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state

	failNextCommit error
	cellWrites     int64
}

func New() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// locked runs fn under the store mutex unless ctx is already inside one of
// this store's transactions, which holds it.
func (s *Store) locked(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.state)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	writes := s.cellWrites

	err := fn(context.WithValue(ctx, txKey{}, s))
	if err == nil && s.failNextCommit != nil {
		err = fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, s.failNextCommit)
		s.failNextCommit = nil
	}
	if err == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("commit aborted: %w", ctxErr)
		}
	}
	if err != nil {
		s.state = snapshot
		s.cellWrites = writes
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// FailNextCommit makes the next transaction roll back with a store
// unavailable error after its body has run.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextCommit = err
}

// CellWrites counts calendar cells written since the store was created.
func (s *Store) CellWrites() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cellWrites
}

func (s *Store) TxManager() mongotx.TransactionManager { return s }

func (s *Store) Rooms() roomrepo.RoomRepository { return &roomRepository{store: s} }

func (s *Store) Reservations() reservationrepo.ReservationRepository {
	return &reservationRepository{store: s}
}

func (s *Store) Calendar() calendarrepo.CalendarRepository { return &calendarRepository{store: s} }

func (s *Store) Blocks() calendarrepo.BlockRepository { return &blockRepository{store: s} }

// PutReservation writes straight to the ledger, bypassing the calendar. It
// models out-of-band corrections for drift tests and fixtures.
func (s *Store) PutReservation(r model.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.reservations[r.ID] = r
}

// PutCell overwrites one calendar cell without touching the ledger.
func (s *Store) PutCell(c model.CalendarCell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.cells[cellKey{c.RoomID, c.Date}] = c
}

// DeleteCell removes one calendar cell.
func (s *Store) DeleteCell(roomID string, d days.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.cells, cellKey{roomID, d})
}
