package service

import (
	"context"
	"errors"
	"sync"
	"time"

	calendarrepo "cabins/internal/calendar/repository"
	reservationserrors "cabins/internal/reservations/errors"
	"cabins/internal/reservations/repository"
	roomserrors "cabins/internal/rooms/errors"
	roomrepo "cabins/internal/rooms/repository"
	"cabins/pkg/config"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateInput struct {
	RoomID string
	// RequesterID lets an admin book on behalf of someone else. Empty means
	// the principal.
	RequesterID string
	CheckIn     days.Day
	CheckOut    days.Day
	PartySize   int
}

// Patch fields left nil keep their current value.
type Patch struct {
	RoomID    *string
	CheckIn   *days.Day
	CheckOut  *days.Day
	PartySize *int
}

func (p Patch) IsEmpty() bool {
	return p.RoomID == nil && p.CheckIn == nil && p.CheckOut == nil && p.PartySize == nil
}

type CancelResult struct {
	Reservation      *model.Reservation `json:"reservation"`
	AlreadyCancelled bool               `json:"already_cancelled"`
}

type ReservationService interface {
	Create(ctx context.Context, principal model.Principal, in CreateInput) (*model.Reservation, error)
	Modify(ctx context.Context, principal model.Principal, id string, patch Patch) (*model.Reservation, error)
	Cancel(ctx context.Context, principal model.Principal, id string) (*CancelResult, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Reservation, error)
	List(ctx context.Context, principal model.Principal, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	tx       mongotx.TransactionManager
	rooms    roomrepo.RoomRepository
	ledger   repository.ReservationRepository
	calendar calendarrepo.CalendarRepository
	cfg      *config.Config
	sinks    []EventSink
}

func NewReservationService(
	tx mongotx.TransactionManager,
	rooms roomrepo.RoomRepository,
	ledger repository.ReservationRepository,
	calendar calendarrepo.CalendarRepository,
	cfg *config.Config,
	sinks ...EventSink,
) ReservationService {
	return &reservationService{
		tx:       tx,
		rooms:    rooms,
		ledger:   ledger,
		calendar: calendar,
		cfg:      cfg,
		sinks:    sinks,
	}
}

func (s *reservationService) Create(ctx context.Context, principal model.Principal, in CreateInput) (*model.Reservation, error) {
	if !principal.Valid() {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	rng, err := ValidateStay(in.CheckIn, in.CheckOut, s.cfg.MinNights)
	if err != nil {
		s.cfg.Log.Warn("Reservation rejected", "room_id", in.RoomID, "error", err)
		return nil, err
	}

	requesterID := principal.ID
	if in.RequesterID != "" && in.RequesterID != principal.ID {
		if !principal.IsAdmin() {
			return nil, apperrors.Forbidden("Only administrators can book on behalf of another user")
		}
		requesterID = in.RequesterID
	}

	opCtx, cancel := s.operationContext(ctx)
	defer cancel()

	var created *model.Reservation
	err = s.tx.ExecuteTransaction(opCtx, func(txCtx context.Context) error {
		room, err := s.loadRoom(txCtx, in.RoomID)
		if err != nil {
			return err
		}
		if err := ValidateParty(in.PartySize, room); err != nil {
			return err
		}

		reservation := &model.Reservation{
			ID:              primitive.NewObjectID().Hex(),
			RoomID:          room.ID,
			RequesterID:     requesterID,
			CheckIn:         rng.From,
			CheckOut:        rng.To,
			PartySize:       in.PartySize,
			Nights:          rng.Nights(),
			TotalPriceCents: TotalPrice(room, rng.Nights()),
			Status:          model.StatusConfirmed,
		}

		if err := s.allocate(txCtx, room.ID, rng.Days(), reservation.ID); err != nil {
			return err
		}
		if err := s.ledger.Create(txCtx, reservation); err != nil {
			return err
		}
		created = reservation
		return nil
	})
	if err != nil {
		return nil, s.fail("create", err, "room_id", in.RoomID, "check_in", rng.From, "check_out", rng.To)
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", created.ID,
		"room_id", created.RoomID,
		"requester_id", created.RequesterID,
		"check_in", created.CheckIn,
		"check_out", created.CheckOut,
		"total_price_cents", created.TotalPriceCents,
	)
	s.emit(ctx, model.ReservationEvent{
		Type:        model.EventReservationCreated,
		Reservation: *created,
		OccurredAt:  time.Now().UTC(),
	})
	return created, nil
}

func (s *reservationService) Modify(ctx context.Context, principal model.Principal, id string, patch Patch) (*model.Reservation, error) {
	if !principal.Valid() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput("No fields to modify")
	}

	opCtx, cancel := s.operationContext(ctx)
	defer cancel()

	var (
		updated  *model.Reservation
		previous model.Reservation
		moved    bool
	)
	err := s.tx.ExecuteTransaction(opCtx, func(txCtx context.Context) error {
		existing, err := s.loadReservation(txCtx, id)
		if err != nil {
			return err
		}
		if !CanModify(principal, existing) {
			return apperrors.Forbidden("Only the requester or an administrator can modify this reservation")
		}
		if !existing.IsActive() {
			return apperrors.Validation("Only pending or confirmed reservations can be modified", map[string]any{
				"status": existing.Status,
			})
		}
		previous = *existing

		next := *existing
		if patch.RoomID != nil {
			next.RoomID = *patch.RoomID
		}
		if patch.CheckIn != nil {
			next.CheckIn = *patch.CheckIn
		}
		if patch.CheckOut != nil {
			next.CheckOut = *patch.CheckOut
		}
		if patch.PartySize != nil {
			next.PartySize = *patch.PartySize
		}

		rng, err := ValidateStay(next.CheckIn, next.CheckOut, s.cfg.MinNights)
		if err != nil {
			return err
		}
		room, err := s.loadRoom(txCtx, next.RoomID)
		if err != nil {
			return err
		}
		if err := ValidateParty(next.PartySize, room); err != nil {
			return err
		}

		oldRange := existing.Range()
		sameRoom := next.RoomID == existing.RoomID
		moved = !sameRoom || !rng.Equal(oldRange)

		if !moved {
			if next.PartySize == existing.PartySize {
				updated = existing
				return nil
			}
			if err := s.ledger.Update(txCtx, &next); err != nil {
				return err
			}
			updated = &next
			return nil
		}

		if sameRoom {
			newDays, oldDays := rng.Days(), oldRange.Days()
			if _, err := s.calendar.Release(txCtx, existing.RoomID, days.Difference(oldDays, newDays), existing.ID); err != nil {
				return err
			}
			if err := s.allocate(txCtx, next.RoomID, days.Difference(newDays, oldDays), existing.ID); err != nil {
				return err
			}
		} else {
			if _, err := s.calendar.Release(txCtx, existing.RoomID, oldRange.Days(), existing.ID); err != nil {
				return err
			}
			if err := s.allocate(txCtx, next.RoomID, rng.Days(), existing.ID); err != nil {
				return err
			}
		}

		next.Nights = rng.Nights()
		next.TotalPriceCents = TotalPrice(room, next.Nights)
		if err := s.ledger.Update(txCtx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, s.fail("modify", err, "id", id)
	}

	s.cfg.Log.Info("Reservation modified successfully",
		"id", updated.ID,
		"room_id", updated.RoomID,
		"check_in", updated.CheckIn,
		"check_out", updated.CheckOut,
		"party_size", updated.PartySize,
		"calendar_changed", moved,
	)

	event := model.ReservationEvent{
		Type:        model.EventReservationModified,
		Reservation: *updated,
		OccurredAt:  time.Now().UTC(),
	}
	if moved {
		prevRange := previous.Range()
		event.PreviousRoomID = previous.RoomID
		event.PreviousRange = &prevRange
	}
	s.emit(ctx, event)
	return updated, nil
}

func (s *reservationService) Cancel(ctx context.Context, principal model.Principal, id string) (*CancelResult, error) {
	if !principal.Valid() {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	opCtx, cancel := s.operationContext(ctx)
	defer cancel()

	var result *CancelResult
	err := s.tx.ExecuteTransaction(opCtx, func(txCtx context.Context) error {
		existing, err := s.loadReservation(txCtx, id)
		if err != nil {
			return err
		}
		if !CanCancel(principal, existing) {
			return apperrors.Forbidden("Only the requester or an administrator can cancel this reservation")
		}
		if existing.Status == model.StatusCancelled {
			result = &CancelResult{Reservation: existing, AlreadyCancelled: true}
			return nil
		}

		if _, err := s.calendar.Release(txCtx, existing.RoomID, existing.Range().Days(), existing.ID); err != nil {
			return err
		}

		cancelled := *existing
		cancelledAt := time.Now().UTC().Truncate(time.Millisecond)
		cancelled.Status = model.StatusCancelled
		cancelled.CancelledAt = &cancelledAt
		if err := s.ledger.Update(txCtx, &cancelled); err != nil {
			return err
		}
		result = &CancelResult{Reservation: &cancelled}
		return nil
	})
	if err != nil {
		return nil, s.fail("cancel", err, "id", id)
	}

	if result.AlreadyCancelled {
		s.cfg.Log.Info("Reservation already cancelled", "id", id)
		return result, nil
	}

	s.cfg.Log.Info("Reservation cancelled successfully",
		"id", id,
		"room_id", result.Reservation.RoomID,
		"cancelled_by", principal.ID,
	)
	s.emit(ctx, model.ReservationEvent{
		Type:        model.EventReservationCancelled,
		Reservation: *result.Reservation,
		OccurredAt:  time.Now().UTC(),
	})
	return result, nil
}

func (s *reservationService) Get(ctx context.Context, principal model.Principal, id string) (*model.Reservation, error) {
	if !principal.Valid() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, s.fail("get", err, "id", id)
	}
	if !CanView(principal, reservation) {
		return nil, apperrors.Forbidden("Only the requester or an administrator can view this reservation")
	}
	return reservation, nil
}

func (s *reservationService) List(ctx context.Context, principal model.Principal, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if !principal.Valid() {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}

	requesterID := principal.ID
	if principal.IsAdmin() {
		requesterID = ""
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.ledger.Count(ctx, requesterID)
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.ledger.FindAll(ctx, requesterID, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, s.fail("count", errCount, "requester_id", requesterID)
	}
	if errFind != nil {
		return nil, 0, s.fail("list", errFind, "requester_id", requesterID)
	}
	if reservations == nil {
		reservations = []*model.Reservation{}
	}

	return reservations, count, nil
}

// --- Helpers ---

// operationContext detaches the write from caller cancellation so a client
// disconnect cannot abort it half way, and bounds it by OperationTimeout.
func (s *reservationService) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OperationTimeout)
}

func (s *reservationService) loadRoom(ctx context.Context, roomID string) (*model.Room, error) {
	if roomID == "" {
		return nil, apperrors.InvalidInput("room_id is required")
	}
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.ResourceNotFound(roomID)
		}
		return nil, err
	}
	if !room.IsActive {
		return nil, apperrors.ResourceNotFound(roomID)
	}
	return room, nil
}

func (s *reservationService) loadReservation(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) || errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		return nil, err
	}
	return reservation, nil
}

// allocate claims every day in ds for reservationID or fails with Conflict.
// A short count means some day was taken, blocked or not yet in the
// calendar; the transaction then aborts and nothing is claimed.
func (s *reservationService) allocate(ctx context.Context, roomID string, ds []days.Day, reservationID string) error {
	if len(ds) == 0 {
		return nil
	}
	n, err := s.calendar.Allocate(ctx, roomID, ds, reservationID)
	if err != nil {
		return err
	}
	if n != int64(len(ds)) {
		return apperrors.Conflict("Requested dates are not available").WithDetails(map[string]any{
			"room_id":        roomID,
			"requested_days": len(ds),
			"available_days": n,
		})
	}
	return nil
}

// fail maps an error to its kind and logs it at a level matching the kind.
func (s *reservationService) fail(op string, err error, args ...any) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
	case mongotx.IsTransient(err):
		appErr = apperrors.Transient("Reservation store unavailable, no changes were applied", err)
	default:
		appErr = apperrors.Internal("Failed to "+op+" reservation", err)
	}

	args = append(args, "operation", op, "code", appErr.Code, "error", err)
	switch appErr.Code {
	case apperrors.CodeInternal, apperrors.CodeTransientFailure:
		s.cfg.Log.Error("Reservation operation failed", args...)
	default:
		s.cfg.Log.Warn("Reservation operation rejected", args...)
	}
	return appErr
}

func (s *reservationService) emit(ctx context.Context, event model.ReservationEvent) {
	if len(s.sinks) == 0 {
		return
	}
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OperationTimeout)
	defer cancel()

	for _, sink := range s.sinks {
		if err := sink.Handle(sinkCtx, event); err != nil {
			s.cfg.Log.Warn("Reservation event sink failed",
				"event_type", event.Type,
				"reservation_id", event.Reservation.ID,
				"error", err,
			)
		}
	}
}
