package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"cabins/internal/calendar/cache"
	"cabins/internal/calendar/repository"
	roomserrors "cabins/internal/rooms/errors"
	roomrepo "cabins/internal/rooms/repository"
	"cabins/pkg/config"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/model"
)

// maxQueryNights bounds range queries and block requests.
const maxQueryNights = 366

type BlockInput struct {
	RoomID string
	From   days.Day
	To     days.Day
	Reason string
}

type BlockResult struct {
	RoomID  string     `json:"room_id"`
	Range   days.Range `json:"range"`
	Days    int        `json:"days"`
	Changed int64      `json:"changed"`
}

// AvailabilityService answers read-only questions from the calendar. Its
// answers are advisory; only the reservation engine allocates days.
type AvailabilityService interface {
	IsRangeAvailable(ctx context.Context, roomID string, from, to days.Day) (bool, error)
	FindAvailableRooms(ctx context.Context, from, to days.Day, minCapacity int) ([]*model.Room, error)
	GetCalendar(ctx context.Context, roomID string, from, to days.Day) ([]model.CalendarCell, error)
	Block(ctx context.Context, principal model.Principal, in BlockInput) (*BlockResult, error)
	Unblock(ctx context.Context, principal model.Principal, in BlockInput) (*BlockResult, error)
}

type availabilityService struct {
	tx       mongotx.TransactionManager
	rooms    roomrepo.RoomRepository
	calendar repository.CalendarRepository
	blocks   repository.BlockRepository
	cache    cache.SearchCache
	cfg      *config.Config
}

// NewAvailabilityService builds the service. searchCache may be nil.
func NewAvailabilityService(
	tx mongotx.TransactionManager,
	rooms roomrepo.RoomRepository,
	calendar repository.CalendarRepository,
	blocks repository.BlockRepository,
	searchCache cache.SearchCache,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		tx:       tx,
		rooms:    rooms,
		calendar: calendar,
		blocks:   blocks,
		cache:    searchCache,
		cfg:      cfg,
	}
}

func validRange(from, to days.Day) (days.Range, error) {
	if from.IsZero() || to.IsZero() {
		return days.Range{}, apperrors.InvalidInput("from and to are required")
	}
	rng := days.NewRange(from, to)
	if !rng.Valid() {
		return days.Range{}, apperrors.InvalidInput("to must be after from")
	}
	if rng.Nights() > maxQueryNights {
		return days.Range{}, apperrors.Validation("range is too long", map[string]any{
			"nights":     rng.Nights(),
			"max_nights": maxQueryNights,
		})
	}
	return rng, nil
}

// IsRangeAvailable is true iff every day of [from, to) has an available
// cell. A day with no cell yet counts as unavailable.
func (s *availabilityService) IsRangeAvailable(ctx context.Context, roomID string, from, to days.Day) (bool, error) {
	rng, err := validRange(from, to)
	if err != nil {
		return false, err
	}

	counts, err := s.calendar.CountAvailable(ctx, []string{roomID}, rng)
	if err != nil {
		return false, s.storeError("count available", err, "room_id", roomID)
	}
	return counts[roomID] == rng.Nights(), nil
}

func (s *availabilityService) FindAvailableRooms(ctx context.Context, from, to days.Day, minCapacity int) ([]*model.Room, error) {
	rng, err := validRange(from, to)
	if err != nil {
		return nil, err
	}
	if minCapacity < 1 {
		minCapacity = 1
	}

	if s.cache != nil {
		if rooms, ok := s.cache.GetRooms(ctx, rng, minCapacity); ok {
			s.cfg.Log.Debug("Availability search served from cache", "range", rng.String(), "min_capacity", minCapacity)
			return rooms, nil
		}
	}

	candidates, err := s.rooms.ListActive(ctx, minCapacity)
	if err != nil {
		return nil, s.storeError("list rooms", err)
	}
	if len(candidates) == 0 {
		return []*model.Room{}, nil
	}

	ids := make([]string, len(candidates))
	for i, room := range candidates {
		ids[i] = room.ID
	}
	counts, err := s.calendar.CountAvailable(ctx, ids, rng)
	if err != nil {
		return nil, s.storeError("count available", err)
	}

	available := make([]*model.Room, 0, len(candidates))
	for _, room := range candidates {
		if counts[room.ID] == rng.Nights() {
			available = append(available, room)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i].ID < available[j].ID })

	if s.cache != nil {
		s.cache.SetRooms(ctx, rng, minCapacity, available)
	}
	return available, nil
}

// GetCalendar returns one cell per day of the range. Days the calendar has
// not been seeded for are reported unavailable.
func (s *availabilityService) GetCalendar(ctx context.Context, roomID string, from, to days.Day) ([]model.CalendarCell, error) {
	rng, err := validRange(from, to)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadRoom(ctx, roomID); err != nil {
		return nil, err
	}

	stored, err := s.calendar.GetRange(ctx, roomID, rng)
	if err != nil {
		return nil, s.storeError("get range", err, "room_id", roomID)
	}
	byDay := make(map[days.Day]model.CalendarCell, len(stored))
	for _, c := range stored {
		byDay[c.Date] = c
	}

	cells := make([]model.CalendarCell, 0, rng.Nights())
	for _, d := range rng.Days() {
		if c, ok := byDay[d]; ok {
			cells = append(cells, c)
			continue
		}
		cells = append(cells, model.CalendarCell{RoomID: roomID, Date: d})
	}
	return cells, nil
}

func (s *availabilityService) Block(ctx context.Context, principal model.Principal, in BlockInput) (*BlockResult, error) {
	return s.setBlocked(ctx, principal, in, true)
}

func (s *availabilityService) Unblock(ctx context.Context, principal model.Principal, in BlockInput) (*BlockResult, error) {
	return s.setBlocked(ctx, principal, in, false)
}

// setBlocked writes the manual blocks and the cell flags in one
// transaction. Owned days keep their reservation; the block only marks them.
func (s *availabilityService) setBlocked(ctx context.Context, principal model.Principal, in BlockInput, blocked bool) (*BlockResult, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.Forbidden("Only administrators can change manual blocks")
	}
	rng, err := validRange(in.From, in.To)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OperationTimeout)
	defer cancel()

	result := &BlockResult{RoomID: in.RoomID, Range: rng, Days: rng.Nights()}
	err = s.tx.ExecuteTransaction(opCtx, func(txCtx context.Context) error {
		if _, err := s.loadRoom(txCtx, in.RoomID); err != nil {
			return err
		}

		ds := rng.Days()
		var changed int64
		if blocked {
			now := time.Now().UTC().Truncate(time.Millisecond)
			manual := make([]model.ManualBlock, len(ds))
			for i, d := range ds {
				manual[i] = model.ManualBlock{
					RoomID:    in.RoomID,
					Date:      d,
					Reason:    in.Reason,
					CreatedBy: principal.ID,
					CreatedAt: now,
				}
			}
			if changed, err = s.blocks.Add(txCtx, manual); err != nil {
				return err
			}
		} else if changed, err = s.blocks.Remove(txCtx, in.RoomID, ds); err != nil {
			return err
		}

		if _, err := s.calendar.SetBlocked(txCtx, in.RoomID, ds, blocked); err != nil {
			return err
		}
		result.Changed = changed
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			s.cfg.Log.Warn("Manual block change rejected", "room_id", in.RoomID, "blocked", blocked, "error", err)
			return nil, appErr
		}
		return nil, s.storeError("set blocked", err, "room_id", in.RoomID)
	}

	s.cfg.Log.Info("Manual block updated",
		"room_id", in.RoomID,
		"from", rng.From,
		"to", rng.To,
		"blocked", blocked,
		"changed", result.Changed,
		"by", principal.ID,
	)
	s.invalidate(ctx)
	return result, nil
}

func (s *availabilityService) loadRoom(ctx context.Context, roomID string) (*model.Room, error) {
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
	return room, nil
}

func (s *availabilityService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.cfg.Log.Warn("Failed to invalidate availability cache", "error", err)
	}
}

func (s *availabilityService) storeError(op string, err error, args ...any) error {
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error("Calendar store operation failed", append(args, "operation", op, "error", err)...)
	if mongotx.IsTransient(err) {
		return apperrors.Transient("Calendar store unavailable", err)
	}
	return apperrors.Internal("Failed to "+op, err)
}
