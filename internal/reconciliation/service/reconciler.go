// Package service rebuilds the calendar from the ledger. It only ever
// writes calendar cells; the ledger is read and never corrected.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	calendarrepo "cabins/internal/calendar/repository"
	reservationrepo "cabins/internal/reservations/repository"
	roomrepo "cabins/internal/rooms/repository"
	"cabins/pkg/config"
	"cabins/pkg/days"
	mongotx "cabins/pkg/db/mongo"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/model"
)

// maxHorizonDays bounds one run. A five month rolling window is the normal
// case.
const maxHorizonDays = 731

// Overlap records two active ledger reservations claiming the same days.
// The older reservation keeps the cells.
type Overlap struct {
	RoomID string     `json:"room_id"`
	Winner string     `json:"winner_reservation_id"`
	Loser  string     `json:"loser_reservation_id"`
	Days   []days.Day `json:"days"`
}

type Report struct {
	Range         days.Range `json:"range"`
	RoomsExamined int        `json:"rooms_examined"`
	CellsExamined int        `json:"cells_examined"`
	Created       int        `json:"created"`
	Updated       int        `json:"updated"`
	Unchanged     int        `json:"unchanged"`
	Overlaps      []Overlap  `json:"overlaps"`
	FailedRooms   []string   `json:"failed_rooms,omitempty"`
	DurationMS    int64      `json:"duration_ms"`
}

// Writes is the number of cells the run changed.
func (r *Report) Writes() int {
	return r.Created + r.Updated
}

type Reconciler interface {
	Reconcile(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error)
}

type reconciler struct {
	tx           mongotx.TransactionManager
	rooms        roomrepo.RoomRepository
	reservations reservationrepo.ReservationRepository
	calendar     calendarrepo.CalendarRepository
	blocks       calendarrepo.BlockRepository
	cfg          *config.Config
}

func NewReconciler(
	tx mongotx.TransactionManager,
	rooms roomrepo.RoomRepository,
	reservations reservationrepo.ReservationRepository,
	calendar calendarrepo.CalendarRepository,
	blocks calendarrepo.BlockRepository,
	cfg *config.Config,
) Reconciler {
	return &reconciler{
		tx:           tx,
		rooms:        rooms,
		reservations: reservations,
		calendar:     calendar,
		blocks:       blocks,
		cfg:          cfg,
	}
}

// Horizon is the rolling window the scheduler and the CLI reconcile when no
// range is given.
func Horizon(cfg *config.Config, today days.Day) days.Range {
	return days.NewRange(today, today.AddDays(cfg.ReconcileHorizonDays))
}

// Reconcile brings every cell of [from, to) on the given rooms, or on all
// rooms when roomIDs is empty, to the state the ledger and manual blocks
// imply. Each room is rewritten in its own transaction. A failed room does
// not stop the others; it is listed in the report and the run returns an
// error alongside the report.
func (s *reconciler) Reconcile(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error) {
	rng := days.NewRange(from, to)
	if !rng.Valid() {
		return nil, apperrors.InvalidInput("reconcile horizon must end after it starts")
	}
	if rng.Nights() > maxHorizonDays {
		return nil, apperrors.Validation("reconcile horizon is too long", map[string]any{
			"days":     rng.Nights(),
			"max_days": maxHorizonDays,
		})
	}

	started := time.Now()
	if len(roomIDs) == 0 {
		ids, err := s.rooms.ListIDs(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to list rooms for reconciliation", "error", err)
			return nil, storeError("Failed to list rooms", err)
		}
		roomIDs = ids
	}

	report := &Report{Range: rng, Overlaps: []Overlap{}}
	var firstErr error
	for _, roomID := range roomIDs {
		if err := ctx.Err(); err != nil {
			report.FailedRooms = append(report.FailedRooms, roomID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		room, err := s.reconcileRoom(ctx, roomID, rng)
		if err != nil {
			s.cfg.Log.Error("Room reconciliation failed", "room_id", roomID, "range", rng.String(), "error", err)
			report.FailedRooms = append(report.FailedRooms, roomID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		report.add(room)
	}
	report.DurationMS = time.Since(started).Milliseconds()

	s.cfg.Log.Info("Reconciliation finished",
		"range", rng.String(),
		"rooms", report.RoomsExamined,
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"overlaps", len(report.Overlaps),
		"failed_rooms", len(report.FailedRooms),
		"duration_ms", report.DurationMS,
	)
	for _, o := range report.Overlaps {
		s.cfg.Log.Warn("Ledger overlap detected",
			"room_id", o.RoomID,
			"winner", o.Winner,
			"loser", o.Loser,
			"days", len(o.Days),
		)
	}

	if firstErr != nil {
		return report, storeError("Reconciliation incomplete", firstErr)
	}
	return report, nil
}

type roomResult struct {
	cells     int
	created   int
	updated   int
	unchanged int
	overlaps  []Overlap
}

func (r *Report) add(room *roomResult) {
	r.RoomsExamined++
	r.CellsExamined += room.cells
	r.Created += room.created
	r.Updated += room.updated
	r.Unchanged += room.unchanged
	r.Overlaps = append(r.Overlaps, room.overlaps...)
}

func (s *reconciler) reconcileRoom(ctx context.Context, roomID string, rng days.Range) (*roomResult, error) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OperationTimeout)
	defer cancel()

	var result *roomResult
	err := s.tx.ExecuteTransaction(opCtx, func(txCtx context.Context) error {
		// Reset on every attempt; the body may run more than once.
		result = &roomResult{}

		active, err := s.reservations.FindActiveOverlapping(txCtx, roomID, rng)
		if err != nil {
			return err
		}
		manual, err := s.blocks.FindRange(txCtx, roomID, rng)
		if err != nil {
			return err
		}
		current, err := s.calendar.GetRange(txCtx, roomID, rng)
		if err != nil {
			return err
		}

		owners, overlaps := assignOwners(roomID, rng, active)
		result.overlaps = overlaps

		blocked := make(map[days.Day]bool, len(manual))
		for _, b := range manual {
			blocked[b.Date] = true
		}
		existing := make(map[days.Day]model.CalendarCell, len(current))
		for _, c := range current {
			existing[c.Date] = c
		}

		var writes []model.CalendarCell
		for _, d := range rng.Days() {
			result.cells++
			want := model.NewCell(roomID, d, owners[d], blocked[d])
			have, ok := existing[d]
			switch {
			case !ok:
				result.created++
				writes = append(writes, want)
			case !have.SameState(want):
				result.updated++
				writes = append(writes, want)
			default:
				result.unchanged++
			}
		}

		if len(writes) == 0 {
			return nil
		}
		_, err = s.calendar.SetMany(txCtx, writes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// assignOwners gives each day to the earliest-created active reservation
// covering it and reports every reservation that lost a day.
func assignOwners(roomID string, rng days.Range, active []*model.Reservation) (map[days.Day]string, []Overlap) {
	sorted := make([]*model.Reservation, len(active))
	copy(sorted, active)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	owners := make(map[days.Day]string)
	type pair struct{ winner, loser string }
	lost := make(map[pair][]days.Day)
	var order []pair

	for _, res := range sorted {
		if !res.IsActive() {
			continue
		}
		for _, d := range res.Range().Days() {
			if !rng.Contains(d) {
				continue
			}
			winner, taken := owners[d]
			if !taken {
				owners[d] = res.ID
				continue
			}
			p := pair{winner: winner, loser: res.ID}
			if _, seen := lost[p]; !seen {
				order = append(order, p)
			}
			lost[p] = append(lost[p], d)
		}
	}

	overlaps := make([]Overlap, 0, len(order))
	for _, p := range order {
		overlaps = append(overlaps, Overlap{RoomID: roomID, Winner: p.winner, Loser: p.loser, Days: lost[p]})
	}
	return owners, overlaps
}

func storeError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if mongotx.IsTransient(err) || errors.Is(err, context.Canceled) {
		return apperrors.Transient(message, err)
	}
	return apperrors.Internal(message, err)
}
