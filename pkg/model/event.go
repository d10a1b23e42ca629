package model

import (
	"time"

	"cabins/pkg/days"
)

type ReservationEventType string

const (
	EventReservationCreated   ReservationEventType = "reservation.created"
	EventReservationModified  ReservationEventType = "reservation.modified"
	EventReservationCancelled ReservationEventType = "reservation.cancelled"
)

// ReservationEvent is emitted after a reservation change has committed.
type ReservationEvent struct {
	Type        ReservationEventType `json:"type"`
	Reservation Reservation          `json:"reservation"`

	// Set on modification when the room or range moved.
	PreviousRoomID string      `json:"previous_room_id,omitempty"`
	PreviousRange  *days.Range `json:"previous_range,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// RoomIDs lists every room whose calendar the event touched.
func (e ReservationEvent) RoomIDs() []string {
	ids := []string{e.Reservation.RoomID}
	if e.PreviousRoomID != "" && e.PreviousRoomID != e.Reservation.RoomID {
		ids = append(ids, e.PreviousRoomID)
	}
	return ids
}

// ReconcileRequestMessage asks the reconciliation consumer to rebuild part of
// the calendar. An empty room list means every room.
type ReconcileRequestMessage struct {
	RoomIDs     []string `json:"room_ids,omitempty"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	RequestedBy string   `json:"requested_by,omitempty"`
}
