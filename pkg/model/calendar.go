package model

import (
	"time"

	"cabins/pkg/days"
)

// CalendarCell is one room on one day. It is derived state: Available is
// true exactly when no reservation owns the day and no manual block covers it.
type CalendarCell struct {
	RoomID        string    `json:"room_id" bson:"room_id"`
	Date          days.Day  `json:"date" bson:"date"`
	Available     bool      `json:"available" bson:"available"`
	ReservationID string    `json:"reservation_id,omitempty" bson:"reservation_id"`
	Blocked       bool      `json:"blocked" bson:"blocked"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// NewCell builds a cell whose Available flag agrees with its owner and block.
func NewCell(roomID string, date days.Day, reservationID string, blocked bool) CalendarCell {
	return CalendarCell{
		RoomID:        roomID,
		Date:          date,
		Available:     reservationID == "" && !blocked,
		ReservationID: reservationID,
		Blocked:       blocked,
	}
}

// SameState compares the fields that reconciliation owns.
func (c CalendarCell) SameState(o CalendarCell) bool {
	return c.Available == o.Available && c.ReservationID == o.ReservationID && c.Blocked == o.Blocked
}

// ManualBlock marks a day unavailable without a reservation, e.g. maintenance.
type ManualBlock struct {
	RoomID    string    `json:"room_id" bson:"room_id"`
	Date      days.Day  `json:"date" bson:"date"`
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedBy string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type BlockRequest struct {
	RoomID string `json:"room_id" validate:"required,roomid"`
	From   string `json:"from" validate:"required,datetime=2006-01-02"`
	To     string `json:"to" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

type ReconcileRequest struct {
	RoomIDs []string `json:"room_ids,omitempty" validate:"omitempty,max=500,dive,roomid"`
	From    string   `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To      string   `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
