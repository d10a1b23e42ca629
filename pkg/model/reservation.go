package model

import (
	"time"

	"cabins/pkg/days"
)

type ReservationStatus string

const (
	StatusPending     ReservationStatus = "pending"
	StatusConfirmed   ReservationStatus = "confirmed"
	StatusCancelled   ReservationStatus = "cancelled"
	StatusNeedsReview ReservationStatus = "needs_review"
)

// ActiveStatuses hold calendar days.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed}

func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Reservation struct {
	ID              string            `json:"id" bson:"_id"`
	RoomID          string            `json:"room_id" bson:"room_id"`
	RequesterID     string            `json:"requester_id" bson:"requester_id"`
	CheckIn         days.Day          `json:"check_in" bson:"check_in"`
	CheckOut        days.Day          `json:"check_out" bson:"check_out"`
	PartySize       int               `json:"party_size" bson:"party_size"`
	Nights          int               `json:"nights" bson:"nights"`
	TotalPriceCents int64             `json:"total_price_cents" bson:"total_price_cents"`
	Status          ReservationStatus `json:"status" bson:"status"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

func (r *Reservation) Range() days.Range {
	return days.NewRange(r.CheckIn, r.CheckOut)
}

func (r *Reservation) IsActive() bool {
	return r.Status.IsActive()
}

// CreateReservationRequest is the wire shape of a new reservation.
type CreateReservationRequest struct {
	RoomID      string `json:"room_id" validate:"required,roomid"`
	RequesterID string `json:"requester_id,omitempty" validate:"omitempty,max=64"`
	CheckIn     string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut    string `json:"check_out" validate:"required,datetime=2006-01-02"`
	PartySize   int    `json:"party_size" validate:"required,min=1,max=100"`
}

// ModifyReservationRequest carries only the fields being changed.
type ModifyReservationRequest struct {
	RoomID    *string `json:"room_id,omitempty" validate:"omitempty,roomid"`
	CheckIn   *string `json:"check_in,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckOut  *string `json:"check_out,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PartySize *int    `json:"party_size,omitempty" validate:"omitempty,min=1,max=100"`
}

func (m *ModifyReservationRequest) IsEmpty() bool {
	return m.RoomID == nil && m.CheckIn == nil && m.CheckOut == nil && m.PartySize == nil
}
