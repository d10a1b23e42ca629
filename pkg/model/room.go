package model

import (
	"regexp"
	"time"
)

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// IsRoomID reports whether id is a well-formed room identifier.
func IsRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}

// Room is owned by the room catalogue. Reservations only read it.
type Room struct {
	ID                 string    `json:"id" bson:"_id" validate:"required"`
	RoomNumber         string    `json:"room_number" bson:"room_number" validate:"required,min=1,max=20"`
	Description        string    `json:"description,omitempty" bson:"description,omitempty"`
	Capacity           int       `json:"capacity" bson:"capacity" validate:"required,min=1"`
	PricePerNightCents int64     `json:"price_per_night_cents" bson:"price_per_night_cents" validate:"min=0"`
	IsActive           bool      `json:"is_active" bson:"is_active"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}
