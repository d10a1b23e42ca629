package service

import (
	"fmt"

	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/model"
)

// CanCancel reports whether p may cancel r: its requester or an admin.
func CanCancel(p model.Principal, r *model.Reservation) bool {
	return p.IsAdmin() || (p.ID != "" && p.ID == r.RequesterID)
}

func CanModify(p model.Principal, r *model.Reservation) bool {
	return CanCancel(p, r)
}

func CanView(p model.Principal, r *model.Reservation) bool {
	return CanCancel(p, r)
}

// ValidateStay checks the date invariants that do not need the store.
func ValidateStay(checkIn, checkOut days.Day, minNights int) (days.Range, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return days.Range{}, apperrors.InvalidInput("check_in and check_out are required")
	}
	rng := days.NewRange(checkIn, checkOut)
	if !rng.Valid() {
		return days.Range{}, apperrors.Validation("check_out must be after check_in", map[string]any{
			"check_in":  checkIn.String(),
			"check_out": checkOut.String(),
		})
	}
	if rng.Nights() < minNights {
		return days.Range{}, apperrors.Validation(
			fmt.Sprintf("stay must be at least %d nights", minNights),
			map[string]any{"nights": rng.Nights(), "min_nights": minNights},
		)
	}
	return rng, nil
}

// ValidateParty checks the party against a room that is known to exist.
func ValidateParty(partySize int, room *model.Room) error {
	if partySize < 1 {
		return apperrors.Validation("party_size must be at least 1", map[string]any{"party_size": partySize})
	}
	if partySize > room.Capacity {
		return apperrors.CapacityExceeded(partySize, room.Capacity)
	}
	return nil
}

func TotalPrice(room *model.Room, nights int) int64 {
	return room.PricePerNightCents * int64(nights)
}
