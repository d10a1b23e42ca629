package service

import (
	"context"

	"cabins/pkg/model"
)

// EventSink receives reservation events after commit. Errors are logged by
// the service and never undo the reservation change.
type EventSink interface {
	Handle(ctx context.Context, event model.ReservationEvent) error
}

type EventSinkFunc func(ctx context.Context, event model.ReservationEvent) error

func (f EventSinkFunc) Handle(ctx context.Context, event model.ReservationEvent) error {
	return f(ctx, event)
}
