// Package events publishes committed reservation changes to Kafka.
package events

import (
	"context"
	"fmt"

	"cabins/pkg/kafka"
	"cabins/pkg/logger"
	"cabins/pkg/middleware"
	"cabins/pkg/model"
)

const (
	schemaVersion = "1"
	source        = "reservations"
)

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaSink publishes each event keyed by room id so every change to one
// room lands on the same partition in commit order.
type KafkaSink struct {
	publisher Publisher
	log       *logger.Logger
}

func NewKafkaSink(publisher Publisher, log *logger.Logger) *KafkaSink {
	return &KafkaSink{publisher: publisher, log: log}
}

func (s *KafkaSink) Handle(ctx context.Context, event model.ReservationEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Reservation.RoomID).
		WithValue(event).
		WithEventType(string(event.Type)).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build reservation event: %w", err)
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s for reservation %s: %w", event.Type, event.Reservation.ID, err)
	}

	s.log.Debug("Reservation event published",
		"event_type", event.Type,
		"reservation_id", event.Reservation.ID,
		"room_id", event.Reservation.RoomID,
	)
	return nil
}
