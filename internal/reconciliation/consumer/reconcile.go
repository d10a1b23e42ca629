// Package consumer turns reconcile request messages into reconciliation
// runs.
package consumer

import (
	"context"
	"fmt"

	"cabins/internal/reconciliation/service"
	"cabins/pkg/config"
	"cabins/pkg/days"
	"cabins/pkg/kafka"
	"cabins/pkg/model"
	"cabins/pkg/sanitizer"
)

const EventTypeReconcileRequested = "calendar.reconcile.requested"

type ReconcileConsumer struct {
	reconciler service.Reconciler
	cfg        *config.Config
	today      func() days.Day
}

func NewReconcileConsumer(reconciler service.Reconciler, cfg *config.Config) *ReconcileConsumer {
	return &ReconcileConsumer{
		reconciler: reconciler,
		cfg:        cfg,
		today:      days.Today,
	}
}

// Handle is a kafka.MessageHandler. Malformed requests are permanent
// failures and go to the dead letter topic without retries.
func (c *ReconcileConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	var req model.ReconcileRequestMessage
	if err := msg.DecodeValue(&req); err != nil {
		return kafka.NewPermanentError("invalid reconcile request payload", err)
	}

	req.RoomIDs = sanitizer.SanitizeIDs(req.RoomIDs)
	for _, id := range req.RoomIDs {
		if !model.IsRoomID(id) {
			return kafka.NewPermanentError(fmt.Sprintf("invalid room id %q", id), kafka.ErrInvalidMessage)
		}
	}

	rng, err := c.horizon(req)
	if err != nil {
		return kafka.NewPermanentError("invalid reconcile horizon", err)
	}

	c.cfg.Log.Info("Reconcile requested",
		"event_id", msg.GetEventID(),
		"correlation_id", msg.GetCorrelationID(),
		"requested_by", req.RequestedBy,
		"rooms", len(req.RoomIDs),
		"range", rng.String(),
	)

	report, err := c.reconciler.Reconcile(ctx, req.RoomIDs, rng.From, rng.To)
	if err != nil {
		return err
	}

	c.cfg.Log.Info("Reconcile request completed",
		"event_id", msg.GetEventID(),
		"writes", report.Writes(),
		"overlaps", len(report.Overlaps),
	)
	return nil
}

func (c *ReconcileConsumer) horizon(req model.ReconcileRequestMessage) (days.Range, error) {
	if req.From == "" && req.To == "" {
		return service.Horizon(c.cfg, c.today()), nil
	}
	from, err := days.Parse(req.From)
	if err != nil {
		return days.Range{}, err
	}
	to, err := days.Parse(req.To)
	if err != nil {
		return days.Range{}, err
	}
	rng := days.NewRange(from, to)
	if !rng.Valid() {
		return days.Range{}, fmt.Errorf("%s is not after %s", to, from)
	}
	return rng, nil
}
