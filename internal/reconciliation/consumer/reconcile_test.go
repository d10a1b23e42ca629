package consumer

import (
	"context"
	"errors"
	"testing"

	"cabins/internal/reconciliation/service"
	"cabins/pkg/config"
	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/kafka"
	"cabins/pkg/logger"
	"cabins/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	ReconcileFunc func(ctx context.Context, roomIDs []string, from, to days.Day) (*service.Report, error)
}

func (m *mockReconciler) Reconcile(ctx context.Context, roomIDs []string, from, to days.Day) (*service.Report, error) {
	return m.ReconcileFunc(ctx, roomIDs, from, to)
}

func message(t *testing.T, value any) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithEventType(EventTypeReconcileRequested).
		WithValue(value).
		Build()
	require.NoError(t, err)
	return msg
}

func newTestConsumer(rec service.Reconciler) *ReconcileConsumer {
	cfg := config.Default(logger.Discard())
	cfg.ReconcileHorizonDays = 30
	c := NewReconcileConsumer(rec, cfg)
	c.today = func() days.Day {
		d, _ := days.Parse("2024-06-01")
		return d
	}
	return c
}

func TestHandle_ExplicitRange(t *testing.T) {
	var gotRooms []string
	var gotRange days.Range
	c := newTestConsumer(&mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*service.Report, error) {
		gotRooms, gotRange = roomIDs, days.NewRange(from, to)
		return &service.Report{}, nil
	}})

	err := c.Handle(context.Background(), message(t, model.ReconcileRequestMessage{
		RoomIDs: []string{"A", "B"}, From: "2024-07-01", To: "2024-07-15", RequestedBy: "ops",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, gotRooms)
	assert.Equal(t, "2024-07-01", gotRange.From.String())
	assert.Equal(t, 14, gotRange.Nights())
}

func TestHandle_DefaultHorizon(t *testing.T) {
	var gotRange days.Range
	c := newTestConsumer(&mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*service.Report, error) {
		gotRange = days.NewRange(from, to)
		return &service.Report{}, nil
	}})

	require.NoError(t, c.Handle(context.Background(), message(t, model.ReconcileRequestMessage{})))
	assert.Equal(t, "2024-06-01", gotRange.From.String())
	assert.Equal(t, 30, gotRange.Nights())
}

func TestHandle_BadRequestsArePermanent(t *testing.T) {
	c := newTestConsumer(&mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*service.Report, error) {
		t.Fatal("reconcile must not run")
		return nil, nil
	}})

	tests := []struct {
		name string
		msg  kafka.Message
	}{
		{"not json", kafka.Message{Value: []byte("{")}},
		{"bad room", message(t, model.ReconcileRequestMessage{RoomIDs: []string{"no spaces"}})},
		{"half range", message(t, model.ReconcileRequestMessage{From: "2024-06-01"})},
		{"reversed", message(t, model.ReconcileRequestMessage{From: "2024-06-10", To: "2024-06-01"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Handle(context.Background(), tt.msg)
			require.Error(t, err)
			assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
		})
	}
}

func TestHandle_StoreFailureIsRetried(t *testing.T) {
	c := newTestConsumer(&mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*service.Report, error) {
		return &service.Report{FailedRooms: []string{"A"}}, apperrors.Transient("Reconciliation incomplete", errors.New("node is recovering"))
	}})

	err := c.Handle(context.Background(), message(t, model.ReconcileRequestMessage{}))
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
}
