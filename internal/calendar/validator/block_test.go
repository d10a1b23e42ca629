package validator

import (
	"testing"

	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
	"cabins/pkg/logger"
	"cabins/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *CalendarValidator {
	return NewCalendarValidator(logger.Discard())
}

func TestValidateBlock(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		req     model.BlockRequest
		wantErr bool
	}{
		{"valid", model.BlockRequest{RoomID: "cabin-1", From: "2024-06-01", To: "2024-06-03", Reason: "paint"}, false},
		{"missing room", model.BlockRequest{From: "2024-06-01", To: "2024-06-03"}, true},
		{"bad room id", model.BlockRequest{RoomID: "a b", From: "2024-06-01", To: "2024-06-03"}, true},
		{"bad date", model.BlockRequest{RoomID: "A", From: "06/01/2024", To: "2024-06-03"}, true},
		{"reversed", model.BlockRequest{RoomID: "A", From: "2024-06-03", To: "2024-06-01"}, true},
		{"empty range", model.BlockRequest{RoomID: "A", From: "2024-06-03", To: "2024-06-03"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := v.ValidateBlock(&tt.req)
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.RoomID, in.RoomID)
			assert.Equal(t, tt.req.From, in.From.String())
			assert.Equal(t, tt.req.Reason, in.Reason)
		})
	}
}

func TestValidateBlock_SanitizesInput(t *testing.T) {
	in, err := newTestValidator().ValidateBlock(&model.BlockRequest{
		RoomID: " cabin-1 ",
		From:   "2024-06-01",
		To:     "2024-06-03",
		Reason: "  roof\n\n repair ",
	})
	require.NoError(t, err)
	assert.Equal(t, "cabin-1", in.RoomID)
	assert.Equal(t, "roof repair", in.Reason)
}

func TestValidateBlock_ListsFieldErrors(t *testing.T) {
	_, err := newTestValidator().ValidateBlock(&model.BlockRequest{})

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr.Details)
	assert.Len(t, appErr.Details["errors"], 3)
}

func TestValidateReconcile(t *testing.T) {
	v := newTestValidator()

	in, err := v.ValidateReconcile(&model.ReconcileRequest{})
	require.NoError(t, err)
	assert.Empty(t, in.RoomIDs)
	assert.True(t, in.From.IsZero())

	in, err = v.ValidateReconcile(&model.ReconcileRequest{RoomIDs: []string{"A", "B"}, From: "2024-06-01", To: "2024-07-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, in.RoomIDs)
	assert.Equal(t, 30, days.Between(in.From, in.To))

	_, err = v.ValidateReconcile(&model.ReconcileRequest{From: "2024-06-01"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = v.ValidateReconcile(&model.ReconcileRequest{RoomIDs: []string{"ok", "not ok"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
