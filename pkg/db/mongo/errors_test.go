package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "cabins/pkg/errors"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("find: %w", context.DeadlineExceeded), true},
		{"store unavailable", fmt.Errorf("commit: %w", apperrors.ErrStoreUnavailable), true},
		{"write conflict label", mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{mongo.TransientTransactionError}}, true},
		{"racing upsert", mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Code: 11000}}}}, true},
		{"plain command error", mongo.CommandError{Code: 2, Name: "BadValue"}, false},
		{"business error", errors.New("room not found"), false},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestInTransaction_PlainContext(t *testing.T) {
	assert.False(t, InTransaction(context.Background()))
}
