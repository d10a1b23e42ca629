package mongo

import (
	"context"
	"errors"

	apperrors "cabins/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsTransient reports whether err is a store timeout or connectivity failure,
// after which no partial write is visible and the caller may retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, apperrors.ErrStoreUnavailable) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	// Two upserts racing on a unique (room_id, date) key; a retry sees the winner.
	if IsDuplicateKey(err) {
		return true
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel(mongo.TransientTransactionError) ||
			labeled.HasErrorLabel(mongo.UnknownTransactionCommitResult)
	}
	return false
}

func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
