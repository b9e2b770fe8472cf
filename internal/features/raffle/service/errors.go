package service

import (
	"errors"

	apperrors "github.com/bewie03/epok/internal/common/errors"
)

// errEpochClosed means the epoch seen before a write was drawn in between
var errEpochClosed = errors.New("epoch closed before entry was recorded")

// dbError keeps AppErrors raised inside transactions and wraps the rest
func dbError(operation string, err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.NewDatabaseError(operation, err)
}
