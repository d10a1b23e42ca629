package errors

import "errors"

var ErrCellNotFound = errors.New("calendar cell not found")
