package gratuity

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid gratuity argument")
	ErrInvalidTransition = errors.New("invalid benefit record status transition")
	ErrNotFound          = errors.New("benefit record not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
)
