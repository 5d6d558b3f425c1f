package leave

import "errors"

var (
	ErrInvalidDateRange  = errors.New("end date before start date")
	ErrInvalidTransition = errors.New("invalid leave request status transition")
	ErrNotFound          = errors.New("leave request not found")
	ErrInvalidArgument   = errors.New("invalid leave argument")
)
