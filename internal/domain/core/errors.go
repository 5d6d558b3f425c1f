package core

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrDuplicate        = errors.New("already exists")
	ErrInUse            = errors.New("still referenced by other records")
	ErrUnknownReference = errors.New("unknown department or manager")
	ErrSelfManaged      = errors.New("employee cannot manage themselves")

	// ErrRecalculationFailed means the employee was saved but the benefit
	// records derived from it could not be refreshed.
	ErrRecalculationFailed = errors.New("benefit recalculation failed")
)
