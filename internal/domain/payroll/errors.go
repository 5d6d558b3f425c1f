package payroll

import "errors"

var (
	ErrNotFound          = errors.New("payroll entry not found")
	ErrInvalidArgument   = errors.New("invalid payroll argument")
	ErrInvalidTransition = errors.New("invalid WPS status transition")
	ErrDuplicatePeriod   = errors.New("payroll entry already exists for this employee and period")
	ErrEmployeeNotFound  = errors.New("employee not found")
)
