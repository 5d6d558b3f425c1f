package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var wpsTransitions = map[string][]string{
	WPSPending:   {WPSSubmitted},
	WPSSubmitted: {WPSAccepted, WPSRejected},
	WPSRejected:  {WPSSubmitted},
}

// CanTransition reports whether a WPS status may move from -> to.
func CanTransition(from, to string) bool {
	for _, next := range wpsTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetWPSStatus moves the entry along the WPS lifecycle.
func (e *Entry) SetWPSStatus(next, reference string) error {
	if !CanTransition(e.WPSStatus, next) {
		return ErrInvalidTransition
	}
	e.WPSStatus = next
	if reference = strings.TrimSpace(reference); reference != "" {
		e.WPSReference = reference
	}
	return nil
}

// Editable entries have not been handed to the bank, or came back rejected.
func (e Entry) Editable() bool {
	return e.WPSStatus == WPSPending || e.WPSStatus == WPSRejected
}

// apply recomputes every derived amount from the input lines.
func (e *Entry) apply(in EntryInput, basicSalary decimal.Decimal) error {
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() || in.PeriodEnd.Before(in.PeriodStart) {
		return ErrInvalidArgument
	}
	if basicSalary.IsNegative() {
		return ErrInvalidArgument
	}
	for _, line := range in.Lines {
		if line.Amount.IsNegative() {
			return ErrInvalidArgument
		}
		if line.Type != ElementTypeEarning && line.Type != ElementTypeDeduction {
			return ErrInvalidArgument
		}
	}
	gross, deductions, net := ComputePayroll(basicSalary, in.Lines)
	e.PeriodStart = dateOnly(in.PeriodStart)
	e.PeriodEnd = dateOnly(in.PeriodEnd)
	e.BasicSalary = basicSalary
	e.Allowances = gross.Sub(basicSalary)
	e.Deductions = deductions
	e.Gross = gross
	e.Net = net
	e.WPSStatus = WPSPending
	e.WPSReference = ""
	return nil
}

func (e *Entry) computeWarnings() {
	e.Warnings = nil
	if e.Net.IsNegative() {
		e.Warnings = append(e.Warnings, WarningNegativeNet)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
