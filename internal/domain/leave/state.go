package leave

import (
	"strings"
	"time"
)

// NewRequest builds a pending request with days derived from the date range.
func NewRequest(employeeID, leaveType string, start, end time.Time, reason string) (LeaveRequest, error) {
	req := LeaveRequest{
		EmployeeID: strings.TrimSpace(employeeID),
		Status:     StatusPending,
	}
	if req.EmployeeID == "" {
		return LeaveRequest{}, ErrInvalidArgument
	}
	if err := req.setDetails(leaveType, start, end, reason); err != nil {
		return LeaveRequest{}, err
	}
	return req, nil
}

// Edit replaces type, dates and reason of a pending request and recomputes
// days. Decided requests cannot be edited.
func (r *LeaveRequest) Edit(leaveType string, start, end time.Time, reason string) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	return r.setDetails(leaveType, start, end, reason)
}

func (r *LeaveRequest) setDetails(leaveType string, start, end time.Time, reason string) error {
	leaveType = strings.TrimSpace(leaveType)
	if leaveType == "" || start.IsZero() || end.IsZero() {
		return ErrInvalidArgument
	}
	days, err := DaySpan(start, end)
	if err != nil {
		return err
	}
	r.Type = leaveType
	r.StartDate = calendarDate(start)
	r.EndDate = calendarDate(end)
	r.Days = days
	r.Reason = strings.TrimSpace(reason)
	return nil
}

func (r *LeaveRequest) Approve(approverID string, at time.Time) error {
	return r.decide(StatusApproved, approverID, at)
}

func (r *LeaveRequest) Reject(approverID string, at time.Time) error {
	return r.decide(StatusRejected, approverID, at)
}

func (r *LeaveRequest) decide(next, approverID string, at time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = next
	r.DecidedBy = approverID
	decided := at.UTC()
	r.DecidedAt = &decided
	return nil
}
