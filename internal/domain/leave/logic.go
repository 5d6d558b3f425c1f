package leave

import (
	"sort"
	"time"
)

// Allotments maps a leave type to its fixed annual day quota.
type Allotments map[string]int

// DefaultAllotments is the reference quota table seeded for every tenant.
func DefaultAllotments() Allotments {
	return Allotments{
		TypeAnnual:   20,
		TypeSick:     10,
		TypePersonal: 5,
		TypeUnpaid:   30,
	}
}

// Days returns the quota for leaveType, 0 when the type has no row.
func (a Allotments) Days(leaveType string) int {
	return a[leaveType]
}

// DaySpan returns the inclusive calendar-day count between start and end.
// Only the calendar date of each value is considered.
func DaySpan(start, end time.Time) (int, error) {
	s := calendarDate(start)
	e := calendarDate(end)
	if e.Before(s) {
		return 0, ErrInvalidDateRange
	}
	return int(daysBetween(s, e)) + 1, nil
}

// daysBetween counts whole days between two UTC midnights. It works on Unix
// seconds since time.Duration saturates after about 292 years.
func daysBetween(start, end time.Time) int64 {
	return (end.Unix() - start.Unix()) / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UsedDays sums days over approved requests of leaveType. Pending and
// rejected requests never count.
func UsedDays(leaveType string, requests []LeaveRequest) int {
	return sumDays(leaveType, StatusApproved, requests)
}

// PendingDays sums days over requests of leaveType still awaiting a decision.
func PendingDays(leaveType string, requests []LeaveRequest) int {
	return sumDays(leaveType, StatusPending, requests)
}

func sumDays(leaveType, status string, requests []LeaveRequest) int {
	total := 0
	for _, req := range requests {
		if req.Type == leaveType && req.Status == status {
			total += req.Days
		}
	}
	return total
}

// RemainingDays is the allotment minus used days. It goes negative when
// approvals exceed the quota; it is never clamped.
func RemainingDays(leaveType string, requests []LeaveRequest, allotments Allotments) int {
	return allotments.Days(leaveType) - UsedDays(leaveType, requests)
}

// Balances summarises every type that has an allotment or at least one
// request, sorted by type name.
func Balances(requests []LeaveRequest, allotments Allotments) []Balance {
	types := make(map[string]struct{}, len(allotments))
	for leaveType := range allotments {
		types[leaveType] = struct{}{}
	}
	for _, req := range requests {
		types[req.Type] = struct{}{}
	}

	names := make([]string, 0, len(types))
	for leaveType := range types {
		names = append(names, leaveType)
	}
	sort.Strings(names)

	out := make([]Balance, 0, len(names))
	for _, leaveType := range names {
		out = append(out, Balance{
			Type:      leaveType,
			Allotted:  allotments.Days(leaveType),
			Used:      UsedDays(leaveType, requests),
			Pending:   PendingDays(leaveType, requests),
			Remaining: RemainingDays(leaveType, requests, allotments),
		})
	}
	return out
}
