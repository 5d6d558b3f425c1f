package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	TypeAnnual   = "Annual Leave"
	TypeSick     = "Sick Leave"
	TypePersonal = "Personal Leave"
	TypeUnpaid   = "Unpaid Leave"
)

type LeaveRequest struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Type       string     `json:"type"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Days       int        `json:"days"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	DecidedBy  string     `json:"decidedBy,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type Allotment struct {
	Type            string `json:"type"`
	AnnualTotalDays int    `json:"annualTotalDays"`
}

// Balance is a read-only summary for one leave type, derived from the
// allotment table and the employee's requests.
type Balance struct {
	Type      string `json:"type"`
	Allotted  int    `json:"allotted"`
	Used      int    `json:"used"`
	Pending   int    `json:"pending"`
	Remaining int    `json:"remaining"`
}

type ListFilter struct {
	EmployeeID string
	Status     string
	Type       string
	Limit      int
	Offset     int
}
