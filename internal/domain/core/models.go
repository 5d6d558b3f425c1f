package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EmployeeStatusActive     = "active"
	EmployeeStatusOnLeave    = "on_leave"
	EmployeeStatusTerminated = "terminated"
)

const DefaultCurrency = "AED"

type Employee struct {
	ID             string              `json:"id"`
	UserID         string              `json:"userId,omitempty"`
	EmployeeNumber string              `json:"employeeNumber"`
	FirstName      string              `json:"firstName"`
	LastName       string              `json:"lastName"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	NationalID     string              `json:"nationalId,omitempty"`
	BankAccount    string              `json:"bankAccount,omitempty"`
	BasicSalary    decimal.NullDecimal `json:"basicSalary"`
	Currency       string              `json:"currency"`
	EmploymentType string              `json:"employmentType"`
	DepartmentID   string              `json:"departmentId,omitempty"`
	ManagerID      string              `json:"managerId,omitempty"`
	StartDate      time.Time           `json:"startDate"`
	EndDate        *time.Time          `json:"endDate,omitempty"`
	Status         string              `json:"status"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parentId,omitempty"`
	ManagerID string    `json:"managerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type EmployeeFilter struct {
	DepartmentID string
	ManagerID    string
	Status       string
	Search       string
	Limit        int
	Offset       int
}
