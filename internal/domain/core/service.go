package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"hrms/internal/platform/querier"
)

type Repository interface {
	ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, error)
	GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error)
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	CreateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error)
	UpdateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error)
	DeleteEmployee(ctx context.Context, tenantID, employeeID string) error

	ListDepartments(ctx context.Context, tenantID string, limit, offset int) ([]Department, error)
	DepartmentCount(ctx context.Context, tenantID string) (int, error)
	GetDepartment(ctx context.Context, tenantID, departmentID string) (Department, error)
	CreateDepartment(ctx context.Context, tenantID string, dep Department) (Department, error)
	UpdateDepartment(ctx context.Context, tenantID string, dep Department) (Department, error)
	DepartmentHasEmployees(ctx context.Context, tenantID, departmentID string) (bool, error)
	DeleteDepartment(ctx context.Context, tenantID, departmentID string) error
}

// TermsListener is told when an employee's salary or service dates change.
type TermsListener interface {
	EmployeeChanged(ctx context.Context, tenantID, employeeID string) (int, error)
}

type Service struct {
	store    Repository
	listener TermsListener
}

func NewService(store Repository, listener TermsListener) *Service {
	return &Service{store: store, listener: listener}
}

func (s *Service) ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, error) {
	return s.store.ListEmployees(ctx, tenantID, filter)
}

func (s *Service) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	emp, err := s.store.GetEmployee(ctx, tenantID, employeeID)
	return emp, mapStoreError(err, ErrNotFound)
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, tenantID, userID)
}

func (s *Service) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error) {
	normalizeEmployee(&emp)
	if err := ValidateEmployee(emp); err != nil {
		return Employee{}, err
	}
	created, err := s.store.CreateEmployee(ctx, tenantID, emp)
	if err != nil {
		return Employee{}, mapStoreError(err, ErrInvalidArgument)
	}
	return created, nil
}

// UpdateEmployee replaces the employee and returns the previous version
// alongside the new one.
func (s *Service) UpdateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, Employee, error) {
	before, err := s.GetEmployee(ctx, tenantID, emp.ID)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	normalizeEmployee(&emp)
	if err := ValidateEmployee(emp); err != nil {
		return Employee{}, Employee{}, err
	}
	if emp.ManagerID != "" && emp.ManagerID == emp.ID {
		return Employee{}, Employee{}, ErrSelfManaged
	}
	emp.UserID = before.UserID
	after, err := s.store.UpdateEmployee(ctx, tenantID, emp)
	if err != nil {
		return Employee{}, Employee{}, mapStoreError(err, ErrInvalidArgument)
	}

	if s.listener != nil && termsChanged(before, after) {
		n, err := s.listener.EmployeeChanged(ctx, tenantID, after.ID)
		if err != nil {
			return before, after, fmt.Errorf("%w: %v", ErrRecalculationFailed, err)
		}
		if n > 0 {
			slog.Info("benefit records recalculated", "employee_id", after.ID, "count", n)
		}
	}
	return before, after, nil
}

// IsManagerOf reports whether managerEmployeeID is the direct manager of
// employeeID.
func (s *Service) IsManagerOf(ctx context.Context, tenantID, managerEmployeeID, employeeID string) (bool, error) {
	if managerEmployeeID == "" || employeeID == "" || managerEmployeeID == employeeID {
		return false, nil
	}
	emp, err := s.GetEmployee(ctx, tenantID, employeeID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return emp.ManagerID == managerEmployeeID, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, tenantID, employeeID string) error {
	err := s.store.DeleteEmployee(ctx, tenantID, employeeID)
	if querier.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	return mapStoreError(err, ErrNotFound)
}

func (s *Service) ListDepartments(ctx context.Context, tenantID string, limit, offset int) ([]Department, int, error) {
	deps, err := s.store.ListDepartments(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.DepartmentCount(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	return deps, total, nil
}

func (s *Service) GetDepartment(ctx context.Context, tenantID, departmentID string) (Department, error) {
	dep, err := s.store.GetDepartment(ctx, tenantID, departmentID)
	return dep, mapStoreError(err, ErrNotFound)
}

func (s *Service) CreateDepartment(ctx context.Context, tenantID string, dep Department) (Department, error) {
	dep.Name = strings.TrimSpace(dep.Name)
	if dep.Name == "" {
		return Department{}, ErrInvalidArgument
	}
	created, err := s.store.CreateDepartment(ctx, tenantID, dep)
	return created, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) UpdateDepartment(ctx context.Context, tenantID string, dep Department) (Department, Department, error) {
	before, err := s.GetDepartment(ctx, tenantID, dep.ID)
	if err != nil {
		return Department{}, Department{}, err
	}
	dep.Name = strings.TrimSpace(dep.Name)
	if dep.Name == "" || dep.ParentID == dep.ID {
		return Department{}, Department{}, ErrInvalidArgument
	}
	after, err := s.store.UpdateDepartment(ctx, tenantID, dep)
	if err != nil {
		return Department{}, Department{}, mapStoreError(err, ErrInvalidArgument)
	}
	return before, after, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, tenantID, departmentID string) error {
	if _, err := s.GetDepartment(ctx, tenantID, departmentID); err != nil {
		return err
	}
	inUse, err := s.store.DepartmentHasEmployees(ctx, tenantID, departmentID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrInUse
	}
	err = s.store.DeleteDepartment(ctx, tenantID, departmentID)
	if querier.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	return mapStoreError(err, ErrNotFound)
}

func normalizeEmployee(emp *Employee) {
	emp.FirstName = strings.TrimSpace(emp.FirstName)
	emp.LastName = strings.TrimSpace(emp.LastName)
	emp.Email = strings.ToLower(strings.TrimSpace(emp.Email))
	emp.Phone = strings.TrimSpace(emp.Phone)
	emp.BankAccount = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(emp.BankAccount)), " ", "")
	if emp.Currency = strings.ToUpper(strings.TrimSpace(emp.Currency)); emp.Currency == "" {
		emp.Currency = DefaultCurrency
	}
	if emp.Status == "" {
		emp.Status = EmployeeStatusActive
	}
}

// ValidateEmployee checks the fields the calculators depend on.
func ValidateEmployee(emp Employee) error {
	if emp.FirstName == "" || emp.LastName == "" {
		return ErrInvalidArgument
	}
	if _, err := mail.ParseAddress(emp.Email); err != nil {
		return ErrInvalidArgument
	}
	if emp.StartDate.IsZero() {
		return ErrInvalidArgument
	}
	if emp.EndDate != nil && emp.EndDate.Before(emp.StartDate) {
		return ErrInvalidArgument
	}
	if !emp.BasicSalary.Valid || emp.BasicSalary.Decimal.IsNegative() {
		return ErrInvalidArgument
	}
	if len(emp.Currency) != 3 {
		return ErrInvalidArgument
	}
	switch emp.Status {
	case EmployeeStatusActive, EmployeeStatusOnLeave, EmployeeStatusTerminated:
	default:
		return ErrInvalidArgument
	}
	return nil
}

// termsChanged reports whether any gratuity input moved.
func termsChanged(before, after Employee) bool {
	if !before.BasicSalary.Decimal.Equal(after.BasicSalary.Decimal) {
		return true
	}
	if !before.StartDate.Equal(after.StartDate) {
		return true
	}
	switch {
	case before.EndDate == nil && after.EndDate == nil:
		return false
	case before.EndDate == nil || after.EndDate == nil:
		return true
	default:
		return !before.EndDate.Equal(*after.EndDate)
	}
}

func mapStoreError(err, invalidInput error) error {
	switch {
	case err == nil:
		return nil
	case querier.IsUniqueViolation(err):
		return ErrDuplicate
	case querier.IsForeignKeyViolation(err):
		return ErrUnknownReference
	case querier.IsInvalidInput(err):
		return invalidInput
	default:
		return err
	}
}
