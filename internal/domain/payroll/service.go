package payroll

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"hrms/internal/platform/querier"
)

type Repository interface {
	List(ctx context.Context, tenantID string, filter ListFilter) ([]Entry, error)
	Get(ctx context.Context, tenantID, entryID string) (Entry, error)
	Insert(ctx context.Context, tenantID string, e Entry) (Entry, error)
	UpdateAmounts(ctx context.Context, tenantID string, e Entry) (Entry, error)
	UpdateWPSStatus(ctx context.Context, tenantID string, e Entry, previous string) (Entry, error)
	Delete(ctx context.Context, tenantID, entryID string) error
	EmployeeSalary(ctx context.Context, tenantID, employeeID string) (decimal.Decimal, string, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]Entry, error) {
	return s.store.List(ctx, tenantID, filter)
}

func (s *Service) Get(ctx context.Context, tenantID, entryID string) (Entry, error) {
	e, err := s.store.Get(ctx, tenantID, entryID)
	return e, mapStoreError(err)
}

// Create computes a new entry. The basic salary defaults to the employee's
// current salary when omitted.
func (s *Service) Create(ctx context.Context, tenantID string, in EntryInput) (Entry, error) {
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	if in.EmployeeID == "" {
		return Entry{}, ErrInvalidArgument
	}
	salary, currency, err := s.store.EmployeeSalary(ctx, tenantID, in.EmployeeID)
	if err != nil {
		return Entry{}, mapStoreError(err)
	}
	if in.BasicSalary.Valid {
		salary = in.BasicSalary.Decimal
	}
	e := Entry{EmployeeID: in.EmployeeID, Currency: currency}
	if err := e.apply(in, salary); err != nil {
		return Entry{}, err
	}
	created, err := s.store.Insert(ctx, tenantID, e)
	if err != nil {
		return Entry{}, mapStoreError(err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, tenantID, entryID string, in EntryInput) (Entry, Entry, error) {
	before, err := s.Get(ctx, tenantID, entryID)
	if err != nil {
		return Entry{}, Entry{}, err
	}
	if !before.Editable() {
		return Entry{}, Entry{}, ErrInvalidTransition
	}
	salary := before.BasicSalary
	if in.BasicSalary.Valid {
		salary = in.BasicSalary.Decimal
	}
	e := before
	if err := e.apply(in, salary); err != nil {
		return Entry{}, Entry{}, err
	}
	after, err := s.store.UpdateAmounts(ctx, tenantID, e)
	if err != nil {
		return Entry{}, Entry{}, mapStoreError(err)
	}
	return before, after, nil
}

func (s *Service) SetWPSStatus(ctx context.Context, tenantID, entryID, status, reference string) (Entry, Entry, error) {
	before, err := s.Get(ctx, tenantID, entryID)
	if err != nil {
		return Entry{}, Entry{}, err
	}
	e := before
	if err := e.SetWPSStatus(status, reference); err != nil {
		return Entry{}, Entry{}, err
	}
	after, err := s.store.UpdateWPSStatus(ctx, tenantID, e, before.WPSStatus)
	if err != nil {
		return Entry{}, Entry{}, mapStoreError(err)
	}
	return before, after, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, entryID string) error {
	return mapStoreError(s.store.Delete(ctx, tenantID, entryID))
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrEmployeeNotFound):
		return err
	case querier.IsUniqueViolation(err):
		return ErrDuplicatePeriod
	case querier.IsForeignKeyViolation(err):
		return ErrEmployeeNotFound
	case querier.IsInvalidInput(err):
		return ErrNotFound
	default:
		return err
	}
}
