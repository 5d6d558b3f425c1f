package gratuity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/platform/config"
	"hrms/internal/platform/querier"
)

type Repository interface {
	List(ctx context.Context, tenantID string, filter ListFilter) ([]BenefitRecord, error)
	Get(ctx context.Context, tenantID, recordID string) (BenefitRecord, error)
	Insert(ctx context.Context, tenantID string, rec BenefitRecord) (BenefitRecord, error)
	UpdateCalculation(ctx context.Context, tenantID string, rec BenefitRecord) (BenefitRecord, error)
	MarkPaidOut(ctx context.Context, tenantID string, rec BenefitRecord) (BenefitRecord, error)
	Delete(ctx context.Context, tenantID, recordID string) error
	EmployeeTerms(ctx context.Context, tenantID, employeeID string) (EmployeeTerms, error)
}

type Service struct {
	Store  Repository
	Policy string
	Now    func() time.Time
}

func NewService(store Repository, policy string) *Service {
	if policy == "" {
		policy = config.RecalcManual
	}
	return &Service{Store: store, Policy: policy, Now: time.Now}
}

// Preview runs the calculator without touching storage.
func (s *Service) Preview(yearsOfService, basicSalary decimal.Decimal) (Calculation, error) {
	if err := ValidateInputs(yearsOfService, basicSalary); err != nil {
		return Calculation{}, err
	}
	return Calculation{
		YearsOfService: yearsOfService,
		BasicSalary:    basicSalary,
		GratuityAmount: CalculateGratuity(yearsOfService, basicSalary),
	}, nil
}

func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]BenefitRecord, error) {
	return s.Store.List(ctx, tenantID, filter)
}

func (s *Service) Get(ctx context.Context, tenantID, recordID string) (BenefitRecord, error) {
	rec, err := s.Store.Get(ctx, tenantID, recordID)
	if err != nil {
		return BenefitRecord{}, mapStoreError(err, ErrNotFound)
	}
	return rec, nil
}

func (s *Service) Create(ctx context.Context, tenantID, employeeID string, inputs Inputs) (BenefitRecord, error) {
	if employeeID == "" {
		return BenefitRecord{}, ErrInvalidArgument
	}
	years, salary, err := s.resolve(ctx, tenantID, employeeID, inputs)
	if err != nil {
		return BenefitRecord{}, err
	}
	rec, err := NewRecord(employeeID, years, salary, s.Now())
	if err != nil {
		return BenefitRecord{}, err
	}
	created, err := s.Store.Insert(ctx, tenantID, rec)
	if err != nil {
		return BenefitRecord{}, mapStoreError(err, ErrEmployeeNotFound)
	}
	return created, nil
}

// Recalculate recomputes an accruing record. Explicit inputs win; anything
// left out is read from the employee's current terms.
func (s *Service) Recalculate(ctx context.Context, tenantID, recordID string, inputs Inputs) (BenefitRecord, error) {
	rec, err := s.Get(ctx, tenantID, recordID)
	if err != nil {
		return BenefitRecord{}, err
	}
	if rec.Status != StatusAccruing {
		return BenefitRecord{}, ErrInvalidTransition
	}
	years, salary, err := s.resolve(ctx, tenantID, rec.EmployeeID, inputs)
	if err != nil {
		return BenefitRecord{}, err
	}
	return s.recalculate(ctx, tenantID, rec, years, salary)
}

func (s *Service) recalculate(ctx context.Context, tenantID string, rec BenefitRecord, years, salary decimal.Decimal) (BenefitRecord, error) {
	if err := rec.Recalculate(years, salary, s.Now()); err != nil {
		return BenefitRecord{}, err
	}
	updated, err := s.Store.UpdateCalculation(ctx, tenantID, rec)
	if err != nil {
		return BenefitRecord{}, mapStoreError(err, ErrNotFound)
	}
	return updated, nil
}

func (s *Service) Payout(ctx context.Context, tenantID, recordID, reference string) (BenefitRecord, error) {
	rec, err := s.Get(ctx, tenantID, recordID)
	if err != nil {
		return BenefitRecord{}, err
	}
	if err := rec.Payout(reference, s.Now()); err != nil {
		return BenefitRecord{}, err
	}
	updated, err := s.Store.MarkPaidOut(ctx, tenantID, rec)
	if err != nil {
		return BenefitRecord{}, mapStoreError(err, ErrNotFound)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, recordID string) error {
	return mapStoreError(s.Store.Delete(ctx, tenantID, recordID), ErrNotFound)
}

// EmployeeChanged is called after an employee's salary or start date is
// updated. It only acts under the on_change policy and returns the number of
// records recomputed.
func (s *Service) EmployeeChanged(ctx context.Context, tenantID, employeeID string) (int, error) {
	if s.Policy != config.RecalcOnChange {
		return 0, nil
	}
	records, err := s.Store.List(ctx, tenantID, ListFilter{EmployeeID: employeeID, Status: StatusAccruing})
	if err != nil {
		return 0, err
	}
	return s.refresh(ctx, tenantID, records)
}

// RecalculateAccruing refreshes tenure and salary on every accruing record of
// the tenant.
func (s *Service) RecalculateAccruing(ctx context.Context, tenantID string) (int, error) {
	records, err := s.Store.List(ctx, tenantID, ListFilter{Status: StatusAccruing})
	if err != nil {
		return 0, err
	}
	return s.refresh(ctx, tenantID, records)
}

func (s *Service) refresh(ctx context.Context, tenantID string, records []BenefitRecord) (int, error) {
	count := 0
	for _, rec := range records {
		years, salary, err := s.resolve(ctx, tenantID, rec.EmployeeID, Inputs{})
		if err != nil {
			return count, fmt.Errorf("resolve terms for record %s: %w", rec.ID, err)
		}
		if _, err := s.recalculate(ctx, tenantID, rec, years, salary); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				slog.Warn("benefit record paid out during recalculation", "record_id", rec.ID)
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Service) resolve(ctx context.Context, tenantID, employeeID string, inputs Inputs) (decimal.Decimal, decimal.Decimal, error) {
	if inputs.YearsOfService.Valid && inputs.BasicSalary.Valid {
		return inputs.YearsOfService.Decimal, inputs.BasicSalary.Decimal, nil
	}
	terms, err := s.Store.EmployeeTerms(ctx, tenantID, employeeID)
	if err != nil {
		return decimal.Zero, decimal.Zero, mapStoreError(err, ErrEmployeeNotFound)
	}
	years := inputs.YearsOfService.Decimal
	if !inputs.YearsOfService.Valid {
		years = YearsOfService(terms.StartDate, serviceEnd(terms, s.Now()))
	}
	salary := inputs.BasicSalary.Decimal
	if !inputs.BasicSalary.Valid {
		salary = terms.BasicSalary
	}
	return years, salary, nil
}

func serviceEnd(terms EmployeeTerms, now time.Time) time.Time {
	if terms.EndDate != nil && terms.EndDate.Before(now) {
		return *terms.EndDate
	}
	return now
}

// Statement renders the PDF statement of a record to w.
func (s *Service) Statement(ctx context.Context, tenantID, recordID string, w io.Writer) error {
	rec, err := s.Get(ctx, tenantID, recordID)
	if err != nil {
		return err
	}
	terms, err := s.Store.EmployeeTerms(ctx, tenantID, rec.EmployeeID)
	if err != nil {
		return mapStoreError(err, ErrEmployeeNotFound)
	}
	return WriteStatement(w, Statement{Record: rec, Employee: terms, GeneratedAt: s.Now()})
}

func mapStoreError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmployeeNotFound), errors.Is(err, ErrInvalidTransition):
		return err
	case querier.IsInvalidInput(err):
		return notFound
	case querier.IsForeignKeyViolation(err):
		return ErrEmployeeNotFound
	default:
		return err
	}
}
