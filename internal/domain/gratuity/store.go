package gratuity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = `id, tenant_id, employee_id, years_of_service, basic_salary, gratuity_amount, status,
           calculated_at, paid_out_at, payout_reference, created_at, updated_at`

func scanRecord(row pgx.Row) (BenefitRecord, error) {
	var rec BenefitRecord
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.EmployeeID, &rec.YearsOfService, &rec.BasicSalary, &rec.GratuityAmount, &rec.Status,
		&rec.CalculatedAt, &rec.PaidOutAt, &rec.PayoutReference, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func collectRecords(rows pgx.Rows) ([]BenefitRecord, error) {
	defer rows.Close()
	out := make([]BenefitRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context, tenantID string, filter ListFilter) ([]BenefitRecord, error) {
	query := "SELECT " + recordColumns + " FROM benefit_records WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.EmployeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) Get(ctx context.Context, tenantID, recordID string) (BenefitRecord, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM benefit_records WHERE tenant_id = $1 AND id = $2", tenantID, recordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return BenefitRecord{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) Insert(ctx context.Context, tenantID string, rec BenefitRecord) (BenefitRecord, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO benefit_records (tenant_id, employee_id, years_of_service, basic_salary, gratuity_amount, status, calculated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+recordColumns,
		tenantID, rec.EmployeeID, rec.YearsOfService, rec.BasicSalary, rec.GratuityAmount, rec.Status, rec.CalculatedAt))
}

// UpdateCalculation writes recomputed inputs and amount. Only accruing rows
// match, so a payout that landed first wins.
func (s *Store) UpdateCalculation(ctx context.Context, tenantID string, rec BenefitRecord) (BenefitRecord, error) {
	updated, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE benefit_records
    SET years_of_service = $3, basic_salary = $4, gratuity_amount = $5, calculated_at = $6, updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = $7
    RETURNING `+recordColumns,
		tenantID, rec.ID, rec.YearsOfService, rec.BasicSalary, rec.GratuityAmount, rec.CalculatedAt, StatusAccruing))
	if errors.Is(err, pgx.ErrNoRows) {
		return BenefitRecord{}, ErrInvalidTransition
	}
	return updated, err
}

func (s *Store) MarkPaidOut(ctx context.Context, tenantID string, rec BenefitRecord) (BenefitRecord, error) {
	updated, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE benefit_records
    SET status = $3, paid_out_at = $4, payout_reference = $5, updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = $6
    RETURNING `+recordColumns,
		tenantID, rec.ID, rec.Status, rec.PaidOutAt, rec.PayoutReference, StatusAccruing))
	if errors.Is(err, pgx.ErrNoRows) {
		return BenefitRecord{}, ErrInvalidTransition
	}
	return updated, err
}

func (s *Store) Delete(ctx context.Context, tenantID, recordID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM benefit_records WHERE tenant_id = $1 AND id = $2", tenantID, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) EmployeeTerms(ctx context.Context, tenantID, employeeID string) (EmployeeTerms, error) {
	var terms EmployeeTerms
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name || ' ' || last_name, currency, basic_salary, start_date, end_date
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID).Scan(&terms.EmployeeID, &terms.FullName, &terms.Currency, &terms.BasicSalary, &terms.StartDate, &terms.EndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeTerms{}, ErrEmployeeNotFound
	}
	return terms, err
}
