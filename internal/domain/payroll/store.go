package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const entryColumns = `id, employee_id, period_start, period_end, basic_salary, allowances, deductions, gross, net,
           currency, wps_status, wps_reference, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.EmployeeID, &e.PeriodStart, &e.PeriodEnd, &e.BasicSalary, &e.Allowances, &e.Deductions, &e.Gross, &e.Net,
		&e.Currency, &e.WPSStatus, &e.WPSReference, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.computeWarnings()
	return e, nil
}

func (s *Store) List(ctx context.Context, tenantID string, filter ListFilter) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM payroll_entries WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.EmployeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, filter.EmployeeID)
	}
	if filter.WPSStatus != "" {
		query += fmt.Sprintf(" AND wps_status = $%d", len(args)+1)
		args = append(args, filter.WPSStatus)
	}
	if filter.PeriodFrom != nil {
		query += fmt.Sprintf(" AND period_start >= $%d", len(args)+1)
		args = append(args, *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		query += fmt.Sprintf(" AND period_end <= $%d", len(args)+1)
		args = append(args, *filter.PeriodTo)
	}
	query += " ORDER BY period_start DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, tenantID, entryID string) (Entry, error) {
	e, err := scanEntry(s.DB.QueryRow(ctx, "SELECT "+entryColumns+" FROM payroll_entries WHERE tenant_id = $1 AND id = $2", tenantID, entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *Store) Insert(ctx context.Context, tenantID string, e Entry) (Entry, error) {
	return scanEntry(s.DB.QueryRow(ctx, `
    INSERT INTO payroll_entries (tenant_id, employee_id, period_start, period_end, basic_salary, allowances, deductions,
      gross, net, currency, wps_status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING `+entryColumns,
		tenantID, e.EmployeeID, e.PeriodStart, e.PeriodEnd, e.BasicSalary, e.Allowances, e.Deductions,
		e.Gross, e.Net, e.Currency, e.WPSStatus))
}

// UpdateAmounts only matches entries still editable on the WPS side.
func (s *Store) UpdateAmounts(ctx context.Context, tenantID string, e Entry) (Entry, error) {
	updated, err := scanEntry(s.DB.QueryRow(ctx, `
    UPDATE payroll_entries
    SET period_start = $3, period_end = $4, basic_salary = $5, allowances = $6, deductions = $7,
        gross = $8, net = $9, wps_status = $10, wps_reference = '', updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND wps_status IN ($11, $12)
    RETURNING `+entryColumns,
		tenantID, e.ID, e.PeriodStart, e.PeriodEnd, e.BasicSalary, e.Allowances, e.Deductions,
		e.Gross, e.Net, WPSPending, WPSPending, WPSRejected))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrInvalidTransition
	}
	return updated, err
}

// UpdateWPSStatus compares against the previous status to reject a
// concurrent transition.
func (s *Store) UpdateWPSStatus(ctx context.Context, tenantID string, e Entry, previous string) (Entry, error) {
	updated, err := scanEntry(s.DB.QueryRow(ctx, `
    UPDATE payroll_entries
    SET wps_status = $3, wps_reference = $4, updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND wps_status = $5
    RETURNING `+entryColumns,
		tenantID, e.ID, e.WPSStatus, e.WPSReference, previous))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrInvalidTransition
	}
	return updated, err
}

func (s *Store) Delete(ctx context.Context, tenantID, entryID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM payroll_entries WHERE tenant_id = $1 AND id = $2", tenantID, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) EmployeeSalary(ctx context.Context, tenantID, employeeID string) (decimal.Decimal, string, error) {
	var salary decimal.Decimal
	var currency string
	err := s.DB.QueryRow(ctx, "SELECT basic_salary, currency FROM employees WHERE tenant_id = $1 AND id = $2", tenantID, employeeID).Scan(&salary, &currency)
	if errors.Is(err, pgx.ErrNoRows) || querier.IsInvalidInput(err) {
		return decimal.Zero, "", ErrEmployeeNotFound
	}
	return salary, currency, err
}
