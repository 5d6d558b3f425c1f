package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/querier"
)

type Store struct {
	DB     querier.Querier
	Crypto *cryptoutil.Service
}

func NewStore(db querier.Querier, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

const employeeColumns = `id,
           COALESCE(user_id::text, ''),
           COALESCE(employee_number, ''),
           first_name, last_name, email,
           COALESCE(phone, ''),
           COALESCE(national_id, ''),
           national_id_enc,
           COALESCE(bank_account, ''),
           bank_account_enc,
           basic_salary,
           currency,
           COALESCE(employment_type, ''),
           COALESCE(department_id::text, ''),
           COALESCE(manager_id::text, ''),
           start_date, end_date, status, created_at, updated_at`

func (s *Store) scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var nationalEnc, bankEnc []byte
	var nationalPlain, bankPlain string
	if err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Phone,
		&nationalPlain, &nationalEnc, &bankPlain, &bankEnc, &emp.BasicSalary,
		&emp.Currency, &emp.EmploymentType, &emp.DepartmentID, &emp.ManagerID,
		&emp.StartDate, &emp.EndDate, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	var err error
	if emp.NationalID, err = s.Crypto.Open(nationalPlain, nationalEnc); err != nil {
		return Employee{}, fmt.Errorf("decrypt national id: %w", err)
	}
	if emp.BankAccount, err = s.Crypto.Open(bankPlain, bankEnc); err != nil {
		return Employee{}, fmt.Errorf("decrypt bank account: %w", err)
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.DepartmentID != "" {
		query += fmt.Sprintf(" AND department_id = $%d", len(args)+1)
		args = append(args, filter.DepartmentID)
	}
	if filter.ManagerID != "" {
		query += fmt.Sprintf(" AND manager_id = $%d", len(args)+1)
		args = append(args, filter.ManagerID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}
	query += " ORDER BY last_name, first_name"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Employee, 0)
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	emp, err := s.scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE tenant_id = $1 AND id = $2", tenantID, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return employeeID, err
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error) {
	nationalPlain, nationalEnc, err := s.Crypto.Seal(emp.NationalID)
	if err != nil {
		return Employee{}, err
	}
	bankPlain, bankEnc, err := s.Crypto.Seal(emp.BankAccount)
	if err != nil {
		return Employee{}, err
	}
	return s.scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, user_id, employee_number, first_name, last_name, email, phone,
      national_id, national_id_enc, bank_account, bank_account_enc, basic_salary, currency,
      employment_type, department_id, manager_id, start_date, end_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
    RETURNING `+employeeColumns,
		tenantID, nullIfEmpty(emp.UserID), nullIfEmpty(emp.EmployeeNumber), emp.FirstName, emp.LastName, emp.Email, emp.Phone,
		nationalPlain, nationalEnc, bankPlain, bankEnc, emp.BasicSalary.Decimal, emp.Currency,
		emp.EmploymentType, nullIfEmpty(emp.DepartmentID), nullIfEmpty(emp.ManagerID), emp.StartDate, emp.EndDate, emp.Status,
	))
}

func (s *Store) UpdateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error) {
	nationalPlain, nationalEnc, err := s.Crypto.Seal(emp.NationalID)
	if err != nil {
		return Employee{}, err
	}
	bankPlain, bankEnc, err := s.Crypto.Seal(emp.BankAccount)
	if err != nil {
		return Employee{}, err
	}
	updated, err := s.scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET employee_number = $3,
        first_name = $4,
        last_name = $5,
        email = $6,
        phone = $7,
        national_id = $8,
        national_id_enc = $9,
        bank_account = $10,
        bank_account_enc = $11,
        basic_salary = $12,
        currency = $13,
        employment_type = $14,
        department_id = $15,
        manager_id = $16,
        start_date = $17,
        end_date = $18,
        status = $19,
        updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+employeeColumns,
		tenantID, emp.ID, nullIfEmpty(emp.EmployeeNumber), emp.FirstName, emp.LastName, emp.Email, emp.Phone,
		nationalPlain, nationalEnc, bankPlain, bankEnc, emp.BasicSalary.Decimal, emp.Currency, emp.EmploymentType,
		nullIfEmpty(emp.DepartmentID), nullIfEmpty(emp.ManagerID), emp.StartDate, emp.EndDate, emp.Status,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return updated, err
}

func (s *Store) DeleteEmployee(ctx context.Context, tenantID, employeeID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM employees WHERE tenant_id = $1 AND id = $2", tenantID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
