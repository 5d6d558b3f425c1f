package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const departmentColumns = `id, name, COALESCE(parent_id::text, ''), COALESCE(manager_id::text, ''), created_at, updated_at`

func scanDepartment(row pgx.Row) (Department, error) {
	var dep Department
	err := row.Scan(&dep.ID, &dep.Name, &dep.ParentID, &dep.ManagerID, &dep.CreatedAt, &dep.UpdatedAt)
	return dep, err
}

func (s *Store) ListDepartments(ctx context.Context, tenantID string, limit, offset int) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+departmentColumns+`
    FROM departments
    WHERE tenant_id = $1
    ORDER BY name
    LIMIT $2 OFFSET $3
  `, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Department, 0)
	for rows.Next() {
		dep, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, rows.Err()
}

func (s *Store) DepartmentCount(ctx context.Context, tenantID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM departments WHERE tenant_id = $1", tenantID).Scan(&total)
	return total, err
}

func (s *Store) GetDepartment(ctx context.Context, tenantID, departmentID string) (Department, error) {
	dep, err := scanDepartment(s.DB.QueryRow(ctx, "SELECT "+departmentColumns+" FROM departments WHERE tenant_id = $1 AND id = $2", tenantID, departmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrNotFound
	}
	return dep, err
}

func (s *Store) CreateDepartment(ctx context.Context, tenantID string, dep Department) (Department, error) {
	return scanDepartment(s.DB.QueryRow(ctx, `
    INSERT INTO departments (tenant_id, name, parent_id, manager_id)
    VALUES ($1,$2,$3,$4)
    RETURNING `+departmentColumns,
		tenantID, dep.Name, nullIfEmpty(dep.ParentID), nullIfEmpty(dep.ManagerID)))
}

func (s *Store) UpdateDepartment(ctx context.Context, tenantID string, dep Department) (Department, error) {
	updated, err := scanDepartment(s.DB.QueryRow(ctx, `
    UPDATE departments
    SET name = $3, parent_id = $4, manager_id = $5, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+departmentColumns,
		tenantID, dep.ID, dep.Name, nullIfEmpty(dep.ParentID), nullIfEmpty(dep.ManagerID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrNotFound
	}
	return updated, err
}

func (s *Store) DepartmentHasEmployees(ctx context.Context, tenantID, departmentID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM employees WHERE tenant_id = $1 AND department_id = $2)", tenantID, departmentID).Scan(&exists)
	return exists, err
}

func (s *Store) DeleteDepartment(ctx context.Context, tenantID, departmentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM departments WHERE tenant_id = $1 AND id = $2", tenantID, departmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
