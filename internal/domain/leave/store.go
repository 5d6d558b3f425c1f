package leave

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

const requestColumns = `id, employee_id, type, start_date, end_date, days, reason, status,
           COALESCE(decided_by::text, ''), decided_at, created_at, updated_at`

func scanRequest(row pgx.Row) (LeaveRequest, error) {
	var req LeaveRequest
	err := row.Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.Days, &req.Reason, &req.Status,
		&req.DecidedBy, &req.DecidedAt, &req.CreatedAt, &req.UpdatedAt)
	return req, err
}

func (s *Store) ListRequests(ctx context.Context, tenantID string, filter ListFilter) ([]LeaveRequest, error) {
	query := "SELECT " + requestColumns + " FROM leave_requests WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.EmployeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}
	query += " ORDER BY start_date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaveRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, tenantID, requestID string) (LeaveRequest, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, "SELECT "+requestColumns+" FROM leave_requests WHERE tenant_id = $1 AND id = $2", tenantID, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrNotFound
	}
	return req, err
}

func (s *Store) InsertRequest(ctx context.Context, tenantID string, req LeaveRequest) (LeaveRequest, error) {
	created, err := scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (tenant_id, employee_id, type, start_date, end_date, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+requestColumns,
		tenantID, req.EmployeeID, req.Type, req.StartDate, req.EndDate, req.Days, req.Reason, req.Status))
	return created, err
}

// UpdateDetails persists edited fields. The status guard keeps a concurrent
// decision from being overwritten by a stale edit.
func (s *Store) UpdateDetails(ctx context.Context, tenantID string, req LeaveRequest) (LeaveRequest, error) {
	updated, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET type = $3, start_date = $4, end_date = $5, days = $6, reason = $7, updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = $8
    RETURNING `+requestColumns,
		tenantID, req.ID, req.Type, req.StartDate, req.EndDate, req.Days, req.Reason, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrInvalidTransition
	}
	return updated, err
}

// UpdateDecision moves a pending request to its decided status.
func (s *Store) UpdateDecision(ctx context.Context, tenantID string, req LeaveRequest) (LeaveRequest, error) {
	updated, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $3, decided_by = $4, decided_at = $5, updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = $6
    RETURNING `+requestColumns,
		tenantID, req.ID, req.Status, req.DecidedBy, req.DecidedAt, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrInvalidTransition
	}
	return updated, err
}

func (s *Store) DeleteRequest(ctx context.Context, tenantID, requestID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_requests WHERE tenant_id = $1 AND id = $2", tenantID, requestID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListAllotments(ctx context.Context, tenantID string) (Allotments, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT type, annual_total_days
    FROM leave_allotments
    WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := Allotments{}
	for rows.Next() {
		var leaveType string
		var days int
		if err := rows.Scan(&leaveType, &days); err != nil {
			return nil, err
		}
		out[leaveType] = days
	}
	return out, rows.Err()
}

func (s *Store) UpsertAllotment(ctx context.Context, tenantID string, allotment Allotment) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_allotments (tenant_id, type, annual_total_days)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id, type) DO UPDATE SET annual_total_days = EXCLUDED.annual_total_days, updated_at = now()
  `, tenantID, allotment.Type, allotment.AnnualTotalDays)
	return err
}
