package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

var ErrJobRunNotFound = errors.New("job run not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func collect[T any](ctx context.Context, db querier.Querier, scan func(pgx.Rows) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Snapshot loads the raw rows of every dashboard source for one tenant.
func (s *Store) Snapshot(ctx context.Context, tenantID string) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Employees, err = collect(ctx, s.DB, func(r pgx.Rows) (EmployeeRow, error) {
		var row EmployeeRow
		err := r.Scan(&row.Status, &row.DepartmentID)
		return row, err
	}, "SELECT status, COALESCE(department_id::text, '') FROM employees WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load employees: %w", err)
	}

	if snap.Payroll, err = collect(ctx, s.DB, func(r pgx.Rows) (PayrollRow, error) {
		var row PayrollRow
		err := r.Scan(&row.Net, &row.WPSStatus)
		return row, err
	}, "SELECT net, wps_status FROM payroll_entries WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load payroll: %w", err)
	}

	if snap.Compliance, err = collect(ctx, s.DB, func(r pgx.Rows) (ComplianceRow, error) {
		var row ComplianceRow
		err := r.Scan(&row.Score, &row.Status)
		return row, err
	}, "SELECT score, status FROM compliance_audits WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load compliance audits: %w", err)
	}

	if snap.Reviews, err = collect(ctx, s.DB, func(r pgx.Rows) (ReviewRow, error) {
		var row ReviewRow
		err := r.Scan(&row.Rating)
		return row, err
	}, "SELECT rating FROM performance_reviews WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load reviews: %w", err)
	}

	if snap.Assets, err = collect(ctx, s.DB, func(r pgx.Rows) (AssetRow, error) {
		var row AssetRow
		err := r.Scan(&row.Status, &row.Value)
		return row, err
	}, "SELECT status, value FROM assets WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load assets: %w", err)
	}

	if snap.Expenses, err = collect(ctx, s.DB, func(r pgx.Rows) (ExpenseRow, error) {
		var row ExpenseRow
		err := r.Scan(&row.Category, &row.Amount)
		return row, err
	}, "SELECT category, amount FROM expenses WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load expenses: %w", err)
	}

	if snap.Benefits, err = collect(ctx, s.DB, func(r pgx.Rows) (BenefitRow, error) {
		var row BenefitRow
		err := r.Scan(&row.Status, &row.Amount)
		return row, err
	}, "SELECT status, gratuity_amount FROM benefit_records WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load benefits: %w", err)
	}

	if snap.Leaves, err = collect(ctx, s.DB, func(r pgx.Rows) (LeaveRow, error) {
		var row LeaveRow
		err := r.Scan(&row.Status)
		return row, err
	}, "SELECT status FROM leave_requests WHERE tenant_id = $1", tenantID); err != nil {
		return Snapshot{}, fmt.Errorf("load leave requests: %w", err)
	}

	return snap, nil
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

func scanJobRun(row pgx.Row) (JobRun, error) {
	var run JobRun
	var detailsRaw []byte
	if err := row.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
		return JobRun{}, err
	}
	run.Details = decodeDetails(detailsRaw)
	return run, nil
}

func (s *Store) ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(tenantID, filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)
	return collect(ctx, s.DB, func(r pgx.Rows) (JobRun, error) { return scanJobRun(r) }, query, args...)
}

func (s *Store) CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) JobRunByID(ctx context.Context, tenantID, runID string) (JobRun, error) {
	query, args := buildJobRunsBaseQuery(tenantID, JobRunFilter{})
	query += " AND id = $" + strconv.Itoa(len(args)+1)
	run, err := scanJobRun(s.DB.QueryRow(ctx, query, append(args, runID)...))
	if errors.Is(err, pgx.ErrNoRows) || querier.IsInvalidInput(err) {
		return JobRun{}, ErrJobRunNotFound
	}
	return run, err
}

func buildJobRunsBaseQuery(tenantID string, filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE tenant_id = $1
  `
	args := []any{tenantID}

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		query += " AND started_at >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		query += " AND started_at <= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedTo)
	}

	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
