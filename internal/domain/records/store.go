package records

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func listRows[T any](ctx context.Context, db querier.Querier, scan func(pgx.Row) (T, error), query string, args ...any) ([]T, error) {
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

func oneRow[T any](row pgx.Row, scan func(pgx.Row) (T, error)) (T, error) {
	item, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, ErrNotFound
	}
	return item, err
}

func affectedOne(tag pgconn.CommandTag, err error) error {
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

const assetColumns = `id, name, category, COALESCE(serial_number, ''), COALESCE(assigned_to::text, ''), status, value,
           purchased_on, created_at, updated_at`

func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
	err := row.Scan(&a.ID, &a.Name, &a.Category, &a.SerialNumber, &a.AssignedTo, &a.Status, &a.Value, &a.PurchasedOn, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) ListAssets(ctx context.Context, tenantID string, limit, offset int) ([]Asset, error) {
	return listRows(ctx, s.DB, scanAsset, "SELECT "+assetColumns+" FROM assets WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3", tenantID, limit, offset)
}

func (s *Store) GetAsset(ctx context.Context, tenantID, id string) (Asset, error) {
	return oneRow(s.DB.QueryRow(ctx, "SELECT "+assetColumns+" FROM assets WHERE tenant_id = $1 AND id = $2", tenantID, id), scanAsset)
}

func (s *Store) CreateAsset(ctx context.Context, tenantID string, a Asset) (Asset, error) {
	return scanAsset(s.DB.QueryRow(ctx, `
    INSERT INTO assets (tenant_id, name, category, serial_number, assigned_to, status, value, purchased_on)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+assetColumns,
		tenantID, a.Name, a.Category, nullIfEmpty(a.SerialNumber), nullIfEmpty(a.AssignedTo), a.Status, a.Value, a.PurchasedOn))
}

func (s *Store) UpdateAsset(ctx context.Context, tenantID string, a Asset) (Asset, error) {
	return oneRow(s.DB.QueryRow(ctx, `
    UPDATE assets
    SET name = $3, category = $4, serial_number = $5, assigned_to = $6, status = $7, value = $8, purchased_on = $9, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+assetColumns,
		tenantID, a.ID, a.Name, a.Category, nullIfEmpty(a.SerialNumber), nullIfEmpty(a.AssignedTo), a.Status, a.Value, a.PurchasedOn), scanAsset)
}

func (s *Store) DeleteAsset(ctx context.Context, tenantID, id string) error {
	return affectedOne(s.DB.Exec(ctx, "DELETE FROM assets WHERE tenant_id = $1 AND id = $2", tenantID, id))
}

const auditColumns = `id, title, area, audit_date, score, status, findings, created_at, updated_at`

func scanAudit(row pgx.Row) (ComplianceAudit, error) {
	var a ComplianceAudit
	err := row.Scan(&a.ID, &a.Title, &a.Area, &a.AuditDate, &a.Score, &a.Status, &a.Findings, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) ListAudits(ctx context.Context, tenantID string, limit, offset int) ([]ComplianceAudit, error) {
	return listRows(ctx, s.DB, scanAudit, "SELECT "+auditColumns+" FROM compliance_audits WHERE tenant_id = $1 ORDER BY audit_date DESC LIMIT $2 OFFSET $3", tenantID, limit, offset)
}

func (s *Store) GetAudit(ctx context.Context, tenantID, id string) (ComplianceAudit, error) {
	return oneRow(s.DB.QueryRow(ctx, "SELECT "+auditColumns+" FROM compliance_audits WHERE tenant_id = $1 AND id = $2", tenantID, id), scanAudit)
}

func (s *Store) CreateAudit(ctx context.Context, tenantID string, a ComplianceAudit) (ComplianceAudit, error) {
	return scanAudit(s.DB.QueryRow(ctx, `
    INSERT INTO compliance_audits (tenant_id, title, area, audit_date, score, status, findings)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+auditColumns,
		tenantID, a.Title, a.Area, a.AuditDate, a.Score, a.Status, a.Findings))
}

func (s *Store) UpdateAudit(ctx context.Context, tenantID string, a ComplianceAudit) (ComplianceAudit, error) {
	return oneRow(s.DB.QueryRow(ctx, `
    UPDATE compliance_audits
    SET title = $3, area = $4, audit_date = $5, score = $6, status = $7, findings = $8, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+auditColumns,
		tenantID, a.ID, a.Title, a.Area, a.AuditDate, a.Score, a.Status, a.Findings), scanAudit)
}

func (s *Store) DeleteAudit(ctx context.Context, tenantID, id string) error {
	return affectedOne(s.DB.Exec(ctx, "DELETE FROM compliance_audits WHERE tenant_id = $1 AND id = $2", tenantID, id))
}

const reviewColumns = `id, employee_id, COALESCE(reviewer_id::text, ''), period, rating, comments, created_at, updated_at`

func scanReview(row pgx.Row) (PerformanceReview, error) {
	var r PerformanceReview
	err := row.Scan(&r.ID, &r.EmployeeID, &r.ReviewerID, &r.Period, &r.Rating, &r.Comments, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) ListReviews(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]PerformanceReview, error) {
	if employeeID != "" {
		return listRows(ctx, s.DB, scanReview, "SELECT "+reviewColumns+" FROM performance_reviews WHERE tenant_id = $1 AND employee_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4", tenantID, employeeID, limit, offset)
	}
	return listRows(ctx, s.DB, scanReview, "SELECT "+reviewColumns+" FROM performance_reviews WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3", tenantID, limit, offset)
}

func (s *Store) GetReview(ctx context.Context, tenantID, id string) (PerformanceReview, error) {
	return oneRow(s.DB.QueryRow(ctx, "SELECT "+reviewColumns+" FROM performance_reviews WHERE tenant_id = $1 AND id = $2", tenantID, id), scanReview)
}

func (s *Store) CreateReview(ctx context.Context, tenantID string, r PerformanceReview) (PerformanceReview, error) {
	return scanReview(s.DB.QueryRow(ctx, `
    INSERT INTO performance_reviews (tenant_id, employee_id, reviewer_id, period, rating, comments)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+reviewColumns,
		tenantID, r.EmployeeID, nullIfEmpty(r.ReviewerID), r.Period, r.Rating, r.Comments))
}

func (s *Store) UpdateReview(ctx context.Context, tenantID string, r PerformanceReview) (PerformanceReview, error) {
	return oneRow(s.DB.QueryRow(ctx, `
    UPDATE performance_reviews
    SET employee_id = $3, reviewer_id = $4, period = $5, rating = $6, comments = $7, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+reviewColumns,
		tenantID, r.ID, r.EmployeeID, nullIfEmpty(r.ReviewerID), r.Period, r.Rating, r.Comments), scanReview)
}

func (s *Store) DeleteReview(ctx context.Context, tenantID, id string) error {
	return affectedOne(s.DB.Exec(ctx, "DELETE FROM performance_reviews WHERE tenant_id = $1 AND id = $2", tenantID, id))
}

const expenseColumns = `id, employee_id, category, amount, currency, incurred_on, description, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.EmployeeID, &e.Category, &e.Amount, &e.Currency, &e.IncurredOn, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) ListExpenses(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Expense, error) {
	if employeeID != "" {
		return listRows(ctx, s.DB, scanExpense, "SELECT "+expenseColumns+" FROM expenses WHERE tenant_id = $1 AND employee_id = $2 ORDER BY incurred_on DESC LIMIT $3 OFFSET $4", tenantID, employeeID, limit, offset)
	}
	return listRows(ctx, s.DB, scanExpense, "SELECT "+expenseColumns+" FROM expenses WHERE tenant_id = $1 ORDER BY incurred_on DESC LIMIT $2 OFFSET $3", tenantID, limit, offset)
}

func (s *Store) GetExpense(ctx context.Context, tenantID, id string) (Expense, error) {
	return oneRow(s.DB.QueryRow(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE tenant_id = $1 AND id = $2", tenantID, id), scanExpense)
}

func (s *Store) CreateExpense(ctx context.Context, tenantID string, e Expense) (Expense, error) {
	return scanExpense(s.DB.QueryRow(ctx, `
    INSERT INTO expenses (tenant_id, employee_id, category, amount, currency, incurred_on, description)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+expenseColumns,
		tenantID, e.EmployeeID, e.Category, e.Amount, e.Currency, e.IncurredOn, e.Description))
}

func (s *Store) UpdateExpense(ctx context.Context, tenantID string, e Expense) (Expense, error) {
	return oneRow(s.DB.QueryRow(ctx, `
    UPDATE expenses
    SET employee_id = $3, category = $4, amount = $5, currency = $6, incurred_on = $7, description = $8, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+expenseColumns,
		tenantID, e.ID, e.EmployeeID, e.Category, e.Amount, e.Currency, e.IncurredOn, e.Description), scanExpense)
}

func (s *Store) DeleteExpense(ctx context.Context, tenantID, id string) error {
	return affectedOne(s.DB.Exec(ctx, "DELETE FROM expenses WHERE tenant_id = $1 AND id = $2", tenantID, id))
}
