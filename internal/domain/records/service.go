package records

import (
	"context"
	"errors"

	"hrms/internal/platform/querier"
)

type Repository interface {
	ListAssets(ctx context.Context, tenantID string, limit, offset int) ([]Asset, error)
	GetAsset(ctx context.Context, tenantID, id string) (Asset, error)
	CreateAsset(ctx context.Context, tenantID string, a Asset) (Asset, error)
	UpdateAsset(ctx context.Context, tenantID string, a Asset) (Asset, error)
	DeleteAsset(ctx context.Context, tenantID, id string) error

	ListAudits(ctx context.Context, tenantID string, limit, offset int) ([]ComplianceAudit, error)
	GetAudit(ctx context.Context, tenantID, id string) (ComplianceAudit, error)
	CreateAudit(ctx context.Context, tenantID string, a ComplianceAudit) (ComplianceAudit, error)
	UpdateAudit(ctx context.Context, tenantID string, a ComplianceAudit) (ComplianceAudit, error)
	DeleteAudit(ctx context.Context, tenantID, id string) error

	ListReviews(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]PerformanceReview, error)
	GetReview(ctx context.Context, tenantID, id string) (PerformanceReview, error)
	CreateReview(ctx context.Context, tenantID string, r PerformanceReview) (PerformanceReview, error)
	UpdateReview(ctx context.Context, tenantID string, r PerformanceReview) (PerformanceReview, error)
	DeleteReview(ctx context.Context, tenantID, id string) error

	ListExpenses(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Expense, error)
	GetExpense(ctx context.Context, tenantID, id string) (Expense, error)
	CreateExpense(ctx context.Context, tenantID string, e Expense) (Expense, error)
	UpdateExpense(ctx context.Context, tenantID string, e Expense) (Expense, error)
	DeleteExpense(ctx context.Context, tenantID, id string) error
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

func (s *Service) ListAssets(ctx context.Context, tenantID string, limit, offset int) ([]Asset, error) {
	return s.store.ListAssets(ctx, tenantID, limit, offset)
}

func (s *Service) GetAsset(ctx context.Context, tenantID, id string) (Asset, error) {
	a, err := s.store.GetAsset(ctx, tenantID, id)
	return a, mapStoreError(err, ErrNotFound)
}

func (s *Service) CreateAsset(ctx context.Context, tenantID string, a Asset) (Asset, error) {
	if err := NormalizeAsset(&a); err != nil {
		return Asset{}, err
	}
	created, err := s.store.CreateAsset(ctx, tenantID, a)
	return created, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) UpdateAsset(ctx context.Context, tenantID string, a Asset) (Asset, Asset, error) {
	before, err := s.GetAsset(ctx, tenantID, a.ID)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	if err := NormalizeAsset(&a); err != nil {
		return Asset{}, Asset{}, err
	}
	after, err := s.store.UpdateAsset(ctx, tenantID, a)
	return before, after, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) DeleteAsset(ctx context.Context, tenantID, id string) error {
	return mapStoreError(s.store.DeleteAsset(ctx, tenantID, id), ErrNotFound)
}

func (s *Service) ListAudits(ctx context.Context, tenantID string, limit, offset int) ([]ComplianceAudit, error) {
	return s.store.ListAudits(ctx, tenantID, limit, offset)
}

func (s *Service) GetAudit(ctx context.Context, tenantID, id string) (ComplianceAudit, error) {
	a, err := s.store.GetAudit(ctx, tenantID, id)
	return a, mapStoreError(err, ErrNotFound)
}

func (s *Service) CreateAudit(ctx context.Context, tenantID string, a ComplianceAudit) (ComplianceAudit, error) {
	if err := NormalizeAudit(&a); err != nil {
		return ComplianceAudit{}, err
	}
	created, err := s.store.CreateAudit(ctx, tenantID, a)
	return created, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) UpdateAudit(ctx context.Context, tenantID string, a ComplianceAudit) (ComplianceAudit, ComplianceAudit, error) {
	before, err := s.GetAudit(ctx, tenantID, a.ID)
	if err != nil {
		return ComplianceAudit{}, ComplianceAudit{}, err
	}
	if err := NormalizeAudit(&a); err != nil {
		return ComplianceAudit{}, ComplianceAudit{}, err
	}
	after, err := s.store.UpdateAudit(ctx, tenantID, a)
	return before, after, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) DeleteAudit(ctx context.Context, tenantID, id string) error {
	return mapStoreError(s.store.DeleteAudit(ctx, tenantID, id), ErrNotFound)
}

func (s *Service) ListReviews(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]PerformanceReview, error) {
	return s.store.ListReviews(ctx, tenantID, employeeID, limit, offset)
}

func (s *Service) GetReview(ctx context.Context, tenantID, id string) (PerformanceReview, error) {
	r, err := s.store.GetReview(ctx, tenantID, id)
	return r, mapStoreError(err, ErrNotFound)
}

func (s *Service) CreateReview(ctx context.Context, tenantID string, r PerformanceReview) (PerformanceReview, error) {
	if err := NormalizeReview(&r); err != nil {
		return PerformanceReview{}, err
	}
	created, err := s.store.CreateReview(ctx, tenantID, r)
	return created, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) UpdateReview(ctx context.Context, tenantID string, r PerformanceReview) (PerformanceReview, PerformanceReview, error) {
	before, err := s.GetReview(ctx, tenantID, r.ID)
	if err != nil {
		return PerformanceReview{}, PerformanceReview{}, err
	}
	if err := NormalizeReview(&r); err != nil {
		return PerformanceReview{}, PerformanceReview{}, err
	}
	after, err := s.store.UpdateReview(ctx, tenantID, r)
	return before, after, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) DeleteReview(ctx context.Context, tenantID, id string) error {
	return mapStoreError(s.store.DeleteReview(ctx, tenantID, id), ErrNotFound)
}

func (s *Service) ListExpenses(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Expense, error) {
	return s.store.ListExpenses(ctx, tenantID, employeeID, limit, offset)
}

func (s *Service) GetExpense(ctx context.Context, tenantID, id string) (Expense, error) {
	e, err := s.store.GetExpense(ctx, tenantID, id)
	return e, mapStoreError(err, ErrNotFound)
}

func (s *Service) CreateExpense(ctx context.Context, tenantID string, e Expense) (Expense, error) {
	if err := NormalizeExpense(&e); err != nil {
		return Expense{}, err
	}
	created, err := s.store.CreateExpense(ctx, tenantID, e)
	return created, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) UpdateExpense(ctx context.Context, tenantID string, e Expense) (Expense, Expense, error) {
	before, err := s.GetExpense(ctx, tenantID, e.ID)
	if err != nil {
		return Expense{}, Expense{}, err
	}
	if err := NormalizeExpense(&e); err != nil {
		return Expense{}, Expense{}, err
	}
	after, err := s.store.UpdateExpense(ctx, tenantID, e)
	return before, after, mapStoreError(err, ErrInvalidArgument)
}

func (s *Service) DeleteExpense(ctx context.Context, tenantID, id string) error {
	return mapStoreError(s.store.DeleteExpense(ctx, tenantID, id), ErrNotFound)
}

// mapStoreError translates driver errors. invalidInput is returned for
// malformed literals: ErrNotFound on lookups by id, ErrInvalidArgument on
// writes.
func mapStoreError(err, invalidInput error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return err
	case querier.IsForeignKeyViolation(err):
		return ErrUnknownEmployee
	case querier.IsUniqueViolation(err):
		return ErrDuplicate
	case querier.IsInvalidInput(err):
		return invalidInput
	default:
		return err
	}
}
