package reports

import "context"

type Repository interface {
	Snapshot(ctx context.Context, tenantID string) (Snapshot, error)
	ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, tenantID, runID string) (JobRun, error)
}

type Service struct {
	Store Repository
}

func NewService(store Repository) *Service {
	return &Service{Store: store}
}

// Dashboard recomputes all statistics from the tenant's current rows.
func (s *Service) Dashboard(ctx context.Context, tenantID string) (Dashboard, error) {
	snap, err := s.Store.Snapshot(ctx, tenantID)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(snap), nil
}

func (s *Service) JobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	runs, err := s.Store.ListJobRuns(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Store.CountJobRuns(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) JobRun(ctx context.Context, tenantID, runID string) (JobRun, error) {
	return s.Store.JobRunByID(ctx, tenantID, runID)
}
