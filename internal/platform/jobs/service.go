package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hrms/internal/platform/querier"
)

const JobGratuityRecalc = "gratuity_recalculation"

const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Recalculator refreshes every accruing benefit record of one tenant.
type Recalculator interface {
	RecalculateAccruing(ctx context.Context, tenantID string) (int, error)
}

// Observer is told about every finished run.
type Observer interface {
	RecordJob(jobType string, err error)
}

type RunFunc func(context.Context) (any, error)

type Service struct {
	DB       querier.Querier
	Gratuity Recalculator
	Observer Observer
	Interval time.Duration

	queue chan job
	wg    sync.WaitGroup
}

type job struct {
	Type     string
	TenantID string
	Run      RunFunc
}

// New returns a jobs service. A zero interval disables the recalculation
// schedule; jobs can still be enqueued or run directly.
func New(db querier.Querier, gratuity Recalculator, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Gratuity: gratuity,
		Interval: interval,
		queue:    make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	if s.Interval > 0 && s.Gratuity != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.scheduleRecalculation(ctx, s.Interval)
		}()
	}
}

// Wait blocks until the worker and scheduler have returned after ctx is done.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue drops the job with a warning when the queue is full.
func (s *Service) Enqueue(jobType, tenantID string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

// EnqueueRecalculation queues a gratuity refresh for one tenant.
func (s *Service) EnqueueRecalculation(tenantID string) bool {
	return s.Enqueue(JobGratuityRecalc, tenantID, s.recalculation(tenantID))
}

// RecalculateNow refreshes one tenant synchronously and records the run.
func (s *Service) RecalculateNow(ctx context.Context, tenantID string) (any, error) {
	return s.RunNow(ctx, JobGratuityRecalc, tenantID, s.recalculation(tenantID))
}

func (s *Service) recalculation(tenantID string) RunFunc {
	return func(ctx context.Context) (any, error) {
		updated, err := s.Gratuity.RecalculateAccruing(ctx, tenantID)
		return map[string]any{"updated": updated}, err
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.TenantID, j.Type, statusRunning).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := statusCompleted
	if err != nil {
		status = statusFailed
		details = map[string]any{"error": err.Error(), "result": details}
	}
	if s.Observer != nil {
		s.Observer.RecordJob(j.Type, err)
	}

	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleRecalculation(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tenants, err := s.listTenants(ctx)
			if err != nil {
				slog.Warn("recalculation scheduler tenant lookup failed", "err", err)
				continue
			}
			for _, tenantID := range tenants {
				s.EnqueueRecalculation(tenantID)
			}
		}
	}
}

func (s *Service) listTenants(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
