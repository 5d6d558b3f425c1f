package reportshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/reports"
	"hrms/internal/platform/jobs"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Dashboard(ctx context.Context, tenantID string) (reports.Dashboard, error)
	JobRuns(ctx context.Context, tenantID string, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, int, error)
	JobRun(ctx context.Context, tenantID, runID string) (reports.JobRun, error)
}

// Recalculations triggers the gratuity refresh job.
type Recalculations interface {
	RecalculateNow(ctx context.Context, tenantID string) (any, error)
	EnqueueRecalculation(tenantID string) bool
}

type Handler struct {
	Service Service
	Jobs    Recalculations
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service Service, jobsService Recalculations, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Jobs: jobsService, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/jobs", h.handleListJobRuns)
		r.With(middleware.RequirePermission(auth.PermBenefitsWrite, h.Perms)).Post("/jobs/gratuity-recalculation", h.handleGratuityRecalculation)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/jobs/{runID}", h.handleGetJobRun)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	dashboard, err := h.Service.Dashboard(r.Context(), user.TenantID)
	if err != nil {
		slog.Warn("dashboard failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListJobRuns(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	status := strings.ToLower(strings.TrimSpace(query.Get("status")))
	v.Enum("status", status, []string{"running", "completed", "failed"}, "must be running, completed or failed")
	from := v.OptionalDate("startedFrom", query.Get("startedFrom"))
	to := v.OptionalDate("startedTo", query.Get("startedTo"))
	if from != nil && to != nil {
		v.DateOrder("startedFrom", *from, "startedTo", *to)
	}
	if v.Reject(w, requestID) {
		return
	}

	filter := reports.JobRunFilter{
		JobType:     strings.TrimSpace(query.Get("jobType")),
		Status:      status,
		StartedFrom: from,
		StartedTo:   to,
	}
	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.Service.JobRuns(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		slog.Warn("job run list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", requestID)
		return
	}
	if runs == nil {
		runs = []reports.JobRun{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, requestID)
}

func (h *Handler) handleGetJobRun(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	run, err := h.Service.JobRun(r.Context(), user.TenantID, chi.URLParam(r, "runID"))
	if errors.Is(err, reports.ErrJobRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "job run not found", requestID)
		return
	}
	if err != nil {
		slog.Warn("job run get failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "failed to load job run", requestID)
		return
	}
	api.Success(w, run, requestID)
}

// handleGratuityRecalculation refreshes every accruing benefit record of the
// tenant. With ?async=true the run is queued and 202 is returned.
func (h *Handler) handleGratuityRecalculation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if !h.Jobs.EnqueueRecalculation(user.TenantID) {
			api.Fail(w, http.StatusServiceUnavailable, "queue_full", "job queue is full, retry later", requestID)
			return
		}
		h.record(r, nil, map[string]any{"queued": true})
		api.WriteJSON(w, http.StatusAccepted, api.Envelope{Success: true, Data: map[string]any{"jobType": jobs.JobGratuityRecalc, "queued": true}, RequestID: requestID})
		return
	}

	details, err := h.Jobs.RecalculateNow(r.Context(), user.TenantID)
	if err != nil {
		slog.Warn("gratuity recalculation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_failed", "gratuity recalculation failed", requestID)
		return
	}
	h.record(r, nil, details)
	api.Success(w, map[string]any{"jobType": jobs.JobGratuityRecalc, "result": details}, requestID)
}

func (h *Handler) record(r *http.Request, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "reports.jobs.gratuity_recalculation", audit.EntityBenefitRecord, "", middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit reports.jobs.gratuity_recalculation failed", "err", err)
	}
}
