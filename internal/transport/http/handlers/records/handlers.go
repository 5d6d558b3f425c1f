package recordshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/records"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	ListAssets(ctx context.Context, tenantID string, limit, offset int) ([]records.Asset, error)
	GetAsset(ctx context.Context, tenantID, id string) (records.Asset, error)
	CreateAsset(ctx context.Context, tenantID string, a records.Asset) (records.Asset, error)
	UpdateAsset(ctx context.Context, tenantID string, a records.Asset) (records.Asset, records.Asset, error)
	DeleteAsset(ctx context.Context, tenantID, id string) error

	ListAudits(ctx context.Context, tenantID string, limit, offset int) ([]records.ComplianceAudit, error)
	GetAudit(ctx context.Context, tenantID, id string) (records.ComplianceAudit, error)
	CreateAudit(ctx context.Context, tenantID string, a records.ComplianceAudit) (records.ComplianceAudit, error)
	UpdateAudit(ctx context.Context, tenantID string, a records.ComplianceAudit) (records.ComplianceAudit, records.ComplianceAudit, error)
	DeleteAudit(ctx context.Context, tenantID, id string) error

	ListReviews(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]records.PerformanceReview, error)
	GetReview(ctx context.Context, tenantID, id string) (records.PerformanceReview, error)
	CreateReview(ctx context.Context, tenantID string, r records.PerformanceReview) (records.PerformanceReview, error)
	UpdateReview(ctx context.Context, tenantID string, r records.PerformanceReview) (records.PerformanceReview, records.PerformanceReview, error)
	DeleteReview(ctx context.Context, tenantID, id string) error

	ListExpenses(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]records.Expense, error)
	GetExpense(ctx context.Context, tenantID, id string) (records.Expense, error)
	CreateExpense(ctx context.Context, tenantID string, e records.Expense) (records.Expense, error)
	UpdateExpense(ctx context.Context, tenantID string, e records.Expense) (records.Expense, records.Expense, error)
	DeleteExpense(ctx context.Context, tenantID, id string) error
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	s := h.Service
	mount(r, h, "/assets", resource[records.Asset]{
		action:     "records.asset",
		entityType: audit.EntityAsset,
		list: func(ctx context.Context, tenantID string, _ *http.Request, page shared.Pagination) ([]records.Asset, error) {
			return s.ListAssets(ctx, tenantID, page.Limit, page.Offset)
		},
		get:    s.GetAsset,
		create: s.CreateAsset,
		update: func(ctx context.Context, tenantID, id string, a records.Asset) (records.Asset, records.Asset, error) {
			a.ID = id
			return s.UpdateAsset(ctx, tenantID, a)
		},
		remove: s.DeleteAsset,
		decode: decodeAsset,
		id:     func(a records.Asset) string { return a.ID },
	})
	mount(r, h, "/compliance-audits", resource[records.ComplianceAudit]{
		action:     "records.compliance_audit",
		entityType: audit.EntityAudit,
		list: func(ctx context.Context, tenantID string, _ *http.Request, page shared.Pagination) ([]records.ComplianceAudit, error) {
			return s.ListAudits(ctx, tenantID, page.Limit, page.Offset)
		},
		get:    s.GetAudit,
		create: s.CreateAudit,
		update: func(ctx context.Context, tenantID, id string, a records.ComplianceAudit) (records.ComplianceAudit, records.ComplianceAudit, error) {
			a.ID = id
			return s.UpdateAudit(ctx, tenantID, a)
		},
		remove: s.DeleteAudit,
		decode: decodeAudit,
		id:     func(a records.ComplianceAudit) string { return a.ID },
	})
	mount(r, h, "/performance-reviews", resource[records.PerformanceReview]{
		action:     "records.performance_review",
		entityType: audit.EntityReview,
		list: func(ctx context.Context, tenantID string, r *http.Request, page shared.Pagination) ([]records.PerformanceReview, error) {
			return s.ListReviews(ctx, tenantID, strings.TrimSpace(r.URL.Query().Get("employeeId")), page.Limit, page.Offset)
		},
		get:    s.GetReview,
		create: s.CreateReview,
		update: func(ctx context.Context, tenantID, id string, rev records.PerformanceReview) (records.PerformanceReview, records.PerformanceReview, error) {
			rev.ID = id
			return s.UpdateReview(ctx, tenantID, rev)
		},
		remove: s.DeleteReview,
		decode: decodeReview,
		id:     func(rev records.PerformanceReview) string { return rev.ID },
	})
	mount(r, h, "/expenses", resource[records.Expense]{
		action:     "records.expense",
		entityType: audit.EntityExpense,
		list: func(ctx context.Context, tenantID string, r *http.Request, page shared.Pagination) ([]records.Expense, error) {
			return s.ListExpenses(ctx, tenantID, strings.TrimSpace(r.URL.Query().Get("employeeId")), page.Limit, page.Offset)
		},
		get:    s.GetExpense,
		create: s.CreateExpense,
		update: func(ctx context.Context, tenantID, id string, e records.Expense) (records.Expense, records.Expense, error) {
			e.ID = id
			return s.UpdateExpense(ctx, tenantID, e)
		},
		remove: s.DeleteExpense,
		decode: decodeExpense,
		id:     func(e records.Expense) string { return e.ID },
	})
}

// resource wires the five CRUD routes of one record type onto the service.
type resource[T any] struct {
	action     string
	entityType string
	list       func(ctx context.Context, tenantID string, r *http.Request, page shared.Pagination) ([]T, error)
	get        func(ctx context.Context, tenantID, id string) (T, error)
	create     func(ctx context.Context, tenantID string, v T) (T, error)
	update     func(ctx context.Context, tenantID, id string, v T) (T, T, error)
	remove     func(ctx context.Context, tenantID, id string) error
	decode     func(r *http.Request, v *shared.Validator) (T, error)
	id         func(T) string
}

func mount[T any](r chi.Router, h *Handler, path string, res resource[T]) {
	read := middleware.RequirePermission(auth.PermRecordsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermRecordsWrite, h.Perms)
	r.Route(path, func(r chi.Router) {
		r.With(read).Get("/", func(w http.ResponseWriter, req *http.Request) { res.serveList(h, w, req) })
		r.With(write).Post("/", func(w http.ResponseWriter, req *http.Request) { res.serveCreate(h, w, req) })
		r.Route("/{recordID}", func(r chi.Router) {
			r.With(read).Get("/", func(w http.ResponseWriter, req *http.Request) { res.serveGet(h, w, req) })
			r.With(write).Put("/", func(w http.ResponseWriter, req *http.Request) { res.serveUpdate(h, w, req) })
			r.With(write).Delete("/", func(w http.ResponseWriter, req *http.Request) { res.serveDelete(h, w, req) })
		})
	})
}

func (res resource[T]) serveList(h *Handler, w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	items, err := res.list(r.Context(), user.TenantID, r, page)
	if err != nil {
		h.writeError(w, r, err, res.action+"_list_failed")
		return
	}
	if items == nil {
		items = []T{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (res resource[T]) serveGet(h *Handler, w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	item, err := res.get(r.Context(), user.TenantID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.writeError(w, r, err, res.action+"_get_failed")
		return
	}
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

func (res resource[T]) serveCreate(h *Handler, w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	item, err := res.decode(r, v)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if v.Reject(w, requestID) {
		return
	}

	created, err := res.create(r.Context(), user.TenantID, item)
	if err != nil {
		h.writeError(w, r, err, res.action+"_create_failed")
		return
	}
	h.record(r, res.action+".create", res.entityType, res.id(created), nil, created)
	api.Created(w, created, requestID)
}

func (res resource[T]) serveUpdate(h *Handler, w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	item, err := res.decode(r, v)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if v.Reject(w, requestID) {
		return
	}

	recordID := chi.URLParam(r, "recordID")
	before, after, err := res.update(r.Context(), user.TenantID, recordID, item)
	if err != nil {
		h.writeError(w, r, err, res.action+"_update_failed")
		return
	}
	h.record(r, res.action+".update", res.entityType, recordID, before, after)
	api.Success(w, after, requestID)
}

func (res resource[T]) serveDelete(h *Handler, w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	recordID := chi.URLParam(r, "recordID")

	before, err := res.get(r.Context(), user.TenantID, recordID)
	if err != nil {
		h.writeError(w, r, err, res.action+"_delete_failed")
		return
	}
	if err := res.remove(r.Context(), user.TenantID, recordID); err != nil {
		h.writeError(w, r, err, res.action+"_delete_failed")
		return
	}
	h.record(r, res.action+".delete", res.entityType, recordID, before, nil)
	api.NoContent(w)
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, records.ErrInvalidArgument):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", "invalid field values", requestID)
	case errors.Is(err, records.ErrUnknownEmployee):
		api.Fail(w, http.StatusBadRequest, "unknown_employee", "employee not found", requestID)
	case errors.Is(err, records.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", requestID)
	case errors.Is(err, records.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", "record already exists", requestID)
	default:
		slog.Warn(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "failed to process record", requestID)
	}
}
