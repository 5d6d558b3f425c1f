package leavehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/leave"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Submit(ctx context.Context, tenantID string, input leave.RequestInput) (leave.LeaveRequest, error)
	Get(ctx context.Context, tenantID, requestID string) (leave.LeaveRequest, error)
	List(ctx context.Context, tenantID string, filter leave.ListFilter) ([]leave.LeaveRequest, error)
	Update(ctx context.Context, tenantID, requestID string, input leave.RequestInput) (leave.LeaveRequest, error)
	Approve(ctx context.Context, tenantID, requestID, approverID string) (leave.LeaveRequest, error)
	Reject(ctx context.Context, tenantID, requestID, approverID string) (leave.LeaveRequest, error)
	Delete(ctx context.Context, tenantID, requestID string) error
	Withdraw(ctx context.Context, tenantID, requestID string) error
	Balances(ctx context.Context, tenantID, employeeID string) ([]leave.Balance, error)
	Allotments(ctx context.Context, tenantID string) ([]leave.Allotment, error)
	SetAllotment(ctx context.Context, tenantID string, allotment leave.Allotment) (leave.Allotment, error)
}

// Directory resolves the caller's employee record and reporting line.
type Directory interface {
	shared.EmployeeResolver
	IsManagerOf(ctx context.Context, tenantID, managerEmployeeID, employeeID string) (bool, error)
}

type Handler struct {
	Service   Service
	Perms     middleware.PermissionStore
	Audit     audit.Recorder
	Employees Directory
}

func NewHandler(service Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances", h.handleBalances)
		r.Route("/{requestID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Delete("/", h.handleDelete)
			r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/approve", h.handleApprove)
			r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/reject", h.handleReject)
		})
	})
	r.Route("/settings/leave-allotments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleListAllotments)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Put("/{type}", h.handleSetAllotment)
	})
}

type requestPayload struct {
	EmployeeID string  `json:"employeeId"`
	Type       string  `json:"type"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	Reason     string  `json:"reason"`
	Status     *string `json:"status"`
	Days       *int    `json:"days"`
}

func (p requestPayload) toInput(v *shared.Validator) leave.RequestInput {
	v.Required("type", p.Type, "is required")
	if p.Status != nil {
		v.Add("status", "cannot be changed directly; use the approve or reject endpoints")
	}
	if p.Days != nil {
		v.Add("days", "is derived from the date range")
	}
	start := requiredDate(v, "startDate", p.StartDate)
	end := requiredDate(v, "endDate", p.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	return leave.RequestInput{
		EmployeeID: strings.TrimSpace(p.EmployeeID),
		Type:       strings.TrimSpace(p.Type),
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(p.Reason),
	}
}

func requiredDate(v *shared.Validator, field, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		v.Add(field, "is required")
		return time.Time{}
	}
	parsed, _ := v.Date(field, raw)
	return parsed
}

type allotmentPayload struct {
	AnnualTotalDays *int `json:"annualTotalDays"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	status := strings.ToLower(strings.TrimSpace(query.Get("status")))
	v.Enum("status", status, []string{leave.StatusPending, leave.StatusApproved, leave.StatusRejected}, "must be pending, approved or rejected")
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	filter := leave.ListFilter{
		EmployeeID: strings.TrimSpace(query.Get("employeeId")),
		Status:     status,
		Type:       strings.TrimSpace(query.Get("type")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped {
		if self == "" || (filter.EmployeeID != "" && filter.EmployeeID != self) {
			api.Success(w, []leave.LeaveRequest{}, requestID)
			return
		}
		filter.EmployeeID = self
	}

	requests, err := h.Service.List(r.Context(), user.TenantID, filter)
	if err != nil {
		h.writeError(w, r, err, "leave_list_failed")
		return
	}
	if requests == nil {
		requests = []leave.LeaveRequest{}
	}
	api.Success(w, requests, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload requestPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	input := payload.toInput(v)
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped {
		if self == "" {
			api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this user", requestID)
			return
		}
		if input.EmployeeID != "" && input.EmployeeID != self {
			api.Fail(w, http.StatusForbidden, "forbidden", "employees can only request their own leave", requestID)
			return
		}
		input.EmployeeID = self
	}
	v.Required("employeeId", input.EmployeeID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.Submit(r.Context(), user.TenantID, input)
	if err != nil {
		h.writeError(w, r, err, "leave_submit_failed")
		return
	}
	h.record(r, "leave.request.submit", audit.EntityLeaveRequest, created.ID, nil, created)
	api.Created(w, created, requestID)
}

// handleUpdate edits type, dates and reason of a pending request. The
// employee on the request never changes.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload requestPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	input := payload.toInput(v)
	if v.Reject(w, requestID) {
		return
	}

	before, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}
	after, err := h.Service.Update(r.Context(), user.TenantID, before.ID, input)
	if err != nil {
		h.writeError(w, r, err, "leave_update_failed")
		return
	}
	h.record(r, "leave.request.update", audit.EntityLeaveRequest, after.ID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "leave.request.approve", h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "leave.request.reject", h.Service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, transition func(ctx context.Context, tenantID, requestID, approverID string) (leave.LeaveRequest, error)) {
	user, _ := middleware.GetUser(r.Context())
	leaveID := chi.URLParam(r, "requestID")

	before, err := h.Service.Get(r.Context(), user.TenantID, leaveID)
	if err != nil {
		h.writeError(w, r, err, "leave_decision_failed")
		return
	}
	allowed, err := h.canDecide(r.Context(), user, before.EmployeeID)
	if err != nil {
		h.writeError(w, r, err, "leave_decision_failed")
		return
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to decide this request", middleware.GetRequestID(r.Context()))
		return
	}
	after, err := transition(r.Context(), user.TenantID, leaveID, user.UserID)
	if err != nil {
		h.writeError(w, r, err, "leave_decision_failed")
		return
	}
	h.record(r, action, audit.EntityLeaveRequest, leaveID, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

// handleDelete lets HR remove any request. Everyone else may only withdraw
// their own request while it is still pending.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	before, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeError(w, r, err, "leave_delete_failed")
		return
	}
	if user.RoleName == auth.RoleHR {
		err = h.Service.Delete(r.Context(), user.TenantID, before.ID)
	} else {
		if self := h.selfEmployeeID(r.Context(), user); self == "" || self != before.EmployeeID {
			h.writeError(w, r, leave.ErrNotFound, "leave_delete_failed")
			return
		}
		err = h.Service.Withdraw(r.Context(), user.TenantID, before.ID)
	}
	if err != nil {
		h.writeError(w, r, err, "leave_delete_failed")
		return
	}
	h.record(r, "leave.request.delete", audit.EntityLeaveRequest, before.ID, before, nil)
	api.NoContent(w)
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped {
		if self == "" || (employeeID != "" && employeeID != self) {
			api.Fail(w, http.StatusForbidden, "forbidden", "employees can only view their own balances", requestID)
			return
		}
		employeeID = self
	}
	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	balances, err := h.Service.Balances(r.Context(), user.TenantID, employeeID)
	if err != nil {
		h.writeError(w, r, err, "leave_balances_failed")
		return
	}
	api.Success(w, balances, requestID)
}

func (h *Handler) handleListAllotments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	allotments, err := h.Service.Allotments(r.Context(), user.TenantID)
	if err != nil {
		h.writeError(w, r, err, "leave_allotments_failed")
		return
	}
	api.Success(w, allotments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetAllotment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	leaveType, err := url.PathUnescape(chi.URLParam(r, "type"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_type", "invalid leave type", requestID)
		return
	}
	var payload allotmentPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("type", leaveType, "is required")
	switch {
	case payload.AnnualTotalDays == nil:
		v.Add("annualTotalDays", "is required")
	case *payload.AnnualTotalDays < 0:
		v.Add("annualTotalDays", "must not be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	saved, err := h.Service.SetAllotment(r.Context(), user.TenantID, leave.Allotment{Type: leaveType, AnnualTotalDays: *payload.AnnualTotalDays})
	if err != nil {
		h.writeError(w, r, err, "leave_allotment_update_failed")
		return
	}
	h.record(r, "leave.allotment.update", audit.EntityLeaveAllotment, saved.Type, nil, saved)
	api.Success(w, saved, requestID)
}

// loadVisible fetches the request and hides other employees' requests from
// self-scoped callers behind a 404.
func (h *Handler) loadVisible(w http.ResponseWriter, r *http.Request, user auth.UserContext) (leave.LeaveRequest, bool) {
	req, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeError(w, r, err, "leave_get_failed")
		return leave.LeaveRequest{}, false
	}
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped && (self == "" || req.EmployeeID != self) {
		h.writeError(w, r, leave.ErrNotFound, "leave_get_failed")
		return leave.LeaveRequest{}, false
	}
	return req, true
}

// canDecide mirrors the reporting line: HR decides any request, a manager
// only their direct reports' and never their own.
func (h *Handler) canDecide(ctx context.Context, user auth.UserContext, requestEmployeeID string) (bool, error) {
	switch user.RoleName {
	case auth.RoleHR:
		return true, nil
	case auth.RoleManager:
		self := h.selfEmployeeID(ctx, user)
		if self == "" || self == requestEmployeeID {
			return false, nil
		}
		return h.Employees.IsManagerOf(ctx, user.TenantID, self, requestEmployeeID)
	default:
		return false, nil
	}
}

func (h *Handler) selfEmployeeID(ctx context.Context, user auth.UserContext) string {
	if h.Employees == nil {
		return ""
	}
	employeeID, err := h.Employees.EmployeeIDByUserID(ctx, user.TenantID, user.UserID)
	if err != nil {
		return ""
	}
	return employeeID
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
	case errors.Is(err, leave.ErrInvalidDateRange):
		api.Fail(w, http.StatusBadRequest, "invalid_date_range", "end date must be on or after start date", requestID)
	case errors.Is(err, leave.ErrInvalidArgument):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestID)
	case errors.Is(err, leave.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", "leave request is no longer pending", requestID)
	default:
		slog.Warn(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "failed to process leave request", requestID)
	}
}
