package payrollhandler

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/payroll"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, tenantID string, filter payroll.ListFilter) ([]payroll.Entry, error)
	Get(ctx context.Context, tenantID, entryID string) (payroll.Entry, error)
	Create(ctx context.Context, tenantID string, in payroll.EntryInput) (payroll.Entry, error)
	Update(ctx context.Context, tenantID, entryID string, in payroll.EntryInput) (payroll.Entry, payroll.Entry, error)
	SetWPSStatus(ctx context.Context, tenantID, entryID, status, reference string) (payroll.Entry, payroll.Entry, error)
	Delete(ctx context.Context, tenantID, entryID string) error
}

type Handler struct {
	Service     Service
	Perms       middleware.PermissionStore
	Audit       audit.Recorder
	Employees   shared.EmployeeResolver
	Idempotency middleware.IdempotencyStore
}

func NewHandler(service Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Get("/export", h.handleExportRegister)
		r.Route("/{entryID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Delete("/", h.handleDelete)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/wps", h.handleWPS)
		})
	})
}

type entryPayload struct {
	EmployeeID  string              `json:"employeeId"`
	PeriodStart string              `json:"periodStart"`
	PeriodEnd   string              `json:"periodEnd"`
	BasicSalary decimal.NullDecimal `json:"basicSalary"`
	Lines       []payroll.InputLine `json:"lines"`
	Gross       *string             `json:"gross"`
	Net         *string             `json:"net"`
	WPSStatus   *string             `json:"wpsStatus"`
}

func (p entryPayload) toInput(v *shared.Validator) payroll.EntryInput {
	if p.Gross != nil || p.Net != nil {
		v.Add("net", "gross and net are derived and cannot be set")
	}
	if p.WPSStatus != nil {
		v.Add("wpsStatus", "cannot be changed directly; use the wps endpoint")
	}
	v.NonNegative("basicSalary", p.BasicSalary)
	start := requiredDate(v, "periodStart", p.PeriodStart)
	end := requiredDate(v, "periodEnd", p.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	for i, line := range p.Lines {
		field := "lines[" + strconv.Itoa(i) + "]"
		v.Enum(field+".type", line.Type, []string{payroll.ElementTypeEarning, payroll.ElementTypeDeduction}, "must be earning or deduction")
		v.Required(field+".type", line.Type, "is required")
		if line.Amount.IsNegative() {
			v.Add(field+".amount", "must not be negative")
		}
	}
	lines := make([]payroll.InputLine, len(p.Lines))
	for i, line := range p.Lines {
		line.Type = strings.ToLower(strings.TrimSpace(line.Type))
		line.Label = strings.TrimSpace(line.Label)
		lines[i] = line
	}
	return payroll.EntryInput{
		EmployeeID:  strings.TrimSpace(p.EmployeeID),
		PeriodStart: start,
		PeriodEnd:   end,
		BasicSalary: p.BasicSalary,
		Lines:       lines,
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

type wpsPayload struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

func (h *Handler) listFilter(w http.ResponseWriter, r *http.Request, user auth.UserContext) (payroll.ListFilter, bool) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	status := strings.ToLower(strings.TrimSpace(query.Get("wpsStatus")))
	v.Enum("wpsStatus", status, []string{payroll.WPSPending, payroll.WPSSubmitted, payroll.WPSAccepted, payroll.WPSRejected}, "must be pending, submitted, accepted or rejected")
	from := v.OptionalDate("periodFrom", query.Get("periodFrom"))
	to := v.OptionalDate("periodTo", query.Get("periodTo"))
	if from != nil && to != nil {
		v.DateOrder("periodFrom", *from, "periodTo", *to)
	}
	if v.Reject(w, requestID) {
		return payroll.ListFilter{}, false
	}

	page := shared.ParsePagination(r, 100, 500)
	return payroll.ListFilter{
		EmployeeID: strings.TrimSpace(query.Get("employeeId")),
		WPSStatus:  status,
		PeriodFrom: from,
		PeriodTo:   to,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	filter, ok := h.listFilter(w, r, user)
	if !ok {
		return
	}
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped {
		if self == "" || (filter.EmployeeID != "" && filter.EmployeeID != self) {
			api.Success(w, []payroll.Entry{}, requestID)
			return
		}
		filter.EmployeeID = self
	}

	entries, err := h.Service.List(r.Context(), user.TenantID, filter)
	if err != nil {
		h.writeError(w, r, err, "payroll_list_failed")
		return
	}
	if entries == nil {
		entries = []payroll.Entry{}
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "entryID"))
	if err != nil {
		h.writeError(w, r, err, "payroll_get_failed")
		return
	}
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped && (self == "" || entry.EmployeeID != self) {
		h.writeError(w, r, payroll.ErrNotFound, "payroll_get_failed")
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload entryPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	input := payload.toInput(v)
	v.Required("employeeId", input.EmployeeID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.Create(r.Context(), user.TenantID, input)
	if err != nil {
		h.writeError(w, r, err, "payroll_create_failed")
		return
	}
	h.record(r, "payroll.entry.create", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload entryPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	input := payload.toInput(v)
	if v.Reject(w, requestID) {
		return
	}

	before, after, err := h.Service.Update(r.Context(), user.TenantID, chi.URLParam(r, "entryID"), input)
	if err != nil {
		h.writeError(w, r, err, "payroll_update_failed")
		return
	}
	h.record(r, "payroll.entry.update", after.ID, before, after)
	api.Success(w, after, requestID)
}

// handleWPS moves the entry along the bank transfer lifecycle. A retry with the
// same Idempotency-Key replays the first response.
func (h *Handler) handleWPS(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	entryID := chi.URLParam(r, "entryID")

	var payload wpsPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	status := strings.ToLower(strings.TrimSpace(payload.Status))
	reference := strings.TrimSpace(payload.Reference)
	v := shared.NewValidator()
	v.Required("status", status, "is required")
	v.Enum("status", status, []string{payroll.WPSSubmitted, payroll.WPSAccepted, payroll.WPSRejected}, "must be submitted, accepted or rejected")
	if v.Reject(w, requestID) {
		return
	}

	idem := middleware.NewIdempotency(r, h.Idempotency, "payroll.wps", []byte(entryID+"\x00"+status+"\x00"+reference))
	if idem.Replay(w, r) {
		return
	}

	before, after, err := h.Service.SetWPSStatus(r.Context(), user.TenantID, entryID, status, reference)
	if err != nil {
		h.writeError(w, r, err, "payroll_wps_failed")
		return
	}
	h.record(r, "payroll.entry.wps", entryID, before, after)
	idem.Remember(r.Context(), after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entryID := chi.URLParam(r, "entryID")

	before, err := h.Service.Get(r.Context(), user.TenantID, entryID)
	if err != nil {
		h.writeError(w, r, err, "payroll_delete_failed")
		return
	}
	if err := h.Service.Delete(r.Context(), user.TenantID, entryID); err != nil {
		h.writeError(w, r, err, "payroll_delete_failed")
		return
	}
	h.record(r, "payroll.entry.delete", entryID, before, nil)
	api.NoContent(w)
}

// handleExportRegister writes the filtered entries as a CSV register with
// amounts rounded to two decimals.
func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	filter, ok := h.listFilter(w, r, user)
	if !ok {
		return
	}
	filter.Limit, filter.Offset = 0, 0
	entries, err := h.Service.List(r.Context(), user.TenantID, filter)
	if err != nil {
		h.writeError(w, r, err, "payroll_export_failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll-register.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"entry_id", "employee_id", "period_start", "period_end", "basic_salary", "allowances", "deductions", "gross", "net", "currency", "wps_status", "wps_reference"}); err != nil {
		slog.Warn("payroll export header write failed", "err", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{
			e.ID,
			e.EmployeeID,
			e.PeriodStart.Format("2006-01-02"),
			e.PeriodEnd.Format("2006-01-02"),
			e.BasicSalary.StringFixed(2),
			e.Allowances.StringFixed(2),
			e.Deductions.StringFixed(2),
			e.Gross.StringFixed(2),
			e.Net.StringFixed(2),
			e.Currency,
			e.WPSStatus,
			e.WPSReference,
		}); err != nil {
			slog.Warn("payroll export row write failed", "entryId", e.ID, "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("payroll export flush failed", "err", err)
	}
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, audit.EntityPayrollEntry, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrInvalidArgument):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", "invalid payroll values", requestID)
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusBadRequest, "unknown_employee", "employee not found", requestID)
	case errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll entry not found", requestID)
	case errors.Is(err, payroll.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", "payroll entry cannot move to that WPS status", requestID)
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		api.Fail(w, http.StatusConflict, "duplicate_period", "payroll entry already exists for this employee and period", requestID)
	default:
		slog.Warn(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "failed to process payroll entry", requestID)
	}
}
