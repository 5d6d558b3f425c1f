package gratuityhandler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/gratuity"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Preview(yearsOfService, basicSalary decimal.Decimal) (gratuity.Calculation, error)
	List(ctx context.Context, tenantID string, filter gratuity.ListFilter) ([]gratuity.BenefitRecord, error)
	Get(ctx context.Context, tenantID, recordID string) (gratuity.BenefitRecord, error)
	Create(ctx context.Context, tenantID, employeeID string, inputs gratuity.Inputs) (gratuity.BenefitRecord, error)
	Recalculate(ctx context.Context, tenantID, recordID string, inputs gratuity.Inputs) (gratuity.BenefitRecord, error)
	Payout(ctx context.Context, tenantID, recordID, reference string) (gratuity.BenefitRecord, error)
	Delete(ctx context.Context, tenantID, recordID string) error
	Statement(ctx context.Context, tenantID, recordID string, w io.Writer) error
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
	r.Route("/benefits", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermBenefitsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermBenefitsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermBenefitsRead, h.Perms)).Post("/calculate", h.handleCalculate)
		r.Route("/{recordID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermBenefitsRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermBenefitsWrite, h.Perms)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermBenefitsWrite, h.Perms)).Delete("/", h.handleDelete)
			r.With(middleware.RequirePermission(auth.PermBenefitsWrite, h.Perms)).Post("/recalculate", h.handleRecalculate)
			r.With(middleware.RequirePermission(auth.PermBenefitsPayout, h.Perms)).Post("/payout", h.handlePayout)
			r.With(middleware.RequirePermission(auth.PermBenefitsRead, h.Perms)).Get("/statement", h.handleStatement)
		})
	})
}

type inputsPayload struct {
	YearsOfService decimal.NullDecimal `json:"yearsOfService"`
	BasicSalary    decimal.NullDecimal `json:"basicSalary"`
}

func (p inputsPayload) validate(v *shared.Validator) gratuity.Inputs {
	v.NonNegative("yearsOfService", p.YearsOfService)
	v.NonNegative("basicSalary", p.BasicSalary)
	return gratuity.Inputs{YearsOfService: p.YearsOfService, BasicSalary: p.BasicSalary}
}

type createPayload struct {
	EmployeeID string `json:"employeeId"`
	inputsPayload
}

type updatePayload struct {
	inputsPayload
	Status          *string `json:"status"`
	GratuityAmount  *string `json:"gratuityAmount"`
	PayoutReference *string `json:"payoutReference"`
}

type payoutPayload struct {
	Reference string `json:"reference"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	status := strings.TrimSpace(query.Get("status"))
	v.Enum("status", status, []string{gratuity.StatusAccruing, gratuity.StatusPaidOut}, "must be accruing or paid_out")
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	filter := gratuity.ListFilter{
		EmployeeID: strings.TrimSpace(query.Get("employeeId")),
		Status:     status,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped {
		if self == "" || (filter.EmployeeID != "" && filter.EmployeeID != self) {
			api.Success(w, []gratuity.BenefitRecord{}, requestID)
			return
		}
		filter.EmployeeID = self
	}

	records, err := h.Service.List(r.Context(), user.TenantID, filter)
	if err != nil {
		h.writeError(w, r, err, "benefit_list_failed")
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rec, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload createPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	inputs := payload.validate(v)
	if v.Reject(w, requestID) {
		return
	}

	rec, err := h.Service.Create(r.Context(), user.TenantID, strings.TrimSpace(payload.EmployeeID), inputs)
	if err != nil {
		h.writeError(w, r, err, "benefit_create_failed")
		return
	}
	h.record(r, "benefits.create", rec.ID, nil, rec)
	api.Created(w, rec, requestID)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload inputsPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Amount("yearsOfService", payload.YearsOfService)
	v.Amount("basicSalary", payload.BasicSalary)
	if v.Reject(w, requestID) {
		return
	}

	calc, err := h.Service.Preview(payload.YearsOfService.Decimal, payload.BasicSalary.Decimal)
	if err != nil {
		h.writeError(w, r, err, "benefit_calculate_failed")
		return
	}
	api.Success(w, calc, requestID)
}

// handleUpdate edits the stored inputs and recomputes the amount. Status and
// amount are never writable here.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload updatePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	if payload.Status != nil {
		v.Add("status", "cannot be changed directly; use the payout endpoint")
	}
	if payload.GratuityAmount != nil {
		v.Add("gratuityAmount", "is derived and cannot be set")
	}
	if payload.PayoutReference != nil {
		v.Add("payoutReference", "is set by the payout endpoint")
	}
	inputs := payload.validate(v)
	if v.Reject(w, requestID) {
		return
	}
	h.recalculate(w, r, "benefits.update", inputs)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload inputsPayload
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	inputs := payload.validate(v)
	if v.Reject(w, requestID) {
		return
	}
	h.recalculate(w, r, "benefits.recalculate", inputs)
}

func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request, action string, inputs gratuity.Inputs) {
	user, _ := middleware.GetUser(r.Context())
	recordID := chi.URLParam(r, "recordID")

	before, err := h.Service.Get(r.Context(), user.TenantID, recordID)
	if err != nil {
		h.writeError(w, r, err, "benefit_recalculate_failed")
		return
	}
	after, err := h.Service.Recalculate(r.Context(), user.TenantID, recordID, inputs)
	if err != nil {
		h.writeError(w, r, err, "benefit_recalculate_failed")
		return
	}
	h.record(r, action, recordID, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	recordID := chi.URLParam(r, "recordID")

	var payload payoutPayload
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	reference := strings.TrimSpace(payload.Reference)

	idem := middleware.NewIdempotency(r, h.Idempotency, "benefits.payout", []byte(recordID+"\x00"+reference))
	if idem.Replay(w, r) {
		return
	}

	before, err := h.Service.Get(r.Context(), user.TenantID, recordID)
	if err != nil {
		h.writeError(w, r, err, "benefit_payout_failed")
		return
	}
	after, err := h.Service.Payout(r.Context(), user.TenantID, recordID, reference)
	if err != nil {
		h.writeError(w, r, err, "benefit_payout_failed")
		return
	}
	h.record(r, "benefits.payout", recordID, before, after)
	idem.Remember(r.Context(), after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rec, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.Service.Statement(r.Context(), user.TenantID, rec.ID, &buf); err != nil {
		h.writeError(w, r, err, "benefit_statement_failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="gratuity-statement-`+rec.ID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("statement write failed", "recordId", rec.ID, "err", err)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	recordID := chi.URLParam(r, "recordID")

	before, err := h.Service.Get(r.Context(), user.TenantID, recordID)
	if err != nil {
		h.writeError(w, r, err, "benefit_delete_failed")
		return
	}
	if err := h.Service.Delete(r.Context(), user.TenantID, recordID); err != nil {
		h.writeError(w, r, err, "benefit_delete_failed")
		return
	}
	h.record(r, "benefits.delete", recordID, before, nil)
	api.NoContent(w)
}

// loadVisible fetches the record and hides other employees' records from
// self-scoped callers behind a 404.
func (h *Handler) loadVisible(w http.ResponseWriter, r *http.Request, user auth.UserContext) (gratuity.BenefitRecord, bool) {
	rec, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.writeError(w, r, err, "benefit_get_failed")
		return gratuity.BenefitRecord{}, false
	}
	if self, scoped := shared.SelfScope(r.Context(), h.Employees, user); scoped && (self == "" || rec.EmployeeID != self) {
		h.writeError(w, r, gratuity.ErrNotFound, "benefit_get_failed")
		return gratuity.BenefitRecord{}, false
	}
	return rec, true
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, audit.EntityBenefitRecord, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, gratuity.ErrInvalidArgument):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", "years of service and basic salary must not be negative", requestID)
	case errors.Is(err, gratuity.ErrEmployeeNotFound):
		api.Fail(w, http.StatusBadRequest, "unknown_employee", "employee not found", requestID)
	case errors.Is(err, gratuity.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "benefit record not found", requestID)
	case errors.Is(err, gratuity.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", "benefit record is already paid out", requestID)
	default:
		slog.Warn(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "failed to process benefit record", requestID)
	}
}
