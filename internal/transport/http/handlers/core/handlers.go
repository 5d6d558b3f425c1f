package corehandler

import (
	"context"
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
	"hrms/internal/domain/core"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	ListEmployees(ctx context.Context, tenantID string, filter core.EmployeeFilter) ([]core.Employee, error)
	GetEmployee(ctx context.Context, tenantID, employeeID string) (core.Employee, error)
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	CreateEmployee(ctx context.Context, tenantID string, emp core.Employee) (core.Employee, error)
	UpdateEmployee(ctx context.Context, tenantID string, emp core.Employee) (core.Employee, core.Employee, error)
	DeleteEmployee(ctx context.Context, tenantID, employeeID string) error

	ListDepartments(ctx context.Context, tenantID string, limit, offset int) ([]core.Department, int, error)
	GetDepartment(ctx context.Context, tenantID, departmentID string) (core.Department, error)
	CreateDepartment(ctx context.Context, tenantID string, dep core.Department) (core.Department, error)
	UpdateDepartment(ctx context.Context, tenantID string, dep core.Department) (core.Department, core.Department, error)
	DeleteDepartment(ctx context.Context, tenantID, departmentID string) error
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
	r.Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Delete("/", h.handleDeleteEmployee)
		})
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Post("/", h.handleCreateDepartment)
		r.Route("/{departmentID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleGetDepartment)
			r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Put("/", h.handleUpdateDepartment)
			r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Delete("/", h.handleDeleteDepartment)
		})
	})
}

type employeePayload struct {
	EmployeeNumber string              `json:"employeeNumber"`
	FirstName      string              `json:"firstName"`
	LastName       string              `json:"lastName"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	NationalID     string              `json:"nationalId"`
	BankAccount    string              `json:"bankAccount"`
	BasicSalary    decimal.NullDecimal `json:"basicSalary"`
	Currency       string              `json:"currency"`
	EmploymentType string              `json:"employmentType"`
	DepartmentID   string              `json:"departmentId"`
	ManagerID      string              `json:"managerId"`
	StartDate      string              `json:"startDate"`
	EndDate        string              `json:"endDate"`
	Status         string              `json:"status"`
}

func (p employeePayload) toEmployee(v *shared.Validator) core.Employee {
	v.Required("firstName", p.FirstName, "is required")
	v.Required("lastName", p.LastName, "is required")
	v.Required("email", p.Email, "is required")
	v.Amount("basicSalary", p.BasicSalary)
	v.Enum("status", p.Status, []string{core.EmployeeStatusActive, core.EmployeeStatusOnLeave, core.EmployeeStatusTerminated}, "must be active, on_leave or terminated")

	var start time.Time
	if strings.TrimSpace(p.StartDate) == "" {
		v.Add("startDate", "is required")
	} else {
		start, _ = v.Date("startDate", p.StartDate)
	}
	end := v.OptionalDate("endDate", p.EndDate)
	if end != nil {
		v.DateOrder("startDate", start, "endDate", *end)
	}

	return core.Employee{
		EmployeeNumber: strings.TrimSpace(p.EmployeeNumber),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Phone:          p.Phone,
		NationalID:     strings.TrimSpace(p.NationalID),
		BankAccount:    p.BankAccount,
		BasicSalary:    p.BasicSalary,
		Currency:       p.Currency,
		EmploymentType: strings.TrimSpace(p.EmploymentType),
		DepartmentID:   strings.TrimSpace(p.DepartmentID),
		ManagerID:      strings.TrimSpace(p.ManagerID),
		StartDate:      start,
		EndDate:        end,
		Status:         strings.ToLower(strings.TrimSpace(p.Status)),
	}
}

type departmentPayload struct {
	Name      string `json:"name"`
	ParentID  string `json:"parentId"`
	ManagerID string `json:"managerId"`
}

func (p departmentPayload) toDepartment(v *shared.Validator) core.Department {
	v.Required("name", p.Name, "is required")
	return core.Department{
		Name:      strings.TrimSpace(p.Name),
		ParentID:  strings.TrimSpace(p.ParentID),
		ManagerID: strings.TrimSpace(p.ManagerID),
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var employee *core.Employee
	if employeeID, err := h.Service.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID); err == nil && employeeID != "" {
		if emp, err := h.Service.GetEmployee(r.Context(), user.TenantID, employeeID); err == nil {
			core.FilterEmployeeFields(&emp, user, true)
			employee = &emp
		}
	}

	api.Success(w, map[string]any{
		"user": map[string]string{
			"id":       user.UserID,
			"tenantId": user.TenantID,
			"roleId":   user.RoleID,
			"role":     user.RoleName,
		},
		"employee": employee,
	}, requestID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	self := h.selfEmployeeID(r, user)
	if user.RoleName == auth.RoleEmployee {
		// Employees only ever see their own record, so skip the tenant scan.
		out := make([]core.Employee, 0, 1)
		if self != "" {
			emp, err := h.Service.GetEmployee(r.Context(), user.TenantID, self)
			switch {
			case err == nil:
				core.FilterEmployeeFields(&emp, user, true)
				out = append(out, emp)
			case !errors.Is(err, core.ErrNotFound):
				h.writeError(w, r, err, "employee_list_failed")
				return
			}
		}
		api.Success(w, out, requestID)
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	filter := core.EmployeeFilter{
		DepartmentID: strings.TrimSpace(query.Get("departmentId")),
		ManagerID:    strings.TrimSpace(query.Get("managerId")),
		Status:       strings.TrimSpace(query.Get("status")),
		Search:       strings.TrimSpace(query.Get("q")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}

	employees, err := h.Service.ListEmployees(r.Context(), user.TenantID, filter)
	if err != nil {
		h.writeError(w, r, err, "employee_list_failed")
		return
	}
	if employees == nil {
		employees = []core.Employee{}
	}
	for i := range employees {
		core.FilterEmployeeFields(&employees[i], user, self != "" && employees[i].ID == self)
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	emp, err := h.Service.GetEmployee(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"))
	if err != nil {
		h.writeError(w, r, err, "employee_get_failed")
		return
	}
	self := h.selfEmployeeID(r, user)
	isSelf := self != "" && emp.ID == self
	if user.RoleName == auth.RoleEmployee && !isSelf {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
		return
	}
	core.FilterEmployeeFields(&emp, user, isSelf)
	api.Success(w, emp, requestID)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload employeePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	emp := payload.toEmployee(v)
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.CreateEmployee(r.Context(), user.TenantID, emp)
	if err != nil {
		h.writeError(w, r, err, "employee_create_failed")
		return
	}
	h.record(r, "core.employee.create", audit.EntityEmployee, created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload employeePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	emp := payload.toEmployee(v)
	if v.Reject(w, requestID) {
		return
	}
	emp.ID = chi.URLParam(r, "employeeID")

	before, after, err := h.Service.UpdateEmployee(r.Context(), user.TenantID, emp)
	if err != nil && !errors.Is(err, core.ErrRecalculationFailed) {
		h.writeError(w, r, err, "employee_update_failed")
		return
	}
	if before.ManagerID != after.ManagerID {
		h.record(r, "core.employee.manager_change", audit.EntityEmployee, after.ID,
			map[string]any{"managerId": before.ManagerID}, map[string]any{"managerId": after.ManagerID})
	}
	h.record(r, "core.employee.update", audit.EntityEmployee, after.ID, before, after)
	if err != nil {
		// The row is saved; the caller must know the gratuity records lag behind it.
		h.writeError(w, r, err, "employee_update_failed")
		return
	}
	api.Success(w, after, requestID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	before, err := h.Service.GetEmployee(r.Context(), user.TenantID, employeeID)
	if err != nil {
		h.writeError(w, r, err, "employee_delete_failed")
		return
	}
	if err := h.Service.DeleteEmployee(r.Context(), user.TenantID, employeeID); err != nil {
		h.writeError(w, r, err, "employee_delete_failed")
		return
	}
	h.record(r, "core.employee.delete", audit.EntityEmployee, employeeID, before, nil)
	api.NoContent(w)
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 100, 500)

	departments, total, err := h.Service.ListDepartments(r.Context(), user.TenantID, page.Limit, page.Offset)
	if err != nil {
		h.writeError(w, r, err, "department_list_failed")
		return
	}
	if departments == nil {
		departments = []core.Department{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	dep, err := h.Service.GetDepartment(r.Context(), user.TenantID, chi.URLParam(r, "departmentID"))
	if err != nil {
		h.writeError(w, r, err, "department_get_failed")
		return
	}
	api.Success(w, dep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload departmentPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	dep := payload.toDepartment(v)
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.CreateDepartment(r.Context(), user.TenantID, dep)
	if err != nil {
		h.writeError(w, r, err, "department_create_failed")
		return
	}
	h.record(r, "core.department.create", audit.EntityDepartment, created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload departmentPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	dep := payload.toDepartment(v)
	if v.Reject(w, requestID) {
		return
	}
	dep.ID = chi.URLParam(r, "departmentID")

	before, after, err := h.Service.UpdateDepartment(r.Context(), user.TenantID, dep)
	if err != nil {
		h.writeError(w, r, err, "department_update_failed")
		return
	}
	h.record(r, "core.department.update", audit.EntityDepartment, after.ID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	departmentID := chi.URLParam(r, "departmentID")

	before, err := h.Service.GetDepartment(r.Context(), user.TenantID, departmentID)
	if err != nil {
		h.writeError(w, r, err, "department_delete_failed")
		return
	}
	if err := h.Service.DeleteDepartment(r.Context(), user.TenantID, departmentID); err != nil {
		h.writeError(w, r, err, "department_delete_failed")
		return
	}
	h.record(r, "core.department.delete", audit.EntityDepartment, departmentID, before, nil)
	api.NoContent(w)
}

func (h *Handler) selfEmployeeID(r *http.Request, user auth.UserContext) string {
	employeeID, err := h.Service.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
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
	case errors.Is(err, core.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", requestID)
	case errors.Is(err, core.ErrInvalidArgument):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", "invalid field values", requestID)
	case errors.Is(err, core.ErrUnknownReference):
		api.Fail(w, http.StatusBadRequest, "unknown_reference", "unknown department or manager", requestID)
	case errors.Is(err, core.ErrSelfManaged):
		api.Fail(w, http.StatusBadRequest, "invalid_manager", "employee cannot manage themselves", requestID)
	case errors.Is(err, core.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", "a record with the same email or name already exists", requestID)
	case errors.Is(err, core.ErrInUse):
		api.Fail(w, http.StatusConflict, "in_use", "record is still referenced by other records", requestID)
	case errors.Is(err, core.ErrRecalculationFailed):
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, "recalculation_failed", "employee saved but gratuity recalculation failed", requestID)
	default:
		slog.Warn(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "failed to process request", requestID)
	}
}
