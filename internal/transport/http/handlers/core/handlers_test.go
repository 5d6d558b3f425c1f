package corehandler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeService struct {
	employees   map[string]core.Employee
	departments map[string]core.Department
	userLinks   map[string]string
	inUse       map[string]bool
	seq         int

	listCalls int
	recalcErr error
}

func newFakeService() *fakeService {
	return &fakeService{
		employees:   map[string]core.Employee{},
		departments: map[string]core.Department{},
		userLinks:   map[string]string{},
		inUse:       map[string]bool{},
	}
}

func (f *fakeService) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeService) ListEmployees(_ context.Context, _ string, _ core.EmployeeFilter) ([]core.Employee, error) {
	f.listCalls++
	out := make([]core.Employee, 0, len(f.employees))
	for _, emp := range f.employees {
		out = append(out, emp)
	}
	return out, nil
}

func (f *fakeService) GetEmployee(_ context.Context, _ string, id string) (core.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return core.Employee{}, core.ErrNotFound
	}
	return emp, nil
}

func (f *fakeService) EmployeeIDByUserID(_ context.Context, _ string, userID string) (string, error) {
	id, ok := f.userLinks[userID]
	if !ok {
		return "", core.ErrNotFound
	}
	return id, nil
}

func (f *fakeService) CreateEmployee(_ context.Context, _ string, emp core.Employee) (core.Employee, error) {
	if err := core.ValidateEmployee(withDefaults(emp)); err != nil {
		return core.Employee{}, err
	}
	for _, existing := range f.employees {
		if strings.EqualFold(existing.Email, emp.Email) {
			return core.Employee{}, core.ErrDuplicate
		}
	}
	emp = withDefaults(emp)
	emp.ID = f.nextID("emp")
	f.employees[emp.ID] = emp
	return emp, nil
}

func withDefaults(emp core.Employee) core.Employee {
	if emp.Currency == "" {
		emp.Currency = core.DefaultCurrency
	}
	if emp.Status == "" {
		emp.Status = core.EmployeeStatusActive
	}
	return emp
}

func (f *fakeService) UpdateEmployee(ctx context.Context, tenantID string, emp core.Employee) (core.Employee, core.Employee, error) {
	before, err := f.GetEmployee(ctx, tenantID, emp.ID)
	if err != nil {
		return core.Employee{}, core.Employee{}, err
	}
	emp = withDefaults(emp)
	f.employees[emp.ID] = emp
	return before, emp, f.recalcErr
}

func (f *fakeService) DeleteEmployee(_ context.Context, _ string, id string) error {
	if f.inUse[id] {
		return core.ErrInUse
	}
	delete(f.employees, id)
	return nil
}

func (f *fakeService) ListDepartments(_ context.Context, _ string, _, _ int) ([]core.Department, int, error) {
	out := make([]core.Department, 0, len(f.departments))
	for _, dep := range f.departments {
		out = append(out, dep)
	}
	return out, len(out), nil
}

func (f *fakeService) GetDepartment(_ context.Context, _ string, id string) (core.Department, error) {
	dep, ok := f.departments[id]
	if !ok {
		return core.Department{}, core.ErrNotFound
	}
	return dep, nil
}

func (f *fakeService) CreateDepartment(_ context.Context, _ string, dep core.Department) (core.Department, error) {
	dep.ID = f.nextID("dep")
	f.departments[dep.ID] = dep
	return dep, nil
}

func (f *fakeService) UpdateDepartment(ctx context.Context, tenantID string, dep core.Department) (core.Department, core.Department, error) {
	before, err := f.GetDepartment(ctx, tenantID, dep.ID)
	if err != nil {
		return core.Department{}, core.Department{}, err
	}
	f.departments[dep.ID] = dep
	return before, dep, nil
}

func (f *fakeService) DeleteDepartment(ctx context.Context, tenantID, id string) error {
	if _, err := f.GetDepartment(ctx, tenantID, id); err != nil {
		return err
	}
	if f.inUse[id] {
		return core.ErrInUse
	}
	delete(f.departments, id)
	return nil
}

func newRouter(svc Service, user auth.UserContext) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	NewHandler(svc, allowAll{}, nil).RegisterRoutes(r)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

var hrUser = auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleID: "r-hr", RoleName: auth.RoleHR}

const validEmployee = `{"firstName":"Aisha","lastName":"Khan","email":"aisha@example.com","basicSalary":"12000","startDate":"2020-01-15","nationalId":"784-1990-1234567-1","bankAccount":"AE07 0331 2345 6789 0123 456"}`

func TestCreateEmployee(t *testing.T) {
	router := newRouter(newFakeService(), hrUser)

	rec := do(router, http.MethodPost, "/employees", validEmployee)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created core.Employee
	decodeData(t, rec, &created)
	if created.ID == "" || created.StartDate.Format("2006-01-02") != "2020-01-15" {
		t.Fatalf("unexpected employee %+v", created)
	}

	if rec := do(router, http.MethodPost, "/employees", validEmployee); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", rec.Code)
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	router := newRouter(newFakeService(), hrUser)
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"firstName":`},
		{name: "missing names", body: `{"email":"a@example.com","basicSalary":"1","startDate":"2020-01-01"}`},
		{name: "missing salary", body: `{"firstName":"A","lastName":"B","email":"a@example.com","startDate":"2020-01-01"}`},
		{name: "negative salary", body: `{"firstName":"A","lastName":"B","email":"a@example.com","basicSalary":"-5","startDate":"2020-01-01"}`},
		{name: "bad date", body: `{"firstName":"A","lastName":"B","email":"a@example.com","basicSalary":"5","startDate":"15/01/2020"}`},
		{name: "end before start", body: `{"firstName":"A","lastName":"B","email":"a@example.com","basicSalary":"5","startDate":"2020-01-01","endDate":"2019-01-01"}`},
		{name: "bad status", body: `{"firstName":"A","lastName":"B","email":"a@example.com","basicSalary":"5","startDate":"2020-01-01","status":"retired"}`},
		{name: "bad email", body: `{"firstName":"A","lastName":"B","email":"nope","basicSalary":"5","startDate":"2020-01-01"}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(router, http.MethodPost, "/employees", tc.body); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSensitiveFieldsHiddenFromManagers(t *testing.T) {
	svc := newFakeService()
	emp, _ := svc.CreateEmployee(context.Background(), "t1", core.Employee{
		FirstName: "A", LastName: "B", Email: "a@example.com", NationalID: "784",
		BankAccount: "AE07", BasicSalary: decimal.NewNullDecimal(decimal.NewFromInt(9000)),
		StartDate: mustDate("2021-03-01"),
	})
	router := newRouter(svc, auth.UserContext{UserID: "u-mgr", TenantID: "t1", RoleName: auth.RoleManager})

	rec := do(router, http.MethodGet, "/employees/"+emp.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got core.Employee
	decodeData(t, rec, &got)
	if got.NationalID != "" || got.BankAccount != "" || got.BasicSalary.Valid {
		t.Fatalf("expected sensitive fields hidden, got %+v", got)
	}
}

func TestEmployeeRoleSeesOnlySelf(t *testing.T) {
	svc := newFakeService()
	self, _ := svc.CreateEmployee(context.Background(), "t1", core.Employee{
		FirstName: "Self", LastName: "E", Email: "self@example.com", NationalID: "784",
		BasicSalary: decimal.NewNullDecimal(decimal.NewFromInt(5000)), StartDate: mustDate("2022-01-01"),
	})
	other, _ := svc.CreateEmployee(context.Background(), "t1", core.Employee{
		FirstName: "Other", LastName: "E", Email: "other@example.com",
		BasicSalary: decimal.NewNullDecimal(decimal.NewFromInt(5000)), StartDate: mustDate("2022-01-01"),
	})
	svc.userLinks["u-self"] = self.ID
	router := newRouter(svc, auth.UserContext{UserID: "u-self", TenantID: "t1", RoleName: auth.RoleEmployee})

	var list []core.Employee
	decodeData(t, do(router, http.MethodGet, "/employees", ""), &list)
	if len(list) != 1 || list[0].ID != self.ID {
		t.Fatalf("expected only self, got %+v", list)
	}
	if list[0].NationalID != "" || !list[0].BasicSalary.Valid {
		t.Fatalf("expected own salary visible and national id hidden, got %+v", list[0])
	}
	if rec := do(router, http.MethodGet, "/employees/"+other.ID, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var me struct {
		Employee *core.Employee `json:"employee"`
	}
	decodeData(t, do(router, http.MethodGet, "/me", ""), &me)
	if me.Employee == nil || me.Employee.ID != self.ID {
		t.Fatalf("expected /me to resolve own employee, got %+v", me.Employee)
	}
}

func TestEmployeeListResolvesSelfFirst(t *testing.T) {
	svc := newFakeService()
	for i := 0; i < 150; i++ {
		_, _ = svc.CreateEmployee(context.Background(), "t1", core.Employee{
			FirstName: "Other", LastName: fmt.Sprint(i), Email: fmt.Sprintf("other%d@example.com", i),
			BasicSalary: decimal.NewNullDecimal(decimal.NewFromInt(5000)), StartDate: mustDate("2022-01-01"),
		})
	}
	self, _ := svc.CreateEmployee(context.Background(), "t1", core.Employee{
		FirstName: "Self", LastName: "E", Email: "self@example.com",
		BasicSalary: decimal.NewNullDecimal(decimal.NewFromInt(5000)), StartDate: mustDate("2022-01-01"),
	})
	svc.userLinks["u-self"] = self.ID

	var list []core.Employee
	decodeData(t, do(newRouter(svc, auth.UserContext{UserID: "u-self", TenantID: "t1", RoleName: auth.RoleEmployee}), http.MethodGet, "/employees?limit=100", ""), &list)
	if len(list) != 1 || list[0].ID != self.ID {
		t.Fatalf("expected only self past the first page, got %d rows", len(list))
	}
	if svc.listCalls != 0 {
		t.Fatalf("expected no tenant listing for an employee, got %d calls", svc.listCalls)
	}

	rec := do(newRouter(svc, auth.UserContext{UserID: "u-unlinked", TenantID: "t1", RoleName: auth.RoleEmployee}), http.MethodGet, "/employees", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeData(t, rec, &list)
	if len(list) != 0 {
		t.Fatalf("expected nothing for an unlinked user, got %+v", list)
	}
}

func TestUpdateEmployeeReportsRecalculationFailure(t *testing.T) {
	svc := newFakeService()
	router := newRouter(svc, hrUser)
	var created core.Employee
	decodeData(t, do(router, http.MethodPost, "/employees", validEmployee), &created)

	svc.recalcErr = fmt.Errorf("%w: db unavailable", core.ErrRecalculationFailed)
	rec := do(router, http.MethodPut, "/employees/"+created.ID, strings.Replace(validEmployee, `"12000"`, `"15000"`, 1))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when recalculation fails, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "recalculation_failed") {
		t.Fatalf("expected recalculation_failed code, got %s", rec.Body.String())
	}
}

func TestDepartmentLifecycle(t *testing.T) {
	svc := newFakeService()
	router := newRouter(svc, hrUser)

	if rec := do(router, http.MethodPost, "/departments", `{"name":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rec.Code)
	}
	rec := do(router, http.MethodPost, "/departments", `{"name":"Finance"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var dep core.Department
	decodeData(t, rec, &dep)

	if rec := do(router, http.MethodPut, "/departments/"+dep.ID, `{"name":"Finance & Ops"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/departments", ""); rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("expected total 1, got %q", rec.Header().Get("X-Total-Count"))
	}

	svc.inUse[dep.ID] = true
	if rec := do(router, http.MethodDelete, "/departments/"+dep.ID, ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while in use, got %d", rec.Code)
	}
	svc.inUse[dep.ID] = false
	if rec := do(router, http.MethodDelete, "/departments/"+dep.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/departments/"+dep.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func mustDate(raw string) time.Time {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return parsed
}
