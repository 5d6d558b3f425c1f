package payrollhandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/payroll"
	"hrms/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type memoryRepository struct {
	entries  map[string]payroll.Entry
	salaries map[string]decimal.Decimal
	seq      int
	wpsCalls int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries:  map[string]payroll.Entry{},
		salaries: map[string]decimal.Decimal{"emp-1": decimal.NewFromInt(10000)},
	}
}

func (m *memoryRepository) List(_ context.Context, _ string, filter payroll.ListFilter) ([]payroll.Entry, error) {
	out := []payroll.Entry{}
	for _, e := range m.entries {
		if filter.EmployeeID != "" && e.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.WPSStatus != "" && e.WPSStatus != filter.WPSStatus {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryRepository) Get(_ context.Context, _ string, id string) (payroll.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return payroll.Entry{}, payroll.ErrNotFound
	}
	return e, nil
}

func (m *memoryRepository) Insert(_ context.Context, _ string, e payroll.Entry) (payroll.Entry, error) {
	m.seq++
	e.ID = fmt.Sprintf("pay-%d", m.seq)
	m.entries[e.ID] = e
	return e, nil
}

func (m *memoryRepository) UpdateAmounts(_ context.Context, _ string, e payroll.Entry) (payroll.Entry, error) {
	m.entries[e.ID] = e
	return e, nil
}

func (m *memoryRepository) UpdateWPSStatus(_ context.Context, _ string, e payroll.Entry, previous string) (payroll.Entry, error) {
	m.wpsCalls++
	if m.entries[e.ID].WPSStatus != previous {
		return payroll.Entry{}, payroll.ErrInvalidTransition
	}
	m.entries[e.ID] = e
	return e, nil
}

func (m *memoryRepository) Delete(_ context.Context, _ string, id string) error {
	if _, ok := m.entries[id]; !ok {
		return payroll.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memoryRepository) EmployeeSalary(_ context.Context, _ string, employeeID string) (decimal.Decimal, string, error) {
	salary, ok := m.salaries[employeeID]
	if !ok {
		return decimal.Zero, "", payroll.ErrEmployeeNotFound
	}
	return salary, "AED", nil
}

type memoryIdempotency struct {
	hashes    map[string]string
	responses map[string]json.RawMessage
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{hashes: map[string]string{}, responses: map[string]json.RawMessage{}}
}

func (m *memoryIdempotency) Check(_ context.Context, tenantID, userID, endpoint, key, hash string) (json.RawMessage, bool, error) {
	id := strings.Join([]string{tenantID, userID, endpoint, key}, "|")
	stored, ok := m.hashes[id]
	if !ok {
		return nil, false, nil
	}
	if stored != hash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	return m.responses[id], true, nil
}

func (m *memoryIdempotency) Save(_ context.Context, tenantID, userID, endpoint, key, hash string, response json.RawMessage) error {
	id := strings.Join([]string{tenantID, userID, endpoint, key}, "|")
	m.hashes[id] = hash
	m.responses[id] = response
	return nil
}

var hrUser = auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleID: "r-hr", RoleName: auth.RoleHR}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), hrUser)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func do(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
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

const entryBody = `{"employeeId":"emp-1","periodStart":"2024-01-01","periodEnd":"2024-01-31","lines":[{"type":"earning","label":"housing","amount":"2500"},{"type":"deduction","label":"loan","amount":"750.50"}]}`

func TestCreateDerivesAmounts(t *testing.T) {
	router := newRouter(NewHandler(payroll.NewService(newMemoryRepository()), allowAll{}, nil))

	rec := do(router, http.MethodPost, "/payroll", entryBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var entry payroll.Entry
	decodeData(t, rec, &entry)
	if !entry.Gross.Equal(decimal.NewFromInt(12500)) || !entry.Net.Equal(decimal.RequireFromString("11749.5")) {
		t.Fatalf("unexpected amounts gross=%s net=%s", entry.Gross, entry.Net)
	}
	if entry.WPSStatus != payroll.WPSPending {
		t.Fatalf("expected pending wps status, got %q", entry.WPSStatus)
	}
}

func TestCreateValidation(t *testing.T) {
	router := newRouter(NewHandler(payroll.NewService(newMemoryRepository()), allowAll{}, nil))
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed", body: `{"employeeId":`, want: http.StatusBadRequest},
		{name: "net supplied", body: `{"employeeId":"emp-1","periodStart":"2024-01-01","periodEnd":"2024-01-31","net":"1"}`, want: http.StatusBadRequest},
		{name: "reversed period", body: `{"employeeId":"emp-1","periodStart":"2024-02-01","periodEnd":"2024-01-31"}`, want: http.StatusBadRequest},
		{name: "negative line", body: `{"employeeId":"emp-1","periodStart":"2024-01-01","periodEnd":"2024-01-31","lines":[{"type":"earning","amount":"-1"}]}`, want: http.StatusBadRequest},
		{name: "unknown line type", body: `{"employeeId":"emp-1","periodStart":"2024-01-01","periodEnd":"2024-01-31","lines":[{"type":"bonus","amount":"1"}]}`, want: http.StatusBadRequest},
		{name: "unknown employee", body: `{"employeeId":"emp-x","periodStart":"2024-01-01","periodEnd":"2024-01-31"}`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(router, http.MethodPost, "/payroll", tc.body); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestWPSLifecycleAndReplay(t *testing.T) {
	repo := newMemoryRepository()
	h := NewHandler(payroll.NewService(repo), allowAll{}, nil)
	h.Idempotency = newMemoryIdempotency()
	router := newRouter(h)

	var entry payroll.Entry
	decodeData(t, do(router, http.MethodPost, "/payroll", entryBody), &entry)

	if rec := do(router, http.MethodPost, "/payroll/"+entry.ID+"/wps", `{"status":"accepted"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 accepting a pending entry, got %d", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/payroll/"+entry.ID+"/wps", `{"status":"pending"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for pending target, got %d", rec.Code)
	}

	first := do(router, http.MethodPost, "/payroll/"+entry.ID+"/wps", `{"status":"submitted","reference":"WPS-42"}`, middleware.IdempotencyHeader, "key-1")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", first.Code, first.Body.String())
	}
	calls := repo.wpsCalls
	replay := do(router, http.MethodPost, "/payroll/"+entry.ID+"/wps", `{"status":"submitted","reference":"WPS-42"}`, middleware.IdempotencyHeader, "key-1")
	if replay.Code != http.StatusOK || repo.wpsCalls != calls {
		t.Fatalf("expected replay without a second transition, got %d calls=%d", replay.Code, repo.wpsCalls)
	}
	var replayed payroll.Entry
	decodeData(t, replay, &replayed)
	if replayed.WPSStatus != payroll.WPSSubmitted || replayed.WPSReference != "WPS-42" {
		t.Fatalf("unexpected replayed entry %+v", replayed)
	}
	if rec := do(router, http.MethodPost, "/payroll/"+entry.ID+"/wps", `{"status":"accepted"}`, middleware.IdempotencyHeader, "key-1"); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 reusing a key with another payload, got %d", rec.Code)
	}

	if rec := do(router, http.MethodPut, "/payroll/"+entry.ID, entryBody); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing a submitted entry, got %d", rec.Code)
	}
}

func TestExportRegister(t *testing.T) {
	router := newRouter(NewHandler(payroll.NewService(newMemoryRepository()), allowAll{}, nil))
	do(router, http.MethodPost, "/payroll", entryBody)

	rec := do(router, http.MethodGet, "/payroll/export", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("expected csv, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[1][8] != "11749.50" {
		t.Fatalf("unexpected register %v", rows)
	}
}

func TestDeleteAndMissing(t *testing.T) {
	router := newRouter(NewHandler(payroll.NewService(newMemoryRepository()), allowAll{}, nil))

	if rec := do(router, http.MethodGet, "/payroll/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var entry payroll.Entry
	decodeData(t, do(router, http.MethodPost, "/payroll", entryBody), &entry)
	if rec := do(router, http.MethodDelete, "/payroll/"+entry.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(router, http.MethodDelete, "/payroll/"+entry.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
