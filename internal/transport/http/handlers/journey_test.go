package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hrms/internal/app/server"
	"hrms/internal/domain/leave"
	"hrms/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func journeyConfig(t *testing.T) config.Config {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return config.Config{
		DatabaseURL:          dbURL,
		MigrationsDir:        filepath.Join("..", "..", "..", "..", "migrations"),
		JWTSecret:            "journey-secret-with-at-least-32-chars",
		TokenTTL:             time.Hour,
		DataEncryptionKey:    "0123456789abcdef0123456789abcdef",
		Environment:          "test",
		LogLevel:             "warn",
		SeedTenantName:       "Journey Tenant",
		SeedAdminEmail:       "hr@journey.local",
		SeedAdminPassword:    "ChangeMe123!",
		RunMigrations:        true,
		RunSeed:              true,
		MaxBodyBytes:         1048576,
		RateLimitPerMinute:   1000,
		IdempotencyBackend:   config.IdempotencyPostgres,
		GratuityRecalcPolicy: config.RecalcOnChange,
		ShutdownTimeout:      time.Second,
	}
}

func TestWorkforceJourney(t *testing.T) {
	cfg := journeyConfig(t)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	c := client{t: t, http: ts.Client(), base: ts.URL}
	c.token = c.login(cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	var employee struct {
		ID string `json:"id"`
	}
	c.expect(http.MethodPost, "/api/employees", map[string]any{
		"employeeNumber": fmt.Sprintf("J-%d", time.Now().UnixNano()),
		"firstName":      "Journey",
		"lastName":       "Tester",
		"email":          fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano()),
		"basicSalary":    "12000",
		"startDate":      time.Now().AddDate(-6, 0, 0).Format("2006-01-02"),
		"status":         "active",
	}, nil, http.StatusCreated, &employee)

	var benefit struct {
		ID             string `json:"id"`
		GratuityAmount string `json:"gratuityAmount"`
		Status         string `json:"status"`
	}
	c.expect(http.MethodPost, "/api/benefits", map[string]any{"employeeId": employee.ID}, nil, http.StatusCreated, &benefit)
	if benefit.Status != "accruing" {
		t.Fatalf("expected accruing benefit, got %+v", benefit)
	}

	var leaveReq struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	start := time.Now().AddDate(0, 1, 0)
	c.expect(http.MethodPost, "/api/leaves", map[string]any{
		"employeeId": employee.ID,
		"type":       leave.TypeAnnual,
		"startDate":  start.Format("2006-01-02"),
		"endDate":    start.AddDate(0, 0, 2).Format("2006-01-02"),
	}, nil, http.StatusCreated, &leaveReq)
	c.expect(http.MethodPost, "/api/leaves/"+leaveReq.ID+"/approve", nil, nil, http.StatusOK, &leaveReq)
	if leaveReq.Status != "approved" {
		t.Fatalf("expected approved leave, got %s", leaveReq.Status)
	}
	c.expect(http.MethodPost, "/api/leaves/"+leaveReq.ID+"/reject", nil, nil, http.StatusConflict, nil)

	headers := map[string]string{"Idempotency-Key": "journey-payout-" + benefit.ID}
	payout := map[string]any{"reference": "BANK-001"}
	c.expect(http.MethodPost, "/api/benefits/"+benefit.ID+"/payout", payout, headers, http.StatusOK, &benefit)
	if benefit.Status != "paid_out" {
		t.Fatalf("expected paid_out benefit, got %+v", benefit)
	}
	c.expect(http.MethodPost, "/api/benefits/"+benefit.ID+"/payout", payout, headers, http.StatusOK, nil)
	c.expect(http.MethodPost, "/api/benefits/"+benefit.ID+"/payout", payout, nil, http.StatusConflict, nil)

	var dashboard struct {
		Headcount int `json:"headcount"`
	}
	c.expect(http.MethodGet, "/api/reports/dashboard", nil, nil, http.StatusOK, &dashboard)
	if dashboard.Headcount == 0 {
		t.Fatal("expected headcount to include the new employee")
	}

	var events []struct {
		Action string `json:"action"`
	}
	c.expect(http.MethodGet, "/api/audit?entityId="+benefit.ID, nil, nil, http.StatusOK, &events)
	if len(events) < 2 {
		t.Fatalf("expected create and payout audit events, got %v", events)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	cfg := journeyConfig(t)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	c := client{t: t, http: ts.Client(), base: ts.URL}
	c.expect(http.MethodGet, "/api/employees", nil, nil, http.StatusUnauthorized, nil)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", resp.StatusCode)
	}
}

type client struct {
	t     *testing.T
	http  *http.Client
	base  string
	token string
}

func (c client) login(email, password string) string {
	var out struct {
		Token string `json:"token"`
	}
	c.expect(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, nil, http.StatusOK, &out)
	if out.Token == "" {
		c.t.Fatal("expected login token")
	}
	return out.Token
}

func (c client) expect(method, path string, body any, headers map[string]string, wantStatus int, dst any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal %s: %v", path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("new request %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, wantStatus, resp.StatusCode, raw)
	}
	if dst == nil {
		return
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.t.Fatalf("decode %s: %v", path, err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		c.t.Fatalf("decode %s data: %v", path, err)
	}
}
