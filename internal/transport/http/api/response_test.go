package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFailWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "payload validation failed", map[string]any{"fields": []string{"basicSalary"}}, "req-1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != "validation_error" || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if _, ok := env.Error.Details["fields"]; !ok {
		t.Fatalf("expected details to carry fields")
	}
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "rec-1"}, "req-2")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
