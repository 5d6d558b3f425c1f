package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected request id in context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatal("expected request id header to match context")
	}
}

func TestRequestIDKeepsInboundValue(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetRequestID(r.Context()); got != "abc-123" {
			t.Fatalf("unexpected request id %q", got)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	oversized := httptest.NewRequest(http.MethodGet, "/", nil)
	oversized.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	rec := httptest.NewRecorder()
	RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, oversized)
	if len(rec.Header().Get("X-Request-ID")) > maxRequestIDLength {
		t.Fatal("expected oversized request id to be replaced")
	}
}
