package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		origin   string
		expected string
	}{
		{"wildcard", []string{"*"}, "https://example.com", "*"},
		{"whitelisted", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com"},
		{"whitelisted with trailing slash", []string{"https://app.example.com/"}, "https://app.example.com", "https://app.example.com"},
		{"not whitelisted", []string{"https://app.example.com"}, "https://evil.example.com", ""},
		{"localhost always", nil, "http://localhost:3000", "http://localhost:3000"},
		{"localhost lookalike", nil, "http://localhost.evil.com", ""},
		{"no origin", []string{"*"}, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := CORS(tc.allowed)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/search", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, req)

			if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != tc.expected {
				t.Errorf("Access-Control-Allow-Origin = %q; want %q", got, tc.expected)
			}
			if recorder.Code != http.StatusTeapot {
				t.Errorf("expected request passed through, got %d", recorder.Code)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS([]string{"*"})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "https://example.com")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected preflight 200, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected Access-Control-Allow-Methods header")
	}
}

func TestSecurityHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected nosniff header")
	}
}
