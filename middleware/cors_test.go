package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowedOrigins := []string{
		"https://example.com",
		"http://localhost:5173",
	}

	testCases := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"Allowed origin", "https://example.com", true},
		{"Another allowed origin", "http://localhost:5173", true},
		{"Disallowed origin", "https://evil.com", false},
		{"Empty origin", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isAllowedOrigin(tc.origin, allowedOrigins); got != tc.expected {
				t.Errorf("isAllowedOrigin(%q) = %v, want %v", tc.origin, got, tc.expected)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	allowed := []string{"https://dash.example.com", "http://localhost:5173"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name        string
		development bool
		origin      string
		method      string
		wantOrigin  string
		wantCode    int
	}{
		{"allowed origin", false, "http://localhost:5173", http.MethodGet, "http://localhost:5173", http.StatusTeapot},
		{"disallowed origin in production", false, "https://evil.com", http.MethodGet, "https://dash.example.com", http.StatusTeapot},
		{"any origin in development", true, "https://evil.com", http.MethodGet, "https://evil.com", http.StatusTeapot},
		{"preflight", false, "https://dash.example.com", http.MethodOptions, "https://dash.example.com", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := CORS(allowed, tc.development, nil)(next)
			req := httptest.NewRequest(tc.method, "/customers", nil)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantOrigin)
			}
			if got := rr.Header().Get("Access-Control-Expose-Headers"); got != StorageWarningHeader {
				t.Errorf("Access-Control-Expose-Headers = %q", got)
			}
		})
	}
}
