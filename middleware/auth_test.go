package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid token")
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserIDFromContext(r) + "|" + GetUserRoleFromContext(r)))
}

func TestExtractToken(t *testing.T) {
	testCases := []struct {
		name          string
		authHeader    string
		expectedToken string
	}{
		{"Valid Bearer token", "Bearer test-token-123", "test-token-123"},
		{"Missing Bearer prefix", "test-token-123", ""},
		{"Empty auth header", "", ""},
		{"Bearer with no token", "Bearer ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token := extractToken(tc.authHeader)
			if token != tc.expectedToken {
				t.Errorf("Expected token '%s', got '%s'", tc.expectedToken, token)
			}
		})
	}
}

func TestAuthMiddleware_DevMode(t *testing.T) {
	handler := NewAuthenticator(nil, nil).Middleware(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, DevUserID+"|"+RoleAdmin, rr.Body.String())
}

func TestAuthMiddleware_Tokens(t *testing.T) {
	verifier := fakeVerifier{tokens: map[string]*auth.Token{
		"good":   {UID: "u1"},
		"viewer": {UID: "u2", Claims: map[string]interface{}{"role": "viewer"}},
		"bogus":  {UID: "u3", Claims: map[string]interface{}{"role": "root"}},
	}}
	handler := NewAuthenticator(verifier, nil).Middleware(http.HandlerFunc(echoIdentity))

	testCases := []struct {
		name     string
		header   string
		query    string
		method   string
		wantCode int
		wantBody string
	}{
		{name: "no token", wantCode: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "default role", header: "Bearer good", wantCode: http.StatusOK, wantBody: "u1|editor"},
		{name: "claimed role", header: "Bearer viewer", wantCode: http.StatusOK, wantBody: "u2|viewer"},
		{name: "unknown role falls back", header: "Bearer bogus", wantCode: http.StatusOK, wantBody: "u3|editor"},
		{name: "query param token", query: "?auth=good", wantCode: http.StatusOK, wantBody: "u1|editor"},
		{name: "preflight passes", method: http.MethodOptions, wantCode: http.StatusOK, wantBody: "|"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			method := tc.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, "/customers"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantCode, rr.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rr.Body.String())
			}
		})
	}
}

func TestVerifierOrNil(t *testing.T) {
	assert.Nil(t, VerifierOrNil(nil))
}
