package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withIdentity(r *http.Request, uid, role string) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDKey, uid)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return r.WithContext(ctx)
}

func TestIsRoleAtLeast(t *testing.T) {
	assert.True(t, IsRoleAtLeast(RoleAdmin, RoleEditor))
	assert.True(t, IsRoleAtLeast(RoleEditor, RoleEditor))
	assert.False(t, IsRoleAtLeast(RoleViewer, RoleEditor))
	assert.False(t, IsRoleAtLeast("", RoleViewer))
	assert.False(t, IsRoleAtLeast("root", RoleViewer))
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RequireRole(RoleEditor)(ok)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/customers", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodPost, "/customers", nil), "u", RoleViewer))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodPost, "/customers", nil), "u", RoleEditor))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireWriteForMutations(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RequireWriteForMutations(ok)

	for method, want := range map[string]int{
		http.MethodGet:    http.StatusOK,
		http.MethodPost:   http.StatusForbidden,
		http.MethodPut:    http.StatusForbidden,
		http.MethodDelete: http.StatusForbidden,
	} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withIdentity(httptest.NewRequest(method, "/customers", nil), "u", RoleViewer))
		assert.Equal(t, want, rr.Code, method)
	}
}
