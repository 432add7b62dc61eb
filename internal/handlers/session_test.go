package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hughigh/loginserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuthNoToken(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/students/dashboard", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/students/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "not.a.token"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthCookie(t *testing.T) {
	env := newTestEnv()
	_, sessionToken := env.addUser("student@school.edu", types.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/students/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: sessionToken})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthBearerFallback(t *testing.T) {
	env := newTestEnv()
	_, sessionToken := env.addUser("student@school.edu", types.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/students/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthDeletedUser(t *testing.T) {
	env := newTestEnv()
	user, sessionToken := env.addUser("student@school.edu", types.RoleStudent)
	require.NoError(t, env.repo.Delete(context.Background(), user.ID))

	req := httptest.NewRequest(http.MethodGet, "/students/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: sessionToken})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	// Valid token but no user behind it anymore.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireRoleForbidden(t *testing.T) {
	env := newTestEnv()
	_, sessionToken := env.addUser("student@school.edu", types.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/teachers/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: sessionToken})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAdminOnTeacherRoute(t *testing.T) {
	env := newTestEnv()
	_, sessionToken := env.addUser("admin@school.edu", types.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/teachers/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: sessionToken})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
