package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carins/carins-backend/pkg/auth"
	"github.com/carins/carins-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer"}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	handler := AdminAuth(testJWT, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminAuthRejectsInvalidToken(t *testing.T) {
	handler := AdminAuth(testJWT, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminAuthSeedsActor(t *testing.T) {
	token, err := auth.MintAdminToken(testJWT, time.Now(), "ops", time.Hour)
	require.NoError(t, err)

	var subject, role string
	handler := AdminAuth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ops", subject)
	assert.Equal(t, auth.RoleAdmin, role)
}

func TestRequireRoleRejectsNonAdmin(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.AdminClaims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testJWT.Issuer,
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)

	handler := AdminAuth(testJWT, nil)(RequireRole(auth.RoleAdmin, nil)(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
