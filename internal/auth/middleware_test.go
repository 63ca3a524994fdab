package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject, role string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func echoHandler(t *testing.T, wantUserID, wantRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantUserID, UserID(r.Context()))
		assert.Equal(t, wantRole, Role(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	mw := NewMiddleware(testSecret, logger.NewLogger())
	token := signToken(t, testSecret, "u-1", models.RoleCustomer, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.Authenticate(echoHandler(t, "u-1", models.RoleCustomer)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	mw := NewMiddleware(testSecret, logger.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	rec := httptest.NewRecorder()

	mw.Authenticate(echoHandler(t, "", "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	mw := NewMiddleware(testSecret, logger.NewLogger())

	cases := map[string]string{
		"wrong secret":    signToken(t, "other-secret", "u-1", models.RoleCustomer, time.Now().Add(time.Hour)),
		"expired":         signToken(t, testSecret, "u-1", models.RoleCustomer, time.Now().Add(-time.Hour)),
		"missing subject": signToken(t, testSecret, "", models.RoleCustomer, time.Now().Add(time.Hour)),
		"garbage":         "not.a.token",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			mw.Authenticate(echoHandler(t, "", "")).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	mw := NewMiddleware(testSecret, logger.NewLogger())

	handler := mw.Authenticate(
		mw.RequireRoles(models.RoleOrganizer, models.RoleAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		),
	)

	organizerToken := signToken(t, testSecret, "u-1", models.RoleOrganizer, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	req.Header.Set("Authorization", "Bearer "+organizerToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	customerToken := signToken(t, testSecret, "u-2", models.RoleCustomer, time.Now().Add(time.Hour))
	req = httptest.NewRequest(http.MethodPost, "/api/events", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
