package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the token payload issued by the identity service: subject
// is the user id, role one of the three application roles.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Middleware struct {
	secret []byte
	logger *logger.Logger
}

func NewMiddleware(secret string, log *logger.Logger) *Middleware {
	return &Middleware{secret: []byte(secret), logger: log}
}

// Authenticate verifies the bearer token and stores the caller's id and
// role in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Authentication required", "missing bearer token"))
			return
		}

		claims, err := m.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			m.logger.Warn("AUTH", fmt.Sprintf("Rejected token: %v", err))
			utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Authentication required", ErrInvalidToken.Error()))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, roleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles allows only callers whose role is in the list. It must
// run after Authenticate.
func (m *Middleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := Role(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.logger.Warn("AUTH", fmt.Sprintf("Role %q denied for %s %s", role, r.Method, r.URL.Path))
			utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", "insufficient role"))
		})
	}
}

func (m *Middleware) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserID returns the authenticated caller's id, empty when the request
// skipped authentication.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Role returns the authenticated caller's role.
func Role(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
