package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// UserContextKey holds the authenticated caller's user id.
const UserContextKey contextKey = "user_id"

// AuthMiddleware verifies bearer tokens issued by the identity provider.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates an auth middleware verifying HS256 tokens
// signed with the provider's shared secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// RequireUser verifies the Authorization bearer token and stores the
// caller's user id in the request context. The token's `sub` claim is the
// user id.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Without the signing secret no caller can ever be verified;
		// that is a deployment problem, not an auth failure.
		if len(m.secret) == 0 {
			jsonError(w, http.StatusInternalServerError, "missing JWT secret configuration")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			jsonError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			jsonError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			jsonError(w, http.StatusUnauthorized, "token has no subject")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext retrieves the authenticated user id from the request
// context.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserContextKey).(string)
	return id
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
