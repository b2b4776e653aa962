package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"formgrid/internal/domain"
)

// UserResolver looks up the platform user matching a token's claims.
type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Authenticator verifies the bearer token on each request and attaches the
// resolved principal to the context. Tokens without a matching platform user
// still yield a principal (subject only, no admin flag), so role rules that
// reference the subject ID keep working for externally provisioned identities.
func Authenticator(validator TokenValidator, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				writeUnauthorized(w, "invalid token")
				return
			}

			principal := domain.Principal{ID: claims.Subject, Name: claims.Name}
			if claims.Email != "" && users != nil {
				if user, err := users.GetByEmail(r.Context(), claims.Email); err == nil {
					principal.ID = user.ID
					principal.Name = user.Name
					principal.IsAdmin = user.IsAdmin
				}
			}
			if principal.ID == "" {
				writeUnauthorized(w, "token has no subject")
				return
			}

			ctx := domain.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
