package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/chanbara-tournament/services"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// Authenticate verifies the bearer token and stores its claims in the request context.
// A missing token is 401, a token that fails verification is 403.
func Authenticate(tokens services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, services.ErrMissingToken.Error())
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				writeError(w, http.StatusForbidden, services.ErrInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets through only admin tokens.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAthlete lets through only athlete tokens.
func RequireAthlete(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.IsAdmin {
			writeError(w, http.StatusForbidden, "only athletes can perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*services.Claims)
	return claims, ok && claims != nil
}

// AthleteIDFromContext returns the id of the authenticated athlete.
func AthleteIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, errors.New("claims not found in context")
	}
	if claims.IsAdmin {
		return 0, services.ErrForbiddenOperation
	}
	if claims.ID <= 0 {
		return 0, errors.New("invalid athlete id in token")
	}
	return claims.ID, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
