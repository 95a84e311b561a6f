package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskpad/api/internal/core/ports"
)

type contextKey string

// UserIDKey holds the authenticated user's id in the request context. It is
// the only source of identity for handlers; nothing client-supplied is
// trusted in its place.
const UserIDKey contextKey = "userID"

const unauthorizedMessage = "Missing or invalid token"

// Authenticator gates every protected route. It extracts the bearer token,
// verifies it, and stores the resolved user id in the context. Every failure
// mode produces the same 401 body, so a caller cannot tell a missing header
// from an expired token.
func Authenticator(verifier ports.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			userID, err := verifier.Verify(parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recoverer converts panics into a generic 500 so internal details never
// reach the client.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", slog.Any("panic", rec), slog.String("path", r.URL.Path))
					respondError(w, http.StatusInternalServerError, "Server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
