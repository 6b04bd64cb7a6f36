package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agrolabs/pasture/internal/auth"
	"github.com/agrolabs/pasture/internal/domain"
	"github.com/agrolabs/pasture/internal/store"
)

// extractBearerToken extracts the token from Authorization header.
// Returns empty string for missing/malformed headers.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 6750)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

// ScopeMiddleware authenticates the bearer token, resolves the caller's
// membership on the farm named in the URL, and attaches the resulting
// auth.Scope to the request context. Sync requires role STAFF or above.
func ScopeMiddleware(secret string, s *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.VerifyToken(secret, extractBearerToken(r))
			if err != nil {
				slog.Warn("auth failure",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_ip", r.RemoteAddr,
				)
				WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid token")
				return
			}

			farmID := chi.URLParam(r, "farmID")
			if farmID == "" {
				WriteProblem(w, r, http.StatusBadRequest, "Missing farm id")
				return
			}

			role, err := s.MembershipRole(r.Context(), userID, farmID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					WriteProblem(w, r, http.StatusForbidden, "No membership on this farm")
					return
				}
				slog.Error("membership lookup failed", "error", err, "farm_id", farmID)
				WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			scope := auth.Scope{UserID: userID, FarmID: farmID, Role: role}
			if !scope.CanSync() {
				WriteProblem(w, r, http.StatusForbidden, "Role does not permit sync")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithScope(r.Context(), scope)))
		})
	}
}

// RequireRole guards a route with a minimum membership role, on top of
// ScopeMiddleware.
func RequireRole(min domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := auth.ScopeFromContext(r.Context())
			if err != nil || !scope.Role.AtLeast(min) {
				WriteProblem(w, r, http.StatusForbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs HTTP requests.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
