package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/model"
)

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAdmin rejects requests without a valid admin bearer token and
// stores the verified claims in the request context.
func RequireAdmin(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				logAuthFailure(logger, r, "missing_token")
				writeError(w, http.StatusUnauthorized, "Not authorized")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logAuthFailure(logger, r, "invalid_token")
				writeError(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			if claims.Role != model.RoleAdmin {
				logAuthFailure(logger, r, "not_admin")
				writeError(w, http.StatusForbidden, "Admin access required")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}
