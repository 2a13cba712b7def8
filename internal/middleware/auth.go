package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/service"
)

// Authenticator resolves an Authorization header value to an identity.
type Authenticator interface {
	Authenticate(rawHeader string) (*model.AuthContext, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// Auth returns a middleware that gates requests on a valid bearer token.
// On success the caller's identity is attached to the request context;
// handlers read the owner from there and never from the body or path.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := cfg.Authenticator.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				code, message, reason := "INVALID_TOKEN", "Invalid or expired token", "invalid_token"
				if errors.Is(err, service.ErrMissingToken) {
					code, message, reason = "MISSING_TOKEN", "Missing bearer token", "missing_token"
				}

				logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("WWW-Authenticate", `Bearer realm="tasklist"`)
				writeErrorJSON(w, http.StatusUnauthorized, code, message)
				return
			}

			logger.Debug("authentication successful",
				slog.String("user_id", authCtx.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
