package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/photoshare/photoshare/internal/auth"
	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/repository"
)

// TokenResolver resolves a bearer token to the user it belongs to.
type TokenResolver interface {
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
}

// Identity returns middleware that resolves the caller's identity from a
// bearer token and attaches it to the request context. Requests without a
// token, or with a token no stored user carries, proceed as anonymous;
// individual operations decide whether they require an identity.
func Identity(logger *slog.Logger, resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.GetUserByToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("identity resolution failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL","message":"Internal server error"}}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), user)))
		})
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the access_token query parameter for WebSocket clients that cannot
// set headers.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
