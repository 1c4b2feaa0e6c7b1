package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskpilot/taskpilot-be/internal/apperr"
	"github.com/taskpilot/taskpilot-be/internal/http/respond"
	"github.com/taskpilot/taskpilot-be/internal/models"
	"github.com/taskpilot/taskpilot-be/internal/storage"
)

type identityKey struct{}

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, id models.AuthenticatedIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached by the auth guard, if any.
func IdentityFrom(ctx context.Context) (models.AuthenticatedIdentity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.AuthenticatedIdentity)
	return id, ok
}

// TokenVerifier checks a bearer token and returns the subject user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// IdentityResolver re-fetches the current user projection for a verified id.
type IdentityResolver interface {
	ValidateUser(ctx context.Context, id int64) (models.UserProjection, error)
}

// Guard enforces bearer-token authorization for every route not marked
// public. On success the resolved identity is attached to the request
// context; on any failure the downstream handler never runs.
type Guard struct {
	tokens   TokenVerifier
	resolver IdentityResolver
	logger   *slog.Logger
	public   map[string]bool
}

// NewGuard builds a guard. Public routes are "METHOD /path" strings matched
// exactly against the incoming request.
func NewGuard(tokens TokenVerifier, resolver IdentityResolver, logger *slog.Logger, publicRoutes []string) *Guard {
	public := make(map[string]bool, len(publicRoutes))
	for _, route := range publicRoutes {
		public[route] = true
	}
	return &Guard{tokens: tokens, resolver: resolver, logger: logger, public: public}
}

// Wrap returns next protected by the guard.
func (g *Guard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.public[r.Method+" "+r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := g.tokens.Verify(token)
		if err != nil {
			respond.Failure(w, r, g.logger, err)
			return
		}

		// The token is trusted only for its subject; the account itself is
		// re-resolved so a deleted user is locked out immediately.
		user, err := g.resolver.ValidateUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			respond.Failure(w, r, g.logger, apperr.Wrap(apperr.KindInternal, "internal server error", err))
			return
		}

		identity := models.AuthenticatedIdentity{ID: user.ID, Email: user.Email, Name: user.Name}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}
