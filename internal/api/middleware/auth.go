package middleware

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/localevents/internal/api/problem"
	"github.com/Togather-Foundation/localevents/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores a verified caller on the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the caller verified by RequireIdentity.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}

// RequireIdentity verifies the bearer token on every request and rejects
// the request with 401 and the verifier's message when it fails.
func RequireIdentity(verifier *auth.Verifier, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, err.Error(), err, env)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			logger := LoggerFromContext(ctx).With().Str("user_id", identity.ID).Logger()
			ctx = logger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
