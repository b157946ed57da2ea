package web

import (
	"context"
	"fmt"
	"net/http"

	"chat-relay/auth"
	"chat-relay/errors"
)

type contextKey string

const identityKey contextKey = "identity"

// requireAuth resolves the bearer token into a user id and stores it on the
// request context. Requests without a valid token never reach the handler.
func requireAuth(tokens *auth.TokenService, re responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.BearerFromHeader(r.Header.Get("Authorization"))
			if raw == "" {
				re.error(w, fmt.Errorf("%w: missing bearer token", errors.ErrAuthentication))
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				re.error(w, fmt.Errorf("%w: invalid token", errors.ErrAuthentication))
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFrom returns the authenticated user id placed by requireAuth.
func identityFrom(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}
