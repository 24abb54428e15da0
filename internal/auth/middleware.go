package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the request-scoped user resolved by the middleware.
type Identity struct {
	UserID   string
	Username string
}

// Guest is the identity every request falls back to when no valid token is
// presented. The service currently runs in no-auth mode: podcasts are still
// scoped by user id so enabling real auth later does not change the data model.
var Guest = Identity{UserID: "guest-user", Username: "guest"}

type ctxKey string

const identityKey ctxKey = "identity"

func IdentityFromContext(ctx context.Context) Identity {
	v := ctx.Value(identityKey)
	id, ok := v.(Identity)
	if !ok {
		return Guest
	}
	return id
}

// WithIdentity resolves the caller from a Bearer token when one is present and
// valid, and injects the guest identity otherwise.
func WithIdentity(jwtSvc *JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Guest

			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token := strings.TrimPrefix(h, "Bearer ")
				if verified, err := jwtSvc.Verify(token); err == nil {
					id = verified
				}
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
