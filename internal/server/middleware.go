package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// accountIDKey is the context key for the authenticated account identifier.
type accountIDKey struct{}

// Authenticate verifies the bearer token (Authorization header, falling back
// to the session cookie) and injects the verified account identifier into
// the request context. Handlers downstream never see credentials.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
				return
			}

			accountID, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "failed to authenticate token")
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey{}, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header or the
// session cookie.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// accountFromContext returns the authenticated account identifier.
func accountFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey{}).(uuid.UUID)
	return id, ok
}
