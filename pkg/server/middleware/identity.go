// Package middleware carries the request-scoped concerns of the HTTP
// surface: caller identity and tenant binding.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type userIDKey struct{}

// UserIDFromContext returns the authenticated user id bound to the request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok
}

// WithUserID binds a user id to a context. Exported for endpoint tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Identity validates bearer tokens issued by the identity provider. Tokens
// are HMAC-signed; the subject claim is the opaque user id.
type Identity struct {
	signingKey []byte
}

func NewIdentity(signingKey []byte) *Identity {
	return &Identity{signingKey: signingKey}
}

// OptionalMiddleware binds the token subject when a bearer token is
// present and passes unauthenticated requests through unbound. Handlers
// that need an identity reject the unbound case themselves, which keeps
// open endpoints like the status page reachable.
func (i *Identity) OptionalMiddleware(next http.Handler) http.Handler {
	strict := i.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		strict.ServeHTTP(w, r)
	})
}

// Middleware rejects requests without a valid bearer token and binds the
// token subject to the request context.
func (i *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Authorization missing"))
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Malformed authorization header"))
			return
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return i.signingKey, nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !token.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Invalid token"))
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Token missing subject"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), subject)))
	})
}
