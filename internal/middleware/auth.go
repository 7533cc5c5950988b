// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/service"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// IdentityKey is the context key for the authenticated caller.
	IdentityKey contextKey = "identity"
)

// IdentityResolver turns a bearer token into the live account it names.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

// Authenticator resolves bearer tokens on incoming requests.
type Authenticator struct {
	resolver IdentityResolver
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(resolver IdentityResolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// Header errors reported by Required.
const (
	msgNoToken    = "No token provided"
	msgTokenError = "Token error"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns the rejection message when the header is missing
// or malformed.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", msgNoToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", msgTokenError
	}
	return parts[1], ""
}

// Required rejects requests without a valid token for a live account with
// 401. A store failure while resolving the account answers 500.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, reject := bearerToken(r)
		if reject != "" {
			render.Message(w, http.StatusUnauthorized, reject)
			return
		}

		identity, err := a.resolver.Resolve(r.Context(), token)
		if err != nil {
			var se *service.Error
			if errors.As(err, &se) && se.Kind == service.KindUnauthenticated {
				render.Message(w, http.StatusUnauthorized, se.Message)
				return
			}
			slog.Error("resolve identity failed", "error", err, "path", r.URL.Path)
			render.ServerError(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// Optional attaches the caller's identity when the token resolves and
// otherwise proceeds anonymously. It never rejects a request.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, reject := bearerToken(r)
		if reject != "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.resolver.Resolve(r.Context(), token)
		if err != nil {
			if service.KindOf(err) != service.KindUnauthenticated {
				slog.Warn("optional auth: resolve identity failed", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFromCtx extracts the caller from the request context.
// Returns nil if the request is anonymous.
func IdentityFromCtx(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(IdentityKey).(*models.Identity)
	return identity
}
