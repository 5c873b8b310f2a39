package middleware

import (
	"context"
	"net/http"
	"strings"

	"hobbyhub/internal/httputil"
	"hobbyhub/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"

	// AccessTokenCookie is the cookie web clients carry the token in
	AccessTokenCookie = "access_token"
)

// CallerResolver maps a raw credential to a caller. Satisfied by service.AuthService.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, credential string) model.Caller
}

// ExtractToken returns the request credential.
// Checks the Authorization header first (API clients), then the cookie (web).
// An empty bearer token falls through to the cookie.
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware rejects requests whose credential does not resolve to a user.
func AuthMiddleware(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			caller := resolver.ResolveCaller(r.Context(), token)
			if caller.IsAnonymous() {
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, caller.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware attaches the caller's ID when the credential is valid
// and lets anonymous requests through unchanged.
func OptionalAuthMiddleware(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				if caller := resolver.ResolveCaller(r.Context(), token); !caller.IsAnonymous() {
					r = r.WithContext(context.WithValue(r.Context(), UserIDKey, caller.UserID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or 0 and false if not found
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// ViewerFromContext returns the caller's ID as a pointer, nil for anonymous requests.
func ViewerFromContext(ctx context.Context) *int64 {
	if userID, ok := GetUserIDFromContext(ctx); ok {
		return &userID
	}
	return nil
}
