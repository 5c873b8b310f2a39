package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"hobbyhub/internal/httputil"
	"hobbyhub/internal/model"
)

// UserLookup loads the authenticated user. Satisfied by service.UserService.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// AdminOnly must run after AuthMiddleware. It lets through only users whose
// is_admin flag is set, re-reading the flag on every request.
func AdminOnly(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "Authentication required")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, model.ErrUserNotFound) {
					httputil.WriteUnauthorized(w, "Authentication required")
					return
				}
				log.Printf("[AdminOnly] Failed to load user %d: %v", userID, err)
				httputil.WriteInternalError(w, "Failed to load user")
				return
			}
			if !user.IsAdmin {
				httputil.WriteForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
