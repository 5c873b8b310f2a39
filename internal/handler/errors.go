package handler

import (
	"errors"
	"log"
	"net/http"

	"hobbyhub/internal/httputil"
	"hobbyhub/internal/model"
)

// writeServiceError maps a service-layer error to its HTTP response.
// Unrecognized errors are logged and reported as 500 with a generic message.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, model.ErrInvalidEmail):
		httputil.WriteBadRequestWithCode(w, httputil.ErrCodeInvalidEmail, "Email address must contain '@'")
	case errors.Is(err, model.ErrValidation):
		httputil.WriteBadRequestWithCode(w, httputil.ErrCodeValidation, err.Error())
	case errors.Is(err, model.ErrDuplicateEmail):
		httputil.WriteConflictWithCode(w, httputil.ErrCodeDuplicateEmail, "Email already registered")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid email or password")
	case errors.Is(err, model.ErrUnauthorized):
		httputil.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, model.ErrForbidden):
		httputil.WriteForbidden(w, "Admin access required")
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrToggleConflict):
		httputil.WriteConflict(w, "Like is being changed by another request, try again")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	default:
		log.Printf("[ERROR] %s: %v", action, err)
		httputil.WriteInternalError(w, "Failed to "+action)
	}
}
