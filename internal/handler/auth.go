package handler

import (
	"net/http"
	"time"

	"hobbyhub/internal/config"
	"hobbyhub/internal/httputil"
	"hobbyhub/internal/model"
	"hobbyhub/internal/service"
	"hobbyhub/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		config:      cfg,
	}
}

// RegisterResponse is returned by POST /api/register.
type RegisterResponse struct {
	Status string      `json:"status"`
	User   *model.User `json:"user"`
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "register user")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{Status: "ok", User: user})
}

// Login handles POST /api/login
// The token is returned in the body for API clients and set as a cookie for the web front-end.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequestWithCode(w, httputil.ErrCodeValidation, "Email and password are required")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "login")
		return
	}

	token, err := h.authService.IssueToken(user.ID)
	if err != nil {
		writeServiceError(w, err, "issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token.Token,
		Path:     "/",
		MaxAge:   token.ExpiresIn,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		User:      user,
		Token:     token.Token,
		ExpiresIn: token.ExpiresIn,
	})
}

// Logout handles POST /api/logout
// Revokes the presented token and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Revoke(r.Context(), middleware.ExtractToken(r)); err != nil {
		writeServiceError(w, err, "logout")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})

	httputil.WriteJSON(w, http.StatusOK, httputil.StatusResponse{Status: "ok"})
}

// Me returns the currently authenticated user
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
