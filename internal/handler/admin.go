package handler

import (
	"net/http"

	"hobbyhub/internal/httputil"
	"hobbyhub/internal/model"
	"hobbyhub/internal/service"
)

type AdminHandler struct {
	userService *service.UserService
}

func NewAdminHandler(userService *service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

// UserListResponse is returned by GET /api/admin/users.
type UserListResponse struct {
	Users []model.User `json:"users"`
}

// ListUsers handles GET /api/admin/users (admin only, enforced by middleware)
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}

	httputil.WriteJSON(w, http.StatusOK, UserListResponse{Users: users})
}
