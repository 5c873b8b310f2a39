package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hobbyhub/internal/httputil"
	"hobbyhub/internal/service"
	"hobbyhub/internal/transport/http/middleware"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// Toggle handles POST /api/like/{id}
// Likes the post if the caller has not liked it yet, otherwise removes the like.
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || postID <= 0 {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	result, err := h.likeService.Toggle(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, err, "toggle like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
