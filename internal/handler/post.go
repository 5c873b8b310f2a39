package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hobbyhub/internal/httputil"
	"hobbyhub/internal/model"
	"hobbyhub/internal/service"
	"hobbyhub/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// List handles GET /api/posts
// Returns every post, newest first. liked_by_me is set when the caller is authenticated.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListAll(r.Context(), middleware.ViewerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.PostListResponse{Posts: nonNilPosts(posts)})
}

// Create handles POST /api/posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreatePostRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err, "create post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.CreatePostResponse{
		Status: "ok",
		PostID: post.ID,
		Post:   post,
	})
}

// ListByUser handles GET /api/users/{id}/posts
func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || ownerID <= 0 {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	posts, err := h.postService.ListByOwner(r.Context(), ownerID, middleware.ViewerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "list user posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.PostListResponse{Posts: nonNilPosts(posts)})
}

// nonNilPosts makes empty listings encode as [] rather than null.
func nonNilPosts(posts []model.Post) []model.Post {
	if posts == nil {
		return []model.Post{}
	}
	return posts
}
