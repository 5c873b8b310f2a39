package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"hobbyhub/internal/httputil"
	"hobbyhub/internal/model"
)

// ImageStore uploads post images. Satisfied by service.MediaService.
type ImageStore interface {
	UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	PresignPostImage(ctx context.Context, req model.PresignImageRequest) (*model.PresignImageResponse, error)
}

type MediaHandler struct {
	store ImageStore
}

func NewMediaHandler(store ImageStore) *MediaHandler {
	return &MediaHandler{store: store}
}

// UploadImage handles POST /api/media/images
// Accepts multipart form field "image" and returns the URL to put in a post's image_url.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	maxFormSize := int64(model.MaxPostImageSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case errors.As(err, &maxErr):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			httputil.WriteBadRequestWithCode(w, httputil.ErrCodeValidation, "image is required")
			return
		}
		httputil.WriteBadRequest(w, "Invalid image upload")
		return
	}
	defer file.Close()

	result, err := h.store.UploadPostImage(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, err, "upload image")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// PresignImage handles POST /api/media/images/presign
// Returns a presigned URL for uploading an image directly to R2.
func (h *MediaHandler) PresignImage(w http.ResponseWriter, r *http.Request) {
	var req model.PresignImageRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		httputil.WriteBadRequestWithCode(w, httputil.ErrCodeValidation, "content_type is required")
		return
	}

	res, err := h.store.PresignPostImage(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "create upload URL")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
