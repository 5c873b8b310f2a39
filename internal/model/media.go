package model

import "errors"

const (
	MaxPostImageSizeBytes = 10 * 1024 * 1024 // 10MB per image
	PostImageMaxSide      = 1080
	PostImageQuality      = 85
	PostImageFolder       = "posts"
	PostImageExt          = ".jpg"
	PostImageCacheControl = "public, max-age=31536000" // 1 year
	PresignExpirySeconds  = 15 * 60
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]string{
	ContentTypeJPEG: ".jpg",
	ContentTypePNG:  ".png",
	ContentTypeGIF:  ".gif",
	ContentTypeWebP: ".webp",
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// UploadResult represents the uploaded object location.
// URL is what a post stores as its image_url; Key is the object key inside the bucket.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignImageRequest requests a presigned URL for uploading a post image directly.
type PresignImageRequest struct {
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

// PresignImageResponse returns upload details for direct uploads.
type PresignImageResponse struct {
	UploadURL  string `json:"upload_url"`
	PublicURL  string `json:"public_url"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expires_in"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// ImageExtension returns the file extension for a supported content type.
func ImageExtension(contentType string) string {
	return allowedImageTypes[contentType]
}
