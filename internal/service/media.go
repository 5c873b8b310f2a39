package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"hobbyhub/internal/config"
	"hobbyhub/internal/model"
)

// MediaService stores post images in Cloudflare R2 through its S3-compatible API.
type MediaService struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if !cfg.MediaEnabled() {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// UploadPostImage validates an upload, fits it inside the post image bounds as
// JPEG and stores it. The returned URL goes into a post's image_url.
func (s *MediaService) UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, model.MaxPostImageSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := fitToJPEG(data, model.PostImageMaxSide, model.PostImageQuality)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", model.PostImageFolder, uuid.NewString(), model.PostImageExt)

	if err := s.putObject(ctx, key, jpegBytes, model.ContentTypeJPEG, model.PostImageCacheControl); err != nil {
		return nil, err
	}

	log.Printf("[MediaService] Uploaded %s (%d bytes)", key, len(jpegBytes))
	return &model.UploadResult{URL: s.objectURL(key), Key: key}, nil
}

// PresignPostImage returns a short-lived PUT URL for uploading an image directly to R2.
// Direct uploads are stored as sent; they are not resized.
func (s *MediaService) PresignPostImage(ctx context.Context, req model.PresignImageRequest) (*model.PresignImageResponse, error) {
	contentType := normalizeContentType(req.ContentType)
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}
	if req.FileSize <= 0 {
		return nil, fmt.Errorf("%w: file_size is required", model.ErrValidation)
	}
	if req.FileSize > model.MaxPostImageSizeBytes {
		return nil, model.ErrFileTooLarge
	}

	key := fmt.Sprintf("%s/%s%s", model.PostImageFolder, uuid.NewString(), model.ImageExtension(contentType))

	presigned, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(req.FileSize),
		CacheControl:  aws.String(model.PostImageCacheControl),
	}, s3.WithPresignExpires(model.PresignExpirySeconds*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &model.PresignImageResponse{
		UploadURL:  presigned.URL,
		PublicURL:  s.objectURL(key),
		Key:        key,
		ExpiresInS: model.PresignExpirySeconds,
	}, nil
}

func (s *MediaService) objectURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	limitedReader := io.LimitReader(file, maxSize+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	contentType = normalizeContentType(contentType)
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	return data, contentType, nil
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// fitToJPEG scales the image down to fit within maxSide x maxSide, keeping its
// aspect ratio, and encodes it as JPEG. Smaller images are not enlarged.
func fitToJPEG(data []byte, maxSide, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", model.ErrInvalidImageType, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxSide || bounds.Dy() > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// putObject uploads bytes to R2 with metadata.
func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}
