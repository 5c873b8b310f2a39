package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"hobbyhub/internal/model"
	"hobbyhub/internal/repository"
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	likeRepo repository.LikeRepository
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likeRepo repository.LikeRepository,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		likeRepo: likeRepo,
	}
}

// Create validates and stores a new post owned by ownerID.
func (s *PostService) Create(ctx context.Context, ownerID int64, req model.CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	imageURL := strings.TrimSpace(req.ImageURL)

	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	case content == "":
		return nil, fmt.Errorf("%w: content is required", model.ErrValidation)
	case utf8.RuneCountInString(title) > model.MaxPostTitleLength:
		return nil, fmt.Errorf("%w: title must be at most %d characters", model.ErrValidation, model.MaxPostTitleLength)
	case utf8.RuneCountInString(imageURL) > model.MaxPostImageURLLength:
		return nil, fmt.Errorf("%w: image_url must be at most %d characters", model.ErrValidation, model.MaxPostImageURLLength)
	}

	post := &model.Post{
		UserID:  ownerID,
		Title:   title,
		Content: content,
	}
	if imageURL != "" {
		post.ImageURL = &imageURL
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	log.Printf("[PostService] User %d created post %d", ownerID, post.ID)
	return post, nil
}

// ListAll returns every post, newest first. viewerID, when set, fills LikedByMe.
func (s *PostService) ListAll(ctx context.Context, viewerID *int64) ([]model.Post, error) {
	posts, err := s.postRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return s.withLikeStatus(ctx, posts, viewerID), nil
}

// ListByOwner returns one user's posts, newest first.
func (s *PostService) ListByOwner(ctx context.Context, ownerID int64, viewerID *int64) ([]model.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	posts, err := s.postRepo.List(ctx, &ownerID)
	if err != nil {
		return nil, err
	}
	return s.withLikeStatus(ctx, posts, viewerID), nil
}

// withLikeStatus marks the viewer's liked posts with one batched query.
// A failed lookup leaves every post unmarked rather than failing the listing.
func (s *PostService) withLikeStatus(ctx context.Context, posts []model.Post, viewerID *int64) []model.Post {
	if viewerID == nil || len(posts) == 0 {
		return posts
	}

	postIDs := make([]int64, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	liked, err := s.likeRepo.CheckLikes(ctx, *viewerID, postIDs)
	if err != nil {
		log.Printf("[PostService] Failed to check like status: %v", err)
		return posts
	}

	for i := range posts {
		posts[i].LikedByMe = liked[posts[i].ID]
	}
	return posts
}
