package model

import (
	"errors"
	"time"
)

// Post is a user's post with its denormalized like counter.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	ImageURL  *string   `db:"image_url" json:"image_url"`
	LikeCount int       `db:"like_count" json:"likes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined fields (not in posts table)
	AuthorName string `db:"author_name" json:"author_name"`
	LikedByMe  bool   `db:"-" json:"liked_by_me"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// CreatePostResponse is returned after a post is created.
type CreatePostResponse struct {
	Status string `json:"status"`
	PostID int64  `json:"post_id"`
	Post   *Post  `json:"post"`
}

// PostListResponse wraps a list of posts.
type PostListResponse struct {
	Posts []Post `json:"posts"`
}

// Post field limits, matching the column sizes
const (
	MaxPostTitleLength    = 200
	MaxPostImageURLLength = 500
)

var (
	ErrPostNotFound = errors.New("post not found")
)
