package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"hobbyhub/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	// List returns posts newest first; ownerID narrows to one author.
	List(ctx context.Context, ownerID *int64) ([]model.Post, error)
	ListIDs(ctx context.Context) ([]int64, error)
	// LockLikeCount reads a post's counter, taking a row lock where the database supports it.
	LockLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64) (int, error)
	// AdjustLikeCount adds delta to the counter, flooring at zero, and returns the new value.
	AdjustLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error)
	SetLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, count int) error
}

type LikeRepository interface {
	Exists(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error)
	Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error
	Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error
	CountByPost(ctx context.Context, tx *sqlx.Tx, postID int64) (int, error)
	// CheckLikes checks which posts the user has liked
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
}
