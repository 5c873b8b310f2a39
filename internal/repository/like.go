package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"hobbyhub/internal/database"
	"hobbyhub/internal/model"
)

type likeRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db, sb: database.Builder(db)}
}

func (r *likeRepository) Exists(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("likes").
		Where(sq.Eq{"user_id": userID, "post_id": postID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build like existence query: %w", err)
	}

	var n int
	if err := tx.GetContext(ctx, &n, query, args...); err != nil {
		return false, fmt.Errorf("check like exists: %w", err)
	}
	return n > 0, nil
}

// Create inserts a like record. Returns ErrAlreadyLiked if the pair already exists.
func (r *likeRepository) Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	query, args, err := r.sb.Insert("likes").Columns("user_id", "post_id").Values(userID, postID).ToSql()
	if err != nil {
		return fmt.Errorf("build insert like: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrAlreadyLiked
		}
		if database.IsForeignKeyViolation(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// Delete removes a like record. Returns ErrNotLiked if nothing was deleted.
func (r *likeRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	query, args, err := r.sb.Delete("likes").Where(sq.Eq{"user_id": userID, "post_id": postID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete like: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotLiked
	}
	return nil
}

func (r *likeRepository) CountByPost(ctx context.Context, tx *sqlx.Tx, postID int64) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("likes").Where(sq.Eq{"post_id": postID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count likes: %w", err)
	}

	var n int
	if err := tx.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// checkLikesBatch keeps each IN list well under the bound-parameter limits
// (32766 on SQLite, 65535 on Postgres).
const checkLikesBatch = 1000

// CheckLikes returns a map of post_id -> liked for the given user.
func (r *likeRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}

	for start := 0; start < len(postIDs); start += checkLikesBatch {
		end := min(start+checkLikesBatch, len(postIDs))

		query, args, err := r.sb.Select("post_id").From("likes").
			Where(sq.Eq{"user_id": userID, "post_id": postIDs[start:end]}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build check likes: %w", err)
		}

		var likedIDs []int64
		if err := r.db.SelectContext(ctx, &likedIDs, query, args...); err != nil {
			return nil, fmt.Errorf("check likes: %w", err)
		}
		for _, id := range likedIDs {
			result[id] = true
		}
	}
	return result, nil
}
