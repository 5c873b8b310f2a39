package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"hobbyhub/internal/database"
	"hobbyhub/internal/model"
)

type postRepository struct {
	db       *sqlx.DB
	sb       sq.StatementBuilderType
	rowLocks bool
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{
		db:       db,
		sb:       database.Builder(db),
		rowLocks: database.SupportsRowLocks(db),
	}
}

// Create inserts a new post with a zero like counter and reloads it with its author name.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query, args, err := r.sb.Insert("posts").
		Columns("user_id", "title", "content", "image_url").
		Values(post.UserID, post.Title, post.Content, post.ImageURL).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert post: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("insert post: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*post = *created
	return nil
}

// GetByID retrieves a single post with its author name.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query, args, err := r.selectPosts().Where(sq.Eq{"p.id": postID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get post: %w", err)
	}

	var post model.Post
	err = r.db.GetContext(ctx, &post, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// List returns posts ordered by id descending, optionally for a single owner.
func (r *postRepository) List(ctx context.Context, ownerID *int64) ([]model.Post, error) {
	sb := r.selectPosts().OrderBy("p.id DESC")
	if ownerID != nil {
		sb = sb.Where(sq.Eq{"p.user_id": *ownerID})
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list posts: %w", err)
	}

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListIDs returns every post id in ascending order.
func (r *postRepository) ListIDs(ctx context.Context) ([]int64, error) {
	query, args, err := r.sb.Select("id").From("posts").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list post ids: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list post ids: %w", err)
	}
	return ids, nil
}

// LockLikeCount reads the counter inside tx. On Postgres the row stays locked
// until tx ends, so every toggle on the same post serializes here.
func (r *postRepository) LockLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64) (int, error) {
	sb := r.sb.Select("like_count").From("posts").Where(sq.Eq{"id": postID})
	if r.rowLocks {
		sb = sb.Suffix("FOR UPDATE")
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build lock post: %w", err)
	}

	var count int
	err = tx.GetContext(ctx, &count, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock post: %w", err)
	}
	return count, nil
}

// AdjustLikeCount applies delta to like_count, never letting it drop below zero.
func (r *postRepository) AdjustLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error) {
	query, args, err := r.sb.Update("posts").
		Set("like_count", sq.Expr("CASE WHEN like_count + ? < 0 THEN 0 ELSE like_count + ? END", delta, delta)).
		Where(sq.Eq{"id": postID}).
		Suffix("RETURNING like_count").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update like count: %w", err)
	}

	var count int
	err = tx.GetContext(ctx, &count, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update like count: %w", err)
	}
	return count, nil
}

// SetLikeCount overwrites the counter; used by reconciliation.
func (r *postRepository) SetLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, count int) error {
	query, args, err := r.sb.Update("posts").Set("like_count", count).Where(sq.Eq{"id": postID}).ToSql()
	if err != nil {
		return fmt.Errorf("build set like count: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set like count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

func (r *postRepository) selectPosts() sq.SelectBuilder {
	return r.sb.Select(
		"p.id", "p.user_id", "p.title", "p.content", "p.image_url", "p.like_count", "p.created_at",
		"COALESCE(NULLIF(u.name, ''), u.email) AS author_name",
	).From("posts p").Join("users u ON u.id = p.user_id")
}
