package model

import (
	"errors"
	"time"
)

// Like links one user to one post. At most one exists per (user, post).
type Like struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LikeState is the per-(user, post) toggle state.
type LikeState string

const (
	LikeStateLiked    LikeState = "liked"
	LikeStateNotLiked LikeState = "unliked"
)

// ToggleResult is the state after a toggle and the post's resulting counter.
type ToggleResult struct {
	State LikeState `json:"status"`
	Likes int       `json:"likes"`
}

// Reconciliation reports a post whose counter was compared with its like rows.
type Reconciliation struct {
	PostID int64 `json:"post_id"`
	Before int   `json:"before"`
	After  int   `json:"after"`
}

// Drifted reports whether the stored counter disagreed with the row count.
func (r Reconciliation) Drifted() bool {
	return r.Before != r.After
}

var (
	// ErrToggleConflict is returned when a toggle kept losing races on the same pair.
	ErrToggleConflict = errors.New("like toggle conflict")

	// Returned by the like repository when another toggle changed the row first.
	ErrAlreadyLiked = errors.New("already liked")
	ErrNotLiked     = errors.New("not liked")
)
