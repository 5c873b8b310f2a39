package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hobbyhub/internal/model"
)

func TestPostService_Create_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	owner := f.user(t, "a@x.com")

	tests := []struct {
		name    string
		req     model.CreatePostRequest
		wantErr error
	}{
		{"missing title", model.CreatePostRequest{Content: "body"}, model.ErrValidation},
		{"blank title", model.CreatePostRequest{Title: "   ", Content: "body"}, model.ErrValidation},
		{"missing content", model.CreatePostRequest{Title: "t"}, model.ErrValidation},
		{"title too long", model.CreatePostRequest{Title: strings.Repeat("a", 201), Content: "body"}, model.ErrValidation},
		{"image url too long", model.CreatePostRequest{Title: "t", Content: "body", ImageURL: "https://x/" + strings.Repeat("a", 500)}, model.ErrValidation},
		{"title at limit", model.CreatePostRequest{Title: strings.Repeat("é", 200), Content: "body"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := f.postSvc.Create(context.Background(), owner, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, post)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, post.ID)
		})
	}
}

func TestPostService_Create(t *testing.T) {
	f := newLedgerFixture(t)
	owner := f.user(t, "a@x.com")

	post, err := f.postSvc.Create(context.Background(), owner, model.CreatePostRequest{
		Title:    "  Hello ",
		Content:  "World",
		ImageURL: "https://cdn.example.com/posts/1.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, owner, post.UserID)
	assert.Equal(t, 0, post.LikeCount)
	assert.Equal(t, "a@x.com", post.AuthorName)
	require.NotNil(t, post.ImageURL)
	assert.Equal(t, "https://cdn.example.com/posts/1.jpg", *post.ImageURL)

	noImage, err := f.postSvc.Create(context.Background(), owner, model.CreatePostRequest{Title: "t", Content: "c", ImageURL: "  "})
	require.NoError(t, err)
	assert.Nil(t, noImage.ImageURL, "blank image url should be stored as NULL")
}

func TestPostService_Create_UnknownOwner(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.postSvc.Create(context.Background(), 77, model.CreatePostRequest{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestPostService_ListAll(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@x.com")
	b := f.user(t, "b@x.com")
	first := f.post(t, a, "first")
	second := f.post(t, b, "second")
	third := f.post(t, a, "third")

	_, err := f.svc.Toggle(ctx, b, first)
	require.NoError(t, err)

	anon, err := f.postSvc.ListAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, anon, 3)
	assert.Equal(t, []int64{third, second, first}, []int64{anon[0].ID, anon[1].ID, anon[2].ID}, "newest first")
	assert.Equal(t, 1, anon[2].LikeCount)
	for _, p := range anon {
		assert.False(t, p.LikedByMe, "anonymous viewers like nothing")
	}

	asB, err := f.postSvc.ListAll(ctx, &b)
	require.NoError(t, err)
	assert.False(t, asB[0].LikedByMe)
	assert.True(t, asB[2].LikedByMe)
}

func TestPostService_ListAll_ManyPosts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large listing in short mode")
	}

	f := newLedgerFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@x.com")

	// More posts than SQLite accepts bound parameters in one statement.
	const n = 33000
	_, err := f.db.Exec(`WITH RECURSIVE seq(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM seq WHERE i < ?)
		INSERT INTO posts (user_id, title, content) SELECT ?, 'post ' || i, 'body' FROM seq`, n, a)
	require.NoError(t, err)

	var newest, oldest int64
	require.NoError(t, f.db.Get(&newest, "SELECT MAX(id) FROM posts"))
	require.NoError(t, f.db.Get(&oldest, "SELECT MIN(id) FROM posts"))

	_, err = f.svc.Toggle(ctx, a, newest)
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, a, oldest)
	require.NoError(t, err)

	posts, err := f.postSvc.ListAll(ctx, &a)
	require.NoError(t, err)
	require.Len(t, posts, n)
	assert.Equal(t, newest, posts[0].ID)
	assert.True(t, posts[0].LikedByMe)
	assert.True(t, posts[n-1].LikedByMe)
	assert.False(t, posts[n/2].LikedByMe)
}

func TestPostService_ListByOwner(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@x.com")
	b := f.user(t, "b@x.com")
	f.post(t, a, "a1")
	f.post(t, b, "b1")
	f.post(t, a, "a2")

	posts, err := f.postSvc.ListByOwner(ctx, a, nil)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a2", posts[0].Title)
	assert.Equal(t, "a1", posts[1].Title)

	empty := f.user(t, "c@x.com")
	posts, err = f.postSvc.ListByOwner(ctx, empty, nil)
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = f.postSvc.ListByOwner(ctx, 999, nil)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
