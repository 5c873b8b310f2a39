package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hobbyhub/internal/database"
	"hobbyhub/internal/database/dbtest"
	"hobbyhub/internal/model"
	"hobbyhub/internal/repository"
)

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, repo repository.UserRepository, email string, name *string) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHashed: "hash", Name: name}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createPost(t *testing.T, repo repository.PostRepository, ownerID int64, title string) *model.Post {
	t.Helper()
	p := &model.Post{UserID: ownerID, Title: title, Content: "content of " + title}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

// drivers lists the backends the transactional tests run on. Postgres runs are
// skipped unless TEST_DATABASE_URL is set.
var drivers = []string{database.DriverSQLite, database.DriverPostgres}

func inTx(t *testing.T, db *sqlx.DB, fn func(tx *sqlx.Tx)) {
	t.Helper()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

// =============================================================================
// USERS
// =============================================================================

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, repo, "a@x.com", strPtr("Alice"))
	assert.NotZero(t, u.ID)
	assert.False(t, u.IsAdmin)
	assert.False(t, u.CreatedAt.IsZero(), "created_at should be filled by the database")

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
	require.NotNil(t, byID.Name)
	assert.Equal(t, "Alice", *byID.Name)

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	exists, err := repo.ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_NotFound(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := repository.NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := repository.NewUserRepository(db)

	createUser(t, repo, "a@x.com", nil)

	err := repo.Create(context.Background(), &model.User{Email: "a@x.com", PasswordHashed: "hash"})
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)
}

func TestUserRepository_ListAndAdmin(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := repository.NewUserRepository(db)

	createUser(t, repo, "a@x.com", nil)
	admin := &model.User{Email: "root@x.com", PasswordHashed: "hash", IsAdmin: true}
	require.NoError(t, repo.Create(context.Background(), admin))
	assert.True(t, admin.IsAdmin)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.True(t, users[1].IsAdmin)
}

// =============================================================================
// POSTS
// =============================================================================

func TestPostRepository_CreateAndList(t *testing.T) {
	db := dbtest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "a@x.com", strPtr("Alice"))
	bob := createUser(t, users, "b@x.com", nil)

	p1 := createPost(t, posts, alice.ID, "first")
	p2 := createPost(t, posts, bob.ID, "second")
	p3 := createPost(t, posts, alice.ID, "third")

	assert.Equal(t, 0, p1.LikeCount)
	assert.Equal(t, "Alice", p1.AuthorName)
	assert.Equal(t, "b@x.com", p2.AuthorName, "author name falls back to email")
	assert.Nil(t, p1.ImageURL)

	all, err := posts.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{p3.ID, p2.ID, p1.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	mine, err := posts.List(ctx, &alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, p3.ID, mine[0].ID)
	assert.Equal(t, p1.ID, mine[1].ID)

	ids, err := posts.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{p1.ID, p2.ID, p3.ID}, ids)
}

func TestPostRepository_EmptyListIsNotNil(t *testing.T) {
	db := dbtest.NewSQLite(t)
	posts := repository.NewPostRepository(db)

	all, err := posts.List(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestPostRepository_UnknownOwner(t *testing.T) {
	db := dbtest.NewSQLite(t)
	posts := repository.NewPostRepository(db)

	err := posts.Create(context.Background(), &model.Post{UserID: 99, Title: "t", Content: "c"})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestPostRepository_LikeCounter(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			db := dbtest.Open(t, driver)
			users := repository.NewUserRepository(db)
			posts := repository.NewPostRepository(db)
			ctx := context.Background()

			alice := createUser(t, users, "a@x.com", nil)
			p := createPost(t, posts, alice.ID, "counted")

			inTx(t, db, func(tx *sqlx.Tx) {
				count, err := posts.LockLikeCount(ctx, tx, p.ID)
				require.NoError(t, err)
				assert.Equal(t, 0, count)

				count, err = posts.AdjustLikeCount(ctx, tx, p.ID, 1)
				require.NoError(t, err)
				assert.Equal(t, 1, count)

				count, err = posts.AdjustLikeCount(ctx, tx, p.ID, -1)
				require.NoError(t, err)
				assert.Equal(t, 0, count)

				count, err = posts.AdjustLikeCount(ctx, tx, p.ID, -1)
				require.NoError(t, err)
				assert.Equal(t, 0, count, "counter is floored at zero")

				require.NoError(t, posts.SetLikeCount(ctx, tx, p.ID, 5))

				_, err = posts.LockLikeCount(ctx, tx, 999)
				assert.ErrorIs(t, err, model.ErrPostNotFound)

				_, err = posts.AdjustLikeCount(ctx, tx, 999, 1)
				assert.ErrorIs(t, err, model.ErrPostNotFound)

				assert.ErrorIs(t, posts.SetLikeCount(ctx, tx, 999, 1), model.ErrPostNotFound)
			})

			reloaded, err := posts.GetByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, reloaded.LikeCount)
		})
	}
}

// =============================================================================
// LIKES
// =============================================================================

func TestLikeRepository_Lifecycle(t *testing.T) {
	db := dbtest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	likes := repository.NewLikeRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "a@x.com", nil)
	p1 := createPost(t, posts, alice.ID, "one")
	p2 := createPost(t, posts, alice.ID, "two")

	inTx(t, db, func(tx *sqlx.Tx) {
		exists, err := likes.Exists(ctx, tx, alice.ID, p1.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, likes.Create(ctx, tx, alice.ID, p1.ID))

		exists, err = likes.Exists(ctx, tx, alice.ID, p1.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		n, err := likes.CountByPost(ctx, tx, p1.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	liked, err := likes.CheckLikes(ctx, alice.ID, []int64{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{p1.ID: true, p2.ID: false}, liked)

	empty, err := likes.CheckLikes(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	inTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, likes.Delete(ctx, tx, alice.ID, p1.ID))
		assert.ErrorIs(t, likes.Delete(ctx, tx, alice.ID, p1.ID), model.ErrNotLiked)
	})
}

func TestLikeRepository_CheckLikesManyIDs(t *testing.T) {
	db := dbtest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	likes := repository.NewLikeRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "a@x.com", nil)
	p := createPost(t, posts, alice.ID, "one")
	inTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, likes.Create(ctx, tx, alice.ID, p.ID))
	})

	// Past the bound-parameter limit, with the liked post in the last batch.
	ids := make([]int64, 0, 40001)
	for i := int64(0); i < 40000; i++ {
		ids = append(ids, 100000+i)
	}
	ids = append(ids, p.ID)

	liked, err := likes.CheckLikes(ctx, alice.ID, ids)
	require.NoError(t, err)
	assert.Len(t, liked, len(ids))
	assert.True(t, liked[p.ID])
	assert.False(t, liked[100000])
}

func TestLikeRepository_UniquePair(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			db := dbtest.Open(t, driver)
			users := repository.NewUserRepository(db)
			posts := repository.NewPostRepository(db)
			likes := repository.NewLikeRepository(db)
			ctx := context.Background()

			alice := createUser(t, users, "a@x.com", nil)
			p := createPost(t, posts, alice.ID, "one")

			inTx(t, db, func(tx *sqlx.Tx) {
				require.NoError(t, likes.Create(ctx, tx, alice.ID, p.ID))
			})

			tx, err := db.BeginTxx(ctx, nil)
			require.NoError(t, err)
			defer tx.Rollback()

			err = likes.Create(ctx, tx, alice.ID, p.ID)
			assert.ErrorIs(t, err, model.ErrAlreadyLiked, "the store must reject a second like for the same pair")
		})
	}
}

func TestPostRepository_LockLikeCountBlocksConcurrentToggle(t *testing.T) {
	db := dbtest.NewPostgres(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "a@x.com", nil)
	p := createPost(t, posts, alice.ID, "contended")

	first, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer first.Rollback()

	_, err = posts.LockLikeCount(ctx, first, p.ID)
	require.NoError(t, err)

	seen := make(chan int, 1)
	go func() {
		second, err := db.BeginTxx(ctx, nil)
		if !assert.NoError(t, err) {
			seen <- -1
			return
		}
		defer second.Rollback()

		count, err := posts.LockLikeCount(ctx, second, p.ID)
		assert.NoError(t, err)
		seen <- count
	}()

	select {
	case <-seen:
		t.Fatal("second transaction read the row while it was locked")
	case <-time.After(200 * time.Millisecond):
	}

	_, err = posts.AdjustLikeCount(ctx, first, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, first.Commit())

	select {
	case count := <-seen:
		assert.Equal(t, 1, count, "the waiter reads the committed counter")
	case <-time.After(5 * time.Second):
		t.Fatal("second transaction never acquired the row lock")
	}
}
