package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		email           VARCHAR(150) NOT NULL UNIQUE,
		password_hashed VARCHAR(256) NOT NULL,
		name            VARCHAR(120),
		is_admin        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		title      VARCHAR(200) NOT NULL,
		content    TEXT NOT NULL,
		image_url  VARCHAR(500),
		like_count INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id, id DESC)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		post_id    BIGINT NOT NULL REFERENCES posts(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT unique_like UNIQUE (user_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes (post_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		email           VARCHAR(150) NOT NULL UNIQUE,
		password_hashed VARCHAR(256) NOT NULL,
		name            VARCHAR(120),
		is_admin        BOOLEAN NOT NULL DEFAULT 0,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id),
		title      VARCHAR(200) NOT NULL,
		content    TEXT NOT NULL,
		image_url  VARCHAR(500),
		like_count INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id, id DESC)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id),
		post_id    INTEGER NOT NULL REFERENCES posts(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_like UNIQUE (user_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes (post_id)`,
}

// Migrate creates the users, posts and likes tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := postgresSchema
	if db.DriverName() == DriverSQLite {
		stmts = sqliteSchema
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
