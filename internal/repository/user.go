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

var userColumns = []string{"id", "email", "password_hashed", "name", "is_admin", "created_at"}

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db, sb: database.Builder(db)}
}

// Create inserts a new user and reloads it with database defaults filled in.
// A taken email surfaces as model.ErrDuplicateEmail.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query, args, err := r.sb.Insert("users").
		Columns("email", "password_hashed", "name", "is_admin").
		Values(u.Email, u.PasswordHashed, u.Name, u.IsAdmin).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByEmail retrieves a user by their normalized email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

// ExistsByEmail checks if an email is already registered
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build email existence query: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return n > 0, nil
}

// List returns every user, oldest first.
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users: %w", err)
	}

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) getOne(ctx context.Context, where sq.Eq) (*model.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user: %w", err)
	}

	var u model.User
	err = r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
