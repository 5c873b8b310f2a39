package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"hobbyhub/internal/model"
	"hobbyhub/internal/repository"
)

// UserService is the credential store: registration, login and admin bootstrap.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new non-admin account.
// The email is lowercased; its only validation is the presence of '@'.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, model.ErrInvalidEmail
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", model.ErrValidation)
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrDuplicateEmail
	}

	return s.create(ctx, email, req.Password, req.Name, false)
}

// CreateAdmin creates an admin account. Only the bootstrap CLI calls this, so the
// '@' and pre-insert duplicate checks are skipped; the unique index still applies.
func (s *UserService) CreateAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, NormalizeEmail(req.Email), req.Password, req.Name, true)
}

// Authenticate verifies an email/password pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			log.Printf("[UserService] Authenticate lookup failed: %v", err)
		}
		// Burn the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all users for the admin panel.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) create(ctx context.Context, email, password, name string, admin bool) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password must be at most 72 bytes", model.ErrValidation)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:          email,
		PasswordHashed: string(hashedPassword),
		IsAdmin:        admin,
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = &name
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	dummyHashOnce  sync.Once
	dummyHashValue []byte
)

func dummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHashValue, _ = bcrypt.GenerateFromPassword([]byte("hobbyhub-dummy-password"), bcrypt.DefaultCost)
	})
	return dummyHashValue
}
