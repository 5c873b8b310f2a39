package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hobbyhub/internal/config"
	"hobbyhub/internal/model"
	"hobbyhub/internal/repository"
)

// TokenRevoker remembers revoked token IDs until the token would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type accessClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthService is the access gate: it issues access tokens and resolves a
// request credential to a caller identity.
type AuthService struct {
	userRepo repository.UserRepository
	revoker  TokenRevoker // nil disables logout revocation
	config   *config.Config
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, revoker TokenRevoker, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		revoker:  revoker,
		config:   cfg,
		now:      time.Now,
	}
}

// IssueToken signs an access token for userID. Without a signing secret in
// legacy mode, the token is the bare user ID and never expires.
func (s *AuthService) IssueToken(userID int64) (*model.TokenResponse, error) {
	if s.config.JWTSecret == "" {
		if s.config.LegacyIDTokens {
			return &model.TokenResponse{Token: strconv.FormatInt(userID, 10)}, nil
		}
		return nil, fmt.Errorf("token signing is disabled: JWT_SECRET is not set")
	}

	now := s.now()
	claims := accessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &model.TokenResponse{
		Token:     signed,
		ExpiresIn: s.config.AccessTokenMaxAge,
	}, nil
}

// ResolveCaller maps a bearer credential to a caller. Any credential that is
// missing, malformed, expired, revoked or unknown resolves to Anonymous.
func (s *AuthService) ResolveCaller(ctx context.Context, credential string) model.Caller {
	if credential == "" {
		return model.Anonymous
	}

	if s.config.LegacyIDTokens {
		if userID, ok := parseLegacyID(credential); ok {
			return s.resolveLegacy(ctx, userID)
		}
	}

	claims, err := s.parse(credential)
	if err != nil {
		return model.Anonymous
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail closed: a token we cannot check is not trusted.
			log.Printf("[AuthService] Revocation check failed for jti=%s: %v", claims.ID, err)
			return model.Anonymous
		}
		if revoked {
			return model.Anonymous
		}
	}

	return model.Caller{UserID: claims.UserID}
}

// RequireAuthenticated resolves credential and rejects anonymous callers.
func (s *AuthService) RequireAuthenticated(ctx context.Context, credential string) (int64, error) {
	caller := s.ResolveCaller(ctx, credential)
	if caller.IsAnonymous() {
		return 0, model.ErrUnauthorized
	}
	return caller.UserID, nil
}

// Revoke invalidates a signed token for the rest of its lifetime.
// Legacy ID tokens cannot be revoked and are ignored.
func (s *AuthService) Revoke(ctx context.Context, credential string) error {
	if s.config.LegacyIDTokens {
		if _, ok := parseLegacyID(credential); ok {
			return nil
		}
	}

	claims, err := s.parse(credential)
	if err != nil {
		return model.ErrUnauthorized
	}

	if s.revoker == nil {
		log.Printf("[AuthService] Logout for user=%d without a revocation store; token stays valid until expiry", claims.UserID)
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) parse(credential string) (*accessClaims, error) {
	if s.config.JWTSecret == "" {
		return nil, errors.New("token verification is disabled")
	}

	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 {
		return nil, errors.New("token has no user_id")
	}
	return claims, nil
}

func (s *AuthService) resolveLegacy(ctx context.Context, userID int64) model.Caller {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			log.Printf("[AuthService] Legacy token lookup failed for user=%d: %v", userID, err)
		}
		return model.Anonymous
	}
	return model.Caller{UserID: userID}
}

// parseLegacyID accepts a bare positive decimal user ID.
func parseLegacyID(credential string) (int64, bool) {
	for _, r := range credential {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(credential, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
