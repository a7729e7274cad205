package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TokenDenylist stores revoked access token ids
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   domain.UserRepository
	jwtManager *security.JWTManager
	denylist   TokenDenylist
}

// NewAuthService creates a new auth service. denylist may be nil, in which
// case logout does not invalidate the access token.
func NewAuthService(
	userRepo domain.UserRepository,
	jwtManager *security.JWTManager,
	denylist TokenDenylist,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		denylist:   denylist,
	}
}

// Signup creates a new user account
func (s *AuthService) Signup(ctx context.Context, input domain.UserCreate) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Check if email already exists
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	hashedPassword, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User signed up")
	return user, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, input.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Refresh refreshes the access token using a refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	return s.issue(user)
}

// Revoke invalidates an access token id until it would have expired
func (s *AuthService) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.denylist == nil || tokenID == "" {
		return nil
	}
	return s.denylist.Revoke(ctx, tokenID, time.Until(expiresAt))
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*domain.TokenPair, error) {
	accessToken, refreshToken, expiresIn, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, displayName(user))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn,
		Name:         displayName(user),
	}, nil
}

// displayName falls back to the local part of the email
func displayName(user *domain.User) string {
	if user.Name != "" {
		return user.Name
	}
	local, _, _ := strings.Cut(user.Email, "@")
	return local
}
