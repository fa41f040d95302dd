package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-backend/internal/apperror"
	"github.com/sakif/blog-backend/internal/auth"
	"github.com/sakif/blog-backend/internal/model"
	"github.com/sakif/blog-backend/internal/repository"
)

// invalidCredentials is the single message for every failed login, so a
// caller cannot tell an unknown email from a wrong password.
const invalidCredentials = "invalid credentials"

// AuthService handles registration, login and token refresh.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// LoginResult is what a successful login hands back to the handler.
type LoginResult struct {
	Token string            `json:"token"`
	User  *model.PublicUser `json:"user"`
}

// NormalizeEmail lower-cases and trims an address. Every lookup and insert
// goes through it so "Alice@X.com " and "alice@x.com" are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns its public view.
//
// Duplicate emails are detected by the store's unique constraint, not by a
// lookup beforehand, so two concurrent registrations cannot both succeed.
// Returns apperror.ErrConflict in that case.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.PublicUser, error) {
	email = NormalizeEmail(email)

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user.Public(), nil
}

// Login verifies credentials and issues a token bound to the user's ID and email.
//
// Unknown email and wrong password both return apperror.ErrUnauthorized with
// the same message. For an unknown email a dummy bcrypt comparison still runs.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// A corrupt stored hash is still a failed login for the caller.
			s.logger.Error("password verification failed",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &LoginResult{Token: token, User: user.Public()}, nil
}

// GetCurrentUser returns the public view of the user behind a validated token.
// Returns apperror.ErrNotFound if the account no longer exists.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*model.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return user.Public(), nil
}

// RefreshToken issues a new token for userID using the email currently stored
// for it. Returns apperror.ErrNotFound if the account no longer exists.
func (s *AuthService) RefreshToken(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.NotFoundMessage("User not found")
		}
		return "", fmt.Errorf("fetching user %s: %w", userID, err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}
	return token, nil
}

// Logout acknowledges a logout request. Tokens are stateless and stay valid
// until they expire; nothing is revoked server-side.
func (s *AuthService) Logout(_ context.Context, userID string) error {
	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}
