// Package auth holds registration, email verification and
// authentication logic.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/lib/jwt"
	"github.com/kdiomande/pronostic-platform/internal/lib/password"
	"github.com/kdiomande/pronostic-platform/internal/lib/reference"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// UserRepository is the user storage contract the service depends on.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ConsumeVerificationToken(ctx context.Context, token string) error
	GetUserStats(ctx context.Context, userUID string) (*models.UserStats, error)
}

// EmailPublisher pushes email events onto the messaging exchange.
type EmailPublisher interface {
	Publish(routingKey string, event models.EmailEvent) error
}

// AuthService handles registration, email verification and JWT issuance.
type AuthService struct {
	users     UserRepository
	jwtMaker  jwt.Maker
	publisher EmailPublisher
	log       *slog.Logger
}

// New creates an AuthService.
func New(users UserRepository, jwtMaker jwt.Maker, publisher EmailPublisher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtMaker:  jwtMaker,
		publisher: publisher,
		log:       log,
	}
}

// Register creates an inactive user with a single-use verification
// token and publishes the verification email event.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	token := reference.NewVerificationToken()
	user := models.User{
		Email:             req.Email,
		PasswordHash:      hashed,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		IsActive:          false,
		VerificationToken: &token,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}
	s.log.Info("registered new user", slog.String("uid", uid))

	event := models.EmailEvent{
		Kind:      models.EmailKindVerification,
		Email:     req.Email,
		FirstName: req.FirstName,
		Token:     token,
	}
	if err := s.publisher.Publish("verification", event); err != nil {
		s.log.Error("failed to publish verification email", sl.Err(err))
	}
	return uid, nil
}

// VerifyEmail consumes the single-use token and activates the account.
// A second use of the same token returns domain.ErrInvalidToken.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.users.ConsumeVerificationToken(ctx, token)
}

// Login checks the password and issues an access/refresh token pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	access, refresh, err := s.jwtMaker.GenerateTokenPair(user.UID, user.Email, user.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.jwtMaker.ParseToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.users.GetUser(ctx, claims.UserUID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	access, refresh, err := s.jwtMaker.GenerateTokenPair(user.UID, user.Email, user.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Profile returns the user's account together with derived stats.
func (s *AuthService) Profile(ctx context.Context, userUID string) (*models.User, *models.UserStats, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.users.GetUserStats(ctx, userUID)
	if err != nil {
		return nil, nil, err
	}
	return user, stats, nil
}
