package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
}

type RepositoryAPI interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	GetUserByID(ctx context.Context, userID int64) (*User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// Service authenticates users and validates their access tokens.
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns an access token
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentialsByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		s.logger.Error("failed to load credentials", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	token, err := s.tokenGenerator.GenerateAccessToken(strconv.FormatInt(creds.UserID, 10), creds.Email, creds.Role)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	if err := s.repo.UpdateLastLogin(ctx, creds.UserID, time.Now()); err != nil {
		s.logger.Warn("failed to record last login", "user_id", creds.UserID, "error", err)
	}

	return AuthTokens{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenGenerator.TTL().Seconds()),
		User:        &User{ID: creds.UserID, Email: creds.Email, Role: creds.Role},
	}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, internal.ErrInvalidToken
	}
	return s.tokenGenerator.ValidateToken(tokenString)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return u, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
