package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/server/auth"
	"github.com/modelvault/modelvault/internal/server/config"
)

// Service registers accounts and exchanges credentials for signed tokens.
type Service struct {
	repo                  Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                  repo,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates the account and returns a token so a fresh registration
// is immediately logged in.
func (s *Service) Register(ctx context.Context, login, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	user := &User{Login: login, PasswordHash: hash}
	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrLoginAlreadyExists) {
			return "", common.ErrLoginAlreadyExists
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	return auth.GenerateToken(user.Login, s.jwtSecret, s.tokenValidityDuration)
}

// Login verifies the credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, login, password string) (string, error) {
	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidLoginPassword
		}
		return "", fmt.Errorf("error fetching user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrInvalidLoginPassword
	}

	return auth.GenerateToken(user.Login, s.jwtSecret, s.tokenValidityDuration)
}

// VerifyToken returns the login a bearer token was issued for.
func (s *Service) VerifyToken(token string) (string, error) {
	login, err := auth.GetLoginFromToken(token, s.jwtSecret)
	if err != nil {
		return "", common.ErrInvalidToken
	}
	return login, nil
}
