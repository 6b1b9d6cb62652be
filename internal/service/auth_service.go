package service

import (
	"context"
	"time"

	"github.com/axis-ops/ticket-service/internal/auth"
	"github.com/axis-ops/ticket-service/internal/config"
)

// AuthService coordinates login against the static account directory.
type AuthService struct {
	directory *auth.Directory
	tokenMgr  *auth.TokenManager
}

// NewAuthService builds the service. Seed accounts come from config.
func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	directory, err := auth.NewDirectory(cfg.Users, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		directory: directory,
		tokenMgr:  auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}, nil
}

// Login authenticates an account and returns a signed token.
func (s *AuthService) Login(_ context.Context, username, password string) (*auth.Account, string, time.Time, error) {
	account, err := s.directory.Authenticate(username, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(account.Username, account.Role, account.Name)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return account, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Directory exposes the account directory for middleware usage.
func (s *AuthService) Directory() *auth.Directory {
	return s.directory
}
