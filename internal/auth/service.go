package auth

import (
	"context"
	"errors"
	"time"

	"github.com/aegis-response/aegis_console/internal/config"
	"github.com/aegis-response/aegis_console/internal/staff"
)

// Service issues and verifies operator session tokens.
type Service struct {
	cfg  config.Config
	repo staff.Repository
}

// NewService builds an auth service over the staff repository.
func NewService(cfg config.Config, repo staff.Repository) *Service {
	return &Service{cfg: cfg, repo: repo}
}

// TokenPair bundles the access and refresh tokens returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues a token pair for an already-authenticated account.
func (s *Service) Login(account staff.Account) (TokenPair, error) {
	access, accessExp, err := s.sign(account, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := s.sign(account, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessExp).Seconds()),
	}, nil
}

func (s *Service) sign(account staff.Account, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := map[string]any{
		"sub":   account.ID,
		"email": account.Email,
		"role":  account.Role,
		"ver":   account.TokenVersion,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := ParseAndVerifyHS256(refreshToken, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", 0, errors.New("invalid refresh token")
	}
	if expired(claims) {
		return "", 0, errors.New("refresh token expired")
	}
	sub, _ := claims["sub"].(string)
	verFloat, _ := claims["ver"].(float64)
	ver := int(verFloat)

	account, err := s.repo.FindByID(ctx, sub)
	if err != nil {
		return "", 0, errors.New("account not found")
	}
	if account.TokenVersion != ver {
		return "", 0, errors.New("token version invalidated")
	}

	accessClaims := map[string]any{
		"sub": sub,
		"ver": ver,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.cfg.AccessTokenTTL).Unix(),
	}
	signed, err := SignHS256(accessClaims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout increments the token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, account.ID, account.TokenVersion+1)
}

func expired(claims map[string]any) bool {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return time.Now().Unix() >= int64(exp)
}
