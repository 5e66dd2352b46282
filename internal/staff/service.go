package staff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// RoleOperator is the default role for new accounts.
	RoleOperator = "operator"
	// RoleAdmin marks accounts allowed to manage other operators.
	RoleAdmin = "admin"
)

// Service manages operator account lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new staff service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new operator account with a hashed password.
func (s *Service) Register(ctx context.Context, creds Credentials) (Account, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" {
		return Account{}, errors.New("email is required")
	}
	if len(creds.Password) < 8 {
		return Account{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(creds.Name),
		Email:        email,
		Role:         RoleOperator,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}

	return account, nil
}

// Authenticate verifies credentials and stamps the login time.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Account, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return Account{}, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(creds.Password)); err != nil {
		return Account{}, errors.New("invalid credentials")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return Account{}, err
	}
	account.LastLogin = &now

	return account, nil
}
