package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cellscan/internal/models"
	"cellscan/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cellscan-dummy-password"), bcrypt.DefaultCost)

// AuthService handles user auth logic
type AuthService struct {
	users repository.Users
}

func NewAuthService(repo repository.Users) *AuthService {
	return &AuthService{users: repo}
}

// SignUp hashes password and creates a new user
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return 0, ErrMissingCredentials
	}
	if len(password) > maxPasswordBytes {
		return 0, ErrPasswordTooLong
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}
	id, err := s.users.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return 0, ErrDuplicateUsername
		}
		return 0, err
	}
	return id, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords both
// yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (models.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Identity{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return models.Identity{}, err
	}
	if u == nil {
		_ = verifyPassword(string(dummyHash), password)
		return models.Identity{}, fmt.Errorf("%w: unknown user", ErrInvalidCredentials)
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return models.Identity{}, fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
	}
	return models.Identity{UserID: u.ID, Username: u.Username}, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
