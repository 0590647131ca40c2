package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"shopper/internal/apperror"
	"shopper/internal/models"
	"shopper/internal/repository"
)

const MinPasswordLength = 6

// ErrBadCredentials is returned by Login for an unknown email or a wrong
// password; the two are not distinguished.
var ErrBadCredentials = errors.New("invalid email or password")

type Auth struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAuth(users repository.UserRepository, logger *slog.Logger) *Auth {
	return &Auth{users: users, logger: logger}
}

// Signup creates an account. Field problems come back as a ValidationError.
func (s *Auth) Signup(ctx context.Context, email, password, confirm string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	verr := &apperror.ValidationError{}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		verr.Add("email", "Please enter a valid email.")
	}
	if len(password) < MinPasswordLength {
		verr.Add("password", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	if password != confirm {
		verr.Add("confirmPassword", "Passwords have to match!")
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	u := &models.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "E-Mail exists already, please pick a different one.")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(u.ID)))
	return u, nil
}

// Login checks the credentials and returns the user.
func (s *Auth) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrBadCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if !models.CheckPassword(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// User resolves the session's user id.
func (s *Auth) User(ctx context.Context, id uint) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}
