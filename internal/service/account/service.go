package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/pkg/crypto"
)

var (
	// ErrPasswordMismatch is returned when the confirmation differs from the password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrUsernameRequired is returned for blank usernames.
	ErrUsernameRequired = errors.New("username is required")
	// ErrUsernameTaken is returned when the username already has an account.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles sign-up and login.
type Service struct {
	users     repository.UserRepository
	passwords crypto.Passwords
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a Service.
func New(users repository.UserRepository, passwords crypto.Passwords, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{users: users, passwords: passwords, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Signup registers a new account. The confirmation is checked before the
// store is touched, then the username is looked up so duplicates are reported
// without attempting the insert.
func (s Service) Signup(ctx context.Context, username, password, confirm string) (*domain.User, error) {
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	if strings.TrimSpace(username) == "" {
		return nil, ErrUsernameRequired
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	stored, err := s.passwords.Encode(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:  username,
		Password:  stored,
		CreatedAt: s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and returns the matching account.
func (s Service) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := s.passwords.Verify(user.Password, password); err != nil {
		s.logger.Debug("password rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// User resolves a session's user id.
func (s Service) User(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}
