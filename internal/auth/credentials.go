package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"accounting/internal/models"
)

const (
	MinUsernameLen = 4
	MaxUsernameLen = 50
	MinPasswordLen = 4
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

// UserStore is the persistence needed by Credentials.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Credentials registers and authenticates users.
type Credentials struct {
	users UserStore

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentials creates a Credentials backed by users.
func NewCredentials(users UserStore) *Credentials {
	return &Credentials{users: users}
}

// ValidateCredentials checks username and password length limits.
func ValidateCredentials(username, password string) error {
	verr := models.NewValidationError()

	switch n := utf8.RuneCountInString(username); {
	case strings.TrimSpace(username) == "":
		verr.Add("username", "is required")
	case n < MinUsernameLen || n > MaxUsernameLen:
		verr.Add("username", fmt.Sprintf("must be between %d and %d characters", MinUsernameLen, MaxUsernameLen))
	}

	switch {
	case password == "":
		verr.Add("password", "is required")
	case utf8.RuneCountInString(password) < MinPasswordLen:
		verr.Add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	case len(password) > MaxPasswordBytes:
		verr.Add("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}

	return verr.OrNil()
}

// Register creates a user storing only a bcrypt hash of password.
// Surrounding whitespace in username is dropped. It returns
// models.ErrUsernameTaken if the username already exists.
func (c *Credentials) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	existing, err := c.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		return nil, models.ErrUsernameTaken
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// The UNIQUE index still guards against a concurrent registration.
	user, err := c.users.CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user for valid credentials. Unknown usernames and
// wrong passwords both yield models.ErrInvalidCredentials.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := c.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Spend the same bcrypt time as a real comparison.
			CheckPassword(password, c.dummy())
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

func (c *Credentials) dummy() string {
	c.dummyOnce.Do(func() {
		c.dummyHash, _ = HashPassword("no-such-user-placeholder")
	})
	return c.dummyHash
}
