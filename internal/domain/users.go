package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Registration holds the fields a user signs up with.
type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// UserService registers and authenticates users.
type UserService struct {
	users    UserRepository
	hashCost int
	now      func() time.Time
}

// NewUserService creates a new UserService. hashCost <= 0 uses bcrypt.DefaultCost.
func NewUserService(users UserRepository, hashCost int) *UserService {
	if hashCost <= 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &UserService{
		users:    users,
		hashCost: hashCost,
		now:      now,
	}
}

// Register validates the registration, hashes the password and stores the user.
func (s *UserService) Register(ctx context.Context, reg Registration) (*User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = normalizeEmail(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)

	if err := validateRegistration(reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate returns the user whose email and password match.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("email", "email and password required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser returns the user with the given id or ErrUserNotFound.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func validateRegistration(reg Registration) error {
	if reg.Name == "" || reg.Email == "" || reg.Phone == "" || reg.Password == "" {
		return invalid("", "all fields are required")
	}
	if utf8.RuneCountInString(reg.Password) < MinPasswordLength {
		return invalid("password", "password must be at least %d characters", MinPasswordLength)
	}
	if len(reg.Phone) != 10 || strings.Trim(reg.Phone, "0123456789") != "" {
		return invalid("phone", "phone must be 10 digits")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
