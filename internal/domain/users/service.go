package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Togather-Foundation/localevents/internal/auth"
	"github.com/Togather-Foundation/localevents/internal/domain/ids"
	"github.com/Togather-Foundation/localevents/internal/sanitize"
)

// Error types for user domain operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

const (
	// BcryptCost is the cost factor for bcrypt password hashing
	BcryptCost = 12

	MinPasswordLength = 6
	// MaxPasswordLength is in bytes, the most bcrypt accepts.
	MaxPasswordLength = 72
)

// InputError carries a client-safe message and matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service handles registration and credential checks.
type Service struct {
	repo     Repository
	validate *validator.Validate
	hashCost int
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		hashCost: BcryptCost,
		now:      time.Now,
		logger:   logger.With().Str("component", "users").Logger(),
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// Register creates an account. Unknown roles (including the legacy "user")
// register as attendees.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Name = sanitize.Text(input.Name)
	input.Email = normalizeEmail(input.Email)

	if err := s.validate.Struct(input); err != nil {
		return nil, inputError(err)
	}
	// The validator counts characters; bcrypt rejects more than 72 bytes.
	if len(input.Password) > MaxPasswordLength {
		return nil, &InputError{Message: fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ID:           ids.NewUUID(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         string(auth.NormalizeRole(input.Role)),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Authenticate returns the account matching the credentials. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, input LoginInput) (*User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.Warn().Str("user_id", user.ID).Msg("failed login attempt")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func inputError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &InputError{Message: "invalid registration"}
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &InputError{Message: "name, email and password are required"}
	case "email":
		return &InputError{Message: "email must be a valid address"}
	case "min":
		return &InputError{Message: fmt.Sprintf("%s must be at least %s characters", field, fe.Param())}
	case "max":
		return &InputError{Message: fmt.Sprintf("%s must be at most %s characters", field, fe.Param())}
	}
	return &InputError{Message: "invalid " + field}
}
