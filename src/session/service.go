package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateIdentity = errors.New("username already registered")
	ErrAuthMismatch      = errors.New("credentials do not match")
)

// ValidationError names the offending field and the message key shown to the user.
type ValidationError struct {
	Field string
	Key   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Key)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AuthError is a login failure; Key distinguishes unknown user from wrong password.
type AuthError struct {
	Key string
}

func (e *AuthError) Error() string { return e.Key }

func (e *AuthError) Unwrap() error { return ErrAuthMismatch }

// MessageKey returns the user-facing message key carried by err, if any.
func MessageKey(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Key
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Key
	}
	if errors.Is(err, ErrDuplicateIdentity) {
		return "signup.duplicate"
	}
	return "error.internal"
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{4,16}$`)
	passwordPattern = regexp.MustCompile(`^.{8,20}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// bcrypt rejects longer inputs.
const maxPasswordBytes = 72

// Validate checks signup fields in order and reports the first failure.
func Validate(username, password, email string) error {
	if !usernamePattern.MatchString(username) {
		return &ValidationError{Field: "username", Key: "signup.username_invalid"}
	}
	if !passwordPattern.MatchString(password) || len(password) > maxPasswordBytes {
		return &ValidationError{Field: "password", Key: "signup.password_invalid"}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Key: "signup.email_invalid"}
	}
	return nil
}

type Service struct {
	repo   Repository
	logger *zap.Logger
	// Cost is the bcrypt work factor.
	Cost int
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, Cost: bcrypt.DefaultCost}
}

func (s *Service) SignUp(ctx context.Context, username, password, email string) (User, error) {
	if err := Validate(username, password, email); err != nil {
		return User{}, err
	}
	exists, err := s.repo.Exists(ctx, username)
	if err != nil {
		return User{}, fmt.Errorf("lookup %s: %w", username, err)
	}
	if exists {
		return User{}, ErrDuplicateIdentity
	}
	u, err := s.newUser(username, password, email)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return User{}, fmt.Errorf("store %s: %w", username, err)
	}
	s.logger.Info("user registered", zap.String("username", username))
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	if username == "" || password == "" {
		return User{}, &ValidationError{Field: "credentials", Key: "auth.missing_fields"}
	}
	u, err := s.repo.Get(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, &AuthError{Key: "auth.unknown_user"}
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup %s: %w", username, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.logger.Info("login rejected", zap.String("username", username))
		return User{}, &AuthError{Key: "auth.password_mismatch"}
	}
	return u, nil
}

type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// Seed registers demo users that are not yet present.
func (s *Service) Seed(ctx context.Context, users []SeedUser) error {
	for _, su := range users {
		exists, err := s.repo.Exists(ctx, su.Username)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", su.Username, err)
		}
		if exists {
			continue
		}
		u, err := s.newUser(su.Username, su.Password, su.Email)
		if err != nil {
			return err
		}
		if err := s.repo.Put(ctx, u); err != nil {
			return fmt.Errorf("store %s: %w", su.Username, err)
		}
		s.logger.Debug("seeded user", zap.String("username", su.Username))
	}
	return nil
}

func (s *Service) newUser(username, password, email string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return User{Username: username, PasswordHash: string(hash), Email: email}, nil
}
