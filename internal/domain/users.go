package domain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PasswordHasher hashes and verifies credentials. The hashing algorithm is
// an external collaborator's concern.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues authentication tokens for an account identifier.
type TokenIssuer interface {
	Issue(accountID uuid.UUID) (string, error)
}

// RegisterRequest carries the already-typed registration fields. Boundary
// layers must decode and type-check request bodies before building one.
type RegisterRequest struct {
	Username string
	FullName string
	Email    string
	Password string
}

// UserService handles registration and login. Registering a user also opens
// the user's account with a zero balance, in the same database transaction.
type UserService struct {
	users        UserRepository
	accounts     AccountRepository
	txManager    TransactionManager
	hasher       PasswordHasher
	tokens       TokenIssuer
	currencyCode string
}

// NewUserService creates a new UserService.
func NewUserService(
	users UserRepository,
	accounts AccountRepository,
	txManager TransactionManager,
	hasher PasswordHasher,
	tokens TokenIssuer,
	currencyCode string,
) *UserService {
	return &UserService{
		users:        users,
		accounts:     accounts,
		txManager:    txManager,
		hasher:       hasher,
		tokens:       tokens,
		currencyCode: currencyCode,
	}
}

// Register validates the request, creates the user, and opens the user's
// account with balance zero. Returns ErrUserExists when the email or
// username is already taken.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return err
		}
		return s.accounts.Create(txCtx, NewAccount(user.ID, s.currencyCode))
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies the credentials and returns a signed token whose subject is
// the account identifier.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// ChangePassword verifies the current password and replaces it with the new
// one. The new password must satisfy the length rule and differ from the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: current and new passwords are required", ErrInvalidRequest)
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", ErrInvalidRequest)
	}

	user, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return ErrAccountNotFound
	}

	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, newPassword); err == nil {
		return fmt.Errorf("%w: new password must differ from the current one", ErrInvalidRequest)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, accountID, hash)
}

// Profile retrieves a registered user by account identifier.
func (s *UserService) Profile(ctx context.Context, accountID uuid.UUID) (*User, error) {
	user, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}
	return user, nil
}

// validateRegisterRequest enforces the field rules: names at least 5
// characters, passwords at least 8, well-formed email.
func validateRegisterRequest(req RegisterRequest) error {
	if len(strings.TrimSpace(req.Username)) < 5 {
		return fmt.Errorf("%w: username must be at least 5 characters long", ErrInvalidRequest)
	}
	if len(strings.TrimSpace(req.FullName)) < 5 {
		return fmt.Errorf("%w: name must be at least 5 characters long", ErrInvalidRequest)
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", ErrInvalidRequest)
	}
	if !emailPattern.MatchString(req.Email) {
		return fmt.Errorf("%w: email is not valid", ErrInvalidRequest)
	}
	return nil
}
