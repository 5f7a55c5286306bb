package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altabank/ledger-service/internal/domain"
)

// UserRepository implements domain.UserRepository using PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, full_name, email, password_hash, created_at`

// Create persists a new user. Returns domain.ErrUserExists on a username or
// email collision.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, full_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var err error
	if tx := getTx(ctx); tx != nil {
		_, err = tx.Exec(ctx, query,
			user.ID, user.Username, user.FullName, user.Email, user.PasswordHash, user.CreatedAt)
	} else {
		_, err = r.pool.Exec(ctx, query,
			user.ID, user.Username, user.FullName, user.Email, user.PasswordHash, user.CreatedAt)
	}

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return classify(err)
	}
	return nil
}

// GetByEmail retrieves a user by email, or nil if no user exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// GetByID retrieves a user by identifier, or nil if no user exists.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// UpdatePassword replaces the user's password hash. Returns
// domain.ErrAccountNotFound when the user doesn't exist.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`

	var tag pgconn.CommandTag
	var err error
	if tx := getTx(ctx); tx != nil {
		tag, err = tx.Exec(ctx, query, id, passwordHash)
	} else {
		tag, err = r.pool.Exec(ctx, query, id, passwordHash)
	}
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row pgx.Row
	if tx := getTx(ctx); tx != nil {
		row = tx.QueryRow(ctx, query, arg)
	} else {
		row = r.pool.QueryRow(ctx, query, arg)
	}

	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &user, nil
}
