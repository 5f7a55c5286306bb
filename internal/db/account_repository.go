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

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, balance_units, currency_code, created_at, updated_at`

// GetByID retrieves an account by its unique identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.queryRow(ctx, query, id))
}

// Lock acquires a pessimistic lock on the account row for the duration of
// the enclosing transaction, using SELECT ... FOR UPDATE. Must be called
// within a transaction context.
func (r *AccountRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanAccount(r.queryRow(ctx, query, id))
}

// Create persists a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, balance_units, currency_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.exec(ctx, query,
		account.ID,
		account.Balance.Units,
		account.Balance.CurrencyCode,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return classify(err)
	}
	return nil
}

// Update persists changes to an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET balance_units = $2,
		    updated_at = $3
		WHERE id = $1
	`
	tag, err := r.exec(ctx, query, account.ID, account.Balance.Units, account.UpdatedAt)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// queryRow runs the query on the context transaction if one is active,
// otherwise on the pool.
func (r *AccountRepository) queryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if tx := getTx(ctx); tx != nil {
		return tx.QueryRow(ctx, query, args...)
	}
	return r.pool.QueryRow(ctx, query, args...)
}

func (r *AccountRepository) exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if tx := getTx(ctx); tx != nil {
		return tx.Exec(ctx, query, args...)
	}
	return r.pool.Exec(ctx, query, args...)
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.Balance.Units,
		&account.Balance.CurrencyCode,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, classify(err)
	}
	return &account, nil
}
