package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altabank/ledger-service/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository using
// PostgreSQL. The transactions table is append-only: this type deliberately
// has no update or delete methods.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, account_id, kind, amount_units, currency_code,
	balance_after_units, idempotency_key, created_at`

// Append persists a transaction record exactly once. A duplicate idempotency
// key surfaces as a transient failure so the caller re-reads the recorded
// result.
func (r *TransactionRepository) Append(ctx context.Context, record *domain.TransactionRecord) error {
	query := `
		INSERT INTO transactions (
			id, account_id, kind, amount_units, currency_code,
			balance_after_units, idempotency_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var err error
	if tx := getTx(ctx); tx != nil {
		_, err = tx.Exec(ctx, query,
			record.ID, record.AccountID, string(record.Kind),
			record.Amount.Units, record.Amount.CurrencyCode,
			record.BalanceAfter.Units, record.IdempotencyKey, record.CreatedAt,
		)
	} else {
		_, err = r.pool.Exec(ctx, query,
			record.ID, record.AccountID, string(record.Kind),
			record.Amount.Units, record.Amount.CurrencyCode,
			record.BalanceAfter.Units, record.IdempotencyKey, record.CreatedAt,
		)
	}

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction with idempotency key already exists", domain.ErrTransientStore)
		}
		return classify(err)
	}
	return nil
}

// GetByIdempotencyKey retrieves a record by idempotency key, or nil if none
// exists.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`

	var row pgx.Row
	if tx := getTx(ctx); tx != nil {
		row = tx.QueryRow(ctx, query, idempotencyKey)
	} else {
		row = r.pool.QueryRow(ctx, query, idempotencyKey)
	}

	record, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return record, nil
}

// ListByAccount returns the account's records ordered most-recent-first.
// from (inclusive) and to (exclusive) optionally bound the creation time.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1`
	args := []any{accountID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	var rows pgx.Rows
	var err error
	if tx := getTx(ctx); tx != nil {
		rows, err = tx.Query(ctx, query, args...)
	} else {
		rows, err = r.pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var records []*domain.TransactionRecord
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, classify(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return records, nil
}

func scanTransaction(row pgx.Row) (*domain.TransactionRecord, error) {
	var record domain.TransactionRecord
	var kind string
	err := row.Scan(
		&record.ID,
		&record.AccountID,
		&kind,
		&record.Amount.Units,
		&record.Amount.CurrencyCode,
		&record.BalanceAfter.Units,
		&record.IdempotencyKey,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Kind = domain.TransactionKind(kind)
	record.BalanceAfter.CurrencyCode = record.Amount.CurrencyCode
	return &record, nil
}
