package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altabank/ledger-service/internal/domain"
)

// TransferRepository implements domain.TransferRepository using PostgreSQL.
// The transfers table is append-only: no update or delete methods.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

const transferColumns = `id, sender_id, recipient_id, amount_units, currency_code,
	sender_balance_after_units, recipient_balance_after_units, idempotency_key, created_at`

// Append persists a transfer record exactly once.
func (r *TransferRepository) Append(ctx context.Context, record *domain.TransferRecord) error {
	query := `
		INSERT INTO transfers (
			id, sender_id, recipient_id, amount_units, currency_code,
			sender_balance_after_units, recipient_balance_after_units,
			idempotency_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var err error
	if tx := getTx(ctx); tx != nil {
		_, err = tx.Exec(ctx, query,
			record.ID, record.SenderID, record.RecipientID,
			record.Amount.Units, record.Amount.CurrencyCode,
			record.SenderBalanceAfter.Units, record.RecipientBalanceAfter.Units,
			record.IdempotencyKey, record.CreatedAt,
		)
	} else {
		_, err = r.pool.Exec(ctx, query,
			record.ID, record.SenderID, record.RecipientID,
			record.Amount.Units, record.Amount.CurrencyCode,
			record.SenderBalanceAfter.Units, record.RecipientBalanceAfter.Units,
			record.IdempotencyKey, record.CreatedAt,
		)
	}

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transfer with idempotency key already exists", domain.ErrTransientStore)
		}
		return classify(err)
	}
	return nil
}

// GetByIdempotencyKey retrieves a transfer by idempotency key, or nil if
// none exists.
func (r *TransferRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*domain.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE idempotency_key = $1`

	var row pgx.Row
	if tx := getTx(ctx); tx != nil {
		row = tx.QueryRow(ctx, query, idempotencyKey)
	} else {
		row = r.pool.QueryRow(ctx, query, idempotencyKey)
	}

	record, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return record, nil
}

// ListByAccount returns transfers where the account is sender or recipient,
// most-recent-first.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC`

	var rows pgx.Rows
	var err error
	if tx := getTx(ctx); tx != nil {
		rows, err = tx.Query(ctx, query, accountID)
	} else {
		rows, err = r.pool.Query(ctx, query, accountID)
	}
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var records []*domain.TransferRecord
	for rows.Next() {
		record, err := scanTransfer(rows)
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

func scanTransfer(row pgx.Row) (*domain.TransferRecord, error) {
	var record domain.TransferRecord
	err := row.Scan(
		&record.ID,
		&record.SenderID,
		&record.RecipientID,
		&record.Amount.Units,
		&record.Amount.CurrencyCode,
		&record.SenderBalanceAfter.Units,
		&record.RecipientBalanceAfter.Units,
		&record.IdempotencyKey,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.SenderBalanceAfter.CurrencyCode = record.Amount.CurrencyCode
	record.RecipientBalanceAfter.CurrencyCode = record.Amount.CurrencyCode
	return &record, nil
}
